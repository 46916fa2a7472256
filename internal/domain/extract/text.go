package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Faitltd/houzz-to-zoho/pkg/money"
)

// Main sections look like "3 Kitchen-Tile 1,989.40": a section number, a
// hyphenated name and the section total. Addresses and phone numbers also
// match the shape, so matches are filtered by section range and amount.
var (
	mainSectionRe = regexp.MustCompile(`(\d+)\s+([\w-]+)\s+([0-9,.]+\.\d{2})`)
	subsectionRe  = regexp.MustCompile(`(?m)^(\d+)\.(\d+)\s+`)
	allowanceRe   = regexp.MustCompile(`Allowance:\s+\$([0-9,.]+)`)
	genericRe     = regexp.MustCompile(`([\w\s-]+)(?::|-)?\s+\$([0-9,.]+\.\d{2})`)
	subtotalRe    = regexp.MustCompile(`Subtotal\s+\$([0-9,.]+\.\d{2})`)
	totalRe       = regexp.MustCompile(`Total:?\s+\$?([0-9,.]+\.\d{2})`)

	sectionTotalMin = decimal.NewFromInt(100)
)

const (
	minSectionNumber = 1
	maxSectionNumber = 39
)

// textStrategy is one stage of the text cascade. Strategies are kept in an
// explicit ordered list so the cascade order is data, not control flow.
type textStrategy struct {
	source  Source
	extract func(e *Extractor, text string) []Record
}

// textCascade is evaluated in order; the first strategy yielding at least
// one record ends the cascade.
var textCascade = []textStrategy{
	{SourceMainSections, (*Extractor).extractMainSections},
	{SourceGeneric, (*Extractor).extractGeneric},
	{SourceSubtotal, (*Extractor).extractSubtotal},
	{SourceTotal, (*Extractor).extractTotal},
}

type mainSection struct {
	number string
	name   string
	total  string
}

// extractMainSections finds the top-level numbered cost categories and, for
// each one, any subsections carrying an explicit allowance amount.
func (e *Extractor) extractMainSections(text string) []Record {
	var sections []mainSection
	for _, line := range strings.Split(text, "\n") {
		m := mainSectionRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		num, name, total := m[1], m[2], m[3]
		if !sectionNumberInRange(num) {
			continue
		}
		if !money.ParseLoose(total).GreaterThan(sectionTotalMin) {
			continue
		}
		sections = append(sections, mainSection{number: num, name: name, total: total})
	}

	var records []Record
	for _, s := range sections {
		name := strings.TrimSpace(strings.ReplaceAll(s.name, "-", " "))
		records = append(records, Record{
			Item:        fmt.Sprintf("%s. %s", s.number, name),
			Description: "Main category: " + name,
			Quantity:    "1",
			UnitPrice:   s.total,
		})
		records = append(records, e.extractSubsections(text, s.number)...)
	}
	return records
}

func sectionNumberInRange(num string) bool {
	if len(num) > 2 {
		return false
	}
	n := 0
	for _, r := range num {
		n = n*10 + int(r-'0')
	}
	return n >= minSectionNumber && n <= maxSectionNumber
}

// extractSubsections scans the span after each "N.M " marker up to the next
// numbered entry and emits a child item only when the span names an
// explicit allowance amount.
func (e *Extractor) extractSubsections(text, sectionNumber string) []Record {
	markers := subsectionRe.FindAllStringSubmatchIndex(text, -1)
	if markers == nil {
		return nil
	}

	var records []Record
	for i, m := range markers {
		section := text[m[2]:m[3]]
		if section != sectionNumber {
			continue
		}
		sub := text[m[4]:m[5]]

		end := len(text)
		if i+1 < len(markers) {
			end = markers[i+1][0]
		}
		// A following main-section line also terminates the span.
		span := text[m[1]:end]
		if loc := mainSectionRe.FindStringIndex(span); loc != nil {
			span = span[:loc[0]]
		}
		span = strings.TrimSpace(span)
		if span == "" {
			continue
		}

		lines := strings.SplitN(span, "\n", 2)
		name := strings.TrimSpace(lines[0])
		desc := ""
		if len(lines) > 1 {
			desc = strings.TrimSpace(lines[1])
		}

		am := allowanceRe.FindStringSubmatch(span)
		if am == nil || name == "" {
			continue
		}
		if !money.ParseLoose(am[1]).IsPositive() {
			continue
		}
		records = append(records, Record{
			Item:        fmt.Sprintf("%s.%s %s", sectionNumber, sub, name),
			Description: desc,
			Quantity:    "1",
			UnitPrice:   am[1],
		})
	}
	return records
}

// extractGeneric matches free-form "label: $1,234.56" / "label - $1,234.56"
// mentions. Amounts of 100 or less are rejected to bias toward real line
// items, and labels that are themselves totals are left for the dedicated
// subtotal/total fallbacks.
func (e *Extractor) extractGeneric(text string) []Record {
	var records []Record
	for _, m := range genericRe.FindAllStringSubmatch(text, -1) {
		label := strings.Join(strings.Fields(m[1]), " ")
		label = strings.Trim(label, "-: ")
		if label == "" || isTotalLabel(label) {
			continue
		}
		if !money.ParseLoose(m[2]).GreaterThan(sectionTotalMin) {
			continue
		}
		records = append(records, Record{
			Item:        label,
			Description: "Item from PDF: " + label,
			Quantity:    "1",
			UnitPrice:   m[2],
		})
	}
	return records
}

// isTotalLabel reports whether a generic-pattern label is really a document
// total, which must fall through to the subtotal/total strategies.
func isTotalLabel(label string) bool {
	fields := strings.Fields(strings.ToLower(label))
	switch fields[len(fields)-1] {
	case "total", "subtotal", "due", "amount":
		return true
	}
	return false
}

func completeProject(amount string) []Record {
	return []Record{{
		Item:        "1. Complete Project",
		Description: "Full project as described in PDF",
		Quantity:    "1",
		UnitPrice:   amount,
	}}
}

// extractSubtotal synthesizes a single whole-project item from the document
// subtotal.
func (e *Extractor) extractSubtotal(text string) []Record {
	m := subtotalRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	return completeProject(m[1])
}

// extractTotal is the last text strategy: a single whole-project item from
// the document total.
func (e *Extractor) extractTotal(text string) []Record {
	m := totalRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	return completeProject(m[1])
}
