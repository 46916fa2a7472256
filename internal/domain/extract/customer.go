package extract

import (
	"log/slog"
	"regexp"
	"strings"
)

// Per-field pattern cascades. Order matters: several patterns can match the
// same text with different captures, and the first declared wins.
var (
	customerNamePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?s)Bill To[:\s]+(.*?)(?:\n\n|\n[A-Z]|Estimate|$)`),
		regexp.MustCompile(`(?s)Customer[:\s]+(.*?)(?:\n\n|\n[A-Z]|Estimate|$)`),
		regexp.MustCompile(`(?s)Client[:\s]+(.*?)(?:\n\n|\n[A-Z]|Address|Phone|Email|$)`),
		regexp.MustCompile(`(?s)Prepared For[:\s]+(.*?)(?:\n\n|\n[A-Z]|Estimate|$)`),
		regexp.MustCompile(`(?m)^([A-Z][a-z]+ [A-Z][a-z]+)$`),
	}

	estimateNumberPatterns = []*regexp.Regexp{
		regexp.MustCompile(`Estimate\s+([A-Z0-9-]+)`),
		regexp.MustCompile(`Estimate Number[:\s]+([A-Z0-9-]+)`),
		regexp.MustCompile(`ES-(\d+)`),
		regexp.MustCompile(`#\s*([A-Z0-9-]+)`),
	}

	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`Date[:\s]+([^\n]+)`),
		regexp.MustCompile(`(\d{1,2}/\d{1,2}/\d{2,4})`),
		regexp.MustCompile(`([A-Z][a-z]+ \d{1,2},? \d{4})`),
	}

	totalPatterns = []*regexp.Regexp{
		regexp.MustCompile(`Total\s+\$?([0-9,.]+\.\d{2})`),
		regexp.MustCompile(`Total Amount\s+\$?([0-9,.]+\.\d{2})`),
		regexp.MustCompile(`Balance Due\s+\$?([0-9,.]+\.\d{2})`),
		regexp.MustCompile(`Grand Total\s+\$?([0-9,.]+\.\d{2})`),
	}

	subtotalAmountRe = regexp.MustCompile(`Subtotal\s+\$?([0-9,.]+\.\d{2})`)

	phoneRe   = regexp.MustCompile(`(?:Phone|Tel)[:\s]+(\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4})`)
	emailRe   = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	addressRe = regexp.MustCompile(`(?s)(?:Address|Location)[:\s]+(.*?)(?:\n\n|\n[A-Z]|Phone|Email|$)`)

	whitespaceRe = regexp.MustCompile(`\s+`)
)

// firstMatch evaluates a pattern cascade against text and returns the first
// capture, trimmed.
func firstMatch(text string, patterns []*regexp.Regexp) (string, bool) {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(text); m != nil {
			v := strings.TrimSpace(m[1])
			if v != "" {
				return v, true
			}
		}
	}
	return "", false
}

func normalizeSpace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// customerNameFromTables looks through first-page tables for a "Bill To" /
// "Customer" row and takes the adjacent cell as the name.
func customerNameFromTables(tables []Table) string {
	for _, t := range tables {
		if len(t) < 2 {
			continue
		}
		for _, row := range t {
			if len(row) < 2 {
				continue
			}
			for _, cell := range row {
				lower := strings.ToLower(cell)
				if strings.Contains(lower, "bill to") || strings.Contains(lower, "customer") {
					if name := strings.TrimSpace(row[1]); name != "" {
						return name
					}
				}
			}
		}
	}
	return ""
}

// ExtractCustomer mines the document for customer name, estimate number,
// date and total, plus best-effort phone, email and address. Every required
// field is populated: whatever the cascades cannot resolve comes from the
// default profile and is listed in Defaulted.
func (e *Extractor) ExtractCustomer(doc Document) CustomerInfo {
	allText := doc.Text()
	firstPage := doc.FirstPageText()

	info := CustomerInfo{}

	name := customerNameFromTables(doc.FirstPageTables())
	if name == "" {
		name, _ = firstMatch(firstPage, customerNamePatterns)
	}
	if name != "" {
		info.CustomerName = normalizeSpace(name)
	} else {
		info.CustomerName = e.profile.CustomerName
		info.Defaulted = append(info.Defaulted, "customer_name")
	}

	if num, ok := firstMatch(allText, estimateNumberPatterns); ok {
		info.EstimateNumber = num
	} else {
		info.EstimateNumber = e.profile.EstimateNumber
		info.Defaulted = append(info.Defaulted, "estimate_number")
	}

	if date, ok := firstMatch(firstPage, datePatterns); ok {
		info.Date = date
	} else {
		info.Date = e.profile.Date
		info.Defaulted = append(info.Defaulted, "date")
	}

	if total, ok := firstMatch(allText, totalPatterns); ok {
		info.Total = strings.ReplaceAll(total, ",", "")
	} else if m := subtotalAmountRe.FindStringSubmatch(allText); m != nil {
		info.Total = strings.ReplaceAll(m[1], ",", "")
		info.Subtotal = info.Total
	} else {
		info.Total = e.profile.Total
		info.Defaulted = append(info.Defaulted, "total")
	}

	if m := phoneRe.FindStringSubmatch(allText); m != nil {
		info.Phone = m[1]
	}
	if m := emailRe.FindString(allText); m != "" {
		info.Email = m
	}
	if m := addressRe.FindStringSubmatch(allText); m != nil {
		info.Address = normalizeSpace(m[1])
	}

	e.logger.Debug("extracted customer info",
		slog.String("customer", info.CustomerName),
		slog.String("estimate_number", info.EstimateNumber),
		slog.Any("defaulted", info.Defaulted),
	)
	return info
}
