// Package estimate turns extraction results into Zoho Books estimate
// payloads. Fabricated data never travels silently: anything that came
// from fallback defaults instead of the document surfaces as a warning on
// the built payload.
package estimate

import (
	"fmt"
	"strings"
	"time"

	"github.com/Faitltd/houzz-to-zoho/internal/domain/extract"
	"github.com/Faitltd/houzz-to-zoho/pkg/zoho"
)

// Document dates come in long form ("May 15, 2025") on Houzz estimates,
// with slashed dates as a secondary shape.
var dateLayouts = []string{
	"January 2, 2006",
	"January 2 2006",
	"1/2/2006",
	"1/2/06",
}

// Payload is a ready-to-submit estimate plus the provenance warnings a
// caller must not lose.
type Payload struct {
	Estimate zoho.Estimate

	// Warnings flag fabricated or defaulted data in the payload. A
	// non-empty slice means the estimate needs human review even though
	// it was submitted.
	Warnings []string
}

// NeedsReview reports whether any part of the payload was invented rather
// than extracted.
func (p Payload) NeedsReview() bool { return len(p.Warnings) > 0 }

// Builder assembles estimate payloads. The clock is injectable for tests.
type Builder struct {
	now func() time.Time
}

// NewBuilder creates a Builder using the wall clock.
func NewBuilder() *Builder {
	return &Builder{now: time.Now}
}

// Build assembles the Zoho payload for one extraction result, bound to the
// resolved contact.
func (b *Builder) Build(res extract.Result, contactID string) Payload {
	items := make([]zoho.LineItem, 0, len(res.Items))
	for _, item := range res.Items {
		items = append(items, zoho.LineItem{
			Name:        item.Item,
			Description: item.Description,
			Rate:        item.UnitPrice.InexactFloat64(),
			Quantity:    item.Quantity,
		})
	}

	est := zoho.Estimate{
		CustomerID:      contactID,
		Date:            b.estimateDate(res.Customer.Date),
		ReferenceNumber: res.Customer.EstimateNumber,
		Notes:           buildNotes(res.Customer.CustomerName),
		LineItems:       items,
	}

	var warnings []string
	if res.Source.Fabricated() {
		warnings = append(warnings, "line items substituted from the default profile; document yielded none")
	}
	if res.Source == extract.SourceNone {
		warnings = append(warnings, "document was unreadable; estimate has no line items")
	}
	if res.Customer.UsedDefaults() {
		warnings = append(warnings, fmt.Sprintf(
			"customer fields defaulted: %s", strings.Join(res.Customer.Defaulted, ", ")))
	}

	return Payload{Estimate: est, Warnings: warnings}
}

// estimateDate converts a document date to ISO form, falling back to today
// when the document date cannot be parsed.
func (b *Builder) estimateDate(docDate string) string {
	docDate = strings.TrimSpace(docDate)
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, docDate); err == nil {
			return d.Format("2006-01-02")
		}
	}
	return b.now().Format("2006-01-02")
}

func buildNotes(customerName string) string {
	if customerName == "" {
		return "Automatically created from Google Drive estimate"
	}
	return fmt.Sprintf("Estimate for %s. Automatically created from PDF.", customerName)
}
