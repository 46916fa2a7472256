package estimate

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faitltd/houzz-to-zoho/internal/domain/extract"
)

func fixedBuilder() *Builder {
	return &Builder{now: func() time.Time {
		return time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	}}
}

func sampleResult() extract.Result {
	return extract.Result{
		Items: []extract.LineItem{
			{Item: "3. Kitchen Tile", Description: "Main category: Kitchen Tile", Quantity: 1, UnitPrice: decimal.RequireFromString("1989.40")},
			{Item: "4. Kitchen Plumbing", Description: "Main category: Kitchen Plumbing", Quantity: 2, UnitPrice: decimal.RequireFromString("3510.65")},
		},
		Customer: extract.CustomerInfo{
			CustomerName:   "John Smith",
			EstimateNumber: "ES-200",
			Date:           "May 15, 2025",
			Total:          "5500.05",
		},
		Source: extract.SourceMainSections,
	}
}

func TestBuild(t *testing.T) {
	b := fixedBuilder()

	t.Run("maps items and customer fields", func(t *testing.T) {
		p := b.Build(sampleResult(), "contact-1")

		assert.Equal(t, "contact-1", p.Estimate.CustomerID)
		assert.Equal(t, "2025-05-15", p.Estimate.Date)
		assert.Equal(t, "ES-200", p.Estimate.ReferenceNumber)
		assert.Equal(t, "Estimate for John Smith. Automatically created from PDF.", p.Estimate.Notes)

		require.Len(t, p.Estimate.LineItems, 2)
		assert.Equal(t, "3. Kitchen Tile", p.Estimate.LineItems[0].Name)
		assert.InDelta(t, 1989.40, p.Estimate.LineItems[0].Rate, 0.001)
		assert.Equal(t, 2, p.Estimate.LineItems[1].Quantity)

		assert.False(t, p.NeedsReview())
	})

	t.Run("unparseable date falls back to today", func(t *testing.T) {
		res := sampleResult()
		res.Customer.Date = "sometime in spring"
		p := b.Build(res, "contact-1")
		assert.Equal(t, "2025-06-01", p.Estimate.Date)
	})

	t.Run("slashed date", func(t *testing.T) {
		res := sampleResult()
		res.Customer.Date = "06/01/2025"
		p := b.Build(res, "contact-1")
		assert.Equal(t, "2025-06-01", p.Estimate.Date)
	})

	t.Run("missing customer name uses generic note", func(t *testing.T) {
		res := sampleResult()
		res.Customer.CustomerName = ""
		p := b.Build(res, "contact-1")
		assert.Equal(t, "Automatically created from Google Drive estimate", p.Estimate.Notes)
	})

	t.Run("fabricated items are flagged", func(t *testing.T) {
		res := sampleResult()
		res.Source = extract.SourceDefaults
		res.Customer.Defaulted = []string{"customer_name", "total"}
		p := b.Build(res, "contact-1")

		assert.True(t, p.NeedsReview())
		require.Len(t, p.Warnings, 2)
		assert.Contains(t, p.Warnings[0], "default profile")
		assert.Contains(t, p.Warnings[1], "customer_name, total")
	})

	t.Run("unreadable document is flagged", func(t *testing.T) {
		res := extract.Result{Source: extract.SourceNone}
		p := b.Build(res, "contact-1")
		assert.True(t, p.NeedsReview())
		assert.Empty(t, p.Estimate.LineItems)
	})
}
