package extract

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_SectionText(t *testing.T) {
	e := newTestExtractor()

	result := e.Extract(textDoc("3 Kitchen-Tile 1,989.40"))

	require.Len(t, result.Items, 1)
	assert.Equal(t, "3. Kitchen Tile", result.Items[0].Item)
	assert.Equal(t, 1, result.Items[0].Quantity)
	assert.True(t, result.Items[0].UnitPrice.Equal(decimal.RequireFromString("1989.40")))
	assert.Equal(t, SourceMainSections, result.Source)
	assert.False(t, result.Source.Fabricated())
}

func TestExtract_TotalOnly(t *testing.T) {
	e := newTestExtractor()

	result := e.Extract(textDoc("Total $5,000.00"))

	require.Len(t, result.Items, 1)
	assert.Equal(t, "1. Complete Project", result.Items[0].Item)
	assert.True(t, result.Items[0].UnitPrice.Equal(decimal.RequireFromString("5000.00")))
	assert.Equal(t, SourceTotal, result.Source)
	assert.Equal(t, "5000.00", result.Customer.Total)
}

func TestExtract_TablesWin(t *testing.T) {
	e := newTestExtractor()

	doc := Document{Pages: []Page{{
		Text: "3 Kitchen-Tile 1,989.40",
		Tables: []Table{{
			{"Item", "Qty", "Price"},
			{"Tile work", "2", "$1,989.40"},
		}},
	}}}
	result := e.Extract(doc)

	require.Len(t, result.Items, 1)
	assert.Equal(t, "Tile work", result.Items[0].Item)
	assert.Equal(t, SourceTables, result.Source)
	// Table success short-circuits the text cascade entirely.
	require.Len(t, result.Attempts, 1)
	assert.Equal(t, SourceTables, result.Attempts[0].Source)
}

func TestExtract_NormalizesRawRecords(t *testing.T) {
	e := newTestExtractor()

	doc := Document{Pages: []Page{{
		Tables: []Table{{
			{"Item", "Qty", "Price"},
			{"Tile work", "approx 2", "$1,989.40"},
			{"Site visit", "1", "$0.00"},
		}},
	}}}
	result := e.Extract(doc)

	// Raw records pass through the same validation regardless of strategy:
	// loose quantities are coerced and zero-priced rows are dropped.
	require.Len(t, result.Items, 1)
	assert.Equal(t, "Tile work", result.Items[0].Item)
	assert.Equal(t, 2, result.Items[0].Quantity)
	assert.Equal(t, SourceTables, result.Source)
}

func TestExtract_CascadeStopsAtFirstHit(t *testing.T) {
	e := newTestExtractor()

	result := e.Extract(textDoc("Custom Cabinets: $4,500.00"))

	assert.Equal(t, SourceGeneric, result.Source)
	require.Len(t, result.Attempts, 3)
	assert.Equal(t, SourceTables, result.Attempts[0].Source)
	assert.Equal(t, 0, result.Attempts[0].Items)
	assert.Equal(t, SourceMainSections, result.Attempts[1].Source)
	assert.Equal(t, 0, result.Attempts[1].Items)
	assert.Equal(t, SourceGeneric, result.Attempts[2].Source)
	assert.Equal(t, 1, result.Attempts[2].Items)
}

func TestExtract_DefaultsWhenNothingMatches(t *testing.T) {
	e := newTestExtractor()

	result := e.Extract(textDoc("Bill To\nJohn Smith\nEstimate ES-200"))

	assert.Equal(t, SourceDefaults, result.Source)
	assert.True(t, result.Source.Fabricated())
	require.Len(t, result.Items, len(HouzzDefaults().Items))
	assert.Equal(t, "1. Kitchen Demo", result.Items[0].Item)
	assert.True(t, result.Total.Equal(SumUnitPrices(result.Items)))

	// Customer fields still come from the document even when items do not.
	assert.Equal(t, "John Smith", result.Customer.CustomerName)
	assert.Equal(t, "ES-200", result.Customer.EstimateNumber)
}

func TestExtract_TotalMatchesItemSum(t *testing.T) {
	e := newTestExtractor()

	text := strings.Join([]string{
		"1 Kitchen-Demo 2,574.00",
		"2 Kitchen-Cabinetry 9,931.60",
	}, "\n")
	result := e.Extract(textDoc(text))

	require.Len(t, result.Items, 2)
	assert.True(t, result.Total.Equal(decimal.RequireFromString("12505.60")))
}

func TestFailureResult(t *testing.T) {
	e := newTestExtractor()

	result := e.FailureResult()

	assert.Empty(t, result.Items)
	assert.Equal(t, SourceNone, result.Source)
	assert.True(t, result.Total.IsZero())
	assert.Equal(t, "Mary Sue Mugge", result.Customer.CustomerName)
	assert.ElementsMatch(t,
		[]string{"customer_name", "estimate_number", "date", "total"},
		result.Customer.Defaulted)
}

func BenchmarkExtract(b *testing.B) {
	e := newTestExtractor()
	doc := textDoc(strings.Join([]string{
		"Bill To",
		"John Smith",
		"Estimate ES-200",
		"1 Kitchen-Demo 2,574.00",
		"2 Kitchen-Cabinetry 9,931.60",
		"Total $12,505.60",
	}, "\n"))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.Extract(doc)
	}
}
