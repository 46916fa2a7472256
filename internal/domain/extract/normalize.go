package extract

import (
	"regexp"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/Faitltd/houzz-to-zoho/pkg/money"
)

var firstIntRe = regexp.MustCompile(`\d+`)

// Builder accumulates raw records from the strategies and produces the
// final normalized items in a single validation pass.
type Builder struct {
	records []Record
}

// Append adds raw records to the builder.
func (b *Builder) Append(records ...Record) {
	b.records = append(b.records, records...)
}

// Len returns the number of accumulated raw records.
func (b *Builder) Len() int { return len(b.records) }

// Items normalizes and filters the accumulated records.
func (b *Builder) Items() []LineItem {
	return Normalize(b.records)
}

// coerceQuantity extracts the first integer-looking substring and defaults
// to 1 on anything malformed or non-positive. It never fails.
func coerceQuantity(s string) int {
	m := firstIntRe.FindString(s)
	if m == "" {
		return 1
	}
	n, err := strconv.Atoi(m)
	if err != nil || n <= 0 {
		return 1
	}
	return n
}

// Normalize coerces raw records into the uniform line-item shape. Quantity
// parse failures default to 1, price parse failures to 0, and every record
// whose price ends up non-positive is dropped. This is the one filter
// applied regardless of which strategy produced the records.
func Normalize(records []Record) []LineItem {
	items := make([]LineItem, 0, len(records))
	for _, r := range records {
		item := LineItem{
			Item:        r.Item,
			Description: r.Description,
			Quantity:    coerceQuantity(r.Quantity),
			UnitPrice:   money.ParseLoose(r.UnitPrice),
		}
		if !item.UnitPrice.IsPositive() {
			continue
		}
		items = append(items, item)
	}
	return items
}

// NormalizeItems re-validates already-typed items. Running it over the
// output of Normalize is a no-op.
func NormalizeItems(items []LineItem) []LineItem {
	out := make([]LineItem, 0, len(items))
	for _, item := range items {
		if item.Quantity <= 0 {
			item.Quantity = 1
		}
		if !item.UnitPrice.IsPositive() {
			continue
		}
		out = append(out, item)
	}
	return out
}

// SumUnitPrices returns the sum of unit prices across items.
func SumUnitPrices(items []LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.UnitPrice)
	}
	return sum
}
