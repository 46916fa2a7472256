package extract

import (
	"regexp"
	"strings"

	"github.com/cloudflare/ahocorasick"
	"github.com/shopspring/decimal"

	"github.com/Faitltd/houzz-to-zoho/pkg/money"
)

// Header keywords recognized in a line-item table, in matcher order.
var headerKeywords = []string{"item", "description", "quantity", "qty", "price", "total"}

const (
	kwItem = iota
	kwDescription
	kwQuantity
	kwQty
	kwPrice
	kwTotal
)

var (
	currencyCellRe = regexp.MustCompile(`\$?([0-9,.]+\.\d{2})`)
	looseThreshold = decimal.NewFromInt(100)
)

// headerMatcher finds line-item header keywords inside cell text. All
// keywords are matched in a single pass over each cell.
type headerMatcher struct {
	m *ahocorasick.Matcher
}

func newHeaderMatcher() *headerMatcher {
	return &headerMatcher{m: ahocorasick.NewStringMatcher(headerKeywords)}
}

func (h *headerMatcher) hits(cell string) map[int]bool {
	found := h.m.Match([]byte(strings.ToLower(cell)))
	if len(found) == 0 {
		return nil
	}
	hits := make(map[int]bool, len(found))
	for _, idx := range found {
		hits[idx] = true
	}
	return hits
}

// tableColumns holds resolved column indices; -1 means the column is absent.
type tableColumns struct {
	item, desc, qty, price int
}

// resolveColumns inspects a header row for item/description/quantity/price
// columns. The table only qualifies as a line-item table when an item
// column exists.
func (h *headerMatcher) resolveColumns(header []string) (tableColumns, bool) {
	cols := tableColumns{item: -1, desc: -1, qty: -1, price: -1}
	for i, cell := range header {
		if cell == "" {
			continue
		}
		hits := h.hits(cell)
		if len(hits) == 0 {
			continue
		}
		if cols.item < 0 && hits[kwItem] {
			cols.item = i
		}
		if cols.desc < 0 && hits[kwDescription] {
			cols.desc = i
		}
		if cols.qty < 0 && (hits[kwQuantity] || hits[kwQty]) {
			cols.qty = i
		}
		if cols.price < 0 && (hits[kwPrice] || hits[kwTotal]) {
			cols.price = i
		}
	}
	return cols, cols.item >= 0
}

func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func rowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// extractTable mines one table using its header row. Rows without an item
// label or a positive price are skipped, which naturally filters subtotal
// and note rows that slip into matching tables.
func (e *Extractor) extractTable(t Table) []Record {
	if len(t) <= 1 {
		return nil
	}
	cols, ok := e.headers.resolveColumns(t[0])
	if !ok {
		return nil
	}

	var records []Record
	for _, row := range t[1:] {
		if len(row) == 0 || rowEmpty(row) {
			continue
		}
		item := cellAt(row, cols.item)
		priceCell := cellAt(row, cols.price)
		if item == "" || !money.ParseLoose(priceCell).IsPositive() {
			continue
		}
		records = append(records, Record{
			Item:        item,
			Description: cellAt(row, cols.desc),
			Quantity:    cellAt(row, cols.qty),
			UnitPrice:   priceCell,
		})
	}
	return records
}

// extractTableLoose is the fallback table mode for grids without a usable
// header row: scan each row's cells in reverse for the last currency-shaped
// value and treat the leading cells as item name and description. The
// magnitude threshold keeps quantities and item codes from being read as
// prices.
func (e *Extractor) extractTableLoose(t Table) []Record {
	var records []Record
	for _, row := range t {
		if len(row) == 0 || rowEmpty(row) {
			continue
		}
		if strings.Contains(strings.ToLower(strings.Join(row, " ")), "description") {
			continue
		}

		var priceCell string
		for i := len(row) - 1; i >= 0; i-- {
			if m := currencyCellRe.FindStringSubmatch(row[i]); m != nil {
				priceCell = m[1]
				break
			}
		}
		if priceCell == "" || !money.ParseLoose(priceCell).GreaterThan(looseThreshold) {
			continue
		}

		item := cellAt(row, 0)
		if item == "" {
			continue
		}
		desc := ""
		if len(row) > 1 {
			desc = cellAt(row, 1)
		}
		if desc == "" {
			desc = "Item from table: " + item
		}
		records = append(records, Record{
			Item:        item,
			Description: desc,
			Quantity:    "1",
			UnitPrice:   priceCell,
		})
	}
	return records
}

// extractTables runs the header-based mode over every table and falls back
// to the loose currency-scan mode when no table had a recognizable header.
func (e *Extractor) extractTables(tables []Table) []Record {
	var records []Record
	for _, t := range tables {
		records = append(records, e.extractTable(t)...)
	}
	if len(records) > 0 {
		return records
	}
	for _, t := range tables {
		records = append(records, e.extractTableLoose(t)...)
	}
	return records
}
