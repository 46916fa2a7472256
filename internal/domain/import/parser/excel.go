package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/Faitltd/houzz-to-zoho/internal/domain/extract"
)

// ExcelParser parses XLSX estimate exports.
type ExcelParser struct {
	config Config
}

// NewExcelParser creates an Excel parser.
func NewExcelParser(config Config) *ExcelParser {
	return &ExcelParser{config: config}
}

// ParseExcel reads and parses line items from an XLSX stream. The header
// row index comes from the config; everything below it is data.
func (p *ExcelParser) ParseExcel(reader io.Reader) (*ParseResult, error) {
	result := &ParseResult{}

	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheetName := p.findEstimateSheet(f)
	if sheetName == "" {
		return nil, fmt.Errorf("no suitable sheet found")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheetName, err)
	}

	headerRow := p.config.HeaderRow
	if headerRow >= len(rows) {
		return result, nil
	}

	colMap := p.mapColumns(rows[headerRow])
	if colMap.item < 0 {
		return nil, fmt.Errorf("sheet %s: no item column found", sheetName)
	}

	for i := headerRow + 1; i < len(rows); i++ {
		row := rows[i]
		rowNum := i + 1 // 1-indexed
		result.TotalRows++

		rec, skip := p.processExcelRow(row, colMap)
		if skip {
			result.SkippedRows++
			continue
		}
		if rec.UnitPrice == "" {
			result.Errors = append(result.Errors, ParseError{
				Row:     rowNum,
				Column:  "price",
				Message: "missing price",
				RawData: strings.Join(row, ","),
			})
			continue
		}
		result.Records = append(result.Records, rec)
		result.ParsedRows++
	}

	return result, nil
}

// findEstimateSheet picks the sheet most likely to hold line items.
func (p *ExcelParser) findEstimateSheet(f *excelize.File) string {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return ""
	}

	preferredNames := []string{
		"estimate", "line items", "items", "sheet1",
	}
	for _, preferred := range preferredNames {
		for _, sheet := range sheets {
			if strings.EqualFold(sheet, preferred) {
				return sheet
			}
		}
	}
	return sheets[0]
}

type columnMap struct {
	item, desc, qty, price int
}

// mapColumns resolves column indices from the header row, preferring
// configured overrides over keyword detection.
func (p *ExcelParser) mapColumns(headers []string) columnMap {
	cm := columnMap{item: -1, desc: -1, qty: -1, price: -1}

	if p.config.ItemColumn >= 0 {
		cm.item = p.config.ItemColumn
	}
	if p.config.DescColumn >= 0 {
		cm.desc = p.config.DescColumn
	}
	if p.config.QtyColumn >= 0 {
		cm.qty = p.config.QtyColumn
	}
	if p.config.PriceColumn >= 0 {
		cm.price = p.config.PriceColumn
	}

	itemKeywords := []string{"item", "product", "name", "service"}
	descKeywords := []string{"description", "details", "notes"}
	qtyKeywords := []string{"quantity", "qty", "units"}
	priceKeywords := []string{"unit price", "price", "rate", "amount", "total"}

	for i, header := range headers {
		h := strings.ToLower(strings.TrimSpace(header))
		if h == "" {
			continue
		}
		if cm.item < 0 && containsAny(h, itemKeywords) {
			cm.item = i
		}
		if cm.desc < 0 && containsAny(h, descKeywords) {
			cm.desc = i
		}
		if cm.qty < 0 && containsAny(h, qtyKeywords) {
			cm.qty = i
		}
		if cm.price < 0 && containsAny(h, priceKeywords) {
			cm.price = i
		}
	}
	return cm
}

// processExcelRow converts one data row into a raw record. The skip return
// marks blank or item-less rows, which are not errors.
func (p *ExcelParser) processExcelRow(row []string, cm columnMap) (extract.Record, bool) {
	getValue := func(idx int) string {
		if idx < 0 || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	item := getValue(cm.item)
	if item == "" {
		return extract.Record{}, true
	}
	return extract.Record{
		Item:        item,
		Description: getValue(cm.desc),
		Quantity:    getValue(cm.qty),
		UnitPrice:   getValue(cm.price),
	}, false
}
