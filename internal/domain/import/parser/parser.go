// Package parser reads estimate line items out of spreadsheet files. CSV
// goes through gocsv struct-based unmarshaling; XLSX goes through excelize
// with header-row column mapping.
package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/Faitltd/houzz-to-zoho/internal/domain/extract"
)

// LineRow is a raw CSV row. The tags cover the column names seen across
// exported estimates (gocsv matches by header name).
type LineRow struct {
	// Item columns
	Item    string `csv:"item"`
	Name    string `csv:"name"`
	Product string `csv:"product"`
	Service string `csv:"service"`

	// Description columns
	Description string `csv:"description"`
	Details     string `csv:"details"`
	Notes       string `csv:"notes"`

	// Quantity columns
	Quantity string `csv:"quantity"`
	Qty      string `csv:"qty"`
	Units    string `csv:"units"`

	// Price columns
	UnitPrice string `csv:"unit price"`
	Price     string `csv:"price"`
	Rate      string `csv:"rate"`
	Amount    string `csv:"amount"`
	Total     string `csv:"total"`
}

// ParseError is a per-row parsing failure.
type ParseError struct {
	Row     int
	Column  string
	Message string
	RawData string
}

func (e ParseError) Error() string {
	return fmt.Sprintf("row %d, column %s: %s", e.Row, e.Column, e.Message)
}

// ParseResult is the outcome of parsing one spreadsheet.
type ParseResult struct {
	Records     []extract.Record
	Errors      []ParseError
	TotalRows   int
	ParsedRows  int
	SkippedRows int
}

// Items normalizes the parsed records into validated line items.
func (r *ParseResult) Items() []extract.LineItem {
	return extract.Normalize(r.Records)
}

// Config configures spreadsheet parsing.
type Config struct {
	Delimiter rune // CSV delimiter; 0 = auto-detect
	HeaderRow int  // 0-based header row index for Excel sheets

	// Column overrides for headerless or oddly named sheets; -1 = auto.
	ItemColumn  int
	DescColumn  int
	QtyColumn   int
	PriceColumn int
}

// DefaultConfig returns a Config with auto-detection everywhere.
func DefaultConfig() Config {
	return Config{
		Delimiter:   0,
		HeaderRow:   0,
		ItemColumn:  -1,
		DescColumn:  -1,
		QtyColumn:   -1,
		PriceColumn: -1,
	}
}

// Parser parses CSV estimate exports.
type Parser struct {
	config Config
}

// NewParser creates a CSV parser.
func NewParser(config Config) *Parser {
	return &Parser{config: config}
}

// ParseCSV reads and parses line items from a CSV stream.
func (p *Parser) ParseCSV(reader io.Reader) (*ParseResult, error) {
	result := &ParseResult{}

	delimiter := p.config.Delimiter
	gocsv.SetCSVReader(func(in io.Reader) gocsv.CSVReader {
		r := csv.NewReader(in)
		if delimiter != 0 {
			r.Comma = delimiter
		}
		r.LazyQuotes = true
		r.TrimLeadingSpace = true
		return r
	})
	// Exported sheets capitalize headers; the tags are lowercase.
	gocsv.SetHeaderNormalizer(strings.ToLower)

	var rows []LineRow
	if err := gocsv.Unmarshal(reader, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}

	result.TotalRows = len(rows)
	for _, row := range rows {
		item := firstNonEmpty(row.Item, row.Name, row.Product, row.Service)
		if item == "" {
			result.SkippedRows++
			continue
		}
		result.Records = append(result.Records, extract.Record{
			Item:        item,
			Description: firstNonEmpty(row.Description, row.Details, row.Notes),
			Quantity:    firstNonEmpty(row.Quantity, row.Qty, row.Units),
			UnitPrice:   firstNonEmpty(row.UnitPrice, row.Price, row.Rate, row.Amount, row.Total),
		})
		result.ParsedRows++
	}

	return result, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
