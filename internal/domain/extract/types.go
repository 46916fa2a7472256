// Package extract recovers structured estimate data from loosely formatted
// documents. It is a best-effort pipeline: a cascade of table and text
// strategies is tried in order of reliability, and the first one that
// produces any line items wins. The package never fails visibly: malformed
// input degrades to the injected default profile instead of an error.
package extract

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Table is an ordered grid of cell strings as produced by the document
// parsing collaborator. Cells may be empty.
type Table [][]string

// Page is one page of a parsed document.
type Page struct {
	Text   string
	Tables []Table
}

// Document is the extractor's input: pages of already-materialized text and
// tables. OCR-sourced documents carry text only.
type Document struct {
	Pages []Page
}

// Text joins the text of all pages with newlines.
func (d Document) Text() string {
	parts := make([]string, 0, len(d.Pages))
	for _, p := range d.Pages {
		parts = append(parts, p.Text)
	}
	return strings.Join(parts, "\n")
}

// FirstPageText returns the text of the first page, or "" for an empty
// document. Customer headers live on the first page.
func (d Document) FirstPageText() string {
	if len(d.Pages) == 0 {
		return ""
	}
	return d.Pages[0].Text
}

// FirstPageTables returns the tables of the first page.
func (d Document) FirstPageTables() []Table {
	if len(d.Pages) == 0 {
		return nil
	}
	return d.Pages[0].Tables
}

// AllTables returns every table in page order.
func (d Document) AllTables() []Table {
	var tables []Table
	for _, p := range d.Pages {
		tables = append(tables, p.Tables...)
	}
	return tables
}

// LineItem is one priced entry on an estimate. Every item that survives
// normalization has UnitPrice > 0 and Quantity >= 1.
type LineItem struct {
	Item        string
	Description string
	Quantity    int
	UnitPrice   decimal.Decimal
}

// Record is a raw extracted row before normalization. Quantity and price
// are kept as strings so strategies never have to fail on malformed cells.
type Record struct {
	Item        string
	Description string
	Quantity    string
	UnitPrice   string
}

// Source identifies which cascade stage produced the line items of a
// Result. Callers use it to tell genuine extraction from fabricated
// fallback data.
type Source string

const (
	SourceTables       Source = "tables"
	SourceMainSections Source = "main_sections"
	SourceGeneric      Source = "generic"
	SourceSubtotal     Source = "subtotal"
	SourceTotal        Source = "total"
	SourceDefaults     Source = "defaults"
	SourceNone         Source = "none"
)

// Fabricated reports whether the items were invented from the default
// profile rather than read from the document.
func (s Source) Fabricated() bool { return s == SourceDefaults }

// CustomerInfo holds the customer fields mined from a document. Required
// fields are always populated; unresolved ones are filled from the default
// profile and listed in Defaulted. Phone, Email and Address are best-effort
// and may be empty.
type CustomerInfo struct {
	CustomerName   string
	EstimateNumber string
	Date           string
	Total          string
	Subtotal       string
	Phone          string
	Email          string
	Address        string

	// Defaulted names the required fields that fell back to the profile.
	Defaulted []string
}

// UsedDefaults reports whether any required field came from the profile
// instead of the document.
func (c CustomerInfo) UsedDefaults() bool { return len(c.Defaulted) > 0 }

// Attempt records one cascade stage and how many raw records it produced.
// The orchestrator appends one Attempt per stage actually run, which lets
// tests verify the short-circuit behavior.
type Attempt struct {
	Source Source
	Items  int
}

// Result is the extractor's output for one document.
type Result struct {
	Items    []LineItem
	Customer CustomerInfo
	Total    decimal.Decimal
	Source   Source
	Attempts []Attempt
}
