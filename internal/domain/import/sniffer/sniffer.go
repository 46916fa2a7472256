// Package sniffer detects estimate file formats from content rather than
// trusting file extensions, and probes CSV delimiters.
package sniffer

import (
	"bytes"
	"path/filepath"
	"strings"
)

// Format is a detected file format.
type Format string

const (
	FormatPDF     Format = "pdf"
	FormatExcel   Format = "excel"
	FormatCSV     Format = "csv"
	FormatUnknown Format = "unknown"
)

var (
	pdfMagic = []byte("%PDF")
	// XLSX files are zip archives.
	zipMagic = []byte("PK\x03\x04")
)

// Detect identifies the format from the file name and its leading bytes.
// Content wins over extension: a PDF renamed to .xlsx is still a PDF.
func Detect(name string, head []byte) Format {
	switch {
	case bytes.HasPrefix(head, pdfMagic):
		return FormatPDF
	case bytes.HasPrefix(head, zipMagic):
		return FormatExcel
	}

	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return FormatPDF
	case ".xlsx", ".xls":
		return FormatExcel
	case ".csv", ".tsv":
		return FormatCSV
	}

	if looksLikeCSV(head) {
		return FormatCSV
	}
	return FormatUnknown
}

// DetectDelimiter picks the most frequent candidate delimiter in the first
// line. Comma wins ties.
func DetectDelimiter(head []byte) rune {
	line := head
	if i := bytes.IndexByte(head, '\n'); i >= 0 {
		line = head[:i]
	}

	best, bestCount := ',', bytes.Count(line, []byte{','})
	for _, cand := range []byte{';', '\t'} {
		if n := bytes.Count(line, []byte{cand}); n > bestCount {
			best, bestCount = rune(cand), n
		}
	}
	return best
}

// looksLikeCSV reports whether the head is printable text with at least one
// delimited line.
func looksLikeCSV(head []byte) bool {
	if len(head) == 0 {
		return false
	}
	printable := 0
	for _, b := range head {
		if b == '\n' || b == '\r' || b == '\t' || (b >= 0x20 && b < 0x7f) {
			printable++
		}
	}
	if printable*10 < len(head)*9 {
		return false
	}
	return bytes.ContainsAny(head, ",;\t")
}
