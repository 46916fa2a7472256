// Package docparse materializes PDF files into the per-page text and
// tables consumed by the extraction pipeline. Text comes from the PDF
// content streams; pages that carry no text but do carry image streams are
// handed to OCR when it is compiled in.
package docparse

import (
	"errors"
	"log/slog"
)

// ErrNoContent is returned when a document yields neither text nor tables.
// Callers treat it as "unreadable document", not as a fatal error.
var ErrNoContent = errors.New("docparse: no readable content")

// ErrOCRNotEnabled is returned for image-only pages when OCR support was
// not compiled in. Rebuild with -tags ocr (requires Tesseract installed)
// to enable it.
var ErrOCRNotEnabled = errors.New("docparse: ocr support not enabled; rebuild with -tags ocr")

// Parser turns files on disk into extraction documents.
type Parser struct {
	logger *slog.Logger
}

// New creates a Parser.
func New(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger}
}
