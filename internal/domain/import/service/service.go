// Package service ties format sniffing and spreadsheet parsing together
// behind a single file-level entry point.
package service

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Faitltd/houzz-to-zoho/internal/domain/import/parser"
	"github.com/Faitltd/houzz-to-zoho/internal/domain/import/sniffer"
)

// ErrUnsupportedFormat is returned for files that are neither spreadsheets
// nor delimited text.
var ErrUnsupportedFormat = errors.New("import: unsupported file format")

// Service parses estimate spreadsheets from disk.
type Service struct {
	config parser.Config
	logger *slog.Logger
}

// New creates an import service.
func New(config parser.Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{config: config, logger: logger}
}

// ParseFile sniffs the file format and parses it with the matching parser.
func (s *Service) ParseFile(path string) (*parser.ParseResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("import: open %s: %w", path, err)
	}
	defer f.Close()

	head := make([]byte, 512)
	n, err := f.Read(head)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("import: read %s: %w", path, err)
	}
	head = head[:n]
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("import: rewind %s: %w", path, err)
	}

	format := sniffer.Detect(filepath.Base(path), head)

	var result *parser.ParseResult
	switch format {
	case sniffer.FormatExcel:
		result, err = parser.NewExcelParser(s.config).ParseExcel(f)
	case sniffer.FormatCSV:
		cfg := s.config
		if cfg.Delimiter == 0 {
			cfg.Delimiter = sniffer.DetectDelimiter(head)
		}
		result, err = parser.NewParser(cfg).ParseCSV(f)
	default:
		return nil, fmt.Errorf("import: %s (%s): %w", path, format, ErrUnsupportedFormat)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("parsed spreadsheet",
		slog.String("path", path),
		slog.String("format", string(format)),
		slog.Int("rows", result.TotalRows),
		slog.Int("parsed", result.ParsedRows),
		slog.Int("skipped", result.SkippedRows),
		slog.Int("errors", len(result.Errors)),
	)
	return result, nil
}
