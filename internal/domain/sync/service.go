// Package sync orchestrates the estimate pipeline: find the newest
// document in the Drive inbox, extract line items and customer info,
// create the estimate in Zoho Books, attach the source PDF, and move the
// file out of the inbox. Every attempt lands in the ledger so a file is
// only ever submitted once.
package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Faitltd/houzz-to-zoho/internal/docparse"
	"github.com/Faitltd/houzz-to-zoho/internal/domain/customer"
	"github.com/Faitltd/houzz-to-zoho/internal/domain/estimate"
	"github.com/Faitltd/houzz-to-zoho/internal/domain/extract"
	importservice "github.com/Faitltd/houzz-to-zoho/internal/domain/import/service"
	"github.com/Faitltd/houzz-to-zoho/internal/store"
	"github.com/Faitltd/houzz-to-zoho/pkg/drive"
	"github.com/Faitltd/houzz-to-zoho/pkg/notify"
	"github.com/Faitltd/houzz-to-zoho/pkg/zoho"
)

var tracer = otel.Tracer("houzz-to-zoho/sync")

// ErrNothingToSync means the inbox held no unprocessed documents.
var ErrNothingToSync = errors.New("sync: no documents to process")

// DriveClient is the Drive surface the sync needs.
type DriveClient interface {
	LatestPDF(ctx context.Context) (*drive.File, error)
	LatestExcel(ctx context.Context) (*drive.File, error)
	Download(ctx context.Context, fileID string) ([]byte, error)
	MoveToProcessed(ctx context.Context, fileID, fileName string) error
}

// BooksClient is the Zoho Books surface the sync needs.
type BooksClient interface {
	CreateEstimate(ctx context.Context, est zoho.Estimate) (*zoho.EstimateInfo, error)
	GetEstimate(ctx context.Context, estimateID string) (*zoho.EstimateInfo, error)
	AttachPDF(ctx context.Context, estimateID, fileName string, pdf []byte) error
}

// ContactResolver maps an extracted customer name to a contact.
type ContactResolver interface {
	Resolve(ctx context.Context, name string) (customer.Resolution, error)
}

// Ledger records processed files and run history.
type Ledger interface {
	IsProcessed(ctx context.Context, fileID string) (bool, error)
	MarkProcessed(ctx context.Context, f store.ProcessedFile) error
	RecordRun(ctx context.Context, r store.Run) (string, error)
}

// Options steer a single sync run.
type Options struct {
	// ExcelOnly skips PDFs and builds the estimate from the newest
	// spreadsheet.
	ExcelOnly bool
	// PDFOnly skips spreadsheets entirely.
	PDFOnly bool
	// EstimateID attaches the newest PDF to an existing estimate instead
	// of creating a new one. Implies PDF processing.
	EstimateID string
	// NoMove leaves processed files in the inbox folder.
	NoMove bool
}

// Report summarizes one sync run.
type Report struct {
	ProcessedFiles   []string
	CreatedEstimates []string
	Errors           []string
}

// Service runs the sync pipeline.
type Service struct {
	drive     DriveClient
	books     BooksClient
	resolver  ContactResolver
	extractor *extract.Extractor
	docs      *docparse.Parser
	importer  *importservice.Service
	builder   *estimate.Builder
	ledger    Ledger
	notifier  *notify.Notifier
	logger    *slog.Logger
}

// New wires the sync service.
func New(
	driveClient DriveClient,
	books BooksClient,
	resolver ContactResolver,
	extractor *extract.Extractor,
	docs *docparse.Parser,
	importer *importservice.Service,
	builder *estimate.Builder,
	ledger Ledger,
	notifier *notify.Notifier,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		drive:     driveClient,
		books:     books,
		resolver:  resolver,
		extractor: extractor,
		docs:      docs,
		importer:  importer,
		builder:   builder,
		ledger:    ledger,
		notifier:  notifier,
		logger:    logger,
	}
}

// Run executes one sync pass. PDFs take priority over spreadsheets when
// both are present, matching how estimates arrive in practice: the PDF is
// the authoritative document and the spreadsheet a convenience export.
func (s *Service) Run(ctx context.Context, opts Options) (*Report, error) {
	ctx, span := tracer.Start(ctx, "sync.Run")
	defer span.End()

	report := &Report{}
	start := time.Now()

	var err error
	switch {
	case opts.EstimateID != "":
		err = s.attachToExisting(ctx, opts, report)
	case opts.ExcelOnly:
		err = s.processExcel(ctx, opts, report)
	case opts.PDFOnly:
		err = s.processPDF(ctx, opts, report)
	default:
		err = s.processPDF(ctx, opts, report)
		if errors.Is(err, drive.ErrNoFile) {
			s.logger.Info("no PDF in inbox, falling back to spreadsheet")
			err = s.processExcel(ctx, opts, report)
		}
	}

	if errors.Is(err, drive.ErrNoFile) {
		s.logger.Info("inbox is empty, nothing to sync")
		return report, ErrNothingToSync
	}
	if err != nil {
		recordSync(store.StatusError)
		report.Errors = append(report.Errors, err.Error())
		if nerr := s.notifier.SyncFailed(firstOr(report.ProcessedFiles, "unknown"), err); nerr != nil {
			s.logger.Error("failed to send error notification", slog.Any("error", nerr))
		}
		return report, err
	}

	recordSync(store.StatusSuccess)
	if len(report.ProcessedFiles) > 0 || len(report.CreatedEstimates) > 0 {
		if nerr := s.notifier.SyncSummary(report.ProcessedFiles, report.CreatedEstimates, report.Errors); nerr != nil {
			s.logger.Error("failed to send summary notification", slog.Any("error", nerr))
		}
	}

	s.logger.Info("sync completed",
		slog.Int("files", len(report.ProcessedFiles)),
		slog.Int("estimates", len(report.CreatedEstimates)),
		slog.Duration("elapsed", time.Since(start)),
	)
	return report, nil
}

// processPDF creates an estimate from the newest PDF and attaches the PDF
// to it.
func (s *Service) processPDF(ctx context.Context, opts Options, report *Report) error {
	ctx, span := tracer.Start(ctx, "sync.processPDF")
	defer span.End()

	file, err := s.drive.LatestPDF(ctx)
	if err != nil {
		return err
	}
	span.SetAttributes(attribute.String("file.name", file.Name))

	if done, err := s.skipIfProcessed(ctx, file); done || err != nil {
		return err
	}

	started := time.Now()
	pdf, err := s.drive.Download(ctx, file.ID)
	if err != nil {
		return s.failRun(ctx, started, file.Name, err)
	}

	res, err := s.extractFromPDF(pdf)
	if err != nil {
		return s.failRun(ctx, started, file.Name, err)
	}

	resolution, err := s.resolver.Resolve(ctx, res.Customer.CustomerName)
	if err != nil {
		return s.failRun(ctx, started, file.Name, err)
	}

	payload := s.builder.Build(res, resolution.ContactID)
	for _, w := range payload.Warnings {
		s.logger.Warn("estimate needs review", slog.String("file", file.Name), slog.String("reason", w))
	}

	info, err := s.books.CreateEstimate(ctx, payload.Estimate)
	if err != nil {
		return s.failRun(ctx, started, file.Name, err)
	}
	s.logger.Info("created estimate",
		slog.String("estimate_id", info.EstimateID),
		slog.String("estimate_number", info.EstimateNumber),
		slog.String("source", string(res.Source)),
	)

	if err := s.books.AttachPDF(ctx, info.EstimateID, file.Name, pdf); err != nil {
		// The estimate exists; losing the attachment is not worth
		// re-running the whole file and creating a duplicate.
		s.logger.Error("failed to attach PDF", slog.String("estimate_id", info.EstimateID), slog.Any("error", err))
		report.Errors = append(report.Errors, fmt.Sprintf("attach %s: %v", file.Name, err))
	}

	s.finishFile(ctx, opts, file, info, started, res)
	report.ProcessedFiles = append(report.ProcessedFiles, file.Name)
	report.CreatedEstimates = append(report.CreatedEstimates, formatEstimate(info))
	recordEstimateCreated(string(res.Source))

	if err := s.notifier.EstimateCreated(info.EstimateID, info.EstimateNumber, res.Customer.CustomerName); err != nil {
		s.logger.Error("failed to send success notification", slog.Any("error", err))
	}
	return nil
}

// processExcel creates an estimate from the newest spreadsheet. There is
// no document to attach and no customer block to extract, so the estimate
// is bound to the fallback contact.
func (s *Service) processExcel(ctx context.Context, opts Options, report *Report) error {
	ctx, span := tracer.Start(ctx, "sync.processExcel")
	defer span.End()

	file, err := s.drive.LatestExcel(ctx)
	if err != nil {
		return err
	}
	span.SetAttributes(attribute.String("file.name", file.Name))

	if done, err := s.skipIfProcessed(ctx, file); done || err != nil {
		return err
	}

	started := time.Now()
	data, err := s.drive.Download(ctx, file.ID)
	if err != nil {
		return s.failRun(ctx, started, file.Name, err)
	}

	path, cleanup, err := writeTemp(file.Name, data)
	if err != nil {
		return s.failRun(ctx, started, file.Name, err)
	}
	defer cleanup()

	parsed, err := s.importer.ParseFile(path)
	if err != nil {
		return s.failRun(ctx, started, file.Name, err)
	}
	items := parsed.Items()
	if len(items) == 0 {
		return s.failRun(ctx, started, file.Name,
			fmt.Errorf("sync: spreadsheet %s yielded no line items", file.Name))
	}

	resolution, err := s.resolver.Resolve(ctx, "")
	if err != nil {
		return s.failRun(ctx, started, file.Name, err)
	}

	res := extract.Result{Items: items, Source: extract.SourceTables}
	payload := s.builder.Build(res, resolution.ContactID)

	info, err := s.books.CreateEstimate(ctx, payload.Estimate)
	if err != nil {
		return s.failRun(ctx, started, file.Name, err)
	}
	s.logger.Info("created estimate from spreadsheet",
		slog.String("estimate_id", info.EstimateID),
		slog.String("estimate_number", info.EstimateNumber),
		slog.Int("items", len(items)),
	)

	s.finishFile(ctx, opts, file, info, started, res)
	report.ProcessedFiles = append(report.ProcessedFiles, file.Name)
	report.CreatedEstimates = append(report.CreatedEstimates, formatEstimate(info))
	recordEstimateCreated("spreadsheet")

	if err := s.notifier.EstimateCreated(info.EstimateID, info.EstimateNumber, ""); err != nil {
		s.logger.Error("failed to send success notification", slog.Any("error", err))
	}
	return nil
}

// attachToExisting attaches the newest PDF to an estimate that already
// exists in Zoho Books.
func (s *Service) attachToExisting(ctx context.Context, opts Options, report *Report) error {
	ctx, span := tracer.Start(ctx, "sync.attachToExisting")
	defer span.End()
	span.SetAttributes(attribute.String("estimate.id", opts.EstimateID))

	file, err := s.drive.LatestPDF(ctx)
	if err != nil {
		return err
	}

	started := time.Now()
	pdf, err := s.drive.Download(ctx, file.ID)
	if err != nil {
		return s.failRun(ctx, started, file.Name, err)
	}

	if err := s.books.AttachPDF(ctx, opts.EstimateID, file.Name, pdf); err != nil {
		return s.failRun(ctx, started, file.Name, err)
	}

	info, err := s.books.GetEstimate(ctx, opts.EstimateID)
	if err != nil {
		// Attachment succeeded; the lookup only feeds the report.
		s.logger.Warn("could not fetch estimate details", slog.Any("error", err))
		info = &zoho.EstimateInfo{EstimateID: opts.EstimateID}
	}

	s.finishFile(ctx, opts, file, info, started, extract.Result{Source: extract.SourceNone})
	report.ProcessedFiles = append(report.ProcessedFiles, file.Name)
	report.CreatedEstimates = append(report.CreatedEstimates, formatEstimate(info))
	return nil
}

// extractFromPDF parses the PDF bytes and runs the extraction cascade. A
// structurally broken PDF is a hard failure; a readable PDF with no text
// still produces the default item profile through the cascade.
func (s *Service) extractFromPDF(pdf []byte) (extract.Result, error) {
	path, cleanup, err := writeTemp("estimate.pdf", pdf)
	if err != nil {
		return extract.Result{}, err
	}
	defer cleanup()

	doc, err := s.docs.ParsePDF(path)
	switch {
	case err == nil:
	case errors.Is(err, docparse.ErrNoContent):
		s.logger.Warn("PDF contained no readable text, falling through to defaults")
	default:
		return s.extractor.FailureResult(), fmt.Errorf("sync: parse PDF: %w", err)
	}
	return s.extractor.Extract(doc), nil
}

// skipIfProcessed consults the ledger so a file is never submitted twice.
func (s *Service) skipIfProcessed(ctx context.Context, file *drive.File) (bool, error) {
	done, err := s.ledger.IsProcessed(ctx, file.ID)
	if err != nil {
		return false, err
	}
	if !done {
		return false, nil
	}
	s.logger.Info("file already processed, skipping",
		slog.String("file", file.Name),
		slog.String("file_id", file.ID),
	)
	now := time.Now()
	if _, rerr := s.ledger.RecordRun(ctx, store.Run{
		StartedAt:  now,
		FinishedAt: now,
		Status:     store.StatusSkipped,
		FileName:   file.Name,
	}); rerr != nil {
		s.logger.Error("failed to record skipped run", slog.Any("error", rerr))
	}
	return true, nil
}

// finishFile records the successful run and moves the file out of the
// inbox. A failed move is logged but does not fail the run: the ledger
// already guards against reprocessing.
func (s *Service) finishFile(ctx context.Context, opts Options, file *drive.File, info *zoho.EstimateInfo, started time.Time, res extract.Result) {
	if err := s.ledger.MarkProcessed(ctx, store.ProcessedFile{
		FileID:         file.ID,
		FileName:       file.Name,
		MimeType:       file.MimeType,
		EstimateID:     info.EstimateID,
		EstimateNumber: info.EstimateNumber,
	}); err != nil {
		s.logger.Error("failed to mark file processed", slog.Any("error", err))
	}

	if _, err := s.ledger.RecordRun(ctx, store.Run{
		StartedAt:      started,
		FinishedAt:     time.Now(),
		Status:         store.StatusSuccess,
		FileName:       file.Name,
		EstimateID:     info.EstimateID,
		EstimateNumber: info.EstimateNumber,
		ExtractSource:  string(res.Source),
		LineItems:      len(res.Items),
	}); err != nil {
		s.logger.Error("failed to record run", slog.Any("error", err))
	}

	if opts.NoMove {
		s.logger.Info("skipping move to processed folder", slog.String("file", file.Name))
		return
	}
	if err := s.drive.MoveToProcessed(ctx, file.ID, file.Name); err != nil {
		s.logger.Warn("failed to move file to processed folder",
			slog.String("file", file.Name),
			slog.Any("error", err),
		)
	}
}

// failRun records a failed attempt in the ledger before surfacing the
// error.
func (s *Service) failRun(ctx context.Context, started time.Time, fileName string, cause error) error {
	if _, err := s.ledger.RecordRun(ctx, store.Run{
		StartedAt:  started,
		FinishedAt: time.Now(),
		Status:     store.StatusError,
		FileName:   fileName,
		Error:      cause.Error(),
	}); err != nil {
		s.logger.Error("failed to record run", slog.Any("error", err))
	}
	return cause
}

func writeTemp(name string, data []byte) (string, func(), error) {
	f, err := os.CreateTemp("", "houzz-*"+filepath.Ext(name))
	if err != nil {
		return "", nil, fmt.Errorf("sync: temp file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", nil, fmt.Errorf("sync: temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", nil, fmt.Errorf("sync: temp file: %w", err)
	}
	return f.Name(), func() { os.Remove(f.Name()) }, nil
}

func formatEstimate(info *zoho.EstimateInfo) string {
	if info.EstimateNumber == "" {
		return info.EstimateID
	}
	return fmt.Sprintf("%s (ID: %s)", info.EstimateNumber, info.EstimateID)
}

func firstOr(items []string, fallback string) string {
	if len(items) > 0 {
		return items[0]
	}
	return fallback
}
