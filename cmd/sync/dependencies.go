package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"

	"github.com/Faitltd/houzz-to-zoho/internal/dashboard"
	"github.com/Faitltd/houzz-to-zoho/internal/docparse"
	"github.com/Faitltd/houzz-to-zoho/internal/domain/customer"
	"github.com/Faitltd/houzz-to-zoho/internal/domain/estimate"
	"github.com/Faitltd/houzz-to-zoho/internal/domain/extract"
	"github.com/Faitltd/houzz-to-zoho/internal/domain/import/parser"
	importservice "github.com/Faitltd/houzz-to-zoho/internal/domain/import/service"
	syncservice "github.com/Faitltd/houzz-to-zoho/internal/domain/sync"
	"github.com/Faitltd/houzz-to-zoho/internal/store"
	"github.com/Faitltd/houzz-to-zoho/pkg/config"
	"github.com/Faitltd/houzz-to-zoho/pkg/drive"
	"github.com/Faitltd/houzz-to-zoho/pkg/notify"
	"github.com/Faitltd/houzz-to-zoho/pkg/zoho"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config *config.Config
	Logger *slog.Logger
	DB     *sql.DB

	Store        *store.Store
	TokenManager *zoho.TokenManager
	Books        *zoho.Client
	Drive        *drive.Manager
	Notifier     *notify.Notifier
	Sync         *syncservice.Service
	Dashboard    *dashboard.Server
}

// InitDependencies wires the full pipeline from configuration.
func InitDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Config: cfg, Logger: logger}

	if err := deps.initStore(); err != nil {
		return nil, fmt.Errorf("failed to init store: %w", err)
	}
	if err := deps.initClients(ctx); err != nil {
		return nil, fmt.Errorf("failed to init clients: %w", err)
	}
	deps.initServices()

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

func (d *Dependencies) initStore() error {
	db, err := sql.Open("sqlite", d.Config.Sync.DatabasePath)
	if err != nil {
		return err
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return fmt.Errorf("%s: %w", pragma, err)
		}
	}
	if err := store.ApplySchema(db); err != nil {
		db.Close()
		return err
	}
	d.DB = db
	d.Store = store.NewStore(db)
	d.Logger.Info("ledger opened", slog.String("path", d.Config.Sync.DatabasePath))
	return nil
}

func (d *Dependencies) initClients(ctx context.Context) error {
	d.TokenManager = zoho.NewTokenManager(zoho.TokenConfig{
		ClientID:      d.Config.Zoho.ClientID,
		ClientSecret:  d.Config.Zoho.ClientSecret,
		RedirectURL:   d.Config.Zoho.RedirectURL,
		TokenFile:     d.Config.Zoho.TokenFile,
		EncryptionKey: d.Config.Zoho.EncryptionKey,
	})

	d.Books = zoho.New(zoho.Config{
		OrganizationID:    d.Config.Zoho.OrganizationID,
		RequestsPerMinute: d.Config.Zoho.RequestsPerMinute,
	}, d.TokenManager, d.Logger)

	driveManager, err := drive.NewManager(ctx,
		d.Config.Drive.ServiceAccountFile, d.Config.Drive.FolderID, d.Logger)
	if err != nil {
		return err
	}
	d.Drive = driveManager

	d.Notifier = notify.New(notify.Config{
		APIKey: d.Config.Notify.ResendAPIKey,
		From:   d.Config.Notify.FromEmail,
		To:     d.Config.Notify.ToEmails,
	}, d.Logger)

	d.Logger.Info("clients initialized")
	return nil
}

func (d *Dependencies) initServices() {
	extractor := extract.New(extract.HouzzDefaults(), d.Logger)
	docs := docparse.New(d.Logger)

	importCfg := parser.DefaultConfig()
	importCfg.HeaderRow = d.Config.Import.ExcelHeaderRow
	importer := importservice.New(importCfg, d.Logger)

	resolver := customer.NewResolver(
		&contactListerAdapter{books: d.Books},
		customer.Contact{ID: d.Config.Zoho.CustomerID},
		d.Config.Customer.FuzzyThreshold,
		d.Logger,
	)

	d.Sync = syncservice.New(
		d.Drive,
		d.Books,
		resolver,
		extractor,
		docs,
		importer,
		estimate.NewBuilder(),
		d.Store,
		d.Notifier,
		d.Logger,
	)

	d.Logger.Info("services initialized")
}

// Cleanup closes all resources
func (d *Dependencies) Cleanup() {
	if d.DB != nil {
		d.DB.Close()
	}
	d.Logger.Info("cleanup completed")
}

// contactListerAdapter narrows the Zoho client to the resolver's contact
// listing need.
type contactListerAdapter struct {
	books *zoho.Client
}

func (a *contactListerAdapter) ListContacts(ctx context.Context) ([]customer.Contact, error) {
	contacts, err := a.books.ListContacts(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]customer.Contact, 0, len(contacts))
	for _, c := range contacts {
		out = append(out, customer.Contact{
			ID:    c.ContactID,
			Name:  c.ContactName,
			Email: c.Email,
		})
	}
	return out, nil
}
