// Command sync moves Houzz estimate documents from Google Drive into
// Zoho Books. One-shot by default; -daemon runs on a schedule with the
// monitoring dashboard.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Faitltd/houzz-to-zoho/internal/dashboard"
	syncservice "github.com/Faitltd/houzz-to-zoho/internal/domain/sync"
	"github.com/Faitltd/houzz-to-zoho/pkg/config"
	"github.com/Faitltd/houzz-to-zoho/pkg/cron"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		excelOnly  = flag.Bool("excel-only", false, "only process spreadsheets, not PDFs")
		pdfOnly    = flag.Bool("pdf-only", false, "only process PDFs, not spreadsheets")
		auth       = flag.Bool("auth", false, "run the Zoho authorization flow and exit")
		estimateID = flag.String("estimate-id", "", "attach the newest PDF to an existing estimate instead of creating one")
		noMove     = flag.Bool("no-move", false, "do not move processed files to the processed folder")
		daemon     = flag.Bool("daemon", false, "run on a schedule with the dashboard instead of once")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		return 1
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := InitDependencies(ctx, cfg, logger)
	if err != nil {
		logger.Error("initialization failed", slog.Any("error", err))
		return 1
	}
	defer deps.Cleanup()

	if *auth {
		return runAuthFlow(ctx, deps)
	}

	opts := buildOptions(cfg, *excelOnly, *pdfOnly, *estimateID, *noMove)

	if *daemon {
		return runDaemon(ctx, deps, opts)
	}
	return runOnce(ctx, deps, opts)
}

// buildOptions merges the CLI flags with the configuration. The -no-move
// flag and a disabled SYNC_MOVE_PROCESSED both leave files in the inbox.
func buildOptions(cfg *config.Config, excelOnly, pdfOnly bool, estimateID string, noMove bool) syncservice.Options {
	return syncservice.Options{
		ExcelOnly:  excelOnly,
		PDFOnly:    pdfOnly,
		EstimateID: estimateID,
		NoMove:     noMove || !cfg.Sync.MoveProcessed,
	}
}

func runOnce(ctx context.Context, deps *Dependencies, opts syncservice.Options) int {
	report, err := deps.Sync.Run(ctx, opts)
	if errors.Is(err, syncservice.ErrNothingToSync) {
		return 0
	}
	if err != nil {
		deps.Logger.Error("sync failed", slog.Any("error", err))
		return 1
	}
	for _, est := range report.CreatedEstimates {
		deps.Logger.Info("estimate ready", slog.String("estimate", est))
	}
	return 0
}

func runDaemon(ctx context.Context, deps *Dependencies, opts syncservice.Options) int {
	scheduler := cron.NewScheduler(deps.Config.Sync.Schedule, func(ctx context.Context) error {
		_, err := deps.Sync.Run(ctx, opts)
		if errors.Is(err, syncservice.ErrNothingToSync) {
			return nil
		}
		return err
	}, deps.Logger)

	if err := scheduler.Start(); err != nil {
		deps.Logger.Error("failed to start scheduler", slog.Any("error", err))
		return 1
	}

	deps.Dashboard = dashboard.NewServer(dashboard.Config{
		Host:           deps.Config.Dashboard.Host,
		Port:           deps.Config.Dashboard.Port,
		MetricsEnabled: deps.Config.Dashboard.MetricsEnabled,
	}, deps.Store, scheduler.RunNow, deps.Logger)

	errCh := make(chan error, 1)
	go func() { errCh <- deps.Dashboard.Start() }()

	select {
	case <-ctx.Done():
		deps.Logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			deps.Logger.Error("dashboard failed", slog.Any("error", err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := deps.Dashboard.Shutdown(shutdownCtx); err != nil {
		deps.Logger.Error("dashboard shutdown failed", slog.Any("error", err))
	}
	<-scheduler.Stop().Done()
	return 0
}

// runAuthFlow walks the operator through the one-time Zoho OAuth consent.
func runAuthFlow(ctx context.Context, deps *Dependencies) int {
	fmt.Println("Visit the following URL to authorize the application:")
	fmt.Println()
	fmt.Println("  " + deps.TokenManager.AuthURL())
	fmt.Println()
	fmt.Println("After granting permission you will be redirected to a URL containing")
	fmt.Println("a 'code' parameter. Paste that value here.")
	fmt.Print("\nAuthorization code: ")

	reader := bufio.NewReader(os.Stdin)
	code, err := reader.ReadString('\n')
	if err != nil {
		fmt.Fprintln(os.Stderr, "read code:", err)
		return 1
	}
	code = strings.TrimSpace(code)
	if code == "" {
		fmt.Fprintln(os.Stderr, "no authorization code provided")
		return 1
	}

	if err := deps.TokenManager.SaveAuthCode(ctx, code); err != nil {
		fmt.Fprintln(os.Stderr, "authorization failed:", err)
		return 1
	}
	fmt.Println("\nAuthorization successful. Token stored at", deps.Config.Zoho.TokenFile)
	return 0
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
