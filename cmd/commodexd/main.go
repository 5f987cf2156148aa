// Command commodexd polls the crawler backend and maintains the reconciled
// commodity price view.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/commodex/commodex/config"
	"github.com/commodex/commodex/internal/app"
	"github.com/commodex/commodex/internal/currency"
	"github.com/commodex/commodex/internal/feed"
	"github.com/commodex/commodex/internal/observability"
	"github.com/commodex/commodex/internal/refresh"
	"github.com/commodex/commodex/internal/schema"
	"github.com/commodex/commodex/internal/snapshot"
	"github.com/commodex/commodex/internal/telemetry"
	"github.com/commodex/commodex/internal/warmup"
	libtelemetry "github.com/commodex/commodex/lib/telemetry"
)

const (
	loggerPrefix             = "commodexd "
	shutdownTimeout          = 30 * time.Second
	telemetryShutdownTimeout = 5 * time.Second
	warmupWorkers            = 2
)

func main() {
	tablesPath := parseFlags()
	ctx, cancel := newSignalContext()
	defer cancel()

	logger := log.New(os.Stdout, loggerPrefix, log.LstdFlags|log.Lmicroseconds)
	observability.SetLogger(observability.NewStdLogger(logger))

	cfg := config.FromEnv()
	logger.Printf("configuration initialised: env=%s, backend=%s", cfg.Environment, cfg.Backend.BaseURL)

	tables, err := config.LoadTables(tablesPath)
	if err != nil {
		logger.Fatalf("load tables: %v", err)
	}
	logger.Printf("reconciliation tables loaded: aliases=%d, tabs=%d", len(tables.Aliases), len(tables.CategoryTabs))

	providers, telemetryShutdown, err := libtelemetry.Init(ctx, cfg.Telemetry)
	if err != nil {
		logger.Fatalf("initialize telemetry: %v", err)
	}
	metrics, err := telemetry.NewMetrics(providers.MeterProvider)
	if err != nil {
		logger.Fatalf("initialize metrics: %v", err)
	}

	store, err := openStore(cfg.SnapshotPath)
	if err != nil {
		logger.Fatalf("open snapshot store: %v", err)
	}

	client := feed.NewClient(cfg.Backend)
	target := currency.ParseCurrency(cfg.Refresh.TargetCurrency)
	service := app.NewService(tables, store, metrics, target, cfg.Refresh.HistoryDays)
	service.Restore(ctx)

	coordinator := refresh.NewCoordinator(client,
		func(category string, result feed.QuotesResult) {
			service.ApplyQuotes(ctx, category, result)
		},
		refresh.WithMetrics(metrics),
		refresh.WithErrorFunc(func(category string, err error) {
			logger.Printf("refresh failed: category=%s err=%v", category, err)
		}))

	bootstrap(ctx, logger, client, service, cfg.Refresh.HistoryDays)

	warmer, err := warmup.NewWarmer(client, store, schema.CountryAll, warmupWorkers)
	if err != nil {
		logger.Fatalf("initialize warmer: %v", err)
	}
	if err := warmer.Warm(ctx, tabIDs(tables)); err != nil {
		logger.Printf("warmup incomplete: %v", err)
	}

	var lifecycle conc.WaitGroup
	lifecycle.Go(func() {
		coordinator.Poll(ctx, cfg.Refresh.PollInterval, service.Category)
	})
	logger.Print("commodexd started; awaiting shutdown signal")

	<-ctx.Done()
	logger.Print("shutdown signal received, initiating graceful shutdown")

	shutdownStart := time.Now()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	cancel()
	lifecycle.Wait()
	coordinator.Wait()

	if err := store.Close(); err != nil {
		logger.Printf("close snapshot store: %v", err)
	}

	telemetryCtx, telemetryCancel := context.WithTimeout(shutdownCtx, telemetryShutdownTimeout)
	defer telemetryCancel()
	if err := telemetryShutdown(telemetryCtx); err != nil {
		logger.Printf("telemetry shutdown: %v", err)
	}

	logger.Printf("shutdown completed in %v", time.Since(shutdownStart))
}

func parseFlags() string {
	tablesPath := flag.String("tables", "", "Path to the reconciliation tables file (default: built-in tables)")
	flag.Parse()
	return *tablesPath
}

func newSignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func openStore(path string) (snapshot.Store, error) {
	if path == "" {
		return snapshot.NewMemoryStore(), nil
	}
	return snapshot.NewSQLiteStore(path)
}

// bootstrap fetches the slow-moving inputs once at startup. Each failure is
// logged and tolerated; the view simply lacks that input until the next
// successful fetch.
func bootstrap(ctx context.Context, logger *log.Logger, client *feed.Client, service *app.Service, historyDays int) {
	if cascade, err := client.FetchSources(ctx); err != nil {
		logger.Printf("fetch sources: %v", err)
	} else {
		service.SetCascade(cascade)
	}
	if index, err := client.FetchHistory(ctx, historyDays); err != nil {
		logger.Printf("fetch history: %v", err)
	} else {
		service.SetHistory(index)
	}
	if rate, err := client.FetchRate(ctx); err != nil {
		logger.Printf("fetch exchange rate: %v", err)
	} else {
		service.SetRate(rate)
	}
}

func tabIDs(tables config.Tables) []string {
	ids := make([]string, 0, len(tables.CategoryTabs))
	for _, tab := range tables.CategoryTabs {
		ids = append(ids, tab.ID)
	}
	return ids
}
