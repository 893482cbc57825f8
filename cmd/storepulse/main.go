package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/storepulse/storepulse/internal/capture"
	"github.com/storepulse/storepulse/internal/charts"
	"github.com/storepulse/storepulse/internal/core/catalog"
	corecfg "github.com/storepulse/storepulse/internal/core/config"
	"github.com/storepulse/storepulse/internal/core/storage/postgres"
	"github.com/storepulse/storepulse/internal/flush"
	"github.com/storepulse/storepulse/internal/migrations"
	"github.com/storepulse/storepulse/internal/search"
	"github.com/storepulse/storepulse/internal/server"
	"github.com/storepulse/storepulse/internal/staging"
	"github.com/storepulse/storepulse/internal/tables"
)

func main() {
	configPath := flag.String("config", "storepulse.yaml", "Path to configuration file")
	flag.Parse()

	// 0. Initialize Logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 1. Load Configuration
	cfg, err := corecfg.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	slog.Info("Loaded config", "config", cfg)

	flushInterval, err := cfg.Flush.FlushInterval()
	if err != nil {
		slog.Error("Invalid flush interval", "value", cfg.Flush.Interval, "error", err)
		os.Exit(1)
	}

	// 2. Initialize Storage (PostgreSQL)
	dbAdapter, err := postgres.NewAdapter(
		cfg.Database.DSN,
		cfg.Database.MaxOpenConns,
		cfg.Database.MaxIdleConns,
	)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer dbAdapter.Close()

	// 2.1. Run Database Migrations
	if err := migrations.RunMigrations(dbAdapter.DB(), cfg.Database.AutoMigrate); err != nil {
		slog.Error("Failed to run database migrations", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Initialize Staging Store (Redis)
	stagingStore, err := staging.NewRedisStore(ctx, cfg.Redis.URL)
	if err != nil {
		slog.Error("Failed to initialize staging store", "error", err)
		os.Exit(1)
	}
	defer stagingStore.Close()

	// 4. Load Catalog
	cat, err := catalog.LoadFile(cfg.Catalog.Path)
	if err != nil {
		slog.Error("Failed to load catalog", "path", cfg.Catalog.Path, "error", err)
		os.Exit(1)
	}

	// 5. Initialize Flush Coordinators (one per staging category)
	flushStore := postgres.NewFlushAdapter(dbAdapter.DB())
	schedulers := []*flush.Scheduler{
		flush.NewScheduler(flushInterval, flush.NewCoordinator(staging.CategoryAction, stagingStore, flushStore)),
		flush.NewScheduler(flushInterval, flush.NewCoordinator(staging.CategoryPurchase, stagingStore, flushStore)),
		flush.NewScheduler(flushInterval, flush.NewCoordinator(staging.CategoryTerm, stagingStore, flushStore)),
	}
	slog.Info("Flush schedulers initialized",
		"interval", flushInterval,
		"enabled", cfg.Flush.Enabled,
		"categories", []staging.Category{staging.CategoryAction, staging.CategoryPurchase, staging.CategoryTerm},
	)

	// 6. Initialize Query Services
	productIndex, err := search.NewProductIndex(cfg.Search.Addresses)
	if err != nil {
		slog.Error("Failed to initialize search client", "error", err)
		os.Exit(1)
	}

	captureSvc := capture.NewService(stagingStore, cat)
	chartSvc := charts.NewService(postgres.NewChartAdapter(dbAdapter.DB()), cat)
	tableSvc := tables.NewService(postgres.NewTableAdapter(dbAdapter.DB()), productIndex)

	// 7. Initialize Server
	srv := server.New(fmtAddr(cfg.Server.Host, cfg.Server.Port), dbAdapter, stagingStore, cfg.Server.Mode)
	captureSvc.RegisterRoutes(srv.Engine)
	chartSvc.RegisterRoutes(srv.Engine)
	tableSvc.RegisterRoutes(srv.Engine)

	// 8. Start Services
	g, gctx := errgroup.WithContext(ctx)

	if cfg.Flush.Enabled {
		for _, scheduler := range schedulers {
			scheduler := scheduler
			g.Go(func() error {
				return scheduler.Start(gctx)
			})
		}
	} else {
		slog.Info("Flush schedulers disabled by config")
	}

	// Signal handler triggers the shutdown sequence below.
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		slog.Info("Signal received, shutting down...")
		cancel()
	}()

	// HTTP server blocks until ctx is cancelled.
	g.Go(func() error {
		return srv.Run(gctx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("Service stopped with error", "error", err)
	}

	slog.Info("Shutdown complete")
}

func fmtAddr(host string, port int) string {
	return fmt.Sprintf("%s:%d", host, port)
}
