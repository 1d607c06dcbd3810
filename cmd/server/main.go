// Package main is the entry point for the challanbook API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"challanbook/db"
	"challanbook/internal/app"
	"challanbook/internal/domain/catalogs/masterdata"
	"challanbook/internal/domain/documents/challan"
	v1 "challanbook/internal/infrastructure/http/v1"
	"challanbook/internal/infrastructure/numerator"
	"challanbook/internal/infrastructure/printagent"
	"challanbook/internal/infrastructure/render/challanpdf"
	"challanbook/internal/infrastructure/render/labelpdf"
	"challanbook/internal/infrastructure/render/pdffile"
	"challanbook/internal/infrastructure/storage/postgres"
	"challanbook/internal/infrastructure/storage/postgres/catalog_repo"
	"challanbook/internal/infrastructure/storage/postgres/document_repo"
	"challanbook/pkg/logger"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := app.LoadConfig()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.IsDevelopment(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithLogger(ctx, log)

	if err := run(ctx, cfg, log); err != nil {
		log.Fatalw("server failed", "error", err)
	}
	log.Info("server stopped")
}

func run(ctx context.Context, cfg *app.Config, log *logger.Logger) error {
	log.Infow("starting challanbook server", "version", version, "env", cfg.AppEnv)

	// --- Schema ---
	if cfg.RunMigrations {
		v, err := db.RunMigrations(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		log.Infow("database schema up to date", "migration_version", v)
	}

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(cfg.DatabaseURL)
	poolCfg.MaxConns = cfg.DBMaxConns
	poolCfg.MinConns = cfg.DBMinConns
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		return err
	}
	defer pool.Close()
	log.Info("database connection established")

	txOpts := postgres.DefaultTxOptions()
	txOpts.LockTimeout = cfg.SequenceLockTimeout
	txManager := postgres.NewTxManagerWithOptions(pool, txOpts)

	auditService, err := postgres.NewAuditService(txManager)
	if err != nil {
		return err
	}
	defer auditService.Close()

	// --- Rendering ---
	store, err := pdffile.NewStore(cfg.ProjectRoot)
	if err != nil {
		return err
	}
	log.Infow("challan pdfs stored under project root", "root", store.Root())

	// --- Domain ---
	catalogs := catalog_repo.NewMasterDataRepo(txManager)
	deps := challan.Deps{
		Repo:      document_repo.NewChallanRepo(txManager),
		Resolver:  masterdata.NewResolver(catalogs),
		Numbers:   numerator.New(txManager),
		TxManager: txManager,
		Audit:     auditService,
		Documents: challanpdf.New(store),
		Labels:    labelpdf.New(),
		Files:     store,
	}
	if cfg.PrintingEnabled() {
		deps.Printer = printagent.New(cfg.PrintAgentURL, cfg.PrintAgentTimeout)
		log.Infow("label printing enabled", "print_agent", cfg.PrintAgentURL)
	} else {
		log.Info("label printing disabled, PRINT_AGENT_URL not set")
	}
	service := challan.NewService(deps)
	idempotency := postgres.NewIdempotencyStore(txManager, cfg.IdempotencyTTL)

	// --- Router ---
	router, err := v1.NewRouter(v1.RouterConfig{
		Logger:      log,
		DB:          pool,
		Challans:    service,
		Catalogs:    catalogs,
		Idempotency: idempotency,
		Version:     version,
	})
	if err != nil {
		return err
	}

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Infow("server starting", "addr", cfg.AppAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		maintain(gctx, idempotency, pool, time.Hour)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server...")

		// Give outstanding requests 30 seconds to complete
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// maintain deletes expired idempotency records and logs pool usage
// every tick until ctx ends.
func maintain(ctx context.Context, store *postgres.IdempotencyStore, pool *postgres.Pool, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pool.LogPoolStats(ctx)

			n, err := store.CleanupExpired(ctx)
			if err != nil {
				logger.Warn(ctx, "idempotency cleanup failed", "error", err)
				continue
			}
			if n > 0 {
				logger.Info(ctx, "expired idempotency keys removed", "count", n)
			}
		}
	}
}
