package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"github.com/joelkehle/circuit-architect/internal/catalog"
	"github.com/joelkehle/circuit-architect/internal/config"
	"github.com/joelkehle/circuit-architect/internal/generation"
	"github.com/joelkehle/circuit-architect/internal/httpapi"
	"github.com/joelkehle/circuit-architect/internal/llm"
	"github.com/joelkehle/circuit-architect/internal/logging"
	"github.com/joelkehle/circuit-architect/internal/report"
	"github.com/joelkehle/circuit-architect/internal/store"
	"github.com/joelkehle/circuit-architect/internal/telemetry"
)

func main() {
	addrFlag := flag.String("addr", "", "listen address (overrides CIRCUIT_ADDR)")
	dbFlag := flag.String("db", "", "path to SQLite database file (overrides CIRCUIT_DB_PATH)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}
	if *addrFlag != "" {
		cfg.Addr = *addrFlag
	}
	if *dbFlag != "" {
		cfg.DBPath = *dbFlag
	}

	log, err := logging.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Error("circuitd_exit", "error", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(cfg config.Config, log *logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, log, telemetry.Config{
		ServiceName: "circuitd",
		Endpoint:    cfg.OTLPEndpoint,
		Insecure:    cfg.OTLPInsecure,
	})
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer shutdownTracing(context.Background())

	cat, err := catalog.LoadFile(cfg.CatalogFile)
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize sqlite store (%s): %w", cfg.DBPath, err)
	}
	defer st.Close()
	log.Info("store_opened", "path", cfg.DBPath, "catalog_modules", cat.Len())

	pageSize, err := report.ParsePageSize(cfg.PDFPage)
	if err != nil {
		return fmt.Errorf("CIRCUIT_PDF_PAGE: %w", err)
	}
	deps := httpapi.Deps{
		Store:   st,
		Catalog: cat,
		PDF:     report.NewPDFRenderer(report.WithPageSize(pageSize)),
		Logger:  log,
	}
	if gen, err := newGenerator(ctx, cfg, cat, log); err != nil {
		log.Warn("generation_disabled", "provider", cfg.Provider, "error", err)
	} else {
		deps.Generator = gen
		log.Info("generation_enabled", "provider", cfg.Provider, "model", gen.ModelName())
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpapi.NewServer(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("circuitd_listening", "addr", cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	log.Info("circuitd_shutdown")
	return srv.Shutdown(shutdownCtx)
}

func newGenerator(ctx context.Context, cfg config.Config, cat *catalog.Catalog, log *logging.Logger) (*generation.Generator, error) {
	if cfg.NoLLM {
		return nil, llm.ErrDisabled
	}
	opts := generation.Options{
		Catalog:     cat,
		Limiter:     rate.NewLimiter(rate.Limit(cfg.LLMRPS), 1),
		Logger:      log.With("component", "generation"),
		MaxAttempts: cfg.MaxAttempts,
	}
	switch cfg.Provider {
	case config.ProviderGemini:
		c, err := llm.NewGeminiCallerFromEnv(ctx)
		if err != nil {
			return nil, err
		}
		opts.Structured = c
	default:
		c, err := llm.NewAnthropicCallerFromEnv()
		if err != nil {
			return nil, err
		}
		opts.Caller = c
	}
	return generation.New(opts)
}
