package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"ledger/internal/backend"
	"ledger/internal/cli"
	"ledger/internal/finance"
	apphttp "ledger/internal/http"
	"ledger/internal/log"
)

func main() {
	cli.LoadEnvFile()

	// Dashboards read amounts as JSON numbers. The exact decimal text is kept.
	decimal.MarshalJSONWithoutQuotes = true

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger, false)

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger.WithComponent(log.ComponentStorage).Logger).Create(context.Background(), bcfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", log.FieldError, err)
		}
	}()

	memo := finance.NewMemo(cfg.SummaryCacheSize, cfg.SummaryCacheTTL, logger.WithComponent(log.ComponentFinance).Logger)
	srv := apphttp.NewServer(apphttp.Options{
		Addr:           ":" + cfg.Port,
		Store:          res.Store,
		Memo:           memo,
		Notifier:       res.Notifier,
		DefaultLocale:  cfg.DefaultLocale,
		ImportMaxBytes: cfg.ImportMaxBytes,
		Logger:         logger.WithComponent(log.ComponentHTTP),
	})

	ctx := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	})

	logger.Info("Starting ledger server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"locale", cfg.DefaultLocale,
		"notifications", res.Notifier != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
