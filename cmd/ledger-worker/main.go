package main

import (
	"context"
	"errors"
	"os"
	"time"

	"ledger/internal/amqp"
	"ledger/internal/backend"
	"ledger/internal/cli"
	"ledger/internal/finance"
	"ledger/internal/locale"
	"ledger/internal/log"
	"ledger/internal/sheets"
	gsheet "ledger/internal/sheets/google"
	"ledger/internal/sheets/memory"
	"ledger/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentWorker)
	logger.Info("Starting ledger-worker")
	cfg := cli.LoadAndValidateConfig(logger, true)

	// The worker reads the store and consumes notifications itself, so the
	// factory must not open a publishing client.
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	bcfg.AMQPURL = ""
	res, err := backend.NewFactory(logger.WithComponent(log.ComponentStorage).Logger).Create(context.Background(), bcfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer res.Cleanup()

	var publisher sheets.Publisher
	if cfg.GoogleSpreadsheetID != "" {
		publisher, err = gsheet.New(context.Background(), gsheet.Config{
			SpreadsheetID:      cfg.GoogleSpreadsheetID,
			ServiceAccountFile: cfg.GoogleServiceAccountFile,
			ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
		})
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
			os.Exit(1)
		}
		logger.Info("Google Sheets publishing enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		publisher = memory.New()
		logger.Info("Google Sheets disabled, publishing to memory", "reason", "no GOOGLE_SPREADSHEET_ID")
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	memo := finance.NewMemo(cfg.SummaryCacheSize, cfg.SummaryCacheTTL, logger.WithComponent(log.ComponentFinance).Logger)
	w := worker.NewPublishWorker(res.Store, memo, publisher, locale.Match(cfg.DefaultLocale))

	ctx := cli.GracefulShutdown(logger, 30*time.Second, nil)

	// Catch up on imports made while the worker was down.
	if err := w.Publish(ctx); err != nil {
		logger.Error("Startup publish failed", log.FieldError, err)
	}

	go w.Run(ctx, cfg.PublishInterval)

	if err := client.ConsumeImportCompleted(ctx, w.HandleImportCompleted); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
