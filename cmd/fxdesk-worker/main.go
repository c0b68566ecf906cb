package main

import (
	"context"
	"errors"
	"os"

	"golang.org/x/sync/errgroup"

	"fxdesk/internal/amqp"
	"fxdesk/internal/cli"
	applog "fxdesk/internal/log"
	"fxdesk/internal/sheets"
	gsheet "fxdesk/internal/sheets/google"
	memjournal "fxdesk/internal/sheets/memory"
	"fxdesk/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger)

	if cfg.DataBackend != "sqlite" {
		logger.Error("fxdesk-worker needs the shared sqlite backend", "backend", cfg.DataBackend)
		os.Exit(1)
	}

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	res := cli.OpenBackend(ctx, logger, cfg)
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", applog.FieldError, err)
		}
	}()

	var journal sheets.JournalWriter
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.NewFromEnv(ctx)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", applog.FieldError, err)
			os.Exit(1)
		}
		logger.Info("Google Sheets journal enabled",
			"spreadsheet_id", cfg.GoogleSpreadsheetID,
			"sheet", client.SheetName())
		journal = client
	} else {
		logger.Warn("GOOGLE_SPREADSHEET_ID not set, journal rows are kept in memory only")
		journal = memjournal.New()
	}
	if h, ok := journal.(sheets.HeaderEnsurer); ok {
		if err := h.EnsureHeader(ctx); err != nil {
			logger.Error("Failed to write journal header", applog.FieldError, err)
		}
	}

	exporter := worker.NewExportWorker(res.Backend.Store, journal, cfg.JournalBatchSize).
		WithLogger(logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return exporter.RunSweeper(gctx, cfg.JournalSweepInterval)
	})

	if cfg.AMQPURL != "" {
		consumer, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP consumer", applog.FieldError, err)
			os.Exit(1)
		}
		defer consumer.Close()
		consumer.WithLogger(logger)
		g.Go(func() error {
			return consumer.Run(gctx, exporter.HandleEvent)
		})
	} else {
		logger.Info("AMQP_URL not set, relying on the pending sweep only",
			"interval", cfg.JournalSweepInterval)
	}

	logger.Info("Starting fxdesk-worker", "batch_size", cfg.JournalBatchSize)
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}
