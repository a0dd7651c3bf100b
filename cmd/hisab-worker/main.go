package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"hisab/internal/amqp"
	"hisab/internal/cache"
	"hisab/internal/cli"
	"hisab/internal/config"
	applog "hisab/internal/log"
	"hisab/internal/metrics"
	"hisab/internal/sheets"
	gsheet "hisab/internal/sheets/google"
	memsheet "hisab/internal/sheets/memory"
	"hisab/internal/worker"
)

// seenTTL bounds how long a handled export id suppresses redeliveries.
const seenTTL = 24 * time.Hour

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentWorker)
	cfg := cli.LoadAndValidateWorkerConfig(logger)

	logger.Info("Starting hisab-worker", "queue", cfg.AMQPQueue, "sheets", cfg.SheetsEnabled())

	m := metrics.New()

	exporter, err := newExporter(cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize report exporter", "error", err)
		os.Exit(1)
	}

	seen := cache.NewLRUCache[string](cfg.CacheSize, seenTTL)
	cacheManager := cache.NewManager()
	cacheManager.Register(seen)
	cacheManager.StartCleanup(10 * time.Minute)

	exportWorker := worker.NewExportWorker(exporter, seen, m, logger)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}

	var metricsSrv *http.Server
	if cfg.WorkerMetricsPort != "" {
		mux := http.NewServeMux()
		mux.Handle("GET /metrics", m.Handler())
		mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("ok"))
		})
		metricsSrv = &http.Server{
			Addr:              ":" + cfg.WorkerMetricsPort,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Metrics server error", "error", err)
			}
		}()
	}

	ctx, done := cli.GracefulShutdown(logger.Logger, 30*time.Second, func(ctx context.Context) {
		if metricsSrv != nil {
			if err := metricsSrv.Shutdown(ctx); err != nil {
				logger.Error("Metrics server shutdown error", "error", err)
			}
		}
		cacheManager.Stop()
		if err := amqpClient.Close(); err != nil {
			logger.Error("AMQP close error", "error", err)
		}
	})

	go func() {
		err := amqpClient.ConsumeReportExports(ctx, exportWorker.HandleReportExport)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", "error", err)
			os.Exit(1)
		}
	}()

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully")
}

// newExporter writes to Google Sheets when a spreadsheet is configured and
// keeps reports in memory otherwise.
func newExporter(cfg *config.Config, logger *applog.Logger) (sheets.ReportExporter, error) {
	if !cfg.SheetsEnabled() {
		logger.Warn("Google Sheets disabled - reports are kept in memory only")
		return memsheet.New(), nil
	}

	client, err := gsheet.New(context.Background(), gsheet.Options{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleCredentialsJSON,
		CredentialsFile: cfg.GoogleCredentialsFile,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("Google Sheets exporter initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	return client, nil
}
