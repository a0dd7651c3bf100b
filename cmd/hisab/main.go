package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"hisab/internal/amqp"
	"hisab/internal/auth"
	"hisab/internal/backend"
	"hisab/internal/cache"
	"hisab/internal/cli"
	"hisab/internal/core"
	apphttp "hisab/internal/http"
	applog "hisab/internal/log"
	"hisab/internal/metrics"
	"hisab/internal/services"
	"hisab/internal/share"
	"hisab/internal/wordpress"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	logger.Info("Starting hisab",
		"port", cfg.Port,
		"wordpress", cfg.WPBaseURL,
		"share_backend", cfg.ShareBackend,
		"report_export", cfg.AMQPEnabled())

	m := metrics.New()

	// Per-user list caches, invalidated by the client on writes
	cacheManager := cache.NewManager()
	txCache := cache.NewLRUCache[[]core.Transaction](cfg.CacheSize, cfg.CacheTTL)
	debtCache := cache.NewLRUCache[[]core.DebtLoanItem](cfg.CacheSize, cfg.CacheTTL)
	cacheManager.Register(txCache)
	cacheManager.Register(debtCache)
	cacheManager.StartCleanup(time.Minute)

	wp := wordpress.NewClient(wordpress.Options{
		BaseURL:          cfg.WPBaseURL,
		Timeout:          cfg.WPTimeout,
		TransactionCache: txCache,
		DebtCache:        debtCache,
		Observer:         m,
		Logger:           logger,
	})

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid share backend configuration", "error", err)
		os.Exit(1)
	}
	stores, err := backend.NewFactory(logger.Logger).Create(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize share store", "error", err, "backend", cfg.ShareBackend)
		os.Exit(1)
	}

	shareSvc := services.NewShareService(wp, share.NewService(stores.Store, cfg.ShareTTL), m)
	janitor := services.NewJanitor(shareSvc, services.JanitorConfig{Interval: cfg.SharePurgeInterval})
	if err := janitor.Start(context.Background()); err != nil {
		logger.Error("Failed to start share janitor", "error", err)
		os.Exit(1)
	}

	var publisher services.ReportPublisher
	var amqpClient *amqp.Client
	if cfg.AMQPEnabled() {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		publisher = amqpClient
		logger.Info("Report export enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("Report export disabled - no AMQP_URL provided")
	}

	srv, err := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		WordPress:          wp,
		Verifier:           auth.NewVerifier(cfg.WPJWTSecret),
		Finance:            services.NewFinanceService(wp),
		Shares:             shareSvc,
		Reports:            services.NewReportService(wp, publisher, m),
		Store:              stores.Store,
		Metrics:            m,
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		CookieSecure:       cfg.CookieSecure,
		TrustedProxies:     cfg.TrustedProxies,
	})
	if err != nil {
		logger.Error("Failed to configure HTTP server", "error", err)
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger.Logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		if err := janitor.Stop(ctx); err != nil {
			logger.Error("Share janitor shutdown error", "error", err)
		}
		cacheManager.Stop()
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Error("AMQP close error", "error", err)
			}
		}
		if stores.Cleanup != nil {
			if err := stores.Cleanup(); err != nil {
				logger.Error("Share store close error", "error", err)
			}
		}
	})

	logger.Info("HTTP server listening", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
