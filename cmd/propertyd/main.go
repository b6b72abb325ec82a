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

	"github.com/SherClockHolmes/webpush-go"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"property-maintenance-backend/config"
	"property-maintenance-backend/internal/api"
	"property-maintenance-backend/internal/auth"
	"property-maintenance-backend/internal/db"
	"property-maintenance-backend/internal/guestsync"
	"property-maintenance-backend/internal/lodgify"
	"property-maintenance-backend/internal/logging"
	"property-maintenance-backend/internal/metrics"
	"property-maintenance-backend/internal/mw"
	"property-maintenance-backend/internal/notification"
	"property-maintenance-backend/internal/objectstore"
	"property-maintenance-backend/internal/repository"
	"property-maintenance-backend/internal/store"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration from %s: %v\n", configPath, err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	logger.Info("configuration loaded", zap.String("path", configPath))

	gormDB, err := db.Init(&cfg.Database, logger)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer db.Close(gormDB)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New("property_maintenance")
	appStore := store.NewGormStore(gormDB, m)

	objects, err := objectstore.New(cfg.Storage, logger)
	if err != nil {
		logger.Fatal("failed to initialize object store", zap.Error(err))
	}

	authenticator, err := auth.New(cfg.Auth, logger)
	if err != nil {
		logger.Fatal("failed to initialize authentication", zap.Error(err))
	}

	var webpushOptions *webpush.Options
	var notifier repository.Notifier
	if cfg.Push.Enabled {
		if cfg.Push.PublicKey == "" || cfg.Push.PrivateKey == "" {
			logger.Fatal("push is enabled but VAPID keys are not configured")
		}
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
		pool := notification.NewWorkerPool(cfg.WorkerPool.Size, cfg.WorkerPool.QueueSize, appStore, webpushOptions, m, logger)
		pool.Start(ctx)
		notifier = pool
	}

	bookings := lodgify.NewClient(cfg.Lodgify, logger)
	if !bookings.Configured() {
		logger.Warn("LODGIFY_API_KEY is not set; guest counts will be 0 and reconciliation will fail")
	}

	syncJob := guestsync.NewJob(appStore, bookings, cfg.Sync.Apply, m, logger)
	if cfg.Sync.ScheduleEnabled {
		go syncJob.Run(ctx, cfg.Sync.Interval)
	}

	handler := api.NewHandler(api.Deps{
		Auth:           authenticator,
		Properties:     repository.NewProperties(appStore, bookings, cfg.Properties.LookupConcurrency, m, logger),
		Tasks:          repository.NewTasks(appStore, objects, notifier, logger),
		Comments:       repository.NewComments(appStore, repository.StayDateEnricher(time.Local), notifier, logger),
		Dashboard:      repository.NewDashboard(appStore, logger),
		Sync:           syncJob,
		Store:          appStore,
		WebPush:        webpushOptions,
		Log:            logger,
		MaxUploadBytes: int64(cfg.Server.MaxUploadMB) << 20,
	})

	limiter := mw.NewKeyedRateLimiter(rate.Limit(cfg.Server.RateLimitPerSec), cfg.Server.RateLimitBurst)
	go sweepLimiter(ctx, limiter, logger)

	routerOpts := api.RouterOptions{
		CronSecret: cfg.Sync.CronSecret,
		Metrics:    m,
		Limiter:    limiter,
	}
	if cfg.Storage.Backend == "disk" {
		routerOpts.UploadsDir = cfg.Storage.Disk.Root
		routerOpts.UploadsPrefix = cfg.Storage.Disk.URLPrefix
	}
	router := api.NewRouter(handler, routerOpts)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("HTTP server starting", zap.Int("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server ListenAndServe", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Info("shutdown signal received, stopping services")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server Shutdown", zap.Error(err))
		return
	}

	logger.Info("server gracefully stopped")
}

// sweepLimiter drops rate limiter state for clients idle for ten minutes.
func sweepLimiter(ctx context.Context, l *mw.KeyedRateLimiter, logger *zap.Logger) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := l.Sweep(10 * time.Minute); n > 0 {
				logger.Debug("rate limiter swept", zap.Int("removed", n))
			}
		}
	}
}
