package cmd

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"album-rotation/config"
	"album-rotation/internal/handlers"
	"album-rotation/internal/services"
	"album-rotation/internal/store"
	_ "album-rotation/migrations"
	"album-rotation/monitoring"
	"album-rotation/security"
	"album-rotation/utils"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/plugins/migratecmd"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	pubnub "github.com/pubnub/go"
	"github.com/redis/go-redis/v9"
)

func Start() error {
	app := pocketbase.New()

	// Load configuration
	cfg := config.LoadConfig()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize Redis
	var redisClient *redis.Client
	if cfg.NeedsRedis() {
		client, err := utils.NewRedisClient(cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return err
		}
		redisClient = client
		defer redisClient.Close()
	}

	snapshotStore, locker, err := newSnapshotStore(cfg, redisClient)
	if err != nil {
		return err
	}

	// Initialize PubNub
	var notifier services.Notifier
	if cfg.PubNubEnabled() {
		pnConfig := pubnub.NewConfig()
		pnConfig.PublishKey = cfg.PubNubPublishKey
		pnConfig.SubscribeKey = cfg.PubNubSubscribeKey
		pnConfig.SecretKey = cfg.PubNubSecretKey

		notifier = services.NewPubNubNotifier(pubnub.NewPubNub(pnConfig), cfg.PubNubChannel)
	} else {
		slog.Warn("PubNub keys not set, selections will not be published")
	}

	// Initialize services
	historyService := services.NewHistoryService(app, cfg.HistoryPageSize)
	queueService := services.NewQueueService(snapshotStore, locker, historyService, notifier, monitoring.NewMonitor(cfg.SnapshotBackend))

	// Initialize handlers
	queueHandler := handlers.NewQueueHandler(queueService)
	adminHandler := handlers.NewAdminHandler(queueService)
	historyHandler := handlers.NewHistoryHandler(historyService)
	submissionGuard := security.NewSubmissionGuard(redisClient, cfg.SubmitRateLimit, cfg.SubmitRateWindow)

	// Enable migrations
	migratecmd.MustRegister(app, app.RootCmd, migratecmd.Config{
		Automigrate: cfg.Environment == "development",
	})

	// Setup graceful shutdown
	go handleShutdown(cancel)

	app.Cron().MustAdd("select-next-album", cfg.SelectionCron, func() {
		selectCtx, selectCancel := context.WithTimeout(ctx, time.Minute)
		defer selectCancel()

		if _, err := queueService.SelectNext(selectCtx); err != nil {
			slog.Error("Scheduled selection failed", "error", err)
		}
	})

	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		if err := queueService.Init(ctx); err != nil {
			return fmt.Errorf("init queue: %w", err)
		}

		api := se.Router.Group("/api/v1")

		// Queue endpoints
		api.POST("/queue/submit", queueHandler.Submit).BindFunc(submissionGuard.Check)
		api.GET("/queue", queueHandler.Overview)

		// Selection history
		api.GET("/selections/current", historyHandler.Current)
		api.GET("/selections", historyHandler.List)

		// Admin endpoints
		admin := api.Group("/admin")
		admin.Bind(apis.RequireSuperuserAuth())
		admin.POST("/select-next", adminHandler.SelectNext)
		admin.GET("/queue-details", adminHandler.QueueDetails)

		if cfg.EnableMetrics {
			se.Router.GET("/metrics", apis.WrapStdHandler(promhttp.Handler()))
		}

		// Health check
		se.Router.GET("/health", func(e *core.RequestEvent) error {
			if err := queueService.Ping(e.Request.Context()); err != nil {
				return e.JSON(http.StatusServiceUnavailable, map[string]string{
					"status": "unhealthy",
					"error":  err.Error(),
				})
			}
			if redisClient != nil {
				if err := utils.RedisHealthCheck(redisClient); err != nil {
					return e.JSON(http.StatusServiceUnavailable, map[string]string{
						"status": "unhealthy",
						"error":  err.Error(),
					})
				}
			}
			return e.JSON(http.StatusOK, map[string]string{"status": "healthy"})
		})

		log.Println("Server routes registered")

		return se.Next()
	})

	// Start server
	return app.Start()
}

func newSnapshotStore(cfg *config.Config, redisClient *redis.Client) (store.Store, store.Locker, error) {
	switch cfg.SnapshotBackend {
	case config.SnapshotBackendFile:
		fileStore, err := store.NewFileStore(cfg.SnapshotPath)
		if err != nil {
			return nil, nil, err
		}
		return fileStore, store.NewFileLocker(cfg.SnapshotPath + ".lock"), nil
	case config.SnapshotBackendRedis:
		locker := store.NewRedisLocker(redisClient, cfg.LockKey, cfg.LockTTL, cfg.LockRetryInterval, cfg.LockWaitTimeout)
		return store.NewRedisStore(redisClient, cfg.SnapshotRedisKey), locker, nil
	default:
		return nil, nil, fmt.Errorf("unknown snapshot backend %q", cfg.SnapshotBackend)
	}
}

// handleShutdown handles graceful shutdown
func handleShutdown(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Println("Shutdown signal received, cleaning up...")
	cancel()
}
