package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"robux-topup-backend/internal/app"
	"robux-topup-backend/internal/cache"
	"robux-topup-backend/internal/config"
	handler "robux-topup-backend/internal/handlers"
	"robux-topup-backend/internal/middleware"
	"robux-topup-backend/internal/models"
	"robux-topup-backend/internal/repository"
	"robux-topup-backend/internal/routes"
	"robux-topup-backend/internal/services/channels"
	"robux-topup-backend/internal/services/checkout"
	"robux-topup-backend/internal/services/notify"
	"robux-topup-backend/internal/services/reconciliation"
	"robux-topup-backend/internal/tripay"
	"robux-topup-backend/pkg/log"
)

const channelCacheKey = "tripay:channels"

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	opts := []log.LoggerOption{log.WithConsoleLogger(), log.WithLevel(cfg.Log.Level)}
	if cfg.Log.File != "" {
		opts = append(opts, log.WithFileLogger(cfg.Log.File))
	}
	log.Init(appName, opts...)
	logger := log.GetLogger()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	db, err := config.InitDB(cfg.Postgres)
	if err != nil {
		return err
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Transaction{},
		&models.StatusAuditLog{},
	); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	transactionRepo := repository.NewTransactionRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	gateway := tripay.NewClient(tripay.Config{
		BaseURL:      cfg.Tripay.BaseURL,
		APIKey:       cfg.Tripay.APIKey,
		PrivateKey:   cfg.Tripay.PrivateKey,
		MerchantCode: cfg.Tripay.MerchantCode,
	}, nil)

	var channelCache cache.Store[[]tripay.Channel] = cache.NewMemory[[]tripay.Channel](cfg.Redis.ChannelTTL)
	if cfg.Redis.Addr != "" {
		rdb, err := cache.ConnectRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, channel cache stays in memory")
		} else {
			defer rdb.Close()
			channelCache = cache.NewRedis[[]tripay.Channel](rdb, channelCacheKey, cfg.Redis.ChannelTTL)
		}
	}

	notifier, closeNotifiers := buildNotifier(cfg)
	defer closeNotifiers()

	reconciler := reconciliation.NewReconciliationService(transactionRepo, notifier, cfg.Tripay.PrivateKey)
	adminService := reconciliation.NewAdminService(transactionRepo, auditRepo, notifier)
	checkoutService := checkout.NewService(transactionRepo, gateway, checkout.Config{
		PricePerRobux: cfg.Pricing.PricePerRobux,
		CallbackURL:   cfg.Tripay.CallbackURL,
		ReturnURL:     cfg.Tripay.ReturnURL,
		Expiry:        cfg.Tripay.Expiry,
	})
	channelService := channels.NewService(gateway, channelCache)

	if cfg.Admin.JWTSecret == "" {
		logger.Warn().Msg("ADMIN_JWT_SECRET is empty, admin API will reject every request")
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(logger))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, routes.Handlers{
		Reconciliation: handler.NewReconciliationHandler(reconciler, adminService),
		Orders:         handler.NewOrderHandler(checkoutService, channelService),
		JWTSecret:      cfg.Admin.JWTSecret,
	})

	return app.NewServer(cfg).Run(ctx, r, reconciler, adminService)
}

// buildNotifier assembles the configured notification channels. Channels that
// are not configured, or whose broker cannot be reached, are skipped.
func buildNotifier(cfg *config.Config) (notify.Notifier, func()) {
	logger := log.GetLogger()
	var (
		notifiers notify.Multi
		closers   []func()
	)

	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := notify.NewSyncProducer(cfg.Kafka.Brokers, 5)
		if err != nil {
			logger.Warn().Err(err).Strs("brokers", cfg.Kafka.Brokers).Msg("kafka unavailable, status events disabled")
		} else {
			kn := notify.NewKafkaNotifier(producer, cfg.Kafka.Topic)
			notifiers = append(notifiers, kn)
			closers = append(closers, func() { closeProducer(kn) })
		}
	}

	if cfg.Telegram.BotToken != "" && cfg.Telegram.ChatID != "" {
		notifiers = append(notifiers, notify.NewTelegramNotifier(cfg.Telegram.APIBase, cfg.Telegram.BotToken, cfg.Telegram.ChatID, nil))
	}

	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}
	if len(notifiers) == 0 {
		return notify.Noop{}, closeAll
	}
	return notifiers, closeAll
}

func closeProducer(kn *notify.KafkaNotifier) {
	if err := kn.Close(); err != nil {
		l := log.GetLogger()
		l.Error().Err(err).Msg("close kafka producer")
	}
}
