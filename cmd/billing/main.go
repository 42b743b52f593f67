package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/piresc/vidcredit/internal/pkg/config"
	"github.com/piresc/vidcredit/internal/pkg/database"
	"github.com/piresc/vidcredit/internal/pkg/health"
	"github.com/piresc/vidcredit/internal/pkg/logger"
	"github.com/piresc/vidcredit/internal/pkg/metrics"
	"github.com/piresc/vidcredit/internal/pkg/middleware"
	natspkg "github.com/piresc/vidcredit/internal/pkg/nats"
	nrpkg "github.com/piresc/vidcredit/internal/pkg/newrelic"
	nsqpkg "github.com/piresc/vidcredit/internal/pkg/nsq"
	"github.com/piresc/vidcredit/internal/pkg/retry"
	"github.com/piresc/vidcredit/internal/pkg/server"
	wspkg "github.com/piresc/vidcredit/internal/pkg/websocket"
	authHTTP "github.com/piresc/vidcredit/services/auth/handler/http"
	authRepository "github.com/piresc/vidcredit/services/auth/repository"
	authUsecase "github.com/piresc/vidcredit/services/auth/usecase"
	"github.com/piresc/vidcredit/services/billing"
	"github.com/piresc/vidcredit/services/billing/gateway"
	"github.com/piresc/vidcredit/services/billing/handler"
	natsHandler "github.com/piresc/vidcredit/services/billing/handler/nats"
	nsqHandler "github.com/piresc/vidcredit/services/billing/handler/nsq"
	"github.com/piresc/vidcredit/services/billing/repository"
	"github.com/piresc/vidcredit/services/billing/usecase"
	"go.uber.org/zap"
)

func main() {
	appName := "billing-service"
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/billing.env"
	}
	configs := config.InitConfig(configPath)

	// Initialize New Relic and Zap logger
	nrApp := nrpkg.InitNewRelic(configs)
	if nrApp != nil {
		if err := nrApp.WaitForConnection(10 * time.Second); err != nil {
			log.Printf("Warning: New Relic connection timeout: %v", err)
		}
		defer nrApp.Shutdown(10 * time.Second)
	}

	zapLogger, err := logger.InitZapLoggerFromConfig(configs, nrApp)
	if err != nil {
		log.Fatalf("Failed to create Zap logger: %v", err)
	}
	defer zapLogger.Close()
	logger.SetGlobalLogger(zapLogger)

	zapLogger.Info("Starting application",
		zap.String("app", appName),
		zap.String("version", configs.App.Version),
		zap.String("environment", configs.App.Environment),
		zap.String("event_bus", configs.EventBus.Driver),
	)

	// Initialize PostgreSQL database connection
	postgresClient, err := database.NewPostgresClient(configs.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}

	// Initialize Redis client
	redisClient, err := database.NewRedisClient(configs.Redis)
	if err != nil {
		zapLogger.Fatal("Failed to connect to Redis", zap.Error(err))
	}

	healthService := health.NewHealthService(zapLogger)
	healthService.AddChecker("postgres", health.NewPostgresHealthChecker(postgresClient))
	healthService.AddChecker("redis", health.NewRedisHealthChecker(redisClient))

	manager := wspkg.NewManager()

	// Event bus: publisher for the reconciler, consumer for the websocket fan-out
	var (
		publisher billing.EventPublisher
		closeBus  func()
	)
	switch configs.EventBus.Driver {
	case "nsq":
		producer, err := nsqpkg.NewProducer(configs.NSQ.NSQDAddress)
		if err != nil {
			zapLogger.Fatal("Failed to connect to NSQ", zap.Error(err))
		}
		consumer := nsqHandler.NewEventsHandler(configs.NSQ, manager)
		if err := consumer.Start(); err != nil {
			zapLogger.Fatal("Failed to initialize NSQ consumers", zap.Error(err))
		}
		healthService.AddChecker("nsq", health.NewNSQHealthChecker(producer))
		publisher = gateway.NewNSQPublisher(producer)
		closeBus = func() {
			consumer.Stop()
			producer.Stop()
		}
	default:
		natsClient, err := natspkg.NewClient(configs.NATS.URL)
		if err != nil {
			zapLogger.Fatal("Failed to connect to NATS", zap.Error(err))
		}
		consumer := natsHandler.NewEventsHandler(natsClient, manager)
		if err := consumer.InitNATSConsumers(); err != nil {
			zapLogger.Fatal("Failed to initialize NATS consumers", zap.Error(err))
		}
		healthService.AddChecker("nats", health.NewNATSHealthChecker(natsClient))
		publisher = gateway.NewNATSPublisher(natsClient)
		closeBus = func() {
			consumer.Close()
			natsClient.Close()
		}
	}

	// Initialize repositories
	db := postgresClient.GetDB()
	txnRepo := repository.NewTransactionRepository(configs, db)
	userRepo := repository.NewUserRepository(db)
	notifRepo := repository.NewNotificationRepository(db)
	orderLock := repository.NewOrderLock(redisClient, configs.Billing.OrderLockTTL)

	// Initialize gateways
	payOS := gateway.NewPayOSGateway(configs.PaymentGateway, zapLogger)
	retrier := retry.NewWithDefaults(zapLogger)

	// Initialize use cases
	depositUC, err := usecase.NewDepositUC(configs, txnRepo, payOS)
	if err != nil {
		zapLogger.Fatal("Failed to initialize deposit use case", zap.Error(err))
	}
	reconcileUC, err := usecase.NewReconcileUC(configs, txnRepo, userRepo, notifRepo, orderLock, payOS, publisher, retrier)
	if err != nil {
		zapLogger.Fatal("Failed to initialize reconcile use case", zap.Error(err))
	}
	ledgerUC, err := usecase.NewLedgerUC(configs, txnRepo, userRepo)
	if err != nil {
		zapLogger.Fatal("Failed to initialize ledger use case", zap.Error(err))
	}
	notificationUC, err := usecase.NewNotificationUC(configs, notifRepo)
	if err != nil {
		zapLogger.Fatal("Failed to initialize notification use case", zap.Error(err))
	}

	blacklist := authRepository.NewTokenBlacklist(redisClient)
	authUC, err := authUsecase.NewAuthUC(configs, authRepository.NewUserRepository(db), blacklist)
	if err != nil {
		zapLogger.Fatal("Failed to initialize auth use case", zap.Error(err))
	}

	// Initialize Echo router
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.RequestIDMiddleware())
	e.Use(middleware.PanicRecoveryWithZapMiddleware(zapLogger))
	e.Use(nrpkg.EchoMiddleware(nrApp))
	e.Use(logger.ZapEchoMiddleware(zapLogger))
	e.Use(metrics.EchoMiddleware())

	health.RegisterHealthEndpoints(e, appName, configs.App.Version, healthService)
	e.GET("/metrics", metrics.Handler())

	jwtAuth := middleware.JWTAuthMiddleware(configs.JWT, blacklist)
	authHTTP.NewAuthHandler(configs, authUC).RegisterRoutes(e, jwtAuth)

	depositLimiter := middleware.RateLimiterMiddleware(middleware.RateLimiterConfig{
		RedisClient: redisClient.Client,
		Resource:    "deposit",
		Limit:       configs.RateLimit.DepositLimit,
		Period:      configs.RateLimit.DepositPeriod,
	})

	billingHandler := handler.NewHandler(configs, depositUC, reconcileUC, ledgerUC, notificationUC, manager)
	billingHandler.RegisterRoutes(e, handler.Middlewares{
		Auth:           jwtAuth,
		WebSocketAuth:  middleware.WebSocketAuthMiddleware(configs.JWT, blacklist),
		DepositLimiter: depositLimiter,
	})

	srv := server.NewGracefulServer(e, zapLogger, configs.Server)
	srv.OnShutdown("postgres", func(context.Context) error { return postgresClient.Close() })
	srv.OnShutdown("redis", func(context.Context) error { return redisClient.Close() })
	srv.OnShutdown("event-bus", func(context.Context) error {
		closeBus()
		return nil
	})

	zapLogger.Info("Starting server",
		zap.String("app", appName),
		zap.Int("port", configs.Server.Port),
	)

	if err := srv.Start(); err != nil {
		zapLogger.Error("Server stopped with error",
			zap.String("app", appName),
			zap.Error(err),
		)
	}
}
