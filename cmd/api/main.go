// Package main Go-Shop API
//
// REST backend for the Go-Shop storefront: catalog, checkout,
// order consolidation, reviews and the admin dashboard.
//
//	@title			Go-Shop API
//	@version		1.0
//	@description	E-commerce backend with same-day order consolidation
//	@termsOfService	http://swagger.io/terms/
//
//	@contact.name	API Support
//	@contact.email	support@example.com
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host		localhost:8080
//	@BasePath	/
//	@schemes	https http
//
//	@securityDefinitions.apikey	ApiKeyAuth
//	@in							header
//	@name						Authorization
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "go-shop/docs/swagger"
	adminadapters "go-shop/internal/admin/adapters"
	adminapp "go-shop/internal/admin/application"
	admininfra "go-shop/internal/admin/infrastructure"
	catalogadapters "go-shop/internal/catalog/adapters"
	catalogapp "go-shop/internal/catalog/application"
	cataloginfra "go-shop/internal/catalog/infrastructure"
	catalogports "go-shop/internal/catalog/ports"
	ordersadapters "go-shop/internal/orders/adapters"
	ordersapp "go-shop/internal/orders/application"
	ordersinfra "go-shop/internal/orders/infrastructure"
	ordersports "go-shop/internal/orders/ports"
	paymentsadapters "go-shop/internal/payments/adapters"
	paymentsapp "go-shop/internal/payments/application"
	paymentsinfra "go-shop/internal/payments/infrastructure"
	paymentsports "go-shop/internal/payments/ports"
	reviewsadapters "go-shop/internal/reviews/adapters"
	reviewsapp "go-shop/internal/reviews/application"
	reviewsinfra "go-shop/internal/reviews/infrastructure"
	usersadapters "go-shop/internal/users/adapters"
	usersapp "go-shop/internal/users/application"
	usersinfra "go-shop/internal/users/infrastructure"
	"go-shop/pkg/config"
	"go-shop/pkg/db"
	"go-shop/pkg/events"
	"go-shop/pkg/logger"
	"go-shop/pkg/middleware"
	"go-shop/pkg/rabbitmq"
	pkgtls "go-shop/pkg/tls"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log := logger.New(cfg.ServiceName, cfg.LogLevel, cfg.LogFormat)
	defer log.Sync()

	log.Info("starting " + cfg.ServiceName)

	// Connect to database
	dbConn, err := db.NewConnection(db.Config{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
		Timeout:  cfg.DBTimeout,
	})
	if err != nil {
		log.Fatal("failed to connect to database: " + err.Error())
	}
	log.Info("connected to database")

	// Initialize repositories and run migrations
	ordersStore := ordersadapters.NewGormOrderStore(dbConn)
	catalogRepo := catalogadapters.NewGormCatalogRepository(dbConn)
	usersRepo := usersadapters.NewGormUserRepository(dbConn)
	reviewsRepo := reviewsadapters.NewGormReviewRepository(dbConn)

	for _, migrate := range []func() error{
		usersRepo.Migrate,
		catalogRepo.Migrate,
		ordersStore.Migrate,
		reviewsRepo.Migrate,
	} {
		if err := migrate(); err != nil {
			log.Fatal("failed to migrate database: " + err.Error())
		}
	}

	// Connect to Redis for the catalog cache
	var catalogCache catalogports.Cache
	if cfg.RedisEnabled {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			log.Warn("failed to connect to Redis, catalog cache disabled: " + err.Error())
		} else {
			catalogCache = catalogadapters.NewRedisCache(redisClient)
			log.Info("connected to Redis")
		}
		pingCancel()
	}

	// Connect to RabbitMQ
	var ordersPublisher ordersports.EventPublisher
	var paymentQueue paymentsports.EventQueue
	var rabbitConn *rabbitmq.Connection
	if cfg.RabbitMQEnabled {
		rabbitConn, err = rabbitmq.NewConnection(cfg.RabbitMQURL, log)
		if err != nil {
			log.Warn("failed to connect to RabbitMQ, events will be disabled: " + err.Error())
			rabbitConn = nil
		} else {
			defer rabbitConn.Close()

			orderPub, err := rabbitmq.NewPublisher(rabbitConn, events.ExchangeOrders, log)
			if err != nil {
				log.Warn("failed to create orders publisher: " + err.Error())
			} else {
				ordersPublisher = ordersadapters.NewRabbitMQPublisher(orderPub, log)
			}

			paymentPub, err := rabbitmq.NewPublisher(rabbitConn, events.ExchangePayments, log)
			if err != nil {
				log.Warn("failed to create payments publisher: " + err.Error())
			} else {
				paymentQueue = paymentsadapters.NewPaymentQueue(paymentPub)
			}
		}
	}

	// Initialize use cases. Reviews check order ownership against the order
	// store directly rather than through the order use case, which keeps the
	// dependency between the two contexts one-directional.
	usersUC := usersapp.NewUserUseCase(usersRepo, log)
	catalogUC := catalogapp.NewCatalogUseCase(catalogRepo, catalogCache, cfg.CatalogTTL, log)
	reviewsUC := reviewsapp.NewReviewUseCase(reviewsRepo, ordersStore, catalogUC, log)
	ordersUC := ordersapp.NewOrderUseCase(ordersStore, ordersPublisher, reviewsUC, log, cfg.MergeLocation())

	gateway := paymentsadapters.NewHTTPGateway(
		cfg.PaymentAPIURL,
		cfg.PaymentAPIKey,
		cfg.PaymentWebhookSecret,
		cfg.HTTPTimeout,
	)
	paymentsUC := paymentsapp.NewPaymentUseCase(
		gateway,
		paymentsadapters.NewCustomerBridge(usersUC),
		paymentsadapters.NewCatalogBridge(catalogUC),
		paymentsadapters.NewOrderBridge(ordersUC),
		paymentQueue,
		log,
	)
	adminUC := adminapp.NewAdminUseCase(
		adminadapters.NewGormStatsRepository(dbConn),
		adminadapters.NewCustomerBridge(usersUC),
	)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Consume confirmed payments off the queue
	if rabbitConn != nil {
		consumer, err := paymentsadapters.NewPaymentConsumer(rabbitConn, paymentsUC, log)
		if err != nil {
			log.Warn("failed to create payment consumer: " + err.Error())
		} else if err := consumer.Start(ctx); err != nil {
			log.Warn("failed to start payment consumer: " + err.Error())
		}
	}

	// Session token verification
	verifier, err := middleware.NewTokenVerifier(cfg.JWTPublicKey, cfg.JWTSecret)
	if err != nil {
		log.Fatal("failed to initialize token verifier: " + err.Error())
	}

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	metrics := middleware.NewHTTPMetrics(cfg.ServiceName)
	router.Use(middleware.TraceID())
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.ErrorHandler(log))
	router.Use(middleware.CORS())
	router.Use(metrics.Collect())

	ordersHandler := ordersinfra.NewHTTPHandler(ordersUC, usersUC)
	catalogHandler := cataloginfra.NewHTTPHandler(catalogUC)
	usersHandler := usersinfra.NewHTTPHandler(usersUC)
	paymentsHandler := paymentsinfra.NewHTTPHandler(paymentsUC)
	reviewsHandler := reviewsinfra.NewHTTPHandler(reviewsUC, usersUC)
	adminHandler := admininfra.NewHTTPHandler(adminUC)

	api := router.Group("/api/v1")

	// Public routes
	catalogHandler.RegisterRoutes(api)
	reviewsHandler.RegisterPublicRoutes(api)
	paymentsHandler.RegisterWebhookRoutes(api)

	// Customer routes
	authed := api.Group("", middleware.Auth(verifier))
	ordersHandler.RegisterRoutes(authed)
	usersHandler.RegisterRoutes(authed)
	paymentsHandler.RegisterRoutes(authed)
	reviewsHandler.RegisterRoutes(authed)

	// Admin routes
	admin := api.Group("/admin", middleware.Auth(verifier), middleware.RequireAdmin())
	ordersHandler.RegisterAdminRoutes(admin)
	catalogHandler.RegisterAdminRoutes(admin)
	reviewsHandler.RegisterAdminRoutes(admin)
	adminHandler.RegisterAdminRoutes(admin)

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Prometheus scrape endpoint
	router.GET("/metrics", middleware.MetricsHandler())

	// Start server
	if cfg.TLSEnabled {
		startHTTPSServer(cfg, log, router, ctx)
	} else {
		startHTTPServer(cfg, log, router, ctx)
	}
}

func startHTTPServer(cfg *config.Config, log *logger.Logger, router *gin.Engine, ctx context.Context) {
	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  cfg.HTTPTimeout,
		WriteTimeout: cfg.HTTPTimeout,
	}

	go func() {
		log.Info("HTTP server listening on http://localhost:" + cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error: " + err.Error())
		}
	}()

	waitForShutdown(server, log, ctx)
}

func startHTTPSServer(cfg *config.Config, log *logger.Logger, router *gin.Engine, ctx context.Context) {
	tlsConfig, err := pkgtls.ServerConfig(cfg.TLSCertFile, cfg.TLSKeyFile)
	if err != nil {
		log.Fatal("failed to load TLS config: " + err.Error())
	}

	server := &http.Server{
		Addr:         ":" + cfg.HTTPSPort,
		Handler:      router,
		TLSConfig:    tlsConfig,
		ReadTimeout:  cfg.HTTPTimeout,
		WriteTimeout: cfg.HTTPTimeout,
	}

	go func() {
		log.Info("HTTPS server listening on https://localhost:" + cfg.HTTPSPort)
		if err := server.ListenAndServeTLS("", ""); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTPS server error: " + err.Error())
		}
	}()

	waitForShutdown(server, log, ctx)
}

func waitForShutdown(server *http.Server, log *logger.Logger, ctx context.Context) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown error: " + err.Error())
	}

	log.Info("server stopped")
}
