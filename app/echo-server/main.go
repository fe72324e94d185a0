package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpmetrics "borlette/app/echo-server/metrics"
	"borlette/app/echo-server/router"
	"borlette/business/catalog"
	"borlette/business/result"
	"borlette/business/ticket"
	userService "borlette/business/user"
	"borlette/internal/middleware"
	memoryRepo "borlette/internal/repository/memory"
	psqlRepo "borlette/internal/repository/postgres"
	redisRepo "borlette/internal/repository/redis"
	"borlette/internal/rest"
	"borlette/pkg/config"
	"borlette/pkg/database"
	redisClient "borlette/pkg/database/redis"
	"borlette/pkg/logger"
	"borlette/pkg/metrics"
	"borlette/pkg/utils"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.App.Environment)
	logger.Info("Starting "+cfg.App.Name, "version", cfg.App.Version, "storage", cfg.Database.Driver, "counter", cfg.Redis.Driver)

	betCatalog, err := catalog.LoadFile(cfg.Catalog.Path)
	if err != nil {
		logger.Fatal("Failed to load bet catalog", "error", err)
	}

	tokenService, err := utils.NewTokenService(cfg.JWT.SecretKey, cfg.JWT.TTL)
	if err != nil {
		logger.Fatal("Failed to init token service", "error", err)
	}

	// Init repo
	var (
		principalRepo userService.PrincipalRepository
		ticketRepo    ticket.TicketRepository
		resultRepo    result.ResultRepository
		counter       ticket.Counter
	)

	switch cfg.Database.Driver {
	case config.StorageDriverPostgres:
		db, err := database.InitPostgres(cfg)
		if err != nil {
			logger.Fatal("Failed to connect to database", "error", err)
		}
		logger.Info("Database connected successfully")

		if err := psqlRepo.AutoMigrate(db); err != nil {
			logger.Fatal("Failed to migrate database", "error", err)
		}

		principalRepo = psqlRepo.NewPrincipalRepository(db)
		ticketRepo = psqlRepo.NewTicketRepository(db)
		resultRepo = psqlRepo.NewResultRepository(db)
	default:
		logger.Warn("Using in-memory storage; data is lost on restart")
		principalRepo = memoryRepo.NewPrincipalRepository()
		ticketRepo = memoryRepo.NewTicketRepository()
		resultRepo = memoryRepo.NewResultRepository()
	}

	var rdb *redis.Client
	switch cfg.Redis.Driver {
	case config.CounterDriverRedis:
		rdb, err = redisClient.NewRedisClient(cfg)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", "error", err)
		}
		logger.Info("Redis connected successfully")
		counter = redisRepo.NewCounterRepository(rdb, redisRepo.DefaultCounterKey)
	default:
		counter = memoryRepo.NewCounter()
	}

	// Init service
	validate := rest.NewValidator()
	userSvc := userService.NewUserService(principalRepo, tokenService, validate)
	ticketSvc := ticket.NewTicketService(ticketRepo, resultRepo, principalRepo, counter, betCatalog, cfg.App.Timezone)
	resultSvc := result.NewResultService(resultRepo, betCatalog, validate, cfg.App.Timezone)

	if cfg.Bootstrap.MasterUsername != "" {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.RequestTimeout)
		created, err := userSvc.Bootstrap(ctx, cfg.Bootstrap.MasterUsername, cfg.Bootstrap.MasterPassword)
		cancel()
		if err != nil {
			logger.Fatal("Failed to bootstrap master account", "error", err)
		}
		if !created {
			logger.Info("Master account exists, bootstrap skipped")
		}
	}

	// Init handler
	authHandler := rest.NewAuthHandler(userSvc, cfg.Server.RequestTimeout)
	catalogHandler := rest.NewCatalogHandler(betCatalog)
	ticketHandler := rest.NewTicketHandler(ticketSvc, cfg.Server.RequestTimeout)
	resultHandler := rest.NewResultHandler(resultSvc, cfg.Server.RequestTimeout)
	userHandler := rest.NewUserHandler(userSvc, cfg.Server.RequestTimeout)

	metrics.Init()
	httpmetrics.Init()

	// Init echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// HTTP error handler
	e.HTTPErrorHandler = middleware.ErrorHandler

	// Global middleware
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.Server.CORSAllowOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(httpmetrics.Middleware())

	e.GET("/metrics", httpmetrics.Handler())
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok", "version": cfg.App.Version})
	})

	// Auth middleware
	authRequired := middleware.AuthMiddleware(tokenService)

	// Setup routes
	api := e.Group("/api/v1")
	router.SetupAuthRoutes(api, authHandler, authRequired)
	router.SetupCatalogRoutes(api, catalogHandler, authRequired)
	router.SetupTicketRoutes(api, ticketHandler, authRequired)
	router.SetupResultRoutes(api, resultHandler, authRequired)
	router.SetupUserRoutes(api, userHandler, authRequired)

	// Goroutine server
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server starting", "address", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown server
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	if err := redisClient.CloseRedisClient(rdb); err != nil {
		logger.Error("Redis close error", "error", err)
	}

	logger.Info("Server stopped")
}
