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

	"aoe-companion-api/internal/cache"
	"aoe-companion-api/internal/config"
	"aoe-companion-api/internal/gateway"
	"aoe-companion-api/internal/handler"
	"aoe-companion-api/internal/middleware"
	"aoe-companion-api/internal/repository"
	"aoe-companion-api/internal/router"
	"aoe-companion-api/internal/service"

	"github.com/redis/go-redis/v9"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting AoE Companion API...")

	// Load configuration
	cfg := config.MustLoad()
	log.Printf("Environment: %s", cfg.App.Environment)

	// Initialize document store based on config
	var store repository.Store
	switch cfg.Store.Type {
	case "mysql":
		mysqlStore, err := repository.NewMySQLStore(cfg.Store.MySQLDSN())
		if err != nil {
			log.Fatalf("Failed to initialize MySQL store: %v", err)
		}
		defer mysqlStore.Close()
		store = mysqlStore
		log.Println("MySQL document store initialized")
	case "redis":
		redisStore, err := repository.NewRedisStore(cfg.Cache.RedisAddress(), cfg.Cache.RedisPassword, cfg.Cache.RedisDB)
		if err != nil {
			log.Fatalf("Failed to initialize Redis store: %v", err)
		}
		defer redisStore.Close()
		store = redisStore
		log.Println("Redis document store initialized")
	default: // sqlite
		sqliteStore, err := repository.NewSQLiteStore(cfg.Store.Path)
		if err != nil {
			log.Fatalf("Failed to initialize SQLite store: %v", err)
		}
		defer sqliteStore.Close()
		store = sqliteStore
		log.Println("SQLite document store initialized")
	}

	// Initialize quota cache. Redis when configured and reachable,
	// in-memory otherwise.
	var quotaCache cache.Cache
	if cfg.Cache.Type == "redis" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.RedisAddress(),
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := redisClient.Ping(ctx).Err()
		cancel()
		if err != nil {
			log.Printf("Warning: Redis cache connection failed, falling back to memory: %v", err)
			redisClient.Close()
		} else {
			quotaCache = cache.NewRedisCache(redisClient, "aoe:cache:")
			defer redisClient.Close()
			log.Println("Redis cache initialized")
		}
	}
	if quotaCache == nil {
		memCache := cache.NewMemoryCache()
		defer memCache.Close()
		quotaCache = memCache
		log.Println("Memory cache initialized")
	}

	// Initialize AI gateway client
	gatewayClient := gateway.NewHTTPClient(cfg.Gateway.BaseURL, cfg.Gateway.Timeout)
	log.Printf("Gateway client initialized (%s)", cfg.Gateway.BaseURL)

	// Initialize services
	accountService := service.NewAccountService(store, gatewayClient, quotaCache, cfg.Gateway.QuotaTTL)
	collectionService := service.NewCollectionService(store)
	scanService := service.NewScanService(gatewayClient, accountService, collectionService, cfg.Gateway.DefaultModel)
	oracleService := service.NewOracleService(
		gatewayClient,
		accountService,
		collectionService,
		store,
		cfg.Gateway.DefaultModel,
		cfg.Oracle.HistoryLimit,
	)

	// Start background quota refresh for the active account
	quotaWatcher := service.NewQuotaWatcher(accountService, cfg.Oracle.RefreshInterval)
	quotaWatcher.Start()

	// Initialize handlers
	healthHandler := handler.New(cfg.App.Version)
	accountHandler := handler.NewAccountHandler(accountService)
	scanHandler := handler.NewScanHandler(scanService)
	collectionHandler := handler.NewCollectionHandler(collectionService)
	oracleHandler := handler.NewOracleHandler(oracleService)
	dataHandler := handler.NewDataHandler(collectionService)

	authMiddleware := middleware.NewAuthMiddleware(middleware.AuthConfig{
		APIKey: cfg.App.APIKey,
	})
	if cfg.App.APIKey == "" {
		log.Println("Warning: API_KEY not set, /api/v1 is unauthenticated")
	}

	storeCheck := func() handler.Check {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if _, err := store.Keys(ctx, "aoe:"); err != nil {
			return handler.Check{Name: "store", Status: "error: " + err.Error()}
		}
		return handler.Check{Name: "store", Status: "ok"}
	}

	// Create router
	r := router.New(router.Config{
		Handler:           healthHandler,
		AccountHandler:    accountHandler,
		ScanHandler:       scanHandler,
		CollectionHandler: collectionHandler,
		OracleHandler:     oracleHandler,
		DataHandler:       dataHandler,
		AuthMiddleware:    authMiddleware,
		ReadyChecks:       []handler.ReadyCheckFunc{storeCheck},
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server listening on %s", cfg.Server.Address())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	quotaWatcher.Stop()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
	fmt.Println("Goodbye!")
}
