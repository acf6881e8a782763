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

	"teamvault/internal/api"
	"teamvault/internal/cache"
	"teamvault/internal/config"
	"teamvault/internal/platform/crypto"
	"teamvault/internal/service"
	"teamvault/internal/store/blob"
	storemongo "teamvault/internal/store/mongo"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// main is the entry point for the application.
func main() {
	if err := run(); err != nil {
		log.Fatalf("failed to run server: %v", err)
	}
}

// run initializes and starts the HTTP server.
func run() error {
	// =========================================================================
	// Configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.Vault.MasterEncryptionKey == "" {
		return fmt.Errorf("master encryption key (KEY) is required")
	}
	if cfg.Auth.AccessKey == "" {
		return fmt.Errorf("access token key (PASSWORD_ACCESS) is required")
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()
	logger.Info("configuration loaded")

	// =========================================================================
	// Database Connection
	dbCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbClient, err := storemongo.NewClient(dbCtx, cfg.Mongo)
	if err != nil {
		return fmt.Errorf("could not connect to database: %w", err)
	}
	defer func() {
		if err := dbClient.Disconnect(context.Background()); err != nil {
			logger.Error("error disconnecting from database", zap.Error(err))
		}
	}()
	logger.Info("database connection established")

	db := dbClient.Database(cfg.Mongo.Database)
	folderStore := storemongo.NewFolderStore(db)
	itemStore := storemongo.NewItemStore(db)
	pinStore := storemongo.NewPinStore(db)

	// =========================================================================
	// Ciphertext storage
	var blobs blob.Store
	switch cfg.Storage.Type {
	case "s3":
		blobs, err = blob.NewS3Store(dbCtx, cfg.Storage)
		if err != nil {
			return fmt.Errorf("could not initialize S3 blob store: %w", err)
		}
		logger.Info("ciphertext storage: s3", zap.String("bucket", cfg.Storage.S3Bucket))
	default:
		blobs = blob.NewInlineStore()
		logger.Info("ciphertext storage: inline")
	}

	// =========================================================================
	// Optional item metadata cache
	var itemCache *cache.ItemCache
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(dbCtx).Err(); err != nil {
			return fmt.Errorf("could not connect to redis: %w", err)
		}
		itemCache = cache.New(rdb, cfg.Redis.TTL, logger)
		logger.Info("item cache enabled", zap.String("addr", cfg.Redis.Addr))
	}

	// =========================================================================
	// Initialize Dependencies (Dependency Injection)
	tokenVerifier := crypto.NewJWTVerifier(cfg.Auth.AccessKey)
	pinHasher := crypto.NewBcryptPinHasher(0)

	pinService := service.NewPinService(pinStore, pinHasher,
		cfg.Vault.PinAttemptsPerMin, cfg.Vault.PinAttemptBurst, logger)
	folderService := service.NewFolderService(folderStore, itemStore)
	vaultService := service.NewVaultService(itemStore, folderStore, blobs, itemCache,
		cfg.Vault.MasterEncryptionKey, cfg.Vault.MaxUploadBytes, logger)

	authMiddleware := api.NewAuthMiddleware(tokenVerifier)
	pinHandler := api.NewPinHandler(pinService)
	folderHandler := api.NewFolderHandler(folderService)
	fileHandler := api.NewFileHandler(vaultService, cfg.Vault.MaxUploadBytes)

	handler := api.NewRouter(authMiddleware, pinHandler, folderHandler, fileHandler, logger)
	logger.Info("dependencies initialized")

	// =========================================================================
	// HTTP Server Setup
	server := &http.Server{
		Addr:         cfg.HTTP.Port,
		Handler:      http.TimeoutHandler(handler, cfg.Vault.RequestTimeout, `{"success":false,"message":"request timed out"}`),
		ReadTimeout:  cfg.Vault.RequestTimeout,
		WriteTimeout: cfg.Vault.RequestTimeout + 5*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// =========================================================================
	// Start Server & Graceful Shutdown
	shutdownErr := make(chan error)

	go func() {
		logger.Info("server starting", zap.String("addr", server.Addr))
		if cfg.HTTP.KeyPath != "" && cfg.HTTP.CertPath != "" {
			shutdownErr <- server.ListenAndServeTLS(cfg.HTTP.CertPath, cfg.HTTP.KeyPath)
		} else {
			shutdownErr <- server.ListenAndServe()
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-shutdownErr:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		logger.Info("shutdown signal received", zap.String("signal", sig.String()))
	}

	ctx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	logger.Info("server shut down gracefully")
	return nil
}
