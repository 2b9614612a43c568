package main

import (
	"context" // context package is needed for Redis operations
	"time"    // Lock lifetime

	"finance_tracker/internal/api"    // Custom package for API handlers
	"finance_tracker/internal/config" // Custom package for configuration
	"finance_tracker/internal/db"     // Database connection
	"finance_tracker/internal/ledger" // Entry business rules
	"finance_tracker/internal/store"  // GORM-backed persistence
	"finance_tracker/internal/utils"  // Tokens and locks

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
)

// How long a login may hold the recurring generation lock
const generationLockTTL = 30 * time.Second

// Main function to set up and run the server
func main() {
	cfg, err := config.LoadConfig() // Load configuration
	if err != nil {
		logrus.Fatalf("invalid configuration: %v", err)
	}

	// Setup logger
	if cfg.IsProd {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	gdb, err := db.Open(cfg)
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}
	if cfg.DBDriver == "sqlite" {
		// Local runs create their schema on start; mysql uses cmd/migrate
		if err := db.Migrate(gdb); err != nil {
			logrus.Fatalf("failed to migrate: %v", err)
		}
	}

	// Setup Redis client, only when configured
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr, // Redis server address
			Password: cfg.RedisPass, // Redis password
			DB:       cfg.RedisDB,   // Redis database number
		})
		// Test Redis connection
		if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
			logrus.Fatalf("failed to connect to Redis: %v", err)
		}
	} else {
		logrus.Warn("REDIS_ADDR not set, recurring generation runs without a lock")
	}

	tokens, err := utils.NewTokenIssuer(cfg.SecretKey, cfg.Algorithm, cfg.TokenExpiry)
	if err != nil {
		logrus.Fatalf("invalid token settings: %v", err)
	}
	st := store.New(gdb)
	ldg := ledger.New(st, nil)

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default() // Gin router instance

	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}

	api.RegisterRoutes(r, api.Deps{
		Users:     st,
		Entries:   ldg,
		Generator: ldg,
		Tokens:    tokens,
		Locker:    utils.NewLocker(redisClient, generationLockTTL),
	})

	logrus.WithField("port", cfg.AppPort).Info("Server running") // Log server start
	if err := r.Run(":" + cfg.AppPort); err != nil {            // Start the server on port cfg.AppPort
		logrus.Fatalf("server stopped: %v", err)
	}
}
