package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cluster_kita/internal/api"              // HTTP handlers and router
	"cluster_kita/internal/config"           // Environment configuration
	"cluster_kita/internal/db"               // Database connection
	"cluster_kita/internal/gateway/midtrans" // Payment gateway client
	"cluster_kita/internal/identity"         // Session and webhook verification
	"cluster_kita/internal/notify"           // WhatsApp notifications
	"cluster_kita/internal/repository"       // Persistence
	"cluster_kita/internal/service"          // Business operations

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
)

const shutdownTimeout = 10 * time.Second

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration
	cfg.ConfigureLogger()

	gdb, err := db.Open(cfg.DSN())
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}

	// Setup Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr, // Redis server address
		Password: cfg.RedisPass, // Redis password
		DB:       cfg.RedisDB,   // Redis database number
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logrus.Fatalf("failed to connect to Redis: %v", err)
	}

	sessions, err := identity.NewVerifier(cfg.SessionSecret, cfg.SessionPublicKey)
	if err != nil {
		logrus.Fatalf("failed to set up session verification: %v", err)
	}
	var webhooks *identity.WebhookVerifier
	if cfg.IdentityWebhookSecret != "" {
		if webhooks, err = identity.NewWebhookVerifier(cfg.IdentityWebhookSecret); err != nil {
			logrus.Fatalf("invalid identity webhook secret: %v", err)
		}
	} else {
		logrus.Warn("IDENTITY_WEBHOOK_SECRET not set, identity webhooks disabled")
	}
	if !cfg.MidtransVerifySignature {
		logrus.Warn("Midtrans signature verification disabled")
	}

	svc := service.New(service.Options{
		Store:           repository.NewGormStore(gdb),
		Redis:           redisClient,
		Gateway:         midtrans.NewClient(cfg.MidtransServerKey, cfg.MidtransIsProduction),
		Notifier:        notify.NewWhatsApp(cfg.WhatsAppGatewayURL, cfg.WhatsAppAPIKey),
		VerifySignature: cfg.MidtransVerifySignature,
	})

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	r, err := api.NewRouter(api.Deps{
		Service:   svc,
		Sessions:  sessions,
		Webhooks:  webhooks,
		SignInURL: cfg.SignInURL,
	})
	if err != nil {
		logrus.Fatalf("failed to build router: %v", err)
	}
	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logrus.WithField("port", cfg.AppPort).Info("Server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("server stopped: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logrus.Errorf("graceful shutdown failed: %v", err)
	}
	if err := redisClient.Close(); err != nil {
		logrus.Warnf("closing redis: %v", err)
	}
	if sqlDB, err := gdb.DB(); err == nil {
		sqlDB.Close()
	}
	logrus.Info("Server stopped")
}
