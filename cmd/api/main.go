package main

import (
	"context"
	"log"
	"time"

	"assistant-chat/config"
	"assistant-chat/internal/cache"
	"assistant-chat/internal/handler"
	"assistant-chat/internal/server"
	"assistant-chat/internal/services"
	"assistant-chat/internal/storage"
	"assistant-chat/internal/storage/jsonfile"
	"assistant-chat/internal/storage/postgres"
	"assistant-chat/pkg/logger"
)

func main() {
	cfg := config.LoadConfig()

	l := logger.New(cfg.AppMode)
	defer l.Sync()

	ctx := context.Background()

	var store storage.Store
	var err error
	switch cfg.StorageBackend {
	case config.BackendPostgres:
		store, err = postgres.New(ctx, cfg.DatabaseURL)
	case config.BackendFile:
		store, err = jsonfile.New(cfg.DataDir)
	default:
		log.Fatalf("Unknown storage backend: %q", cfg.StorageBackend)
	}
	if err != nil {
		log.Fatalf("Failed to open %s storage: %v", cfg.StorageBackend, err)
	}
	defer store.Close()

	var userCache *cache.Store
	var limiter *cache.RateLimiter
	if cfg.RedisEnabled {
		client, err := cache.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		defer client.Close()
		userCache = cache.New(client, cache.DefaultConfig())
		limiter = cache.NewRateLimiter(client, cfg.AuthRateLimit, time.Duration(cfg.AuthRateWindow)*time.Second)
	}

	tokens := services.NewTokenService(cfg.JWTSecret, time.Duration(cfg.TokenTTLDays)*24*time.Hour)
	authService := services.NewAuthService(store, tokens, userCache)
	chatService := services.NewChatService(store, services.EchoReplier{})

	srv := server.New(cfg, l)
	srv.SetupRoutes(&server.Handlers{
		Auth: handler.NewAuthHandler(authService),
		Chat: handler.NewChatHandler(chatService),
	}, authService, limiter)

	if err := srv.Start(); err != nil {
		log.Fatalf("Server exited with error: %v", err)
	}
}
