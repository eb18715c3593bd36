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

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"shopsense-backend/internal/config"
	"shopsense-backend/internal/database"
	"shopsense-backend/internal/handlers"
	"shopsense-backend/internal/logging"
	"shopsense-backend/internal/middleware"
	"shopsense-backend/internal/orchestrator"
	"shopsense-backend/internal/router"
	"shopsense-backend/internal/services"
	"shopsense-backend/internal/session"
	"shopsense-backend/internal/websocket"
	"shopsense-backend/internal/worker"
)

const sessionTTL = 24 * time.Hour

func main() {
	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("logger initialization failed: %v", err)
	}
	defer logger.Sync()
	logger.Info("starting ShopSense backend", zap.String("env", cfg.Env))

	// ──── Step 2: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(cfg.RedisURL)
	if err != nil {
		logger.Fatal("Redis connection failed", zap.Error(err))
	}
	defer redisClients.Close()
	logger.Info("Redis connected")

	// ──── Step 3: Initialize Gemini Client ────
	ctx := context.Background()
	geminiService, err := services.NewGeminiService(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiConcurrentReqs, logger)
	if err != nil {
		logger.Fatal("Gemini client initialization failed", zap.Error(err))
	}
	defer geminiService.Close()
	logger.Info("Gemini client initialized", zap.String("model", cfg.GeminiModel))

	// ──── Step 4: Initialize Services ────
	var backend services.ProductBackend
	if cfg.SearchMode == config.SearchModeLive {
		backend = services.NewOxylabsClient(cfg.OxylabsUsername, cfg.OxylabsPassword, logger)
		logger.Info("live product search enabled")
	}

	triage := services.NewTriage(geminiService, logger)
	searchService := services.NewSearchService(geminiService, backend, cfg.SearchMode, logger)

	modalCache := gocache.New(30*time.Minute, 10*time.Minute)
	orch := orchestrator.New(triage, searchService, geminiService, modalCache, logger)

	store := session.NewStore(redisClients.Store, sessionTTL)
	sessionAuth := middleware.NewSessionAuth(cfg.SessionSecret)
	queue := worker.NewQueue(redisClients.Store)
	publisher := websocket.NewPublisher(redisClients.Store)

	// ──── Step 5: Start Turn Worker Pool ────
	workerPool := worker.NewPool(
		redisClients.Store,
		store,
		orch,
		publisher,
		cfg.WorkerCount,
		time.Duration(cfg.TurnTimeoutSeconds)*time.Second,
		logger,
	)
	workerPool.Start()
	logger.Info("worker pool started", zap.Int("workers", cfg.WorkerCount))

	// ──── Step 6: Start WebSocket Hub ────
	wsHub := websocket.NewHub(redisClients.PubSub, cfg.SessionSecret, logger)

	// ──── Step 7: Start HTTP Server ────
	sessionHandler := handlers.NewSessionHandler(store, sessionAuth)
	chatHandler := handlers.NewChatHandler(store, queue, publisher)
	productHandler := handlers.NewProductHandler(store)
	modalHandler := handlers.NewModalHandler(store, orch)

	r := router.New(sessionAuth, sessionHandler, chatHandler, productHandler, modalHandler, wsHub)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("shutting down")
		workerPool.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	logger.Info("server listening",
		zap.String("addr", server.Addr),
		zap.String("search_mode", cfg.SearchMode))

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
