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

	"github.com/vienatjeee/radiant-video-creator-68d5627c/internal/config"
	"github.com/vienatjeee/radiant-video-creator-68d5627c/internal/database"
	"github.com/vienatjeee/radiant-video-creator-68d5627c/internal/handlers"
	"github.com/vienatjeee/radiant-video-creator-68d5627c/internal/middleware"
	"github.com/vienatjeee/radiant-video-creator-68d5627c/internal/repository"
	"github.com/vienatjeee/radiant-video-creator-68d5627c/internal/router"
	"github.com/vienatjeee/radiant-video-creator-68d5627c/internal/services"
	"github.com/vienatjeee/radiant-video-creator-68d5627c/internal/websocket"
	"github.com/vienatjeee/radiant-video-creator-68d5627c/internal/worker"
)

func main() {
	log.Println("🚀 Starting Radiant Video Creator...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("✗ PostgreSQL connection failed: %v", err)
	}
	defer pool.Close()
	log.Println("✓ PostgreSQL connected")

	// ──── Step 3: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	defer redisClients.Close()
	log.Println("✓ Redis connected")

	// ──── Step 4: Run Database Migrations ────
	if err := database.RunMigrations(pool, "migrations"); err != nil {
		log.Fatalf("✗ Database migration failed: %v", err)
	}
	log.Println("✓ Database migrations applied")

	// ──── Initialize Services ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	userStore := services.NewRedisUserStore(redisClients.Queue)
	notifier := services.NewNotifier(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.NotifyEmail)

	authService, err := services.NewAuthService(userStore, jwtAuth, notifier, cfg.AdminEmail, cfg.AdminPassword)
	if err != nil {
		log.Fatalf("✗ Auth service initialization failed: %v", err)
	}

	enhancer, err := services.NewPromptEnhancer(cfg.GeminiAPIKey)
	if err != nil {
		log.Fatalf("✗ Prompt enhancer initialization failed: %v", err)
	}
	defer enhancer.Close()
	if enhancer.Enabled() {
		log.Println("✓ Gemini prompt enhancer initialized")
	} else {
		log.Println("○ Gemini prompt enhancer disabled (no API key)")
	}

	provider := services.NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL)
	frameService := services.NewFrameService(provider, enhancer, cfg.FrameStrategy)

	creationRepo := repository.NewCreationRepo(pool)
	publisher := services.NewRedisPublisher(redisClients.Queue)

	sessions, err := services.NewSessionManager(
		frameService,
		redisClients.Queue,
		publisher,
		creationRepo,
		cfg.StoragePath,
		cfg.GenerationDelay,
		cfg.AnalysisDelay,
	)
	if err != nil {
		log.Fatalf("✗ Session manager initialization failed: %v", err)
	}
	log.Println("✓ Session manager started")

	// ──── Initialize Handlers ────
	authHandler := handlers.NewAuthHandler(authService, sessions)
	userHandler := handlers.NewUserHandler(authService)
	sessionHandler := handlers.NewSessionHandler(sessions)
	framesHandler := handlers.NewFramesHandler(frameService)
	galleryHandler := handlers.NewGalleryHandler(creationRepo)

	// ──── Step 5: Start Job Worker Pool ────
	workerPool := worker.NewPool(redisClients.Queue, sessions, 5)
	workerPool.Start()
	log.Println("✓ Worker pool started (5 goroutines)")

	// ──── Step 6: Start WebSocket Hub ────
	wsHub := websocket.NewHub(redisClients.PubSub, jwtAuth)
	log.Println("✓ WebSocket hub started")

	// ──── Step 7: Start HTTP Server ────
	r := router.New(
		jwtAuth,
		authHandler,
		userHandler,
		sessionHandler,
		framesHandler,
		galleryHandler,
		wsHub,
		cfg.StoragePath,
	)

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

		log.Println("Shutting down...")
		workerPool.Stop()
		sessions.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ Radiant Video Creator ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/v1/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
