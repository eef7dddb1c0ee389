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

	"gloqe-backend/internal/config"
	"gloqe-backend/internal/database"
	"gloqe-backend/internal/handlers"
	"gloqe-backend/internal/middleware"
	"gloqe-backend/internal/progress"
	"gloqe-backend/internal/repository"
	"gloqe-backend/internal/router"
	"gloqe-backend/internal/services"
	"gloqe-backend/internal/session"
	"gloqe-backend/internal/websocket"
	"gloqe-backend/internal/worker"
)

func main() {
	log.Println("🚀 Starting Gloqe Backend...")

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

	// ──── Initialize Repositories ────
	userRepo := repository.NewUserRepo(pool)
	documentRepo := repository.NewDocumentRepo(pool)
	progressRepo := repository.NewProgressRepo(pool)
	studySessionRepo := repository.NewStudySessionRepo(pool)
	reportRepo := repository.NewReportRepo(pool)
	prefsRepo := repository.NewPrefsRepo(redisClients.Queue)

	// ──── Initialize Session & Progress Engines ────
	sessionManager := session.NewManager(nil)
	progressRegistry := progress.NewRegistry(progressRepo)

	// ──── Initialize Services ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	snapshotPublisher := services.NewSnapshotPublisher(userRepo, redisClients.Queue)
	analyticsService := services.NewAnalyticsService(redisClients.Queue)
	studyService := services.NewStudyService(
		sessionManager,
		progressRegistry,
		studySessionRepo,
		documentRepo,
		userRepo,
		analyticsService,
		snapshotPublisher,
	)
	gamificationService := services.NewGamificationService(userRepo)

	// ──── Initialize Handlers ────
	sessionHandler := handlers.NewSessionHandler(studyService)
	progressHandler := handlers.NewProgressHandler(studyService, progressRepo)
	documentHandler := handlers.NewDocumentHandler(documentRepo)
	gamificationHandler := handlers.NewGamificationHandler(gamificationService)
	dashboardHandler := handlers.NewDashboardHandler(gamificationService, studySessionRepo, reportRepo)
	userHandler := handlers.NewUserHandler(userRepo, prefsRepo)

	// ──── Step 5: Start Analytics Worker Pool ────
	workerPool := worker.NewPool(redisClients.Queue, reportRepo, cfg.WorkerCount)
	workerPool.Start()
	log.Printf("✓ Worker pool started (%d goroutines)", cfg.WorkerCount)

	// ──── Step 6: Start WebSocket Hub ────
	wsHub := websocket.NewHub(redisClients.PubSub, cfg.JWTSecret)
	log.Println("✓ WebSocket hub started")

	notificationScheduler := services.NewNotificationScheduler(userRepo, prefsRepo, wsHub)
	notificationScheduler.Start()
	log.Println("✓ Notification scheduler started")

	// ──── Step 7: Start HTTP Server ────
	r := router.New(
		jwtAuth,
		sessionHandler,
		progressHandler,
		documentHandler,
		gamificationHandler,
		dashboardHandler,
		userHandler,
		wsHub,
		cfg.FrontendURL,
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
		notificationScheduler.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ Gloqe Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/v1/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
