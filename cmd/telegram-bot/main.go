package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ai-workout-coach/internal/config"
	"ai-workout-coach/internal/database"
	"ai-workout-coach/internal/engine"
	"ai-workout-coach/internal/exercises"
	"ai-workout-coach/internal/llm"
	"ai-workout-coach/internal/metrics"
	"ai-workout-coach/internal/telegram"
	"ai-workout-coach/internal/workout"
)

func main() {
	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	geminiClient, err := llm.NewGeminiClient(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create Gemini client: %v", err)
	}
	defer geminiClient.Close()

	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	repo := workout.NewRepository(db.SQL)
	sessions := telegram.NewSessionRepository(db.SQL)
	metricsStore := metrics.NewStore(db.SQL)

	exerciseRepo := exercises.NewRepository(db.SQL)
	vectorRepo := exercises.NewVectorRepository(db.SQL)
	library := exercises.NewLibrary(exerciseRepo, vectorRepo, llm.NewCachedEmbeddingGenerator(geminiClient))
	if _, err := library.Reindex(ctx); err != nil {
		log.Fatalf("Failed to index exercise library: %v", err)
	}

	bounded := llm.NewBoundedGenerator(geminiClient, cfg.LLMTimeout)
	eng := engine.New(repo, bounded, library)

	bot, err := telegram.NewBot(cfg, eng, repo, sessions, metricsStore)
	if err != nil {
		log.Fatalf("Failed to initialize Telegram Bot: %v", err)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	bot.RegisterHandlers()

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: nil,
	}

	go func() {
		log.Printf("Telegram Bot Server listening on port %s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Expired adaptation sessions pile up unless something reaps them.
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			if err := sessions.CleanupExpired(context.Background()); err != nil {
				log.Printf("Warning: session cleanup failed: %v", err)
			}
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting")
}
