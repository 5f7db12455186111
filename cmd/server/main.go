package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cshaw/projrecon/internal/cache"
	"github.com/cshaw/projrecon/internal/config"
	"github.com/cshaw/projrecon/internal/db"
	"github.com/cshaw/projrecon/internal/middleware"
	"github.com/cshaw/projrecon/internal/notes"
	"github.com/cshaw/projrecon/internal/recon"
	"github.com/cshaw/projrecon/internal/repository"
	"github.com/cshaw/projrecon/internal/xlsx"

	"github.com/rs/cors"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Setup database connection
	conn, err := db.NewConnection(ctx, cfg.DB)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close()

	// Run migrations
	if err := db.RunMigrations(ctx, conn.Pool, cfg.Cache.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Create repositories and services
	cacheRepo := repository.NewCacheRepository(conn.Pool)
	logRepo := repository.NewRefreshLogRepository(conn.Pool)
	store := cache.NewStore(cacheRepo, logRepo, cache.WithTTL(cfg.Cache.TTL))

	pipeline := recon.NewPipeline(xlsx.FileReader{}, recon.NewJoiner(), cfg.Pipeline.Filters)
	coordinator := recon.NewCoordinator()
	reconHandler := recon.NewHTTPHandler(pipeline, coordinator, store)
	cacheHandler := cache.NewHTTPHandler(store)
	notesHandler := notes.NewHTTPHandler(notes.NewService(cfg.Pipeline.NotesDir))

	// Setup CORS
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/api/reconcile", reconHandler.Reconcile)
	mux.HandleFunc("/api/projects", reconHandler.Projects)
	mux.Handle("/api/projects/", notesHandler)
	mux.HandleFunc("/api/cache/info", cacheHandler.Info)
	mux.HandleFunc("/api/cache/invalidate", cacheHandler.Invalidate)
	mux.HandleFunc("/api/cache/history", cacheHandler.History)
	mux.Handle("/api/sheets/update", xlsx.NewUpdateHandler())

	handler := corsHandler.Handler(middleware.LoggingMiddleware(mux))

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting reconciliation server on %s", cfg.Server.Addr)

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
