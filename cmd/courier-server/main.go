// Package main provides the courier server executable with HTTP API and live
// event stream.
package main

import (
	"context"
	"database/sql"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coregx/courier"
	"github.com/coregx/courier/adapters/relica"
	"github.com/coregx/courier/cmd/courier-server/internal/api"
	"github.com/coregx/courier/cmd/courier-server/internal/auth"
	"github.com/coregx/courier/cmd/courier-server/internal/config"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// SimpleLogger implements courier.Logger for standard logging.
type SimpleLogger struct{}

func (l *SimpleLogger) Debugf(format string, args ...interface{}) {
	log.Printf("[DEBUG] "+format, args...)
}
func (l *SimpleLogger) Infof(format string, args ...interface{}) {
	log.Printf("[INFO] "+format, args...)
}
func (l *SimpleLogger) Warnf(format string, args ...interface{}) {
	log.Printf("[WARN] "+format, args...)
}
func (l *SimpleLogger) Errorf(format string, args ...interface{}) {
	log.Printf("[ERROR] "+format, args...)
}
func (l *SimpleLogger) Info(message string) {
	log.Printf("[INFO] %s", message)
}

func main() {
	log.Println("🚀 Starting Courier Server v0.1.0...")

	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("📝 Configuration loaded:")
	log.Printf("   Server: %s", cfg.Addr())
	log.Printf("   Database: %s (%s:%d)", cfg.DBDriver, cfg.DBHost, cfg.DBPort)
	log.Printf("   Stream buffer: %d", cfg.StreamBuffer)

	// Connect to database
	db, err := sql.Open(cfg.DBDriver, cfg.DSN())
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			log.Printf("Failed to close database: %v", closeErr)
		}
	}()

	// Test connection
	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("✅ Database connection established")

	// Create logger
	logger := &SimpleLogger{}

	// Create repositories using Relica adapters
	var repos *relica.Repositories
	if cfg.DBPrefix != "" {
		repos = relica.NewRepositoriesWithPrefix(db, cfg.DBDriver, cfg.DBPrefix)
	} else {
		repos = relica.NewRepositories(db, cfg.DBDriver)
	}
	log.Println("✅ Repositories initialized (Relica adapters)")

	// Create channel registry
	registry := courier.NewRegistry(
		courier.WithRegistryLogger(logger),
		courier.WithRegistryHooks(courier.NewLoggingHooks(logger)),
	)
	log.Println("✅ Channel registry created")

	// Create message lifecycle manager
	lifecycle, err := courier.NewLifecycle(
		courier.WithLifecycleRepository(repos.Message),
		courier.WithLifecycleRegistry(registry),
		courier.WithLifecycleLogger(logger),
	)
	if err != nil {
		log.Fatalf("Failed to create lifecycle manager: %v", err)
	}
	log.Println("✅ Lifecycle manager created")

	// Create token verifier
	verifier := auth.NewVerifier(cfg.JWTSecret)

	// Create API handler and routes
	handler := api.NewHandler(lifecycle, registry, verifier, logger, cfg.StreamBuffer)
	router := handler.Router()

	// Base context for all requests; cancelling it ends the open event
	// streams so shutdown does not wait for them.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Create HTTP server. No WriteTimeout: the event stream holds its
	// response open for the connection's whole lifetime.
	server := &http.Server{
		Addr:        cfg.Addr(),
		Handler:     loggingMiddleware(router, logger),
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	// Start server in background
	go func() {
		log.Printf("🌐 HTTP server listening on %s", cfg.Addr())
		log.Println("📡 API Endpoints:")
		log.Println("   POST   /api/v1/messages")
		log.Println("   GET    /api/v1/messages")
		log.Println("   GET    /api/v1/messages/unread-count")
		log.Println("   GET    /api/v1/messages/:id")
		log.Println("   PUT    /api/v1/messages/:id/status")
		log.Println("   POST   /api/v1/messages/:id/reply")
		log.Println("   GET    /api/v1/stream")
		log.Println("   GET    /api/v1/health")
		log.Println()
		log.Println("✅ Courier Server is ready!")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	// Close open event streams, then drain the remaining requests
	cancel()

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("✅ Server stopped gracefully")
}

// loggingMiddleware logs HTTP requests.
func loggingMiddleware(next http.Handler, logger courier.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		logger.Infof("%s %s", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
		logger.Debugf("%s %s - %v", r.Method, r.URL.Path, time.Since(start))
	})
}
