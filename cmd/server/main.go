/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the WTS ops portal server. Handles configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags and load config
  2. Initialize SQLite store
  3. Connect the Harbor custodial client
  4. Wire service, job manager, and sweeper
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (default: from config, 8080)
  -db      SQLite database path (default: from config, portal.db)
           Use ":memory:" for in-memory database
  -config  YAML config file path (default: portal.yaml)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the job sweeper
  4. Close database connection
  5. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/portal.db"

  # Run with in-memory database
  ./server -db=":memory:"

  # Run on different port
  ./server -port=3000

ENVIRONMENT:
  HARBOR_BASE_URL, HARBOR_API_KEY, PORTAL_SQLITE_PATH, PORTAL_LOG_LEVEL
  override the config file.

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/darren-olevson/wts-admin-portal-sub000/api"
	"github.com/darren-olevson/wts-admin-portal-sub000/config"
	"github.com/darren-olevson/wts-admin-portal-sub000/harbor"
	"github.com/darren-olevson/wts-admin-portal-sub000/jobs"
	"github.com/darren-olevson/wts-admin-portal-sub000/logging"
	"github.com/darren-olevson/wts-admin-portal-sub000/portal"
	"github.com/darren-olevson/wts-admin-portal-sub000/store/sqlite"
)

func main() {
	// Flags
	configPath := flag.String("config", "portal.yaml", "YAML config file path")
	port := flag.Int("port", 0, "HTTP server port (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *dbPath != "" {
		cfg.Database.SQLitePath = *dbPath
	}

	log := logging.Setup(cfg.LogLevel)

	// Initialize store
	store, err := sqlite.New(cfg.Database.SQLitePath)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize database")
	}
	defer store.Close()

	// Harbor custodial client
	session := harbor.NewSessionContext()
	client := harbor.NewClient(cfg.Harbor.BaseURL, cfg.Harbor.APIKey, session)

	// Core service and background jobs
	svc := portal.NewService(store, client, log)
	jobStore := jobs.NewMemory()
	manager := jobs.NewManager(jobStore, store, log)

	sweeper := jobs.NewSweeper(jobStore, time.Duration(cfg.Jobs.TTLHours)*time.Hour, log)
	if err := sweeper.Start(cfg.Jobs.SweepCron); err != nil {
		log.WithError(err).Fatal("Failed to start job sweeper")
	}
	defer sweeper.Stop()

	// HTTP layer
	handler := api.NewHandler(svc, store, client, session, manager, jobStore, log)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.WithField("port", cfg.Server.Port).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("Server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Fatal("Server forced to shutdown")
	}

	log.Info("Server stopped")
}
