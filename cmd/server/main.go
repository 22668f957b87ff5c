/*
main.go - Application entry point

PURPOSE:

	Initializes and starts the pledge engine server. Handles
	configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
 1. Parse command-line flags
 2. Initialize SQLite store
 3. Create engine service and API handler
 4. Configure HTTP router, start the overdue scanner
 5. Start server with graceful shutdown

COMMAND-LINE FLAGS:

	-port    HTTP server port (default: 8080)
	-db      SQLite database path (default: pledges.db)
	         Use ":memory:" for an in-memory database
	-scan    Overdue scan interval (default: 1h, 0 disables)

GRACEFUL SHUTDOWN:

	On SIGINT/SIGTERM:
	1. Stop accepting new connections
	2. Wait for active requests to complete (30s timeout)
	3. Stop the overdue scanner, close the database
	4. Exit

EXAMPLES:

	# Run with file database
	./server -db="./data/pledges.db"

	# Run with in-memory database
	./server -db=":memory:"

	# Run on different port
	./server -port=3000

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

	"go.uber.org/zap"

	"github.com/unitedfund/pledge-engine/api"
	"github.com/unitedfund/pledge-engine/engine"
	"github.com/unitedfund/pledge-engine/store/sqlite"
)

func main() {
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "pledges.db", "SQLite database path")
	scanInterval := flag.Duration("scan", time.Hour, "overdue scan interval (0 disables)")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	store, err := sqlite.New(*dbPath)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer store.Close()

	service := engine.NewService(store, nil, logger)
	handler := api.NewHandler(store, service, logger)
	router := api.NewRouter(handler)

	scanner := api.NewOverdueScanner(store, logger)
	if *scanInterval > 0 {
		scanner.CheckInterval = *scanInterval
		scanner.Start()
		defer scanner.Stop()
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting",
			zap.Int("port", *port),
			zap.String("db", *dbPath))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
