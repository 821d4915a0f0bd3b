package handler

import (
	"context"
	"log"
	"net/http"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"travelmap-api/internal/config"
	"travelmap-api/internal/server"
)

var (
	handler http.Handler
	mu      sync.Mutex
	ready   atomic.Bool
)

// initHandler initializes the HTTP handler once and reuses it across invocations.
// A failed attempt leaves nothing behind, so the next request retries.
//
// Note: clients are not explicitly closed as Vercel's serverless
// runtime handles resource cleanup on function termination.
func initHandler() error {
	if ready.Load() {
		return nil
	}

	mu.Lock()
	defer mu.Unlock()

	if ready.Load() {
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		log.Printf("Failed to load configuration: %v", err)
		return err
	}

	logger, err := server.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Printf("Failed to create logger: %v", err)
		return err
	}

	svcs, err := server.InitServices(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("failed to initialize services", zap.Error(err))
		return err
	}

	// handler is written before ready is set, so readers that see ready see it.
	handler = server.CreateHandler(svcs, cfg, logger)
	ready.Store(true)

	logger.Info("handler initialized")
	return nil
}

// Handler is the Vercel serverless function entry point
func Handler(w http.ResponseWriter, r *http.Request) {
	if err := initHandler(); err != nil {
		log.Printf("Handler initialization failed: %v", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	handler.ServeHTTP(w, r)
}
