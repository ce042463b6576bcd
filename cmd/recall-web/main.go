package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/scrypster/recall/internal/ai"
	"github.com/scrypster/recall/internal/capture/screenshots"
	"github.com/scrypster/recall/internal/config"
	"github.com/scrypster/recall/internal/engine"
	"github.com/scrypster/recall/internal/services"
	"github.com/scrypster/recall/internal/storage"
	"github.com/scrypster/recall/internal/storage/postgres"
	"github.com/scrypster/recall/internal/storage/sqlite"
	"github.com/scrypster/recall/web/handlers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	memories, tasks, settings, err := openStores(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer memories.Close()

	analyzer, err := ai.NewAnalyzer(ai.ProviderConfig{
		Provider: cfg.AI.Provider,
		APIKey:   cfg.AI.APIKey,
		Model:    cfg.AI.Model,
		BaseURL:  cfg.AI.BaseURL,
		Timeout:  cfg.AI.RequestTimeout,
	})
	if err != nil {
		log.Fatalf("Failed to initialize AI provider: %v", err)
	}

	engineCfg := engine.DefaultConfig()
	engineCfg.QueueSize = cfg.Engine.QueueSize
	engineCfg.MaxAttempts = cfg.Engine.MaxAttempts
	engineCfg.StaleTimeout = cfg.Engine.StaleTimeout
	engineCfg.SweepOnStart = cfg.Engine.SweepOnStart

	memoryEngine, err := engine.New(memories, tasks, analyzer, engineCfg)
	if err != nil {
		log.Fatalf("Failed to initialize engine: %v", err)
	}
	memoryEngine.SetSettingsSource(settings)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)

	hub := handlers.NewWebSocketHub(addr)
	go hub.Run()
	memoryEngine.SetOnStatusChange(hub.BroadcastStatus)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := memoryEngine.Start(ctx); err != nil {
		log.Fatalf("Failed to start engine: %v", err)
	}

	var watcher *screenshots.Watcher
	if cfg.Capture.ScreenshotDir != "" {
		watcher = screenshots.NewWatcher(cfg.Capture.ScreenshotDir, memories, memoryEngine, settings)
		if err := watcher.Start(); err != nil {
			log.Printf("screenshots: WARNING: watcher disabled: %v", err)
			watcher = nil
		}
	}

	mux := http.NewServeMux()
	api := handlers.NewAPIHandlers(memories, tasks, settings, memoryEngine, hub)
	api.RegisterRoutes(mux)

	var handler http.Handler = handlers.RequireAuth(mux, cfg.Security.APIToken)
	handler = handlers.RateLimitMiddleware(handler, handlers.NewRateLimiter(50, 100))
	handler = handlers.SecurityHeaders(handler)

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Recall API running at http://%s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error shutting down server: %v", err)
	}
	if watcher != nil {
		watcher.Stop()
	}
	if err := memoryEngine.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error shutting down engine: %v", err)
	}
	hub.Stop()
}

// openStores builds the memory store, task store, and settings service for the
// configured storage engine. Both stores share one database handle.
func openStores(cfg *config.Config) (storage.MemoryStore, storage.TaskStore, *services.SettingsService, error) {
	switch cfg.Storage.Engine {
	case "postgres":
		memories, err := postgres.NewMemoryStore(cfg.Storage.PostgresDSN)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("postgres: %w", err)
		}
		tasks := postgres.NewTaskStoreWithDB(memories.GetDB())
		settings := services.NewSettingsService(memories.GetDB(), true)
		return memories, tasks, settings, nil

	default:
		if err := os.MkdirAll(cfg.Storage.DataPath, 0o755); err != nil {
			return nil, nil, nil, fmt.Errorf("create data dir: %w", err)
		}
		memories, err := sqlite.NewMemoryStore(cfg.SQLitePath())
		if err != nil {
			return nil, nil, nil, fmt.Errorf("sqlite: %w", err)
		}
		tasks := sqlite.NewTaskStoreWithDB(memories.GetDB())
		settings := services.NewSettingsService(memories.GetDB(), false)
		return memories, tasks, settings, nil
	}
}
