package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/neststash/neststash/internal/config"
	"github.com/neststash/neststash/internal/database"
	"github.com/neststash/neststash/internal/logging"
	"github.com/neststash/neststash/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	srv, err := server.New(db, cfg, logger)
	if err != nil {
		log.Fatalf("failed to build server: %v", err)
	}

	// Install the configured asset generation up front. Failure is
	// tolerable when a previous generation can keep serving.
	syncCtx, cancelSync := context.WithTimeout(context.Background(), 60*time.Second)
	if err := srv.SyncAssets(syncCtx, cfg.AssetVersion, cfg.AssetManifest); err != nil {
		logger.Warn("asset sync failed, serving previous generation", "version", cfg.AssetVersion, "error", err)
	}
	cancelSync()

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("neststash running", "addr", "http://localhost:"+cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
}
