package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stagepass/internal/config"
	"stagepass/internal/logger"
	"stagepass/internal/reconciler"
)

func main() {
	log.Println("Starting reconciler service...")

	// Load configuration
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	// Override NATS client ID for the reconciler
	cfg.NATS.ClientID = "stagepass-reconciler"

	reconcilerService, err := reconciler.NewReconcilerService(cfg)
	if err != nil {
		log.Fatalf("Failed to create reconciler service: %v", err)
	}

	if err := reconcilerService.Start(); err != nil {
		log.Fatalf("Failed to start reconciler: %v", err)
	}

	log.Println("Reconciler service started successfully")

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down reconciler service...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := reconcilerService.Shutdown(ctx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	log.Println("Reconciler service stopped")
}
