// Command sandbox serves an in-memory copy of the snapfeed REST API for local development.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"snapfeed/internal/config"
	"snapfeed/internal/observability"
	"snapfeed/internal/sandbox"
)

// @title snapfeed sandbox API
// @version 1.0
// @description In-memory stand-in for the snapfeed photo sharing API.
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	observability.SetLevel(cfg.LogLevel)

	srv, err := sandbox.New(sandbox.Config{
		JWTSecret: cfg.SandboxJWTSecret,
		SeedUsers: cfg.SandboxSeedUsers,
	})
	if err != nil {
		log.Fatalf("Failed to create sandbox: %v", err)
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down sandbox...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Sandbox shutdown error: %v", err)
		}
	}()

	if err := srv.Listen(":" + cfg.SandboxPort); err != nil {
		log.Fatalf("Sandbox stopped: %v", err)
	}
}
