package main

import (
	"fmt"
	"log"
	"os"

	"github.com/agnesleth/hello-poor/config"
	"github.com/agnesleth/hello-poor/internal/app"
	httpDelivery "github.com/agnesleth/hello-poor/internal/delivery/http"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Enable debug logging in development environment
	if cfg.Server.Environment == "development" {
		cfg.Matching.EnableDebugLogging = true
	}

	log.Printf("Starting Hello Poor API v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)
	log.Printf("Cache TTL: %s", cfg.Cache.TTL)
	log.Printf("Offer site: %s (%.1f req/s, burst %d)", cfg.Scraper.BaseURL, cfg.RateLimit.Scrape, cfg.RateLimit.Burst)

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}
	defer application.Close()

	log.Printf("Matching: threshold=%.0f, weighted=%v, debug=%v",
		cfg.Matching.Threshold,
		cfg.Matching.Weighted,
		cfg.Matching.EnableDebugLogging)

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(application.Offers, application.Recommendations, application.Cache)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Server listening on %s", addr)

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func init() {
	// Set log flags for better debugging
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
