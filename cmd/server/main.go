package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Hupka/fuzzy-supplier-finder/internal/adapters/httpapi"
	"github.com/Hupka/fuzzy-supplier-finder/internal/app"
	"github.com/Hupka/fuzzy-supplier-finder/internal/config"
)

func main() {
	addr := flag.String("addr", "", "Listen address (default from LISTEN_ADDR)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *addr != "" {
		cfg.ListenAddr = *addr
	}
	logger := cfg.NewLogger(os.Stderr)

	a, err := app.New(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to initialise: %v", err)
	}
	api := httpapi.New(a.Session, a.Resolver, a.Matcher, a.Exporter, logger)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           api.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Printf("Server listening on %s", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
	log.Println("Server stopped gracefully")
}
