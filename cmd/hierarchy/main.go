package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Hupka/fuzzy-supplier-finder/internal/adapters/console"
	"github.com/Hupka/fuzzy-supplier-finder/internal/app"
	"github.com/Hupka/fuzzy-supplier-finder/internal/config"
)

func main() {
	lei := flag.String("lei", "", "LEI of the company to start from")
	name := flag.String("name", "", "Legal name to look up when no LEI is given")
	flag.Parse()

	if *lei == "" && *name == "" {
		flag.Usage()
		os.Exit(2)
	}

	// Загружаем конфигурацию
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Создаём контекст с отменой для graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Обработка сигналов
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("Received shutdown signal")
		cancel()
	}()

	a, err := app.New(cfg, cfg.NewLogger(os.Stderr))
	if err != nil {
		log.Fatalf("Failed to initialise: %v", err)
	}

	root := *lei
	if root == "" {
		rec, err := a.Matcher.MatchByName(ctx, *name)
		if err != nil {
			log.Fatalf("Name search failed: %v", err)
		}
		if rec == nil {
			log.Fatalf("No registry record named %q", *name)
		}
		root = rec.LEI
	}

	// Строим иерархию
	view, _, err := a.Session.FocusLEI(ctx, root)
	if err != nil {
		log.Fatalf("Failed to build hierarchy: %v", err)
	}
	console.PrintHierarchy(os.Stdout, view)
}
