package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Hupka/fuzzy-supplier-finder/internal/adapters/console"
	"github.com/Hupka/fuzzy-supplier-finder/internal/adapters/downloader"
	"github.com/Hupka/fuzzy-supplier-finder/internal/adapters/exporters"
	"github.com/Hupka/fuzzy-supplier-finder/internal/app"
	"github.com/Hupka/fuzzy-supplier-finder/internal/app/pipeline"
	"github.com/Hupka/fuzzy-supplier-finder/internal/config"
	"github.com/Hupka/fuzzy-supplier-finder/internal/core/ports"
)

func main() {
	csvPath := flag.String("csv", "", "Supplier CSV file or http(s) URL (required)")
	batchCap := flag.Int("cap", 0, "Names to query per run (default from MATCH_BATCH_CAP)")
	all := flag.Bool("all", false, "Query every row, ignoring the cap")
	delay := flag.Duration("delay", -1, "Wait after each request (default from MATCH_DELAY)")
	exportPath := flag.String("export", "", "Write the matched list to this file")
	format := flag.String("format", "csv", "Export format: csv or json")
	quiet := flag.Bool("quiet", false, "Do not print the per-row results")
	flag.Parse()

	if *csvPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	// Загружаем конфигурацию
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger := cfg.NewLogger(os.Stderr)

	exportFormat, err := exporters.ParseFormat(*format)
	if err != nil {
		log.Fatalf("Invalid export format: %v", err)
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

	a, err := app.New(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to initialise: %v", err)
	}

	src := *csvPath
	if downloader.IsRemote(src) {
		src, err = downloader.New(cfg).DownloadFile(ctx, src)
		if err != nil {
			log.Fatalf("Failed to download supplier list: %v", err)
		}
	}

	f, err := os.Open(src)
	if err != nil {
		log.Fatalf("Failed to open supplier list: %v", err)
	}
	file, err := pipeline.NewSupplierParser().Parse(f)
	f.Close()
	if err != nil {
		log.Fatalf("Failed to parse supplier list: %v", err)
	}
	rows := a.Session.Load(file)
	log.Printf("Loaded %d suppliers from %s", len(rows), src)

	opts := a.Session.BatchOptions()
	if *batchCap > 0 {
		opts.Cap = *batchCap
	}
	if *all {
		opts.Cap = 0
	}
	if *delay >= 0 {
		opts.Delay = *delay
	}

	total := len(rows)
	if opts.Cap > 0 && opts.Cap < total {
		total = opts.Cap
	}
	bar := console.ProgressBar(os.Stderr, total, "Matching suppliers")
	opts.Progress = func(done, _ int) {
		_ = bar.Set(done)
	}

	res, err := a.Session.MatchAll(ctx, opts)
	if err != nil {
		log.Fatalf("Matching failed: %v", err)
	}
	_ = bar.Finish()

	if !*quiet {
		console.PrintSuppliers(os.Stdout, a.Session.Suppliers())
	}
	console.PrintBatchSummary(os.Stdout, res)

	if *exportPath != "" {
		err := a.Exporter.ExportFile(context.Background(), a.Session.Schema(), a.Session.Suppliers(), ports.ExportOptions{
			Format:        exportFormat,
			FilePath:      *exportPath,
			IncludeHeader: true,
			PrettyPrint:   true,
		})
		if err != nil {
			log.Fatalf("Export failed: %v", err)
		}
		fmt.Printf("Exported %d rows to %s\n", len(rows), *exportPath)
	}
}
