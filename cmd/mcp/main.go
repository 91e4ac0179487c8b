package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Hupka/fuzzy-supplier-finder/internal/adapters/mcptools"
	"github.com/Hupka/fuzzy-supplier-finder/internal/app"
	"github.com/Hupka/fuzzy-supplier-finder/internal/config"
)

func main() {
	transport := flag.String("transport", "", "Transport mode: stdio or http (default from MCP_TRANSPORT)")
	addr := flag.String("addr", "", "HTTP listen address, only used with -transport http (default from MCP_ADDR)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *transport != "" {
		cfg.MCPTransport = *transport
	}
	if *addr != "" {
		cfg.MCPAddr = *addr
	}

	// stdout carries the protocol, logs go to stderr
	a, err := app.New(cfg, cfg.NewLogger(os.Stderr))
	if err != nil {
		log.Fatalf("Failed to initialise: %v", err)
	}
	srv := mcptools.New(a.Session, a.Resolver, a.Matcher, a.Exporter)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	switch cfg.MCPTransport {
	case "stdio":
		log.Println("Supplier MCP server starting (stdio)")
		if err := srv.Run(ctx, &mcp.StdioTransport{}); err != nil {
			log.Fatalf("Server error: %v", err)
		}
	case "http":
		handler := mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
			return srv
		}, nil)
		log.Printf("Supplier MCP server listening on %s", cfg.MCPAddr)
		if err := http.ListenAndServe(cfg.MCPAddr, handler); err != nil {
			log.Fatalf("HTTP server error: %v", err)
		}
	default:
		log.Fatalf("Unknown transport: %s (use stdio or http)", cfg.MCPTransport)
	}
}
