// Package app wires the registry client, services and session for the
// command-line tools and servers.
package app

import (
	"fmt"
	"log/slog"

	"github.com/Hupka/fuzzy-supplier-finder/internal/adapters/gleif"
	"github.com/Hupka/fuzzy-supplier-finder/internal/app/services"
	"github.com/Hupka/fuzzy-supplier-finder/internal/app/session"
	"github.com/Hupka/fuzzy-supplier-finder/internal/config"
)

type App struct {
	Config   *config.Config
	Log      *slog.Logger
	Client   *gleif.Client
	Resolver *services.LinkResolver
	Matcher  *services.NameMatcher
	Builder  *services.HierarchyBuilder
	Exporter *services.ExportService
	Session  *session.Session
}

func New(cfg *config.Config, log *slog.Logger) (*App, error) {
	client, err := gleif.New(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create registry client: %w", err)
	}

	resolver := services.NewLinkResolver(client, log)
	matcher := services.NewNameMatcher(client, log)
	if cfg.FuzzyFallback {
		matcher.WithFuzzy(client)
	}
	builder := services.NewHierarchyBuilder(cfg, client, resolver, log)

	return &App{
		Config:   cfg,
		Log:      log,
		Client:   client,
		Resolver: resolver,
		Matcher:  matcher,
		Builder:  builder,
		Exporter: services.NewExportService(log),
		Session:  session.New(cfg, matcher, builder, resolver, log),
	}, nil
}
