package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Hupka/fuzzy-supplier-finder/internal/app/pipeline"
	"github.com/Hupka/fuzzy-supplier-finder/internal/config"
	"github.com/Hupka/fuzzy-supplier-finder/internal/core/domain"
	"github.com/Hupka/fuzzy-supplier-finder/internal/core/ports"
)

type HierarchyBuilder struct {
	registry ports.Registry
	resolver *LinkResolver
	pageSize int
	log      *slog.Logger
}

func NewHierarchyBuilder(cfg *config.Config, reg ports.Registry, resolver *LinkResolver, log *slog.Logger) *HierarchyBuilder {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	pageSize := cfg.ChildrenPageSize
	if pageSize < 1 {
		pageSize = 10
	}
	return &HierarchyBuilder{
		registry: reg,
		resolver: resolver,
		pageSize: pageSize,
		log:      log.With("component", "hierarchy"),
	}
}

// Build assembles the view around root. The direct parent, ultimate parent
// and children are fetched concurrently; a failing branch leaves its slot
// empty and marks the view partial. Build never returns nil.
func (b *HierarchyBuilder) Build(ctx context.Context, root domain.CompanyRecord) *domain.HierarchyView {
	start := time.Now()
	view := &domain.HierarchyView{
		Current:  *root.Clone(),
		Children: []domain.CompanyRecord{},
	}

	// Ошибки по веткам: прямой родитель, конечный родитель, дочерние
	var branchErrs [3]error

	var g errgroup.Group
	g.Go(func() error {
		res, err := b.resolver.Resolve(ctx, root.DirectParent.Preferred())
		if err != nil {
			branchErrs[0] = fmt.Errorf("direct parent: %w", err)
			return nil
		}
		view.DirectParent, view.DirectParentException = split(res)
		return nil
	})
	g.Go(func() error {
		res, err := b.resolver.Resolve(ctx, root.UltimateParent.Preferred())
		if err != nil {
			branchErrs[1] = fmt.Errorf("ultimate parent: %w", err)
			return nil
		}
		view.UltimateParent, view.UltimateParentException = split(res)
		return nil
	})
	g.Go(func() error {
		children, err := b.children(ctx, root.DirectChildren)
		if err != nil {
			branchErrs[2] = fmt.Errorf("children: %w", err)
			return nil
		}
		view.Children = children
		return nil
	})
	_ = g.Wait()

	for _, err := range branchErrs {
		if err != nil {
			view.IsPartial = true
			view.Errors = append(view.Errors, err.Error())
			b.log.Warn("hierarchy branch failed", "lei", root.LEI, "error", err)
		}
	}
	if err := view.Validate(); err != nil {
		b.log.Error("inconsistent hierarchy view", "lei", root.LEI, "error", err)
	}

	b.log.Debug("hierarchy built", "lei", root.LEI, "children", len(view.Children),
		"partial", view.IsPartial, "elapsed", time.Since(start))
	return view
}

// BuildForLEI looks the root up first. Only a failure to obtain the root
// itself is returned as an error.
func (b *HierarchyBuilder) BuildForLEI(ctx context.Context, lei string) (*domain.HierarchyView, error) {
	root, err := b.resolver.Lookup(ctx, lei)
	if err != nil {
		return nil, err
	}
	return b.Build(ctx, *root), nil
}

// children fetches the first page of the children listing and parses each
// element independently; malformed elements are skipped.
func (b *HierarchyBuilder) children(ctx context.Context, d *domain.ChildrenDescriptor) ([]domain.CompanyRecord, error) {
	link := d.Listing()
	if link.IsZero() {
		return []domain.CompanyRecord{}, nil
	}

	doc, err := b.registry.Children(ctx, link.URL, b.pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch listing: %w", err)
	}
	items, err := doc.Many()
	if err != nil {
		return nil, fmt.Errorf("failed to decode listing: %w", err)
	}
	if len(items) > b.pageSize {
		items = items[:b.pageSize]
	}

	children := make([]domain.CompanyRecord, 0, len(items))
	for i, raw := range items {
		rec := pipeline.ParseCompany(raw)
		if rec == nil {
			b.log.Debug("skipping malformed child record", "index", i)
			continue
		}
		children = append(children, *rec)
	}
	return children, nil
}

func split(res *domain.Resolution) (*domain.CompanyRecord, *domain.ReportingException) {
	if res == nil {
		return nil, nil
	}
	switch res.Kind {
	case domain.ResolvedEntity:
		return res.Record, nil
	case domain.ResolvedException:
		return nil, res.Exception
	}
	return nil, nil
}
