package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/Hupka/fuzzy-supplier-finder/internal/app/pipeline"
	"github.com/Hupka/fuzzy-supplier-finder/internal/core/domain"
	"github.com/Hupka/fuzzy-supplier-finder/internal/core/ports"
	"github.com/Hupka/fuzzy-supplier-finder/internal/core/registry"
)

var ErrUnexpectedResource = errors.New("unexpected registry resource")

// LinkResolver follows relationship links to the entity or reporting
// exception they point at.
type LinkResolver struct {
	registry ports.Registry
	log      *slog.Logger
}

func NewLinkResolver(reg ports.Registry, log *slog.Logger) *LinkResolver {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &LinkResolver{
		registry: reg,
		log:      log.With("component", "resolver"),
	}
}

// Lookup fetches and parses a single lei-record.
func (r *LinkResolver) Lookup(ctx context.Context, lei string) (*domain.CompanyRecord, error) {
	doc, err := r.registry.LEIRecord(ctx, lei)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", lei, err)
	}
	res, err := doc.One()
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", lei, err)
	}
	rec := pipeline.CompanyFromResource(res)
	if rec == nil {
		return nil, fmt.Errorf("%w: %s is not an entity record", ErrUnexpectedResource, lei)
	}
	return rec, nil
}

// ResolveLink is Resolve with failures logged and reported as nil.
func (r *LinkResolver) ResolveLink(ctx context.Context, link domain.Link) *domain.Resolution {
	res, err := r.Resolve(ctx, link)
	if err != nil {
		r.log.Warn("link unresolvable", "kind", link.Kind, "url", link.URL, "error", err)
		return nil
	}
	return res
}

// ResolveDescriptor resolves the preferred link of a parent descriptor.
func (r *LinkResolver) ResolveDescriptor(ctx context.Context, d *domain.ParentDescriptor) *domain.Resolution {
	return r.ResolveLink(ctx, d.Preferred())
}

// Resolve fetches the link target. An exception resource resolves to an
// exception, an entity resource to an entity, and a relationship record is
// followed one more hop to its end node. A zero link resolves to (nil, nil).
func (r *LinkResolver) Resolve(ctx context.Context, link domain.Link) (*domain.Resolution, error) {
	if link.IsZero() {
		return nil, nil
	}

	doc, err := r.registry.Follow(ctx, link.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s link: %w", link.Kind, err)
	}
	res, err := doc.One()
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s link: %w", link.Kind, err)
	}

	switch kindOf(res) {
	case registry.TypeReportingException:
		exc := pipeline.ExceptionFromResource(res)
		if exc == nil {
			return nil, fmt.Errorf("%w: reporting exception without reason", ErrUnexpectedResource)
		}
		return domain.ExceptionResolution(exc), nil
	case registry.TypeLEIRecord:
		rec := pipeline.CompanyFromResource(res)
		if rec == nil {
			return nil, fmt.Errorf("%w: malformed entity record", ErrUnexpectedResource)
		}
		return domain.EntityResolution(rec), nil
	case registry.TypeRelationshipRecord:
		rec, err := r.followEndNode(ctx, res)
		if err != nil {
			return nil, err
		}
		return domain.EntityResolution(rec), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnexpectedResource, res.Type)
}

// followEndNode takes the second hop of a relationship record. The nested
// end-node link is preferred; the end node id is the fallback.
func (r *LinkResolver) followEndNode(ctx context.Context, rel *registry.Resource) (*domain.CompanyRecord, error) {
	var (
		doc *registry.Document
		err error
	)
	if l := rel.RelationshipLinks(registry.RelEndNode); l != nil && (l.Related != "" || l.LEIRecord != "") {
		target := l.Related
		if target == "" {
			target = l.LEIRecord
		}
		doc, err = r.registry.Follow(ctx, target)
	} else {
		var attrs registry.RelationshipRecordAttributes
		if !rel.HasAttributes() {
			return nil, fmt.Errorf("%w: relationship record without end node", ErrUnexpectedResource)
		}
		if err := json.Unmarshal(rel.Attributes, &attrs); err != nil || attrs.Relationship.EndNode.ID == "" {
			return nil, fmt.Errorf("%w: relationship record without end node", ErrUnexpectedResource)
		}
		doc, err = r.registry.LEIRecord(ctx, attrs.Relationship.EndNode.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch relationship end node: %w", err)
	}

	res, err := doc.One()
	if err != nil {
		return nil, fmt.Errorf("failed to decode relationship end node: %w", err)
	}
	rec := pipeline.CompanyFromResource(res)
	if rec == nil {
		return nil, fmt.Errorf("%w: end node %q is not an entity record", ErrUnexpectedResource, res.Type)
	}
	return rec, nil
}

// PrefetchExceptions resolves the reporting exception links of the first
// limit records and returns copies with the exceptions attached. Records
// without an exception link are returned unchanged.
func (r *LinkResolver) PrefetchExceptions(ctx context.Context, records []*domain.CompanyRecord, limit int) []*domain.CompanyRecord {
	out := make([]*domain.CompanyRecord, len(records))
	for i, rec := range records {
		out[i] = rec
		if i >= limit || rec == nil {
			continue
		}
		if !rec.HasDirectParentException() && !rec.HasUltimateParentException() {
			continue
		}

		c := rec.Clone()
		if rec.HasDirectParentException() && rec.DirectParentException == nil {
			c.DirectParentException = r.exception(ctx, rec.DirectParent)
		}
		if rec.HasUltimateParentException() && rec.UltimateParentException == nil {
			c.UltimateParentException = r.exception(ctx, rec.UltimateParent)
		}
		out[i] = c
	}
	return out
}

func (r *LinkResolver) exception(ctx context.Context, d *domain.ParentDescriptor) *domain.ReportingException {
	res := r.ResolveDescriptor(ctx, d)
	if res == nil || res.Kind != domain.ResolvedException {
		return nil
	}
	return res.Exception
}

// kindOf classifies a resource by its type, falling back to the shape of
// its attributes when the type is missing.
func kindOf(res *registry.Resource) string {
	switch res.Type {
	case registry.TypeReportingException, registry.TypeLEIRecord, registry.TypeRelationshipRecord:
		return res.Type
	}
	if !res.HasAttributes() {
		return res.Type
	}
	var attrs map[string]json.RawMessage
	if err := json.Unmarshal(res.Attributes, &attrs); err != nil {
		return res.Type
	}
	switch {
	case attrs["reason"] != nil:
		return registry.TypeReportingException
	case attrs["entity"] != nil:
		return registry.TypeLEIRecord
	case attrs["relationship"] != nil:
		return registry.TypeRelationshipRecord
	}
	return res.Type
}
