package mcptools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Hupka/fuzzy-supplier-finder/internal/adapters/exporters"
	"github.com/Hupka/fuzzy-supplier-finder/internal/app/pipeline"
	"github.com/Hupka/fuzzy-supplier-finder/internal/app/services"
	"github.com/Hupka/fuzzy-supplier-finder/internal/app/session"
	"github.com/Hupka/fuzzy-supplier-finder/internal/core/ports"
	"github.com/Hupka/fuzzy-supplier-finder/internal/core/registry"
)

// SupplierTools holds what the tool handlers need: one session plus the
// services that work without a loaded dataset.
type SupplierTools struct {
	Session  *session.Session
	Resolver *services.LinkResolver
	Matcher  *services.NameMatcher
	Exporter *services.ExportService
	Parser   *pipeline.SupplierParser
}

// --- Input types ---

type LoadSuppliersInput struct {
	CSV string `json:"csv" jsonschema:"Supplier list as CSV text with a header row containing a name column"`
}

type ListSuppliersInput struct {
	Status string `json:"status,omitempty" jsonschema:"Filter rows by match status: matched, no_match, not_attempted or all"`
}

type MatchSuppliersInput struct {
	Cap int  `json:"cap,omitempty" jsonschema:"Maximum number of names to query, defaults to the configured batch cap"`
	All bool `json:"all,omitempty" jsonschema:"Query every row regardless of the cap"`
}

type RetrySupplierInput struct {
	ID string `json:"id" jsonschema:"Supplier row id returned by load_suppliers"`
}

type SearchCompanyInput struct {
	Name string `json:"name" jsonschema:"Legal name to look up in the LEI registry"`
}

type LookupCompanyInput struct {
	LEI string `json:"lei" jsonschema:"20 character Legal Entity Identifier"`
}

type NavigateHierarchyInput struct {
	LEI string `json:"lei" jsonschema:"LEI of a parent or child shown in the current hierarchy"`
}

type ExportSuppliersInput struct {
	Format string `json:"format,omitempty" jsonschema:"Export format: csv or json"`
}

// --- Handlers ---

func (t *SupplierTools) LoadSuppliers(_ context.Context, _ *mcp.CallToolRequest, input LoadSuppliersInput) (*mcp.CallToolResult, any, error) {
	if strings.TrimSpace(input.CSV) == "" {
		return toolError("CSV content is required"), nil, nil
	}

	file, err := t.Parser.Parse(strings.NewReader(input.CSV))
	if err != nil {
		return toolError("Failed to parse supplier list: %v", err), nil, nil
	}
	return toolJSON(t.Session.Load(file))
}

func (t *SupplierTools) ListSuppliers(_ context.Context, _ *mcp.CallToolRequest, input ListSuppliersInput) (*mcp.CallToolResult, any, error) {
	rows := t.Session.Suppliers()
	if input.Status != "" && input.Status != "all" {
		filtered := rows[:0]
		for _, r := range rows {
			if r.Match.Status.String() == input.Status {
				filtered = append(filtered, r)
			}
		}
		rows = filtered
	}
	return toolJSON(rows)
}

func (t *SupplierTools) MatchSuppliers(ctx context.Context, _ *mcp.CallToolRequest, input MatchSuppliersInput) (*mcp.CallToolResult, any, error) {
	opts := t.Session.BatchOptions()
	if input.Cap > 0 {
		opts.Cap = input.Cap
	}
	if input.All {
		opts.Cap = 0
	}

	res, err := t.Session.MatchAll(ctx, opts)
	if err != nil {
		return toolError("Failed to match suppliers: %v", err), nil, nil
	}
	return toolJSON(res)
}

func (t *SupplierTools) RetrySupplier(ctx context.Context, _ *mcp.CallToolRequest, input RetrySupplierInput) (*mcp.CallToolResult, any, error) {
	if input.ID == "" {
		return toolError("Supplier id is required"), nil, nil
	}

	rec, err := t.Session.Retry(ctx, input.ID)
	if errors.Is(err, session.ErrNotRetryable) {
		return toolError("Supplier %s is already matched; only unmatched rows can be retried", input.ID), nil, nil
	}
	if err != nil {
		return toolError("Failed to retry supplier %s: %v", input.ID, err), nil, nil
	}
	return toolJSON(rec)
}

func (t *SupplierTools) SearchCompany(ctx context.Context, _ *mcp.CallToolRequest, input SearchCompanyInput) (*mcp.CallToolResult, any, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return toolError("Company name is required"), nil, nil
	}
	return toolJSON(t.Matcher.Match(ctx, name))
}

func (t *SupplierTools) LookupCompany(ctx context.Context, _ *mcp.CallToolRequest, input LookupCompanyInput) (*mcp.CallToolResult, any, error) {
	if input.LEI == "" {
		return toolError("LEI is required"), nil, nil
	}

	rec, err := t.Resolver.Lookup(ctx, input.LEI)
	if err != nil {
		return registryError(input.LEI, err), nil, nil
	}
	return toolJSON(rec)
}

func (t *SupplierTools) GetHierarchy(ctx context.Context, _ *mcp.CallToolRequest, input LookupCompanyInput) (*mcp.CallToolResult, any, error) {
	if input.LEI == "" {
		return toolError("LEI is required"), nil, nil
	}

	view, applied, err := t.Session.FocusLEI(ctx, input.LEI)
	if err != nil {
		return registryError(input.LEI, err), nil, nil
	}
	if !applied {
		return toolError("Hierarchy for %s was superseded by a newer request", input.LEI), nil, nil
	}
	return toolJSON(view)
}

// NavigateHierarchy re-roots the current hierarchy at one of its entities.
func (t *SupplierTools) NavigateHierarchy(ctx context.Context, _ *mcp.CallToolRequest, input NavigateHierarchyInput) (*mcp.CallToolResult, any, error) {
	if input.LEI == "" {
		return toolError("LEI is required"), nil, nil
	}
	if t.Session.Current() == nil {
		return toolError("No hierarchy is open; call get_hierarchy first"), nil, nil
	}

	view, applied, err := t.Session.Navigate(ctx, input.LEI)
	if errors.Is(err, session.ErrNotInView) {
		return toolError("%s is not part of the current hierarchy", input.LEI), nil, nil
	}
	if err != nil {
		return toolError("Failed to navigate to %s: %v", input.LEI, err), nil, nil
	}
	if !applied {
		return toolError("Hierarchy for %s was superseded by a newer request", input.LEI), nil, nil
	}
	return toolJSON(view)
}

func (t *SupplierTools) ExportSuppliers(ctx context.Context, _ *mcp.CallToolRequest, input ExportSuppliersInput) (*mcp.CallToolResult, any, error) {
	format, err := exporters.ParseFormat(input.Format)
	if err != nil {
		return toolError("%v", err), nil, nil
	}

	var buf bytes.Buffer
	opts := ports.ExportOptions{Format: format, IncludeHeader: true, PrettyPrint: true}
	if err := t.Exporter.Export(ctx, t.Session.Schema(), t.Session.Suppliers(), &buf, opts); err != nil {
		return toolError("Failed to export suppliers: %v", err), nil, nil
	}
	return toolText(buf.String()), nil, nil
}

// --- Helpers ---

func registryError(lei string, err error) *mcp.CallToolResult {
	if errors.Is(err, registry.ErrNotFound) {
		return toolError("No registry record for LEI %s", lei)
	}
	return toolError("Registry lookup for %s failed: %v", lei, err)
}

func toolText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func toolError(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf(format, args...)}},
		IsError: true,
	}
}

func toolJSON(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return toolError("Failed to marshal result: %v", err), nil, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil, nil
}
