package mcptools

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Hupka/fuzzy-supplier-finder/internal/app/pipeline"
	"github.com/Hupka/fuzzy-supplier-finder/internal/app/services"
	"github.com/Hupka/fuzzy-supplier-finder/internal/app/session"
)

// New creates an MCP server with the supplier and registry tools registered.
func New(sess *session.Session, resolver *services.LinkResolver, matcher *services.NameMatcher, exporter *services.ExportService) *mcp.Server {
	st := &SupplierTools{
		Session:  sess,
		Resolver: resolver,
		Matcher:  matcher,
		Exporter: exporter,
		Parser:   pipeline.NewSupplierParser(),
	}

	srv := mcp.NewServer(&mcp.Implementation{
		Name:    "fuzzy-supplier-finder",
		Version: "0.1.0",
	}, nil)

	// Supplier dataset tools
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "load_suppliers",
		Description: "Load a supplier list from CSV text, replacing the current dataset",
	}, st.LoadSuppliers)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "list_suppliers",
		Description: "List loaded suppliers with their match state",
	}, st.ListSuppliers)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "match_suppliers",
		Description: "Match supplier names against the LEI registry (rate limited, samples large lists)",
	}, st.MatchSuppliers)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "retry_supplier",
		Description: "Retry the registry match for one supplier row",
	}, st.RetrySupplier)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "export_suppliers",
		Description: "Export the supplier list with match columns as CSV or JSON",
	}, st.ExportSuppliers)

	// Registry tools
	mcp.AddTool(srv, &mcp.Tool{
		Name:        "search_company",
		Description: "Find the registry record whose legal name matches exactly",
	}, st.SearchCompany)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "lookup_company",
		Description: "Fetch the registry record for an LEI",
	}, st.LookupCompany)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "get_hierarchy",
		Description: "Build the corporate hierarchy around an LEI: parents, reporting exceptions and children",
	}, st.GetHierarchy)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "navigate_hierarchy",
		Description: "Re-root the current hierarchy at one of its parents or children",
	}, st.NavigateHierarchy)

	return srv
}
