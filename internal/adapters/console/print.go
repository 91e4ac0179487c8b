// Package console renders sessions for the command-line tools.
package console

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/Hupka/fuzzy-supplier-finder/internal/app/services"
	"github.com/Hupka/fuzzy-supplier-finder/internal/core/domain"
)

var (
	// Colors used to ease the reading of program output
	b      = color.New(color.FgHiBlue)
	r      = color.New(color.FgHiRed)
	yellow = color.New(color.FgHiYellow).SprintFunc()
	green  = color.New(color.FgHiGreen).SprintFunc()
	blue   = color.New(color.FgHiBlue).SprintFunc()
	red    = color.New(color.FgHiRed).SprintFunc()
)

const rule = "--------------------------------------------------------------------------------"

// PrintHierarchy writes the parents, exceptions and children around the
// view's current company.
func PrintHierarchy(out io.Writer, view *domain.HierarchyView) {
	fmt.Fprintln(out)
	b.Fprintf(out, "%s\n", companyLine(view.Current))
	if form := view.Current.LegalFormLabel(); form != "" {
		fmt.Fprintf(out, "%s %s\n", blue("Legal form:"), form)
	}
	b.Fprintln(out, rule)

	printParent(out, "Ultimate parent", view.UltimateParent, view.UltimateParentException)
	printParent(out, "Direct parent  ", view.DirectParent, view.DirectParentException)

	fmt.Fprintf(out, "%s %s\n", blue("Children:"), yellow(len(view.Children)))
	for _, c := range view.Children {
		fmt.Fprintf(out, "  %s %s\n", green("-"), companyLine(c))
	}

	if view.IsPartial {
		b.Fprintln(out, rule)
		for _, e := range view.Errors {
			r.Fprintf(out, "partial: %s\n", e)
		}
	}
}

func printParent(out io.Writer, label string, parent *domain.CompanyRecord, exc *domain.ReportingException) {
	switch {
	case parent != nil:
		fmt.Fprintf(out, "%s %s\n", blue(label+":"), companyLine(*parent))
	case exc != nil:
		fmt.Fprintf(out, "%s %s %s\n", blue(label+":"), yellow(string(exc.ReasonCode)), exc.ReasonCode.Label())
	default:
		fmt.Fprintf(out, "%s %s\n", blue(label+":"), "none reported")
	}
}

func companyLine(c domain.CompanyRecord) string {
	parts := []string{c.LegalName, green(c.LEI)}
	if c.Jurisdiction != "" {
		parts = append(parts, c.Jurisdiction)
	}
	if c.RegistrationStatus != "" {
		parts = append(parts, c.RegistrationStatusLabel())
	}
	return strings.Join(parts, " ")
}

// PrintSuppliers writes one line per supplier row with its match state.
func PrintSuppliers(out io.Writer, rows []domain.SupplierRecord) {
	for _, row := range rows {
		switch row.Match.Status {
		case domain.Matched:
			rec := row.Match.Record
			fmt.Fprintf(out, "%s %s -> %s %s (%.2f)\n", green("✓"), row.OriginalName,
				rec.LegalName, green(rec.LEI), row.Match.Confidence)
		case domain.NoMatch:
			fmt.Fprintf(out, "%s %s %s\n", red("✗"), row.OriginalName, yellow(row.Match.Failure.String()))
		default:
			fmt.Fprintf(out, "%s %s\n", blue("·"), row.OriginalName)
		}
	}
}

// PrintBatchSummary writes the counts of a finished batch.
func PrintBatchSummary(out io.Writer, res services.BatchResult) {
	b.Fprintln(out, rule)
	fmt.Fprintf(out, "%s%s  %s%s  %s%s  %s%s  %s\n",
		yellow(res.Total), blue(" rows"),
		green(res.Matched), blue(" matched"),
		red(res.NoMatch), blue(" no match"),
		yellow(res.NotAttempted), blue(" not attempted"),
		res.Elapsed.Round(time.Millisecond))
	if res.Canceled {
		r.Fprintln(out, "batch canceled")
	}
}

// ProgressBar returns a bar for a batch of total requests.
func ProgressBar(out io.Writer, total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(50),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionShowCount(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(out)
		}),
		progressbar.OptionSpinnerType(14),
	)
}
