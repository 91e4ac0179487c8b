package console

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"github.com/Hupka/fuzzy-supplier-finder/internal/app/services"
	"github.com/Hupka/fuzzy-supplier-finder/internal/core/domain"
)

func init() {
	color.NoColor = true
}

func TestPrintHierarchy(t *testing.T) {
	view := &domain.HierarchyView{
		Current: domain.CompanyRecord{LEI: "CHILD", LegalName: "Acme AG", Jurisdiction: "DE",
			RegistrationStatus: domain.RegistrationIssued, LegalForm: "6QQB", LegalFormCode: "6QQB"},
		DirectParent: &domain.CompanyRecord{LEI: "PARENT", LegalName: "Acme Holding"},
		UltimateParentException: &domain.ReportingException{
			Category:   "ULTIMATE_ACCOUNTING_CONSOLIDATION_PARENT",
			ReasonCode: domain.ReasonNaturalPersons,
		},
		Children:  []domain.CompanyRecord{{LEI: "SUB1", LegalName: "Acme Logistics"}},
		IsPartial: true,
		Errors:    []string{"children: registry unavailable"},
	}

	var buf bytes.Buffer
	PrintHierarchy(&buf, view)
	out := buf.String()

	assert.Contains(t, out, "Acme AG CHILD DE Issued")
	assert.Contains(t, out, "Legal form: Aktiengesellschaft (AG)")
	assert.Contains(t, out, "Direct parent  : Acme Holding PARENT")
	assert.Contains(t, out, "Ultimate parent: NATURAL_PERSONS Controlled by natural person(s)")
	assert.Contains(t, out, "Children: 1")
	assert.Contains(t, out, "- Acme Logistics SUB1")
	assert.Contains(t, out, "partial: children: registry unavailable")
}

func TestPrintHierarchyWithoutParents(t *testing.T) {
	var buf bytes.Buffer
	PrintHierarchy(&buf, &domain.HierarchyView{Current: domain.CompanyRecord{LEI: "X", LegalName: "Solo"}})

	assert.Equal(t, 2, strings.Count(buf.String(), "none reported"))
	assert.NotContains(t, buf.String(), "partial")
}

func TestPrintSuppliers(t *testing.T) {
	rows := []domain.SupplierRecord{
		{OriginalName: "Acme", Match: domain.MatchedState(&domain.CompanyRecord{LEI: "L1", LegalName: "Acme AG"}, 0.87)},
		{OriginalName: "Nobody", Match: domain.NoMatchState(domain.FailureTransport)},
		{OriginalName: "Later"},
	}

	var buf bytes.Buffer
	PrintSuppliers(&buf, rows)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")

	assert.Equal(t, []string{
		"✓ Acme -> Acme AG L1 (0.87)",
		"✗ Nobody transport",
		"· Later",
	}, lines)
}

func TestPrintBatchSummary(t *testing.T) {
	var buf bytes.Buffer
	PrintBatchSummary(&buf, services.BatchResult{Total: 50, Attempted: 40, Matched: 30, NoMatch: 10, NotAttempted: 10, Canceled: true, Elapsed: 1500 * time.Millisecond})

	assert.Contains(t, buf.String(), "50 rows  30 matched  10 no match  10 not attempted  1.5s")
	assert.Contains(t, buf.String(), "batch canceled")
}
