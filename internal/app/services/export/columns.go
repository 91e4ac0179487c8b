package export

import (
	"strconv"

	"github.com/Hupka/fuzzy-supplier-finder/internal/core/domain"
)

// Match columns appended after the uploaded columns
var MatchColumns = []string{
	"match_status",
	"lei",
	"legal_name",
	"registration_status",
	"jurisdiction",
	"address",
	"confidence",
}

// Columns returns the export header: the uploaded headers in their
// original order followed by MatchColumns.
func Columns(schema domain.SupplierSchema) []string {
	cols := make([]string, 0, len(schema.Headers)+len(MatchColumns))
	for _, h := range schema.Headers {
		if h != "" {
			cols = append(cols, h)
		}
	}
	return append(cols, MatchColumns...)
}

// Row flattens a supplier record into column values.
func Row(schema domain.SupplierSchema, rec domain.SupplierRecord) map[string]string {
	row := make(map[string]string, len(schema.Headers)+len(MatchColumns))
	for _, h := range schema.Headers {
		if h != "" {
			row[h] = schema.Value(rec, h)
		}
	}

	row["match_status"] = rec.Match.Status.String()
	if rec.Match.Status == domain.NoMatch && rec.Match.Failure != domain.FailureNone {
		row["match_status"] += ":" + rec.Match.Failure.String()
	}
	if c := rec.Match.Record; c != nil {
		row["lei"] = c.LEI
		row["legal_name"] = c.LegalName
		row["registration_status"] = string(c.RegistrationStatus)
		row["jurisdiction"] = c.Jurisdiction
		row["address"] = c.Address
		row["confidence"] = strconv.FormatFloat(rec.Match.Confidence, 'f', 2, 64)
	}
	return row
}
