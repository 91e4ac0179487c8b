package ports

import (
	"context"
	"io"

	"github.com/Hupka/fuzzy-supplier-finder/internal/core/domain"
)

type ExportFormat string

const (
	FormatCSV  ExportFormat = "csv"
	FormatJSON ExportFormat = "json"
)

type ExportOptions struct {
	Format        ExportFormat
	FilePath      string
	IncludeHeader bool
	Delimiter     rune // для CSV
	PrettyPrint   bool // для JSON
}

// Exporter writes the supplier dataset in one of the export formats.
type Exporter interface {
	Export(ctx context.Context, schema domain.SupplierSchema, records []domain.SupplierRecord, w io.Writer, options ExportOptions) error
}

// Writer interface for different formats
type RecordWriter interface {
	WriteHeader(columns []string) error
	WriteRecord(record map[string]string) error
	Close() error
}

// Factory for creating writers
type WriterFactory interface {
	CreateWriter(w io.Writer, options ExportOptions) (RecordWriter, error)
}
