package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/Hupka/fuzzy-supplier-finder/internal/adapters/exporters"
	"github.com/Hupka/fuzzy-supplier-finder/internal/app/services/export"
	"github.com/Hupka/fuzzy-supplier-finder/internal/core/domain"
	"github.com/Hupka/fuzzy-supplier-finder/internal/core/ports"
)

type ExportService struct {
	writerFactory *exporters.WriterFactory
	log           *slog.Logger
}

var _ ports.Exporter = (*ExportService)(nil)

func NewExportService(log *slog.Logger) *ExportService {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &ExportService{
		writerFactory: exporters.NewWriterFactory(),
		log:           log.With("component", "export"),
	}
}

// Export writes the dataset with its match results to w.
func (s *ExportService) Export(ctx context.Context, schema domain.SupplierSchema, records []domain.SupplierRecord, w io.Writer, options ports.ExportOptions) error {
	writer, err := s.writerFactory.CreateWriter(w, options)
	if err != nil {
		return fmt.Errorf("failed to create writer: %w", err)
	}
	return s.write(ctx, writer, schema, records, options)
}

// ExportFile writes the dataset to options.FilePath.
func (s *ExportService) ExportFile(ctx context.Context, schema domain.SupplierSchema, records []domain.SupplierRecord, options ports.ExportOptions) error {
	writer, err := s.writerFactory.CreateFileWriter(options.FilePath, options)
	if err != nil {
		return fmt.Errorf("failed to create writer: %w", err)
	}
	return s.write(ctx, writer, schema, records, options)
}

func (s *ExportService) write(ctx context.Context, writer ports.RecordWriter, schema domain.SupplierSchema, records []domain.SupplierRecord, options ports.ExportOptions) (err error) {
	start := time.Now()
	defer func() {
		if cerr := writer.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("failed to close writer: %w", cerr)
		}
	}()

	if err := writer.WriteHeader(export.Columns(schema)); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := writer.WriteRecord(export.Row(schema, rec)); err != nil {
			return fmt.Errorf("failed to write record at %d: %w", i, err)
		}
	}

	s.log.Debug("export completed", "format", options.Format, "records", len(records), "elapsed", time.Since(start))
	return nil
}
