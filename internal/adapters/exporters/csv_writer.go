package exporters

import (
	"encoding/csv"
	"errors"
	"io"

	"github.com/Hupka/fuzzy-supplier-finder/internal/core/ports"
)

type CSVWriter struct {
	writer  *csv.Writer
	options ports.ExportOptions
	columns []string
}

func NewCSVWriter(w io.Writer, options ports.ExportOptions) (*CSVWriter, error) {
	csvWriter := csv.NewWriter(w)
	if options.Delimiter != 0 {
		csvWriter.Comma = options.Delimiter
	} else {
		csvWriter.Comma = ',' // default
	}

	return &CSVWriter{
		writer:  csvWriter,
		options: options,
	}, nil
}

// WriteHeader fixes the column order for all following records. The header
// row itself is only written when IncludeHeader is set.
func (w *CSVWriter) WriteHeader(columns []string) error {
	w.columns = append([]string(nil), columns...)
	if !w.options.IncludeHeader {
		return nil
	}
	return w.writer.Write(w.columns)
}

func (w *CSVWriter) WriteRecord(record map[string]string) error {
	if w.columns == nil {
		return errors.New("csv writer: header not set")
	}
	row := make([]string, len(w.columns))
	for i, col := range w.columns {
		row[i] = record[col]
	}
	return w.writer.Write(row)
}

func (w *CSVWriter) Close() error {
	w.writer.Flush()
	return w.writer.Error()
}
