package exporters

import (
	"encoding/json"
	"io"

	"github.com/Hupka/fuzzy-supplier-finder/internal/core/ports"
)

// JSONWriter buffers rows and writes them as one JSON array on Close.
// Keys follow the header column order.
type JSONWriter struct {
	w       io.Writer
	options ports.ExportOptions
	columns []string
	rows    []orderedRow
}

func NewJSONWriter(w io.Writer, options ports.ExportOptions) (*JSONWriter, error) {
	return &JSONWriter{w: w, options: options}, nil
}

func (w *JSONWriter) WriteHeader(columns []string) error {
	w.columns = append([]string(nil), columns...)
	return nil
}

func (w *JSONWriter) WriteRecord(record map[string]string) error {
	w.rows = append(w.rows, orderedRow{columns: w.columns, values: record})
	return nil
}

func (w *JSONWriter) Close() error {
	rows := w.rows
	if rows == nil {
		rows = []orderedRow{}
	}
	enc := json.NewEncoder(w.w)
	if w.options.PrettyPrint {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(rows)
}

type orderedRow struct {
	columns []string
	values  map[string]string
}

func (r orderedRow) MarshalJSON() ([]byte, error) {
	buf := []byte{'{'}
	for i, col := range r.columns {
		if i > 0 {
			buf = append(buf, ',')
		}
		k, err := json.Marshal(col)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(r.values[col])
		if err != nil {
			return nil, err
		}
		buf = append(buf, k...)
		buf = append(buf, ':')
		buf = append(buf, v...)
	}
	return append(buf, '}'), nil
}
