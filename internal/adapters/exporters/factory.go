package exporters

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Hupka/fuzzy-supplier-finder/internal/core/ports"
)

type WriterFactory struct{}

func NewWriterFactory() *WriterFactory {
	return &WriterFactory{}
}

// ParseFormat maps a user supplied format name to an ExportFormat.
func ParseFormat(s string) (ports.ExportFormat, error) {
	switch ports.ExportFormat(strings.ToLower(strings.TrimSpace(s))) {
	case "", ports.FormatCSV:
		return ports.FormatCSV, nil
	case ports.FormatJSON:
		return ports.FormatJSON, nil
	}
	return "", fmt.Errorf("unsupported format: %s", s)
}

func (f *WriterFactory) CreateWriter(w io.Writer, options ports.ExportOptions) (ports.RecordWriter, error) {
	switch options.Format {
	case ports.FormatCSV:
		return NewCSVWriter(w, options)
	case ports.FormatJSON:
		return NewJSONWriter(w, options)
	default:
		return nil, fmt.Errorf("unsupported format: %s", options.Format)
	}
}

// CreateFileWriter создает writer для файла
func (f *WriterFactory) CreateFileWriter(filePath string, options ports.ExportOptions) (ports.RecordWriter, error) {
	file, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	writer, err := f.CreateWriter(file, options)
	if err != nil {
		file.Close()
		return nil, err
	}

	// Возвращаем composit writer который закроет и файл
	return &fileWriter{
		RecordWriter: writer,
		file:         file,
	}, nil
}

type fileWriter struct {
	ports.RecordWriter
	file *os.File
}

func (w *fileWriter) Close() error {
	if err := w.RecordWriter.Close(); err != nil {
		w.file.Close()
		return err
	}
	return w.file.Close()
}
