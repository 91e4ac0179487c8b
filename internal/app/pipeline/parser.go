package pipeline

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// BaseParser contains common functionality for the file parsers
type BaseParser struct {
	maxBytes int64
}

func NewBaseParser() *BaseParser {
	return &BaseParser{maxBytes: 10 << 20}
}

// ReadAll decodes the input to UTF-8, honouring a UTF-8 or UTF-16 byte
// order mark, and returns it with the BOM stripped.
func (p *BaseParser) ReadAll(r io.Reader) ([]byte, error) {
	decoded := transform.NewReader(io.LimitReader(r, p.maxBytes+1), unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	data, err := io.ReadAll(decoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode input: %w", err)
	}
	if int64(len(data)) > p.maxBytes {
		return nil, fmt.Errorf("input exceeds %d bytes", p.maxBytes)
	}
	return data, nil
}

// CSVReader creates a CSV reader with lenient settings for spreadsheet exports
func (p *BaseParser) CSVReader(data []byte, comma rune) *csv.Reader {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = comma
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1 // Разрешаем переменное количество полей
	return reader
}

// DetectDelimiter picks the most frequent of ',', ';' and tab in the header line.
func (p *BaseParser) DetectDelimiter(data []byte) rune {
	line := string(data)
	if i := strings.IndexAny(line, "\r\n"); i >= 0 {
		line = line[:i]
	}
	best, count := ',', strings.Count(line, ",")
	for _, c := range []rune{';', '\t'} {
		if n := strings.Count(line, string(c)); n > count {
			best, count = c, n
		}
	}
	return best
}

// IsBlank reports whether every value of the record is empty after trimming.
func (p *BaseParser) IsBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
