package pipeline

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Hupka/fuzzy-supplier-finder/internal/core/domain"
)

var (
	ErrEmptyInput   = errors.New("supplier file is empty")
	ErrNoNameColumn = errors.New("supplier file has no name column")
)

// Header variants in priority order. Matching is exact and case-sensitive.
var (
	nameHeaders   = []string{"Name", "name", "Supplier", "Supplier Name", "Company", "Company Name", "Lieferant", "Lieferantenname", "Firma", "Firmenname"}
	idHeaders     = []string{"ID", "Id", "id", "Supplier ID", "Lieferantennummer", "Lieferanten-Nr.", "Nummer"}
	statusHeaders = []string{"Status", "status", "Zustand"}
)

// SupplierFile is a parsed supplier upload.
type SupplierFile struct {
	Schema  domain.SupplierSchema
	Records []domain.SupplierRecord
}

// SupplierParser reads supplier lists exported from spreadsheets.
type SupplierParser struct {
	*BaseParser
}

func NewSupplierParser() *SupplierParser {
	return &SupplierParser{BaseParser: NewBaseParser()}
}

// Parse reads a header row followed by supplier rows. Rows whose cells are
// all blank are skipped; everything else is kept, even without a name.
func (p *SupplierParser) Parse(r io.Reader) (*SupplierFile, error) {
	data, err := p.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(string(data)) == "" {
		return nil, ErrEmptyInput
	}

	reader := p.CSVReader(data, p.DetectDelimiter(data))
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	schema := domain.SupplierSchema{
		Headers:      header,
		NameColumn:   pickColumn(header, nameHeaders),
		IDColumn:     pickColumn(header, idHeaders),
		StatusColumn: pickColumn(header, statusHeaders),
	}
	if schema.NameColumn == "" {
		return nil, ErrNoNameColumn
	}

	file := &SupplierFile{Schema: schema}
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if p.IsBlank(record) {
			continue
		}
		file.Records = append(file.Records, p.parseRow(schema, record))
	}
	return file, nil
}

func (p *SupplierParser) parseRow(schema domain.SupplierSchema, record []string) domain.SupplierRecord {
	rec := domain.SupplierRecord{Columns: make(map[string]string)}
	for i, h := range schema.Headers {
		if h == "" {
			continue
		}
		v := ""
		if i < len(record) {
			v = strings.TrimSpace(record[i])
		}
		switch h {
		case schema.NameColumn:
			rec.OriginalName = v
		case schema.IDColumn:
			rec.SourceID = v
		case schema.StatusColumn:
			rec.SourceStatus = v
		default:
			rec.Columns[h] = v
		}
	}
	return rec
}

// pickColumn returns the first header variant present in the header row.
func pickColumn(header, variants []string) string {
	for _, v := range variants {
		for _, h := range header {
			if h == v {
				return h
			}
		}
	}
	return ""
}
