package drugparser

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/giygas/rxu-api/catalog"
	"github.com/giygas/rxu-api/drugparser/entities"
	"github.com/giygas/rxu-api/interfaces"
	"github.com/giygas/rxu-api/logging"
)

// Compile-time check to ensure CatalogParser implements interfaces.CatalogParser
var _ interfaces.CatalogParser = (*CatalogParser)(nil)

type column int

const (
	colID column = iota
	colName
	colGeneric
	colSynonyms
	colBrands
	colClass
	colDescription
	colAlternatives
	colSideEffects
	columnCount
)

// Accepted header spellings, compared after lowercasing and trimming.
// The second set matches the DrugBank vocabulary export.
var headerAliases = map[string]column{
	"drugbank_id":  colID,
	"drugbank id":  colID,
	"id":           colID,
	"name":         colName,
	"common name":  colName,
	"generic_name": colGeneric,
	"generic name": colGeneric,
	"synonyms":     colSynonyms,
	"brand_names":  colBrands,
	"brand names":  colBrands,
	"drug_class":   colClass,
	"drug class":   colClass,
	"description":  colDescription,
	"alternatives": colAlternatives,
	"side_effects": colSideEffects,
	"side effects": colSideEffects,
}

var columnNames = [columnCount]string{
	"identifier", "name", "generic name", "synonyms", "brand names",
	"drug class", "description", "alternatives", "side effects",
}

// CatalogParser loads the catalog CSV from a fixed path
type CatalogParser struct {
	path string
}

func NewCatalogParser(path string) *CatalogParser {
	return &CatalogParser{path: path}
}

// ParseCatalog reads and parses the whole catalog file
func (p *CatalogParser) ParseCatalog() ([]entities.DrugRecord, error) {
	start := time.Now()

	reader, err := readCatalogFile(p.path)
	if err != nil {
		return nil, &catalog.LoadError{Source: p.path, Reason: "cannot open catalog", Err: err}
	}

	records, err := ParseRecords(reader)
	if err != nil {
		var loadErr *catalog.LoadError
		if errors.As(err, &loadErr) {
			loadErr.Source = p.path
		}
		return nil, err
	}

	logging.Info("Catalog file parsed",
		"path", p.path,
		"records", len(records),
		"duration", time.Since(start).String())

	return records, nil
}

// ParseRecords parses catalog CSV content. Any malformed row fails the whole load.
func ParseRecords(r io.Reader) ([]entities.DrugRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &catalog.LoadError{Reason: "empty catalog"}
		}
		return nil, &catalog.LoadError{Reason: "unreadable header", Err: err}
	}

	positions, err := mapHeader(header)
	if err != nil {
		return nil, err
	}

	// Every row must have exactly as many fields as the header
	reader.FieldsPerRecord = len(header)

	var records []entities.DrugRecord
	seen := make(map[string]int)
	row := 0

	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		row++
		if err != nil {
			return nil, &catalog.LoadError{Row: row, Reason: "malformed row", Err: err}
		}

		get := func(c column) string {
			return strings.TrimSpace(fields[positions[c]])
		}

		record := entities.DrugRecord{
			ID:           get(colID),
			Name:         get(colName),
			GenericName:  get(colGeneric),
			Synonyms:     splitList(get(colSynonyms)),
			BrandNames:   splitList(get(colBrands)),
			DrugClass:    get(colClass),
			Description:  get(colDescription),
			Alternatives: splitList(get(colAlternatives)),
			SideEffects:  parseSideEffects(get(colSideEffects)),
		}

		if record.ID == "" {
			return nil, &catalog.LoadError{Row: row, Reason: "missing identifier"}
		}
		if record.Name == "" {
			return nil, &catalog.LoadError{Row: row, Reason: "missing name for " + record.ID}
		}
		if first, dup := seen[record.ID]; dup {
			return nil, &catalog.LoadError{
				Row:    row,
				Reason: fmt.Sprintf("duplicate identifier %s (first seen at row %d)", record.ID, first),
			}
		}
		seen[record.ID] = row

		records = append(records, record)
	}

	if len(records) == 0 {
		return nil, &catalog.LoadError{Reason: "catalog has no rows"}
	}

	return records, nil
}

// mapHeader finds the position of every required column
func mapHeader(header []string) ([columnCount]int, error) {
	var positions [columnCount]int
	for i := range positions {
		positions[i] = -1
	}

	for i, name := range header {
		c, ok := headerAliases[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			continue
		}
		if positions[c] != -1 {
			return positions, &catalog.LoadError{Reason: "column " + columnNames[c] + " appears twice"}
		}
		positions[c] = i
	}

	var missing []string
	for c, pos := range positions {
		if pos == -1 {
			missing = append(missing, columnNames[c])
		}
	}
	if len(missing) > 0 {
		return positions, &catalog.LoadError{Reason: "missing required columns: " + strings.Join(missing, ", ")}
	}

	return positions, nil
}

// splitList splits a ";" delimited cell, dropping blank items
func splitList(cell string) []string {
	if strings.TrimSpace(cell) == "" {
		return nil
	}

	var items []string
	for _, item := range strings.Split(cell, ";") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
