// Package catalog builds the in-memory drug catalog index used for name lookups.
// An Index is built once from the parsed catalog rows and is read-only afterwards,
// so it can be shared between goroutines without locking. A reload builds a new
// Index and swaps the handle, nothing is ever patched in place.
package catalog

import (
	"slices"
	"strings"
	"time"

	"github.com/giygas/rxu-api/drugparser/entities"
	"github.com/google/uuid"
)

// Index holds the catalog records and the normalized lookup maps
type Index struct {
	records []entities.DrugRecord
	byID    map[string]int

	exact   map[string][]string // normalized canonical name -> ids
	synonym map[string][]string // normalized synonym -> ids
	brand   map[string][]string // normalized brand name -> ids
	generic map[string][]string // normalized generic name -> ids

	version string
	builtAt time.Time
}

// New validates the records and builds the lookup maps.
// Records are copied, the caller keeps ownership of its slice.
func New(records []entities.DrugRecord) (*Index, error) {
	idx := &Index{
		records: make([]entities.DrugRecord, 0, len(records)),
		byID:    make(map[string]int, len(records)),
		exact:   make(map[string][]string, len(records)),
		synonym: make(map[string][]string),
		brand:   make(map[string][]string),
		generic: make(map[string][]string, len(records)),
		version: uuid.NewString(),
		builtAt: time.Now(),
	}

	for i, rec := range records {
		rec.ID = strings.TrimSpace(rec.ID)
		rec.Name = strings.TrimSpace(rec.Name)
		rec.GenericName = strings.TrimSpace(rec.GenericName)

		if rec.ID == "" {
			return nil, &LoadError{Row: i + 1, Reason: "missing identifier"}
		}
		if rec.Name == "" {
			return nil, &LoadError{Row: i + 1, Reason: "missing name for " + rec.ID}
		}
		if _, dup := idx.byID[rec.ID]; dup {
			return nil, &LoadError{Row: i + 1, Reason: "duplicate identifier " + rec.ID}
		}

		rec.NormalizedName = Normalize(rec.Name)
		rec.NormalizedGeneric = Normalize(rec.GenericName)
		rec.Synonyms, rec.NormalizedSynonyms = dedupeNames(rec.Synonyms)
		rec.BrandNames, rec.NormalizedBrands = dedupeNames(rec.BrandNames)
		rec.Alternatives = slices.Clone(rec.Alternatives)
		rec.SideEffects = slices.Clone(rec.SideEffects)

		idx.byID[rec.ID] = len(idx.records)
		idx.records = append(idx.records, rec)

		addKey(idx.exact, rec.NormalizedName, rec.ID)
		addKey(idx.generic, rec.NormalizedGeneric, rec.ID)
		for _, s := range rec.NormalizedSynonyms {
			addKey(idx.synonym, s, rec.ID)
		}
		for _, b := range rec.NormalizedBrands {
			addKey(idx.brand, b, rec.ID)
		}
	}

	for _, m := range []map[string][]string{idx.exact, idx.synonym, idx.brand, idx.generic} {
		for k := range m {
			slices.Sort(m[k])
		}
	}

	return idx, nil
}

// dedupeNames trims the display strings and drops the ones whose normalized
// form was already seen. Both slices keep the same order and length.
func dedupeNames(names []string) (display []string, normalized []string) {
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		key := Normalize(n)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		display = append(display, n)
		normalized = append(normalized, key)
	}
	return display, normalized
}

func addKey(m map[string][]string, key, id string) {
	if key == "" {
		return
	}
	if slices.Contains(m[key], id) {
		return
	}
	m[key] = append(m[key], id)
}

func lookup(m map[string][]string, name string) []string {
	key := Normalize(name)
	if key == "" {
		return nil
	}
	return slices.Clone(m[key])
}

// LookupExact returns the ids whose canonical name matches
func (idx *Index) LookupExact(name string) []string {
	return lookup(idx.exact, name)
}

// LookupSynonym returns the ids having name among their synonyms
func (idx *Index) LookupSynonym(name string) []string {
	return lookup(idx.synonym, name)
}

// LookupBrand returns the ids having name among their brand names
func (idx *Index) LookupBrand(name string) []string {
	return lookup(idx.brand, name)
}

// LookupGeneric returns the ids whose generic name matches
func (idx *Index) LookupGeneric(name string) []string {
	return lookup(idx.generic, name)
}

// All returns the records in catalog order. The slice is shared and must not be modified.
func (idx *Index) All() []entities.DrugRecord {
	return idx.records
}

// Get returns the record with the given identifier
func (idx *Index) Get(id string) (entities.DrugRecord, bool) {
	i, ok := idx.byID[strings.TrimSpace(id)]
	if !ok {
		return entities.DrugRecord{}, false
	}
	return idx.records[i], true
}

func (idx *Index) Len() int {
	return len(idx.records)
}

// Version is a random identifier stamped when the index was built
func (idx *Index) Version() string {
	return idx.version
}

func (idx *Index) BuiltAt() time.Time {
	return idx.builtAt
}
