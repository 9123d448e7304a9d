// Package query is the single entry point of the HTTP layer. Every operation
// takes a free-text drug name, resolves it against the current catalog index
// and composes the resolver, the catalog fields and the sentiment service.
package query

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/giygas/rxu-api/catalog"
	"github.com/giygas/rxu-api/drugparser/entities"
	"github.com/giygas/rxu-api/interfaces"
	"github.com/giygas/rxu-api/resolver"
)

const (
	DefaultSearchLimit = 10
	MaxSearchLimit     = 100

	defaultReason = "Alternative therapy from the same or similar drug class"
)

// IndexSource hands out the current catalog index
type IndexSource interface {
	GetIndex() *catalog.Index
}

type Facade struct {
	source      IndexSource
	sentiment   interfaces.SentimentProvider
	opts        resolver.Options
	searchLimit int
}

// SearchResult is a ranked candidate with the record fields shown to clients
type SearchResult struct {
	DrugID      string             `json:"drugbank_id"`
	Name        string             `json:"name"`
	GenericName string             `json:"generic_name"`
	BrandNames  []string           `json:"brand_names"`
	DrugClass   string             `json:"drug_class"`
	Description string             `json:"description"`
	MatchScore  int                `json:"match_score"`
	MatchType   entities.MatchType `json:"match_type"`
}

type Recommendation struct {
	DrugID          string  `json:"drugbank_id,omitempty"`
	Name            string  `json:"name"`
	DrugClass       string  `json:"drug_class,omitempty"`
	SimilarityScore float64 `json:"similarity_score"`
	Reason          string  `json:"reason"`
}

type Recommendations struct {
	OriginalDrug    string           `json:"original_drug"`
	DrugID          string           `json:"drugbank_id"`
	Recommendations []Recommendation `json:"recommendations"`
	Message         string           `json:"message,omitempty"`
}

type SideEffects struct {
	DrugName string                `json:"drug_name"`
	DrugID   string                `json:"drugbank_id"`
	Common   []entities.SideEffect `json:"common_side_effects"`
	Serious  []entities.SideEffect `json:"serious_side_effects"`
	Message  string                `json:"message,omitempty"`
}

type AvailableDrug struct {
	DrugID string `json:"drugbank_id"`
	Name   string `json:"name,omitempty"`
}

// New creates the facade. searchLimit is the default result count of Search.
func New(source IndexSource, sentiment interfaces.SentimentProvider, opts resolver.Options, searchLimit int) *Facade {
	if searchLimit < 1 || searchLimit > MaxSearchLimit {
		searchLimit = DefaultSearchLimit
	}
	return &Facade{source: source, sentiment: sentiment, opts: opts, searchLimit: searchLimit}
}

// current binds a resolver to the index current at call time, so a reload
// never changes the index under a request already in progress
func (f *Facade) current() (*resolver.Resolver, *catalog.Index, error) {
	idx := f.source.GetIndex()
	if idx == nil {
		return nil, nil, ErrCatalogNotLoaded
	}
	return resolver.New(idx, f.opts), idx, nil
}

// Search returns up to limit ranked candidates. limit <= 0 uses the default,
// values above MaxSearchLimit are capped. No match is an empty result, not an error.
func (f *Facade) Search(query string, limit int) ([]SearchResult, error) {
	r, _, err := f.current()
	if err != nil {
		return nil, err
	}

	switch {
	case limit <= 0:
		limit = f.searchLimit
	case limit > MaxSearchLimit:
		limit = MaxSearchLimit
	}

	matches := r.ResolveMatches(query, limit)
	results := make([]SearchResult, len(matches))
	for i, m := range matches {
		results[i] = SearchResult{
			DrugID:      m.DrugID,
			Name:        m.Record.Name,
			GenericName: m.Record.GenericName,
			BrandNames:  nonNil(m.Record.BrandNames),
			DrugClass:   m.Record.DrugClass,
			Description: m.Record.Description,
			MatchScore:  m.Score,
			MatchType:   m.MatchType,
		}
	}
	return results, nil
}

// best resolves name to its top candidate
func (f *Facade) best(name string) (resolver.Match, *resolver.Resolver, *catalog.Index, error) {
	r, idx, err := f.current()
	if err != nil {
		return resolver.Match{}, nil, nil, err
	}

	m, ok := r.ResolveBest(name)
	if !ok {
		return resolver.Match{}, nil, nil, &DrugNotFoundError{Query: name}
	}
	return m, r, idx, nil
}

// Sentiment returns the series of the drug name resolves to
func (f *Facade) Sentiment(ctx context.Context, name string) (*entities.SentimentSeries, error) {
	m, _, _, err := f.best(name)
	if err != nil {
		return nil, err
	}

	series, err := f.sentiment.GetSentiment(ctx, m.DrugID)
	if err != nil {
		return nil, &SentimentUnavailableError{DrugID: m.DrugID, Err: err}
	}
	return series, nil
}

// Recommendations lists the alternatives of the resolved drug in catalog order.
// Alternatives are catalog identifiers or names; a name resolves only on an
// exact, synonym or brand match, otherwise it is listed as written.
func (f *Facade) Recommendations(name string) (*Recommendations, error) {
	m, r, idx, err := f.best(name)
	if err != nil {
		return nil, err
	}

	out := &Recommendations{
		OriginalDrug:    m.Record.Name,
		DrugID:          m.DrugID,
		Recommendations: []Recommendation{},
	}

	seen := map[string]bool{m.DrugID: true}
	for _, alt := range m.Record.Alternatives {
		alt = strings.TrimSpace(alt)
		if alt == "" {
			continue
		}

		rec := Recommendation{Name: alt, Reason: defaultReason}
		if target, ok := lookupAlternative(r, idx, alt); ok {
			if seen[target.ID] {
				continue
			}
			seen[target.ID] = true

			rec.DrugID = target.ID
			rec.Name = target.Name
			rec.DrugClass = target.DrugClass
			if target.DrugClass != "" && strings.EqualFold(target.DrugClass, m.Record.DrugClass) {
				rec.Reason = fmt.Sprintf("Same drug class (%s)", target.DrugClass)
			}
		}

		rec.SimilarityScore = similarityAt(len(out.Recommendations))
		out.Recommendations = append(out.Recommendations, rec)
	}

	if len(out.Recommendations) == 0 {
		out.Message = fmt.Sprintf("No alternatives available for '%s'", m.Record.Name)
	}
	return out, nil
}

func lookupAlternative(r *resolver.Resolver, idx *catalog.Index, alt string) (entities.DrugRecord, bool) {
	if rec, ok := idx.Get(alt); ok {
		return rec, true
	}
	if m, ok := r.ResolveBest(alt); ok && m.Score >= resolver.SynonymScore {
		return m.Record, true
	}
	return entities.DrugRecord{}, false
}

// similarityAt is the positional score of the i-th alternative: 0.95, 0.85, ... floored at 0.5
func similarityAt(i int) float64 {
	s := math.Max(0.95-0.1*float64(i), 0.5)
	return math.Round(s*100) / 100
}

// SideEffects splits the side effects of the resolved drug into common and serious
func (f *Facade) SideEffects(name string) (*SideEffects, error) {
	m, _, _, err := f.best(name)
	if err != nil {
		return nil, err
	}

	out := &SideEffects{
		DrugName: m.Record.Name,
		DrugID:   m.DrugID,
		Common:   []entities.SideEffect{},
		Serious:  []entities.SideEffect{},
	}
	for _, se := range m.Record.SideEffects {
		if se.IsSerious() {
			out.Serious = append(out.Serious, se)
		} else {
			out.Common = append(out.Common, se)
		}
	}

	if len(m.Record.SideEffects) == 0 {
		out.Message = fmt.Sprintf("No side effects data available for '%s'", m.Record.Name)
	}
	return out, nil
}

// AvailableSentiment lists the drugs that have sentiment aggregates stored
// locally, with catalog names where the identifier is known
func (f *Facade) AvailableSentiment(ctx context.Context) ([]AvailableDrug, error) {
	ids, err := f.sentiment.AvailableDrugs(ctx)
	if err != nil {
		return nil, err
	}

	idx := f.source.GetIndex()
	drugs := make([]AvailableDrug, 0, len(ids))
	for _, id := range ids {
		d := AvailableDrug{DrugID: id}
		if idx != nil {
			if rec, ok := idx.Get(id); ok {
				d.Name = rec.Name
			}
		}
		drugs = append(drugs, d)
	}
	return drugs, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
