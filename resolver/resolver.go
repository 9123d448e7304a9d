// Package resolver turns a free-text drug name into a ranked list of catalog matches.
//
// Resolution runs three stages in priority order: exact canonical name (score 100),
// synonym, brand and generic names (score 95), then a fuzzy pass over every name
// string of every record. A drug appears at most once, with the score of the
// first stage that found it.
package resolver

import (
	"cmp"
	"slices"

	"github.com/giygas/rxu-api/catalog"
	"github.com/giygas/rxu-api/drugparser/entities"
	"github.com/giygas/rxu-api/metrics"
)

const (
	ExactScore   = 100
	SynonymScore = 95

	DefaultThreshold  = 60
	DefaultFuzzyLimit = 20
)

// Options tunes the fuzzy stage
type Options struct {
	Threshold  int // minimum fuzzy score kept, 0..100
	FuzzyLimit int // maximum number of fuzzy candidates merged
}

func DefaultOptions() Options {
	return Options{Threshold: DefaultThreshold, FuzzyLimit: DefaultFuzzyLimit}
}

// Match is a candidate together with the record it points to
type Match struct {
	entities.MatchCandidate
	Record entities.DrugRecord
}

// Resolver matches queries against one catalog index.
// It only reads the index and is safe for concurrent use.
type Resolver struct {
	index *catalog.Index
	opts  Options
}

// New creates a resolver over index. Out of range options fall back to the defaults.
func New(index *catalog.Index, opts Options) *Resolver {
	if opts.Threshold < 0 || opts.Threshold > 100 {
		opts.Threshold = DefaultThreshold
	}
	if opts.FuzzyLimit < 1 {
		opts.FuzzyLimit = DefaultFuzzyLimit
	}
	return &Resolver{index: index, opts: opts}
}

// Resolve returns the ranked candidates for query, best first.
// An empty result means nothing matched.
func (r *Resolver) Resolve(query string) []entities.MatchCandidate {
	matches := r.ResolveMatches(query, 0)

	candidates := make([]entities.MatchCandidate, len(matches))
	for i, m := range matches {
		candidates[i] = m.MatchCandidate
	}
	return candidates
}

// ResolveBest returns the top candidate
func (r *Resolver) ResolveBest(query string) (Match, bool) {
	matches := r.ResolveMatches(query, 1)
	if len(matches) == 0 {
		return Match{}, false
	}
	return matches[0], true
}

// ResolveMatches is Resolve with the records attached. limit <= 0 means no limit.
func (r *Resolver) ResolveMatches(query string, limit int) []Match {
	q := catalog.Normalize(query)
	if q == "" || r.index == nil {
		metrics.ResolverQueries.WithLabelValues("blank").Inc()
		return []Match{}
	}

	found := make(map[string]Match)
	add := func(id string, score int, matchType entities.MatchType) {
		if prev, ok := found[id]; ok && prev.Score >= score {
			return
		}
		rec, ok := r.index.Get(id)
		if !ok {
			return
		}
		found[id] = Match{
			MatchCandidate: entities.MatchCandidate{DrugID: id, Score: score, MatchType: matchType},
			Record:         rec,
		}
	}

	for _, id := range r.index.LookupExact(q) {
		add(id, ExactScore, entities.MatchExact)
	}
	for _, id := range r.index.LookupSynonym(q) {
		add(id, SynonymScore, entities.MatchSynonym)
	}
	for _, id := range r.index.LookupBrand(q) {
		add(id, SynonymScore, entities.MatchBrand)
	}
	for _, id := range r.index.LookupGeneric(q) {
		add(id, SynonymScore, entities.MatchSynonym)
	}

	for _, m := range r.fuzzy(q, found) {
		add(m.DrugID, m.Score, entities.MatchFuzzy)
	}

	matches := make([]Match, 0, len(found))
	for _, m := range found {
		matches = append(matches, m)
	}
	sortMatches(matches)

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}

	outcome := "match"
	if len(matches) == 0 {
		outcome = "empty"
	}
	metrics.ResolverQueries.WithLabelValues(outcome).Inc()

	return matches
}

// fuzzy scores every record not yet found and keeps the best ones above the threshold
func (r *Resolver) fuzzy(q string, found map[string]Match) []Match {
	var scored []Match

	for _, rec := range r.index.All() {
		if _, ok := found[rec.ID]; ok {
			continue
		}

		best := Similarity(q, rec.NormalizedName)
		if s := Similarity(q, rec.NormalizedGeneric); s > best {
			best = s
		}
		for _, s := range rec.NormalizedSynonyms {
			best = max(best, Similarity(q, s))
		}
		for _, b := range rec.NormalizedBrands {
			best = max(best, Similarity(q, b))
		}

		if best < r.opts.Threshold || best == 0 {
			continue
		}

		scored = append(scored, Match{
			MatchCandidate: entities.MatchCandidate{DrugID: rec.ID, Score: best, MatchType: entities.MatchFuzzy},
			Record:         rec,
		})
	}

	sortMatches(scored)
	if len(scored) > r.opts.FuzzyLimit {
		scored = scored[:r.opts.FuzzyLimit]
	}
	return scored
}

// sortMatches orders by score, then canonical name, then identifier
func sortMatches(matches []Match) {
	slices.SortFunc(matches, func(a, b Match) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Record.NormalizedName, b.Record.NormalizedName); c != 0 {
			return c
		}
		return cmp.Compare(a.DrugID, b.DrugID)
	})
}
