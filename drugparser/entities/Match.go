package entities

// MatchType tells which resolution stage produced a candidate
type MatchType string

const (
	MatchExact   MatchType = "exact"
	MatchSynonym MatchType = "synonym"
	MatchBrand   MatchType = "brand"
	MatchFuzzy   MatchType = "fuzzy"
)

// MatchCandidate is a single ranked result of a name resolution.
// It is produced per query and never stored.
type MatchCandidate struct {
	DrugID    string    `json:"drugbank_id"`
	Score     int       `json:"match_score"`
	MatchType MatchType `json:"match_type"`
}
