package entities

// Side effect severities
const (
	SeverityMild     = "mild"
	SeverityModerate = "moderate"
	SeveritySevere   = "severe"
)

// Side effect frequencies
const (
	FrequencyCommon   = "common"
	FrequencyUncommon = "uncommon"
	FrequencyRare     = "rare"
)

// DrugRecord is one row of the drug catalog.
// Normalized fields are filled by the catalog index builder and are not serialized.
type DrugRecord struct {
	ID           string       `json:"drugbank_id"`
	Name         string       `json:"name"`
	GenericName  string       `json:"generic_name"`
	Synonyms     []string     `json:"synonyms"`
	BrandNames   []string     `json:"brand_names"`
	DrugClass    string       `json:"drug_class"`
	Description  string       `json:"description"`
	Alternatives []string     `json:"alternatives"`
	SideEffects  []SideEffect `json:"side_effects"`

	NormalizedName     string   `json:"-"`
	NormalizedGeneric  string   `json:"-"`
	NormalizedSynonyms []string `json:"-"`
	NormalizedBrands   []string `json:"-"`
}

type SideEffect struct {
	Effect    string `json:"effect"`
	Frequency string `json:"frequency"`
	Severity  string `json:"severity"`
}

// IsSerious reports whether the effect belongs to the serious listing
func (s SideEffect) IsSerious() bool {
	return s.Severity == SeveritySevere
}
