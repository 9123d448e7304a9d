package entities

import "time"

// Overall sentiment labels
const (
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"
)

// SentimentPoint is the aggregate of one calendar day
type SentimentPoint struct {
	Date      string  `json:"date"` // YYYY-MM-DD
	Positive  float64 `json:"positive"`
	Neutral   float64 `json:"neutral"`
	Negative  float64 `json:"negative"`
	PostCount int     `json:"post_count"`
}

// MalformedDataPoint records a point dropped during validation
type MalformedDataPoint struct {
	Index  int    `json:"index"`
	Date   string `json:"date,omitempty"`
	Reason string `json:"reason"`
}

func (m MalformedDataPoint) Error() string {
	if m.Date != "" {
		return "malformed data point " + m.Date + ": " + m.Reason
	}
	return "malformed data point: " + m.Reason
}

// SentimentSeries is the assembled time series of a drug.
// A series is never modified once built; a refetch produces a new one.
type SentimentSeries struct {
	DrugID           string               `json:"drugbank_id"`
	Points           []SentimentPoint     `json:"sentiment_data"`
	OverallSentiment string               `json:"overall_sentiment"`
	SentimentScore   float64              `json:"sentiment_score"`
	TotalPosts       int                  `json:"total_posts_analyzed"`
	FetchedAt        time.Time            `json:"analysis_date,omitzero"`
	Source           string               `json:"source"`
	DataAvailable    bool                 `json:"data_available"`
	Defects          []MalformedDataPoint `json:"defects,omitempty"`
}
