// Package sentiment turns stored daily sentiment aggregates into validated
// time series with an overall verdict.
package sentiment

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/giygas/rxu-api/drugparser/entities"
	"github.com/giygas/rxu-api/interfaces"
	"github.com/giygas/rxu-api/logging"
	"github.com/giygas/rxu-api/storage"
)

const (
	keyPrefix = "sentiment"
	keySuffix = "daily"

	// Scores beyond these bounds get a positive or negative label
	positiveThreshold = 0.2
	negativeThreshold = -0.2
)

// Fetcher is the read side of the tiered store
type Fetcher interface {
	Fetch(ctx context.Context, key string) (*storage.Blob, error)
}

// KeyLister enumerates keys held by a tier
type KeyLister interface {
	Keys(prefix string) ([]string, error)
}

type Service struct {
	store Fetcher
	local KeyLister
}

var _ interfaces.SentimentProvider = (*Service)(nil)

// NewService creates the service. local may be nil, in which case no drug is
// reported as having sentiment data available.
func NewService(store Fetcher, local KeyLister) *Service {
	return &Service{store: store, local: local}
}

// KeyFor is the storage key of the daily aggregate of a drug
func KeyFor(drugID string) string {
	return keyPrefix + "/" + drugID + "/" + keySuffix
}

// GetSentiment fetches, validates and aggregates the series of drugID.
// Storage failures are returned as *storage.DataUnavailableError and
// unreadable blobs as *DecodeError.
func (s *Service) GetSentiment(ctx context.Context, drugID string) (*entities.SentimentSeries, error) {
	drugID = strings.TrimSpace(drugID)
	if drugID == "" || strings.ContainsAny(drugID, `/\`) {
		return nil, fmt.Errorf("%w: drug id %q", storage.ErrInvalidKey, drugID)
	}

	key := KeyFor(drugID)
	blob, err := s.store.Fetch(ctx, key)
	if err != nil {
		return nil, err
	}

	raw, err := decodePoints(blob.Data)
	if err != nil {
		logging.Warn("Undecodable sentiment blob", "key", key, "source", blob.Source, "error", err)
		return nil, &DecodeError{Key: key, Err: err}
	}

	points, defects := validatePoints(raw)
	if len(defects) > 0 {
		logging.Warn("Dropped malformed sentiment points",
			"drug_id", drugID,
			"dropped", len(defects),
			"kept", len(points),
			"first_reason", defects[0].Reason)
	}

	series := Aggregate(drugID, points)
	series.Defects = defects
	series.Source = blob.Source
	series.FetchedAt = blob.FetchedAt
	return series, nil
}

// Aggregate computes the overall verdict of validated points.
// The score is the post weighted mean of positive minus negative, rounded to 3 decimals.
func Aggregate(drugID string, points []entities.SentimentPoint) *entities.SentimentSeries {
	series := &entities.SentimentSeries{
		DrugID:           drugID,
		Points:           points,
		OverallSentiment: entities.SentimentNeutral,
	}
	if series.Points == nil {
		series.Points = []entities.SentimentPoint{}
	}
	if len(points) == 0 {
		return series
	}
	series.DataAvailable = true

	var weighted float64
	total := 0
	for _, p := range points {
		weighted += (p.Positive - p.Negative) * float64(p.PostCount)
		total += p.PostCount
	}
	series.TotalPosts = total

	if total == 0 {
		return series
	}

	score := math.Round(weighted/float64(total)*1000) / 1000
	series.SentimentScore = score
	switch {
	case score > positiveThreshold:
		series.OverallSentiment = entities.SentimentPositive
	case score < negativeThreshold:
		series.OverallSentiment = entities.SentimentNegative
	}
	return series
}

// AvailableDrugs lists the identifiers that have an aggregate in the local tier, sorted
func (s *Service) AvailableDrugs(ctx context.Context) ([]string, error) {
	if s.local == nil {
		return []string{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	keys, err := s.local.Keys(keyPrefix)
	if err != nil {
		return nil, fmt.Errorf("listing sentiment aggregates: %w", err)
	}

	ids := make([]string, 0, len(keys))
	for _, key := range keys {
		parts := strings.Split(key, "/")
		if len(parts) == 3 && parts[0] == keyPrefix && parts[2] == keySuffix {
			ids = append(ids, parts[1])
		}
	}
	return ids, nil
}
