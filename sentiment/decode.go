package sentiment

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/giygas/rxu-api/drugparser/entities"
)

const (
	dateLayout = "2006-01-02"

	// Fractions of a point must add up to 1 within this tolerance
	sumTolerance = 0.02

	// Largest post_count accepted for a single day
	maxPostCount = math.MaxInt32
)

// DecodeError is returned when a stored blob is not a sentiment aggregate.
// It is distinct from a storage miss: the data exists but cannot be read.
type DecodeError struct {
	Key string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding sentiment blob %s: %v", e.Key, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// rawPoint mirrors one stored record before validation
type rawPoint struct {
	Date      string  `json:"date"`
	Positive  float64 `json:"positive"`
	Neutral   float64 `json:"neutral"`
	Negative  float64 `json:"negative"`
	PostCount float64 `json:"post_count"`
}

// aggregateFile is the object layout written by the aggregation job
type aggregateFile struct {
	DrugName      string      `json:"drug_name"`
	SentimentData *[]rawPoint `json:"sentiment_data"`
}

var errMissingSeries = errors.New("object has no sentiment_data array")

// decodePoints accepts a bare JSON array of records or an aggregate object
func decodePoints(data []byte) ([]rawPoint, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.New("empty blob")
	}

	switch trimmed[0] {
	case '[':
		var points []rawPoint
		if err := json.Unmarshal(trimmed, &points); err != nil {
			return nil, err
		}
		return points, nil
	case '{':
		var file aggregateFile
		if err := json.Unmarshal(trimmed, &file); err != nil {
			return nil, err
		}
		if file.SentimentData == nil {
			return nil, errMissingSeries
		}
		return *file.SentimentData, nil
	default:
		return nil, fmt.Errorf("unexpected leading byte %q", trimmed[0])
	}
}

// validatePoints keeps the well formed points in order and reports the rest
func validatePoints(raw []rawPoint) ([]entities.SentimentPoint, []entities.MalformedDataPoint) {
	points := make([]entities.SentimentPoint, 0, len(raw))
	var defects []entities.MalformedDataPoint

	lastDate := ""
	for i, r := range raw {
		date, err := normalizeDate(r.Date)
		if err != nil {
			defects = append(defects, entities.MalformedDataPoint{Index: i, Date: r.Date, Reason: err.Error()})
			continue
		}

		if reason := checkPoint(r); reason != "" {
			defects = append(defects, entities.MalformedDataPoint{Index: i, Date: date, Reason: reason})
			continue
		}

		if lastDate != "" && date < lastDate {
			defects = append(defects, entities.MalformedDataPoint{
				Index:  i,
				Date:   date,
				Reason: "date goes backwards from " + lastDate,
			})
			continue
		}
		lastDate = date

		points = append(points, entities.SentimentPoint{
			Date:      date,
			Positive:  r.Positive,
			Neutral:   r.Neutral,
			Negative:  r.Negative,
			PostCount: int(r.PostCount),
		})
	}

	return points, defects
}

func normalizeDate(s string) (string, error) {
	if s == "" {
		return "", errors.New("missing date")
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t.Format(dateLayout), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.Format(dateLayout), nil
	}
	return "", fmt.Errorf("unparseable date %q", s)
}

func checkPoint(r rawPoint) string {
	for _, f := range []struct {
		name  string
		value float64
	}{{"positive", r.Positive}, {"neutral", r.Neutral}, {"negative", r.Negative}} {
		if f.value < 0 || f.value > 1 {
			return fmt.Sprintf("%s fraction %.3f outside [0,1]", f.name, f.value)
		}
	}

	sum := r.Positive + r.Neutral + r.Negative
	if math.Abs(sum-1) > sumTolerance+1e-9 {
		return fmt.Sprintf("fractions sum to %.3f", sum)
	}

	if r.PostCount < 0 || r.PostCount > maxPostCount || r.PostCount != math.Trunc(r.PostCount) {
		return fmt.Sprintf("invalid post_count %v", r.PostCount)
	}
	return ""
}
