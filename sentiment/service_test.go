package sentiment

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/giygas/rxu-api/drugparser/entities"
	"github.com/giygas/rxu-api/storage"
)

type mockFetcher struct {
	blobs map[string]*storage.Blob
	calls atomic.Int32
}

func (m *mockFetcher) Fetch(ctx context.Context, key string) (*storage.Blob, error) {
	m.calls.Add(1)
	if b, ok := m.blobs[key]; ok {
		return b, nil
	}
	return nil, &storage.DataUnavailableError{Key: key, Causes: []error{storage.ErrNotFound}}
}

func newMockFetcher(blobs map[string]string) *mockFetcher {
	m := &mockFetcher{blobs: make(map[string]*storage.Blob)}
	for id, data := range blobs {
		key := KeyFor(id)
		m.blobs[key] = &storage.Blob{Key: key, Data: []byte(data), Source: "mock", FetchedAt: time.Unix(1700000000, 0)}
	}
	return m
}

const validSeries = `[
	{"date": "2025-01-01", "positive": 0.6, "neutral": 0.3, "negative": 0.1, "post_count": 10},
	{"date": "2025-01-02", "positive": 0.5, "neutral": 0.3, "negative": 0.2, "post_count": 30}
]`

func TestGetSentimentAggregates(t *testing.T) {
	svc := NewService(newMockFetcher(map[string]string{"DB00945": validSeries}), nil)

	series, err := svc.GetSentiment(context.Background(), "DB00945")
	if err != nil {
		t.Fatalf("GetSentiment failed: %v", err)
	}

	if len(series.Points) != 2 || series.TotalPosts != 40 {
		t.Errorf("Unexpected series shape: %d points, %d posts", len(series.Points), series.TotalPosts)
	}
	// (0.5*10 + 0.3*30) / 40 = 0.35
	if series.SentimentScore != 0.35 {
		t.Errorf("Expected score 0.35, got %v", series.SentimentScore)
	}
	if series.OverallSentiment != entities.SentimentPositive {
		t.Errorf("Expected positive, got %s", series.OverallSentiment)
	}
	if !series.DataAvailable || series.Source != "mock" || series.FetchedAt.IsZero() {
		t.Errorf("Unexpected metadata: %+v", series)
	}
}

func TestGetSentimentObjectLayout(t *testing.T) {
	blob := `{"drug_name": "aspirin", "overall_sentiment": "neutral", "sentiment_data": ` + validSeries + `}`
	svc := NewService(newMockFetcher(map[string]string{"DB00945": blob}), nil)

	series, err := svc.GetSentiment(context.Background(), "DB00945")
	if err != nil {
		t.Fatalf("GetSentiment failed: %v", err)
	}
	if len(series.Points) != 2 {
		t.Errorf("Expected 2 points, got %d", len(series.Points))
	}
}

func TestGetSentimentDropsMalformedPoints(t *testing.T) {
	blob := `[
		{"date": "2025-01-01", "positive": 0.6, "neutral": 0.3, "negative": 0.1, "post_count": 10},
		{"date": "2025-01-02", "positive": 0.6, "neutral": 0.3, "negative": 0.3, "post_count": 10},
		{"date": "2025-01-03", "positive": 0.5, "neutral": 0.49, "negative": 0.0, "post_count": 5},
		{"date": "not-a-date", "positive": 0.6, "neutral": 0.3, "negative": 0.1, "post_count": 10},
		{"date": "2025-01-04", "positive": 1.5, "neutral": 0.0, "negative": -0.5, "post_count": 10},
		{"date": "2025-01-05", "positive": 0.6, "neutral": 0.3, "negative": 0.1, "post_count": -1},
		{"date": "2024-12-31", "positive": 0.6, "neutral": 0.3, "negative": 0.1, "post_count": 10},
		{"date": "2025-01-06T14:30:00Z", "positive": 0.1, "neutral": 0.2, "negative": 0.7, "post_count": 20}
	]`
	svc := NewService(newMockFetcher(map[string]string{"DB00945": blob}), nil)

	series, err := svc.GetSentiment(context.Background(), "DB00945")
	if err != nil {
		t.Fatalf("GetSentiment failed: %v", err)
	}

	var dates []string
	for _, p := range series.Points {
		dates = append(dates, p.Date)
	}
	want := []string{"2025-01-01", "2025-01-03", "2025-01-06"}
	if !reflect.DeepEqual(dates, want) {
		t.Errorf("Kept dates = %v, want %v", dates, want)
	}

	var indexes []int
	for _, d := range series.Defects {
		indexes = append(indexes, d.Index)
	}
	if !reflect.DeepEqual(indexes, []int{1, 3, 4, 5, 6}) {
		t.Errorf("Defect indexes = %v", indexes)
	}
}

func TestGetSentimentRejectsOversizedPostCount(t *testing.T) {
	blob := `[
		{"date": "2025-01-01", "positive": 0.6, "neutral": 0.3, "negative": 0.1, "post_count": 1e19},
		{"date": "2025-01-02", "positive": 0.5, "neutral": 0.3, "negative": 0.2, "post_count": 10},
		{"date": "2025-01-03", "positive": 0.5, "neutral": 0.3, "negative": 0.2, "post_count": 2147483648}
	]`
	svc := NewService(newMockFetcher(map[string]string{"DB00945": blob}), nil)

	series, err := svc.GetSentiment(context.Background(), "DB00945")
	if err != nil {
		t.Fatalf("GetSentiment failed: %v", err)
	}

	if len(series.Points) != 1 || series.Points[0].PostCount != 10 {
		t.Fatalf("Expected only the 10-post point, got %+v", series.Points)
	}
	if series.TotalPosts != 10 {
		t.Errorf("Expected 10 total posts, got %d", series.TotalPosts)
	}

	var indexes []int
	for _, d := range series.Defects {
		indexes = append(indexes, d.Index)
	}
	if !reflect.DeepEqual(indexes, []int{0, 2}) {
		t.Errorf("Defect indexes = %v, want [0 2]", indexes)
	}
}

func TestGetSentimentEmptySeries(t *testing.T) {
	svc := NewService(newMockFetcher(map[string]string{"DB00945": `[]`}), nil)

	series, err := svc.GetSentiment(context.Background(), "DB00945")
	if err != nil {
		t.Fatalf("GetSentiment failed: %v", err)
	}
	if series.DataAvailable || series.OverallSentiment != entities.SentimentNeutral || series.SentimentScore != 0 {
		t.Errorf("Unexpected empty series %+v", series)
	}
	if series.Points == nil {
		t.Error("Expected an empty, non-nil point list")
	}
}

func TestGetSentimentUnavailable(t *testing.T) {
	svc := NewService(newMockFetcher(nil), nil)

	_, err := svc.GetSentiment(context.Background(), "DB99999")
	if !errors.Is(err, storage.ErrDataUnavailable) {
		t.Fatalf("Expected ErrDataUnavailable, got %v", err)
	}
	var unavailable *storage.DataUnavailableError
	if !errors.As(err, &unavailable) || unavailable.Key != "sentiment/DB99999/daily" {
		t.Errorf("Unexpected error %v", err)
	}
}

func TestGetSentimentDecodeError(t *testing.T) {
	blobs := map[string]string{
		"BAD1": `{not json`,
		"BAD2": `{"drug_name": "x"}`,
		"BAD3": ``,
		"BAD4": `"string"`,
	}
	svc := NewService(newMockFetcher(blobs), nil)

	for id := range blobs {
		t.Run(id, func(t *testing.T) {
			_, err := svc.GetSentiment(context.Background(), id)
			var decodeErr *DecodeError
			if !errors.As(err, &decodeErr) {
				t.Fatalf("Expected *DecodeError, got %v", err)
			}
			if errors.Is(err, storage.ErrDataUnavailable) {
				t.Error("A decode failure is not a storage miss")
			}
		})
	}
}

func TestGetSentimentInvalidID(t *testing.T) {
	fetcher := newMockFetcher(nil)
	svc := NewService(fetcher, nil)

	for _, id := range []string{"", "  ", "../x", `a\b`} {
		if _, err := svc.GetSentiment(context.Background(), id); !errors.Is(err, storage.ErrInvalidKey) {
			t.Errorf("GetSentiment(%q) error = %v, want ErrInvalidKey", id, err)
		}
	}
	if fetcher.calls.Load() != 0 {
		t.Error("Invalid identifiers must not reach the store")
	}
}

func TestAggregateLabels(t *testing.T) {
	tests := []struct {
		name  string
		point entities.SentimentPoint
		label string
	}{
		{"positive", entities.SentimentPoint{Positive: 0.7, Neutral: 0.2, Negative: 0.1, PostCount: 5}, entities.SentimentPositive},
		{"negative", entities.SentimentPoint{Positive: 0.1, Neutral: 0.2, Negative: 0.7, PostCount: 5}, entities.SentimentNegative},
		{"neutral", entities.SentimentPoint{Positive: 0.3, Neutral: 0.5, Negative: 0.2, PostCount: 5}, entities.SentimentNeutral},
		{"boundary", entities.SentimentPoint{Positive: 0.4, Neutral: 0.4, Negative: 0.2, PostCount: 5}, entities.SentimentNeutral},
		{"no posts", entities.SentimentPoint{Positive: 0.9, Neutral: 0.1, Negative: 0.0, PostCount: 0}, entities.SentimentNeutral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			series := Aggregate("DB1", []entities.SentimentPoint{tt.point})
			if series.OverallSentiment != tt.label {
				t.Errorf("Label = %s (score %v), want %s", series.OverallSentiment, series.SentimentScore, tt.label)
			}
		})
	}
}

func writeAggregate(t *testing.T, root, id, content string) {
	t.Helper()
	path := filepath.Join(root, "sentiment", id, "daily.json")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

type countingFileTier struct {
	*storage.FileTier
	calls atomic.Int32
}

func (c *countingFileTier) Get(ctx context.Context, key string) ([]byte, error) {
	c.calls.Add(1)
	return c.FileTier.Get(ctx, key)
}

func TestGetSentimentConcurrentCallersShareOneFetch(t *testing.T) {
	dir := t.TempDir()
	writeAggregate(t, dir, "DB00945", validSeries)

	local := &countingFileTier{FileTier: storage.NewFileTier(dir)}
	store := storage.New(storage.NewMemoryCache(time.Minute), local)
	svc := NewService(store, local)

	const callers = 16
	results := make([]*entities.SentimentSeries, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			series, err := svc.GetSentiment(context.Background(), "DB00945")
			if err != nil {
				t.Errorf("GetSentiment failed: %v", err)
				return
			}
			results[i] = series
		}(i)
	}
	wg.Wait()

	if got := local.calls.Load(); got != 1 {
		t.Errorf("Expected the local tier to be read once, got %d", got)
	}
	for i := 1; i < callers; i++ {
		if results[i] != nil && results[0] != nil && !reflect.DeepEqual(results[i], results[0]) {
			t.Errorf("Caller %d received a different series", i)
		}
	}
}

func TestAvailableDrugs(t *testing.T) {
	dir := t.TempDir()
	writeAggregate(t, dir, "DB01050", `[]`)
	writeAggregate(t, dir, "DB00945", `[]`)

	svc := NewService(newMockFetcher(nil), storage.NewFileTier(dir))
	ids, err := svc.AvailableDrugs(context.Background())
	if err != nil {
		t.Fatalf("AvailableDrugs failed: %v", err)
	}
	if !reflect.DeepEqual(ids, []string{"DB00945", "DB01050"}) {
		t.Errorf("AvailableDrugs = %v", ids)
	}

	ids, err = NewService(newMockFetcher(nil), nil).AvailableDrugs(context.Background())
	if err != nil || len(ids) != 0 {
		t.Errorf("Expected no drugs without a local tier, got %v, %v", ids, err)
	}
}
