// Package interfaces defines core abstractions for the RxU API
// to improve testability, maintainability, and separation of concerns.
package interfaces

import (
	"context"
	"net/http"
	"time"

	"github.com/giygas/rxu-api/catalog"
	"github.com/giygas/rxu-api/drugparser/entities"
)

// CatalogStore defines the contract for catalog index storage.
// It hands out the current immutable index and swaps it atomically on reload.
type CatalogStore interface {
	// GetIndex returns the current index, nil before the first load
	GetIndex() *catalog.Index
	GetLastUpdated() time.Time
	IsUpdating() bool
	GetServerStartTime() time.Time

	// Update methods
	UpdateIndex(index *catalog.Index)
	BeginUpdate() bool
	EndUpdate()
}

// CatalogParser defines the contract for reading the catalog source
type CatalogParser interface {
	ParseCatalog() ([]entities.DrugRecord, error)
}

// BlobStore defines the contract for the tiered sentiment data store
// as seen by the scheduler and the health checker.
type BlobStore interface {
	// SweepCache drops expired cache entries and returns how many were removed
	SweepCache() int
	CacheLen() int
	TierNames() []string
}

// SentimentProvider defines the contract of the sentiment retrieval service
type SentimentProvider interface {
	GetSentiment(ctx context.Context, drugID string) (*entities.SentimentSeries, error)
	AvailableDrugs(ctx context.Context) ([]string, error)
}

// Scheduler defines the contract for job scheduling and health monitoring.
// It manages catalog reloads and cache maintenance.
type Scheduler interface {
	// Lifecycle management
	Start() error
	Stop()
}

// HTTPHandler defines the contract for HTTP request handlers.
// It provides a consistent interface for all API endpoints.
type HTTPHandler interface {
	Root(w http.ResponseWriter, r *http.Request)
	SearchDrugs(w http.ResponseWriter, r *http.Request)
	DrugSentiment(w http.ResponseWriter, r *http.Request)
	AvailableSentiment(w http.ResponseWriter, r *http.Request)
	RecommendDrugs(w http.ResponseWriter, r *http.Request)
	SideEffects(w http.ResponseWriter, r *http.Request)
	HealthCheck(w http.ResponseWriter, r *http.Request)
}

// HealthChecker defines the contract for health check functionality.
// It provides system health monitoring and reporting.
type HealthChecker interface {
	// HealthCheck returns the status, the data fields and the HTTP status to answer with
	HealthCheck() (status string, details map[string]any, httpStatus int)
}

// InputValidator defines the contract for validating user input.
type InputValidator interface {
	// ValidateInput validates free-text drug queries
	ValidateInput(input string) error
}
