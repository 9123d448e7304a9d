// Package handlers provides HTTP request handlers for the RxU API endpoints.
// Handlers validate the query parameters, call the query facade and map its
// errors to JSON responses.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/giygas/rxu-api/drugparser/entities"
	"github.com/giygas/rxu-api/interfaces"
	"github.com/giygas/rxu-api/logging"
	"github.com/giygas/rxu-api/query"
	"github.com/go-chi/chi/v5/middleware"
)

// DrugQueries is the part of the query facade the handlers use
type DrugQueries interface {
	Search(q string, limit int) ([]query.SearchResult, error)
	Sentiment(ctx context.Context, name string) (*entities.SentimentSeries, error)
	Recommendations(name string) (*query.Recommendations, error)
	SideEffects(name string) (*query.SideEffects, error)
	AvailableSentiment(ctx context.Context) ([]query.AvailableDrug, error)
}

var (
	_ DrugQueries            = (*query.Facade)(nil)
	_ interfaces.HTTPHandler = (*HTTPHandlerImpl)(nil)
)

// HTTPHandlerImpl implements the interfaces.HTTPHandler interface
type HTTPHandlerImpl struct {
	queries   DrugQueries
	validator interfaces.InputValidator
	health    interfaces.HealthChecker
}

// NewHTTPHandler creates a new HTTP handler with injected dependencies
func NewHTTPHandler(queries DrugQueries, validator interfaces.InputValidator, health interfaces.HealthChecker) *HTTPHandlerImpl {
	return &HTTPHandlerImpl{
		queries:   queries,
		validator: validator,
		health:    health,
	}
}

type searchResponse struct {
	Query      string               `json:"query"`
	Results    []query.SearchResult `json:"results"`
	TotalFound int                  `json:"total_found"`
	Message    string               `json:"message,omitempty"`
}

type sentimentResponse struct {
	DrugName string `json:"drug_name"`
	*entities.SentimentSeries
	Message string `json:"message,omitempty"`
}

type availableResponse struct {
	AvailableDrugs []query.AvailableDrug `json:"available_drugs"`
	TotalCount     int                   `json:"total_count"`
}

// HealthResponse defines the structure for consistent JSON ordering
type HealthResponse struct {
	Status string         `json:"status"`
	Data   map[string]any `json:"data"`
	System map[string]any `json:"system"`
}

// RespondWithJSON writes a JSON response
func (h *HTTPHandlerImpl) RespondWithJSON(w http.ResponseWriter, code int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	w.Write(data)
}

// RespondWithError writes a JSON error response
func (h *HTTPHandlerImpl) RespondWithError(w http.ResponseWriter, code int, message string) {
	errorResponse := map[string]any{
		"error":   http.StatusText(code),
		"message": message,
		"code":    code,
	}
	h.RespondWithJSON(w, code, errorResponse)
}

// respondWithQueryError maps facade errors to status codes
func (h *HTTPHandlerImpl) respondWithQueryError(w http.ResponseWriter, r *http.Request, name string, err error) {
	switch {
	case errors.Is(err, query.ErrDrugNotFound):
		h.RespondWithError(w, http.StatusNotFound, fmt.Sprintf("No drug found matching '%s'", name))
	case errors.Is(err, query.ErrCatalogNotLoaded):
		h.RespondWithError(w, http.StatusServiceUnavailable, "Drug catalog is not loaded yet")
	default:
		logging.Error("Query failed",
			"request_id", middleware.GetReqID(r.Context()),
			"path", r.URL.Path,
			"drug_name", name,
			"error", err)
		h.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// drugParam reads and validates a required query parameter
func (h *HTTPHandlerImpl) drugParam(w http.ResponseWriter, r *http.Request, key string) (string, bool) {
	value := strings.TrimSpace(r.URL.Query().Get(key))
	if value == "" {
		h.RespondWithError(w, http.StatusBadRequest, fmt.Sprintf("Missing query parameter '%s'", key))
		return "", false
	}

	if err := h.validator.ValidateInput(value); err != nil {
		logging.Warn("Unusual user input", key, value, "error", err)
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return "", false
	}

	return value, true
}

// Root returns the service banner
func (h *HTTPHandlerImpl) Root(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "public, max-age=3600")
	h.RespondWithJSON(w, http.StatusOK, map[string]string{
		"message": "RxU API",
		"status":  "running",
	})
}

// SearchDrugs returns the ranked candidates for q
func (h *HTTPHandlerImpl) SearchDrugs(w http.ResponseWriter, r *http.Request) {
	q, ok := h.drugParam(w, r, "q")
	if !ok {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			h.RespondWithError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	results, err := h.queries.Search(q, limit)
	if err != nil {
		h.respondWithQueryError(w, r, q, err)
		return
	}

	response := searchResponse{
		Query:      q,
		Results:    results,
		TotalFound: len(results),
	}
	if len(results) == 0 {
		response.Message = "No drugs found matching your search query"
	}

	h.RespondWithJSON(w, http.StatusOK, response)
}

// DrugSentiment returns the sentiment time series of the best match.
// Missing sentiment data is not an error for the client.
func (h *HTTPHandlerImpl) DrugSentiment(w http.ResponseWriter, r *http.Request) {
	name, ok := h.drugParam(w, r, "drug_name")
	if !ok {
		return
	}

	series, err := h.queries.Sentiment(r.Context(), name)

	var unavailable *query.SentimentUnavailableError
	if errors.As(err, &unavailable) {
		logging.Warn("Sentiment unavailable",
			"request_id", middleware.GetReqID(r.Context()),
			"drugbank_id", unavailable.DrugID,
			"error", unavailable.Err)

		series = &entities.SentimentSeries{
			DrugID:           unavailable.DrugID,
			Points:           []entities.SentimentPoint{},
			OverallSentiment: entities.SentimentNeutral,
		}
		err = nil
	}
	if err != nil {
		h.respondWithQueryError(w, r, name, err)
		return
	}

	response := sentimentResponse{DrugName: name, SentimentSeries: series}
	if !series.DataAvailable {
		response.Message = fmt.Sprintf("No sentiment data available for '%s'", name)
	}

	h.RespondWithJSON(w, http.StatusOK, response)
}

// AvailableSentiment lists the drugs with sentiment data in the local tier
func (h *HTTPHandlerImpl) AvailableSentiment(w http.ResponseWriter, r *http.Request) {
	drugs, err := h.queries.AvailableSentiment(r.Context())
	if err != nil {
		h.respondWithQueryError(w, r, "", err)
		return
	}

	h.RespondWithJSON(w, http.StatusOK, availableResponse{
		AvailableDrugs: drugs,
		TotalCount:     len(drugs),
	})
}

// RecommendDrugs returns the alternatives of the best match
func (h *HTTPHandlerImpl) RecommendDrugs(w http.ResponseWriter, r *http.Request) {
	name, ok := h.drugParam(w, r, "drug_name")
	if !ok {
		return
	}

	recommendations, err := h.queries.Recommendations(name)
	if err != nil {
		h.respondWithQueryError(w, r, name, err)
		return
	}

	h.RespondWithJSON(w, http.StatusOK, recommendations)
}

// SideEffects returns the classified side effects of the best match
func (h *HTTPHandlerImpl) SideEffects(w http.ResponseWriter, r *http.Request) {
	name, ok := h.drugParam(w, r, "drug_name")
	if !ok {
		return
	}

	sideEffects, err := h.queries.SideEffects(name)
	if err != nil {
		h.respondWithQueryError(w, r, name, err)
		return
	}

	h.RespondWithJSON(w, http.StatusOK, sideEffects)
}

// HealthCheck returns server health information
func (h *HTTPHandlerImpl) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status, data, httpStatus := h.health.HealthCheck()

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Last-Modified", time.Now().UTC().Format(http.TimeFormat))

	h.RespondWithJSON(w, httpStatus, HealthResponse{
		Status: status,
		Data:   data,
		System: map[string]any{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb": int(m.Alloc / 1024 / 1024),
				"sys_mb":   int(m.Sys / 1024 / 1024),
				"num_gc":   m.NumGC,
			},
		},
	})
}
