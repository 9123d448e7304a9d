// Package health provides health checking functionality for the RxU API.
package health

import (
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/giygas/rxu-api/interfaces"
)

// An index older than this means the daily reload has been failing
const staleAfter = 48 * time.Hour

// HealthCheckerImpl implements the interfaces.HealthChecker interface
type HealthCheckerImpl struct {
	catalog interfaces.CatalogStore
	blobs   interfaces.BlobStore
	now     func() time.Time
}

var _ interfaces.HealthChecker = (*HealthCheckerImpl)(nil)

// NewHealthChecker creates a new health checker with injected dependencies.
// blobs may be nil when the sentiment store is not wired.
func NewHealthChecker(catalog interfaces.CatalogStore, blobs interfaces.BlobStore) *HealthCheckerImpl {
	return &HealthCheckerImpl{
		catalog: catalog,
		blobs:   blobs,
		now:     time.Now,
	}
}

// HealthCheck returns the health status, its data fields and the HTTP code
// for the /health endpoint
func (h *HealthCheckerImpl) HealthCheck() (status string, data map[string]any, httpStatus int) {
	idx := h.catalog.GetIndex()
	lastUpdate := h.catalog.GetLastUpdated()
	dataAge := h.now().Sub(lastUpdate)

	tiers := []string{}
	cacheEntries := 0
	if h.blobs != nil {
		tiers = h.blobs.TierNames()
		cacheEntries = h.blobs.CacheLen()
	}

	switch {
	case idx == nil:
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	case dataAge > staleAfter:
		status = "degraded"
		httpStatus = http.StatusOK
	case len(tiers) == 0:
		status = "degraded"
		httpStatus = http.StatusOK
	default:
		status = "healthy"
		httpStatus = http.StatusOK
	}

	data = map[string]any{
		"drugs":         0,
		"is_updating":   h.catalog.IsUpdating(),
		"cache_entries": cacheEntries,
		"tiers":         tiers,
	}
	if idx != nil {
		data["drugs"] = idx.Len()
		data["index_version"] = idx.Version()
		data["last_update"] = lastUpdate.Format(time.RFC3339)
		data["data_age_hours"] = math.Round(dataAge.Hours()*10) / 10
	}
	if start := h.catalog.GetServerStartTime(); !start.IsZero() {
		data["uptime"] = FormatUptime(h.now().Sub(start))
	}

	return status, data, httpStatus
}

// FormatUptime formats a duration as "1d 2h 3m 4s", dropping leading zero units
func FormatUptime(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	var parts []string

	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 || hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	parts = append(parts, fmt.Sprintf("%ds", seconds))

	return strings.Join(parts, " ")
}
