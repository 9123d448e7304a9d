// Package data provides thread-safe storage of the drug catalog index.
// The DataContainer keeps the current immutable index behind an atomic pointer
// so a reload swaps the whole index without blocking readers.
package data

import (
	"sync/atomic"
	"time"

	"github.com/giygas/rxu-api/catalog"
	"github.com/giygas/rxu-api/interfaces"
	"github.com/giygas/rxu-api/logging"
)

// Compile-time check to ensure DataContainer implements CatalogStore
var _ interfaces.CatalogStore = (*DataContainer)(nil)

// DataContainer holds the catalog index with atomic pointers for zero-downtime updates
type DataContainer struct {
	index           atomic.Pointer[catalog.Index]
	lastUpdated     atomic.Value // time.Time
	updating        atomic.Bool
	serverStartTime atomic.Value // time.Time
}

// NewDataContainer creates a new DataContainer with no index loaded
func NewDataContainer() *DataContainer {
	dc := &DataContainer{}
	dc.lastUpdated.Store(time.Time{})
	dc.serverStartTime.Store(time.Time{})
	return dc
}

// GetIndex returns the current catalog index, nil until the first load.
// Callers report the missing index themselves.
func (dc *DataContainer) GetIndex() *catalog.Index {
	return dc.index.Load()
}

// GetLastUpdated returns the timestamp of the last index swap
func (dc *DataContainer) GetLastUpdated() time.Time {
	if v := dc.lastUpdated.Load(); v != nil {
		if lastUpdated, ok := v.(time.Time); ok {
			return lastUpdated
		}
	}

	logging.Warn("Could not get the last updated value")
	return time.Time{}
}

// IsUpdating returns true if a catalog reload is currently in progress
func (dc *DataContainer) IsUpdating() bool {
	return dc.updating.Load()
}

// SetServerStartTime sets the server start time
func (dc *DataContainer) SetServerStartTime(startTime time.Time) {
	dc.serverStartTime.Store(startTime)
}

// GetServerStartTime returns the server start time
func (dc *DataContainer) GetServerStartTime() time.Time {
	if v := dc.serverStartTime.Load(); v != nil {
		if startTime, ok := v.(time.Time); ok {
			return startTime
		}
	}

	logging.Warn("Could not get the server start time value")
	return time.Time{}
}

// UpdateIndex atomically replaces the catalog index.
// A nil index is ignored so a failed rebuild can never blank the catalog.
func (dc *DataContainer) UpdateIndex(index *catalog.Index) {
	if index == nil {
		logging.Warn("Refusing to store a nil catalog index")
		return
	}

	// Atomic swap (zero downtime replacement)
	dc.index.Store(index)
	dc.lastUpdated.Store(time.Now())
}

// BeginUpdate marks the start of a reload
// Returns true if the reload can proceed, false if another one is in progress
func (dc *DataContainer) BeginUpdate() bool {
	return dc.updating.CompareAndSwap(false, true)
}

// EndUpdate marks the end of a reload
func (dc *DataContainer) EndUpdate() {
	dc.updating.Store(false)
}
