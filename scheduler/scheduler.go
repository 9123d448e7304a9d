// Package scheduler provides automated catalog reloads and cache maintenance
// for the RxU API. It runs the initial catalog load, rebuilds the index daily
// and sweeps expired sentiment cache entries on an interval.
package scheduler

import (
	"fmt"
	"time"

	"github.com/giygas/rxu-api/catalog"
	"github.com/giygas/rxu-api/interfaces"
	"github.com/giygas/rxu-api/logging"
	"github.com/giygas/rxu-api/metrics"
	"github.com/go-co-op/gocron"
)

// Compile-time check to ensure Scheduler implements Scheduler interface
var _ interfaces.Scheduler = (*Scheduler)(nil)

// An index older than this is reported by the staleness check
const staleAfter = 25 * time.Hour

// Options configures the scheduled jobs
type Options struct {
	ReloadAt   string        // "15:04", several separated by ";"
	SweepEvery time.Duration // 0 disables the cache sweep
}

// Scheduler handles catalog reloads and cache sweeps using dependency injection
type Scheduler struct {
	catalog   interfaces.CatalogStore
	parser    interfaces.CatalogParser
	blobs     interfaces.BlobStore
	opts      Options
	scheduler *gocron.Scheduler
	now       func() time.Time
}

// NewScheduler creates a new scheduler instance with injected dependencies.
// blobs may be nil, the cache sweep is then not scheduled.
func NewScheduler(catalog interfaces.CatalogStore, parser interfaces.CatalogParser, blobs interfaces.BlobStore, opts Options) *Scheduler {
	if opts.ReloadAt == "" {
		opts.ReloadAt = "06:00"
	}
	return &Scheduler{
		catalog:   catalog,
		parser:    parser,
		blobs:     blobs,
		opts:      opts,
		scheduler: gocron.NewScheduler(time.Local),
		now:       time.Now,
	}
}

// Start loads the catalog and schedules the recurring jobs.
// A failed initial load is returned, the service cannot answer without a catalog.
func (s *Scheduler) Start() error {
	if err := s.updateCatalog(); err != nil {
		logging.Error("Failed to perform initial catalog load", "error", err)
		return fmt.Errorf("initial catalog load failed: %w", err)
	}

	// A failed reload keeps serving the previous index
	_, err := s.scheduler.Every(1).Days().At(s.opts.ReloadAt).Do(func() {
		if err := s.updateCatalog(); err != nil {
			logging.Error("Failed to reload catalog, keeping the previous index", "error", err)
		}
	})
	if err != nil {
		logging.Error("Failed to schedule catalog reloads", "error", err)
		return fmt.Errorf("failed to schedule catalog reloads: %w", err)
	}

	if s.blobs != nil && s.opts.SweepEvery > 0 {
		_, err = s.scheduler.Every(s.opts.SweepEvery).WaitForSchedule().Do(s.sweepCache)
		if err != nil {
			logging.Error("Failed to schedule cache sweeps", "error", err)
			return fmt.Errorf("failed to schedule cache sweeps: %w", err)
		}
	}

	_, err = s.scheduler.Every(1).Hour().WaitForSchedule().Do(s.checkStaleness)
	if err != nil {
		logging.Error("Failed to schedule health monitoring", "error", err)
		return fmt.Errorf("failed to schedule health monitoring: %w", err)
	}

	s.scheduler.StartAsync()

	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// updateCatalog parses the catalog source and swaps in a new index
func (s *Scheduler) updateCatalog() error {
	// Prevent concurrent updates
	if !s.catalog.BeginUpdate() {
		logging.Info("Catalog reload already in progress, skipping...")
		return nil
	}
	defer s.catalog.EndUpdate()

	logging.Info("Starting catalog reload", "at", s.now().Format(time.RFC3339))
	start := time.Now()

	records, err := s.parser.ParseCatalog()
	if err != nil {
		return fmt.Errorf("failed to parse catalog: %w", err)
	}

	idx, err := catalog.New(records)
	if err != nil {
		return fmt.Errorf("failed to build catalog index: %w", err)
	}

	s.catalog.UpdateIndex(idx)
	metrics.CatalogDrugs.Set(float64(idx.Len()))

	logging.Info("Catalog reload completed",
		"duration", time.Since(start).String(),
		"drug_count", idx.Len(),
		"index_version", idx.Version())

	return nil
}

func (s *Scheduler) sweepCache() {
	if removed := s.blobs.SweepCache(); removed > 0 {
		logging.Debug("Swept expired cache entries", "removed", removed, "remaining", s.blobs.CacheLen())
	}
}

// checkStaleness warns when the daily reload has not succeeded for a while
func (s *Scheduler) checkStaleness() bool {
	lastUpdate := s.catalog.GetLastUpdated()
	if s.now().Sub(lastUpdate) > staleAfter {
		logging.Warn("Catalog hasn't been updated in over 25 hours", "last_update", lastUpdate.Format(time.RFC3339))
		return true
	}
	return false
}
