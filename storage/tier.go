// Package storage provides read access to sentiment blobs spread over several
// storage tiers: an in-process cache in front of an ordered list of durable
// tiers (remote object store, Redis, local filesystem). The first tier holding
// a key wins and its copy is cached for the configured TTL.
//
// The store never writes to a durable tier.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned by a tier that does not hold the key
	ErrNotFound = errors.New("key not found")

	// ErrDataUnavailable matches every DataUnavailableError with errors.Is
	ErrDataUnavailable = errors.New("data unavailable")

	ErrInvalidKey = errors.New("invalid storage key")
)

// Tier is one durable storage backend.
// Get returns ErrNotFound (possibly wrapped) when the key is absent.
// Any other error is treated as a transient failure of that tier.
type Tier interface {
	Name() string
	Get(ctx context.Context, key string) ([]byte, error)
}

// Blob is a fetched value with its provenance.
// Blobs are shared between callers and must be treated as read-only.
type Blob struct {
	Key       string
	Data      []byte
	Source    string    // name of the tier that served the data
	FetchedAt time.Time // when the data was read from its durable tier
}

// DataUnavailableError is returned when every tier failed for a key
type DataUnavailableError struct {
	Key    string
	Causes []error // one entry per tier tried, in order
}

func (e *DataUnavailableError) Error() string {
	return fmt.Sprintf("data unavailable for key %q: %d tier(s) tried: %v", e.Key, len(e.Causes), errors.Join(e.Causes...))
}

func (e *DataUnavailableError) Unwrap() []error {
	return e.Causes
}

func (e *DataUnavailableError) Is(target error) bool {
	return target == ErrDataUnavailable
}
