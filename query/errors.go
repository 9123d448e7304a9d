package query

import (
	"errors"
	"fmt"
)

var (
	ErrDrugNotFound         = errors.New("drug not found")
	ErrSentimentUnavailable = errors.New("sentiment unavailable")
	ErrCatalogNotLoaded     = errors.New("catalog not loaded")
)

// DrugNotFoundError means no candidate cleared the resolver threshold
type DrugNotFoundError struct {
	Query string
}

func (e *DrugNotFoundError) Error() string {
	return fmt.Sprintf("no drug found matching %q", e.Query)
}

func (e *DrugNotFoundError) Is(target error) bool {
	return target == ErrDrugNotFound
}

// SentimentUnavailableError wraps a storage or decode failure for a resolved drug
type SentimentUnavailableError struct {
	DrugID string
	Err    error
}

func (e *SentimentUnavailableError) Error() string {
	return fmt.Sprintf("sentiment unavailable for %s: %v", e.DrugID, e.Err)
}

func (e *SentimentUnavailableError) Unwrap() error {
	return e.Err
}

func (e *SentimentUnavailableError) Is(target error) bool {
	return target == ErrSentimentUnavailable
}
