package catalog

import (
	"errors"
	"fmt"
)

// ErrCatalogLoad matches every LoadError with errors.Is
var ErrCatalogLoad = errors.New("catalog load failed")

// LoadError reports a malformed or missing catalog source.
// It is fatal at startup.
type LoadError struct {
	Source string // file path, empty when the records came from memory
	Row    int    // 1-based data row, 0 when not tied to a row
	Reason string
	Err    error
}

func (e *LoadError) Error() string {
	msg := "catalog load failed"
	if e.Source != "" {
		msg += " (" + e.Source + ")"
	}
	if e.Row > 0 {
		msg += fmt.Sprintf(" at row %d", e.Row)
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

func (e *LoadError) Is(target error) bool {
	return target == ErrCatalogLoad
}
