package library

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by this package wraps exactly one of them.
var (
	ErrValidation   = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnavailable  = errors.New("no copies available")
	ErrNoActiveLoan = errors.New("no active loan")
	ErrStore        = errors.New("store failure")
)

var kinds = []error{ErrValidation, ErrNotFound, ErrConflict, ErrUnavailable, ErrNoActiveLoan, ErrStore}

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func notFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

func conflictf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

func unavailablef(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUnavailable, fmt.Sprintf(format, args...))
}

func noActiveLoanf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNoActiveLoan, fmt.Sprintf(format, args...))
}

// storeError wraps a database failure so callers see ErrStore while the
// driver error stays reachable through errors.As.
func storeError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStore, op, err)
}

// Kind returns the sentinel kind err wraps, or nil if it wraps none.
func Kind(err error) error {
	for _, kind := range kinds {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
