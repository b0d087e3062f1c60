package superpixel

import (
	"errors"
	"fmt"
)

var (
	// ErrInput marks malformed caller input: empty images, shape mismatches,
	// non-positive parameters. Never retried.
	ErrInput = errors.New("invalid input")

	// ErrNotFound marks a referenced grid, record, model or image that does
	// not exist.
	ErrNotFound = errors.New("not found")

	// ErrConsistency marks data that disagrees with itself, such as a
	// prediction table that misses a region id or a feature width that
	// differs from the one a model was trained with.
	ErrConsistency = errors.New("inconsistent data")
)

// InputError returns an error wrapping ErrInput.
func InputError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInput, fmt.Sprintf(format, args...))
}

// NotFoundError returns an error wrapping ErrNotFound.
func NotFoundError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// ConsistencyError returns an error wrapping ErrConsistency.
func ConsistencyError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrConsistency, fmt.Sprintf(format, args...))
}

// Kind reports the name of the error kind wrapped by err, or "internal" when
// err wraps none of them.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInput):
		return "input"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConsistency):
		return "consistency"
	default:
		return "internal"
	}
}
