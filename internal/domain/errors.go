package domain

import "errors"

var (
	// ErrUpstream is returned for non-2xx or malformed catalog responses.
	ErrUpstream = errors.New("upstream error")
	// ErrNotFound is returned when no work matches or a work has no chapters.
	ErrNotFound = errors.New("not found")
	// ErrFetch is returned when a single page image can't be downloaded or decoded.
	ErrFetch = errors.New("fetch error")
	// ErrInvalidInput is returned for bad arguments and out-of-range chapters.
	ErrInvalidInput = errors.New("invalid input")
)
