// Package errors defines all exported error sentinels for the wordfreq module.
//
// This is the single source of truth for error values. Both the top-level
// wordfreq package and the internal packages import from here, so errors.Is
// checks work across package boundaries.
package errors

import "errors"

// Configuration errors
var (
	ErrInvalidWorkers   = errors.New("wordfreq: worker count must be positive")
	ErrChunkTooSmall    = errors.New("wordfreq: chunk size is smaller than the shadow margin")
	ErrChunkTooLarge    = errors.New("wordfreq: chunk size exponent exceeds maximum (30)")
	ErrInvalidAlignment = errors.New("wordfreq: I/O alignment must be a positive power of two")
	ErrInvalidBins      = errors.New("wordfreq: bin exponent must be in [1, 30]")
	ErrInvalidCapacity  = errors.New("wordfreq: queue capacity must be positive")
)

// Stream errors
var (
	ErrOpen = errors.New("wordfreq: cannot open input")
	ErrRead = errors.New("wordfreq: read failed")
)
