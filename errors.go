package recordcache

import "errors"

// Sentinel errors for the caching layer.
var (
	// ErrNilBackend is returned by New when no cache backend is provided.
	ErrNilBackend = errors.New("recordcache: cache backend is required")

	// ErrNilFallback is returned by Select when no fallback is provided.
	ErrNilFallback = errors.New("recordcache: fallback is required")

	// ErrNoStore is returned when a multi-key read misses and no fallback
	// store is configured to fetch the missing records by id.
	ErrNoStore = errors.New("recordcache: fallback store is not configured")

	// ErrInvalidSchemaFile is returned when a schema definition file
	// cannot be parsed or fails validation.
	ErrInvalidSchemaFile = errors.New("recordcache: invalid schema file")
)
