package engine

import "errors"

// Sentinel error kinds, per spec §7. Callers should prefer errors.Is/As
// over matching the string surfaced on Entry.Error.
var (
	// ErrUnsupportedRangedFetch means the HEAD response lacked
	// Accept-Ranges: bytes.
	ErrUnsupportedRangedFetch = errors.New("origin does not support ranged fetch")

	// ErrMetadataMissing means Content-Length was absent or unparsable.
	ErrMetadataMissing = errors.New("origin did not report a usable content length")

	// ErrChunkNetworkError is an HTTP-level failure obtaining a chunk body.
	ErrChunkNetworkError = errors.New("chunk network error")

	// ErrChunkStreamError is a mid-body failure while streaming a chunk.
	ErrChunkStreamError = errors.New("chunk stream error")

	// ErrAssemblyFailed is any I/O failure while concatenating parts.
	ErrAssemblyFailed = errors.New("failed to assemble file")

	// ErrLoadFailed means the persistent store file was malformed.
	ErrLoadFailed = errors.New("failed to load persistent store")

	// ErrPersistFailed means a write to the persistent store failed.
	ErrPersistFailed = errors.New("failed to persist registry")

	// ErrNotFound means the referenced entry id is not in the registry.
	ErrNotFound = errors.New("download not found")

	// ErrEntryBusy means an operation can't run while the entry is
	// downloading (e.g. Remove requires Pause first).
	ErrEntryBusy = errors.New("download is active")
)
