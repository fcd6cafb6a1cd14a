package api

// Cache-Control header values.
const (
	// CacheNoStore keeps public share views out of shared caches, so a
	// disabled or replaced share stops resolving immediately.
	CacheNoStore = "no-store"
)
