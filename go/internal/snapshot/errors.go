package snapshot

import "errors"

// ErrNotFound is returned when the backend answers a snapshot fetch with a non-success status.
// It is never retried.
var ErrNotFound = errors.New("snapshot not found")

// ErrTransient is returned when the fetch itself failed (network error, unreadable or
// undecodable body). The caller stays in its loading state.
var ErrTransient = errors.New("snapshot fetch failed")
