// internal/cache/policy.go
package cache

import "time"

// TTL is how long a stored snapshot stays servable without recomputation.
const TTL = 24 * time.Hour

// IsFresh reports whether a snapshot written at lastWrite may still be
// served at now. The decision is binary; there is no graduated staleness.
func IsFresh(lastWrite, now time.Time) bool {
	return now.Sub(lastWrite) < TTL
}

// AgeMinutes returns the whole minutes elapsed since lastWrite, for
// reporting the age of a cache hit.
func AgeMinutes(lastWrite, now time.Time) int {
	return int(now.Sub(lastWrite).Minutes())
}
