// Package session generates the per-run correlation ID stamped into
// diagnostic-history rows and --show-* dump headers, so a CI system can
// line up a compiler invocation's console output with its history-store
// entry.
package session

import "github.com/google/uuid"

// NewRunID returns a fresh random (v4) identifier for one compiler
// invocation.
func NewRunID() uuid.UUID {
	return uuid.New()
}

// ParseRunID parses a previously generated run ID, e.g. one a user pastes
// back from a CI log when asking "what happened in this run".
func ParseRunID(s string) (uuid.UUID, error) {
	return uuid.Parse(s)
}
