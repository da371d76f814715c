package domain

import "time"

// NormalizeUTC returns the given timestamp expressed in UTC. It is a pure
// function: nil passes through as nil, and a value already in UTC comes back
// representing the same instant. The pointer returned for a non-nil input is
// always a fresh allocation so callers can't alias stored state.
func NormalizeUTC(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
