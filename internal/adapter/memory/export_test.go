package memory

import "time"

// SetClock replaces the timestamp source.
func (s *Store) SetClock(now func() time.Time) { s.now = now }

// SetIDSource replaces the session id generator.
func (s *Store) SetIDSource(newID func() string) { s.newID = newID }
