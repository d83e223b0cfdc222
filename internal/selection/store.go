// Package selection holds the user's ticker and date-range selection.
//
// The ticker is tracked as two fields: the free-form draft the user is
// typing, and the active ticker that last completed a full confirm+load.
// The two may diverge at any time; Dirty is the single signal the UI needs
// to indicate an unconfirmed edit.
package selection

import (
	"time"

	"tickerscope/internal/domain"
)

// DefaultRangeDays is the range applied at startup: the last year.
const DefaultRangeDays = 365

// Store holds the ticker selection and date range. It is a plain value
// container with pure transitions; callers serialize access (the controller
// guards it with its own mutex).
type Store struct {
	draft  string
	active string
	rng    domain.DateRange
}

// NewStore creates a Store with an empty selection and the default range
// ending at now.
func NewStore(now time.Time) *Store {
	return &Store{
		rng: domain.LastDays(DefaultRangeDays, now),
	}
}

// SetDraft stores the normalized (upper-cased, trimmed) draft ticker.
func (s *Store) SetDraft(ticker string) {
	s.draft = domain.NormalizeTicker(ticker)
}

// Draft returns the current draft ticker.
func (s *Store) Draft() string { return s.draft }

// Active returns the last ticker for which a confirm+load fully succeeded,
// or "" before the first successful load.
func (s *Store) Active() string { return s.active }

// Dirty reports whether the draft diverges from the active ticker.
func (s *Store) Dirty() bool { return s.draft != s.active }

// CommitActive records a fully successful load of ticker. Only the
// controller calls this, and only after both pipeline stages succeed.
func (s *Store) CommitActive(ticker string) {
	s.active = domain.NormalizeTicker(ticker)
	s.draft = s.active
}

// SetRangeStart sets the range start date (ISO form, may be empty).
func (s *Store) SetRangeStart(day string) { s.rng.Start = day }

// SetRangeEnd sets the range end date (ISO form, may be empty).
func (s *Store) SetRangeEnd(day string) { s.rng.End = day }

// SetRange replaces both range endpoints at once (used by presets).
func (s *Store) SetRange(r domain.DateRange) { s.rng = r }

// Range returns the current date range. Range edits commit immediately and
// independently of any load outcome; start > end is passed through to the
// backend, which rejects it.
func (s *Store) Range() domain.DateRange { return s.rng }
