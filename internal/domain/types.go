// Package domain defines the core value types shared across the dashboard:
// price points, headlines, date ranges, and per-pipeline load status.
package domain

import (
	"fmt"
	"strings"
	"time"
)

// DayFormat is the wire format for calendar dates (ISO, date only).
const DayFormat = "2006-01-02"

// MaxHistoryDays is the widest range the dashboard will request. It mirrors
// the backend's data-retention ceiling and is enforced client-side even if
// the backend would accept a larger request.
const MaxHistoryDays = 730

// PricePoint is one daily closing price. Date is a calendar date string
// (YYYY-MM-DD); the series is not necessarily contiguous trading days.
type PricePoint struct {
	Date  string
	Close float64
}

// Headline is a single news headline for a drill-down day.
type Headline struct {
	Title  string
	URL    string
	Source string
}

// DateRange is a start/end pair of calendar dates in ISO form. Either field
// may be empty, which asks the backend for its default range.
type DateRange struct {
	Start string
	End   string
}

// LastDays returns the range covering the most recent n calendar days,
// ending today.
func LastDays(n int, now time.Time) DateRange {
	return DateRange{
		Start: now.AddDate(0, 0, -n).Format(DayFormat),
		End:   now.Format(DayFormat),
	}
}

// ValidDay reports whether s is a well-formed YYYY-MM-DD date.
func ValidDay(s string) bool {
	_, err := time.Parse(DayFormat, s)
	return err == nil
}

// NormalizeTicker trims whitespace and upper-cases a user-typed ticker.
func NormalizeTicker(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// LoadState enumerates the phases of an asynchronous load pipeline.
type LoadState int

const (
	StateIdle LoadState = iota
	StateLoading
	StateReady
	StateError
)

// String returns a short label for logging and display.
func (s LoadState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("LoadState(%d)", int(s))
	}
}

// LoadStatus is the observable state of one async pipeline. Message is only
// set in the error state and holds the user-facing description.
type LoadStatus struct {
	State   LoadState
	Message string
}

// Loading returns a status in the loading state.
func Loading() LoadStatus { return LoadStatus{State: StateLoading} }

// Ready returns a status in the ready state.
func Ready() LoadStatus { return LoadStatus{State: StateReady} }

// Failed returns an error status carrying the given message.
func Failed(msg string) LoadStatus {
	return LoadStatus{State: StateError, Message: msg}
}
