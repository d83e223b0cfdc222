// Package recorder persists a history of successful series loads, so the
// dashboard can offer recently explored tickers across sessions.
package recorder

import "time"

// LoadRecord describes one fully successful confirm+load.
type LoadRecord struct {
	Ticker   string
	Start    string // ISO date, may be empty
	End      string // ISO date, may be empty
	Points   int
	LoadedAt time.Time
}

// Recorder persists load history.
type Recorder interface {
	RecordLoad(rec *LoadRecord) error
	RecentTickers(limit int) ([]string, error)
	Close() error
}
