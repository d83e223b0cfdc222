package recorder

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface checks.
var _ Recorder = (*SQLiteRecorder)(nil)
var _ Recorder = (*NoopRecorder)(nil)

// SQLiteRecorder persists load history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS loads (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			ticker     TEXT NOT NULL,
			range_start TEXT,
			range_end   TEXT,
			points     INTEGER NOT NULL,
			loaded_at  INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_loads_ticker ON loads(ticker)`,
		`CREATE INDEX IF NOT EXISTS idx_loads_loaded_at ON loads(loaded_at)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordLoad inserts one successful load.
func (r *SQLiteRecorder) RecordLoad(rec *LoadRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	at := rec.LoadedAt
	if at.IsZero() {
		at = time.Now()
	}

	_, err := r.db.Exec(`INSERT INTO loads
		(ticker, range_start, range_end, points, loaded_at)
		VALUES (?,?,?,?,?)`,
		rec.Ticker, rec.Start, rec.End, rec.Points, at.Unix(),
	)
	return err
}

// RecentTickers returns distinct tickers ordered by most recent load.
func (r *SQLiteRecorder) RecentTickers(limit int) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT ticker FROM loads
		GROUP BY ticker
		ORDER BY MAX(loaded_at) DESC, ticker ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickers []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		tickers = append(tickers, t)
	}
	return tickers, rows.Err()
}

// Close closes the underlying database connection.
func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}
