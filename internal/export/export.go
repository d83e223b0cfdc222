// Package export writes the loaded close series to Parquet files so a
// session's data can be picked up by offline analysis tools.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/parquet-go/parquet-go"

	"tickerscope/internal/domain"
)

// CloseRecord is the Parquet schema for one exported close-series row.
type CloseRecord struct {
	Ticker string  `parquet:"ticker"`
	Date   string  `parquet:"date"`
	Close  float64 `parquet:"close"`
}

// SeriesPath returns the export file path for a (ticker, range).
// Layout: <dir>/<TICKER>/<start>_<end>.parquet, with "all" standing in for
// an open endpoint.
func SeriesPath(dir, ticker string, r domain.DateRange) string {
	start := r.Start
	if start == "" {
		start = "all"
	}
	end := r.End
	if end == "" {
		end = "all"
	}
	name := start + "_" + end + ".parquet"
	return filepath.Join(dir, strings.ToUpper(ticker), name)
}

// WriteSeries writes the series for ticker to its export path and returns
// that path. An empty series is an error; there is nothing to export.
func WriteSeries(dir, ticker string, r domain.DateRange, series []domain.PricePoint) (string, error) {
	if len(series) == 0 {
		return "", fmt.Errorf("export: series for %s is empty", ticker)
	}

	records := make([]CloseRecord, 0, len(series))
	for _, p := range series {
		records = append(records, CloseRecord{
			Ticker: strings.ToUpper(ticker),
			Date:   p.Date,
			Close:  p.Close,
		})
	}

	path := SeriesPath(dir, ticker, r)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("export: creating dir: %w", err)
	}
	if err := parquet.WriteFile(path, records); err != nil {
		return "", fmt.Errorf("export: writing %s: %w", path, err)
	}
	return path, nil
}
