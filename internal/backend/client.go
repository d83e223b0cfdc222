// Package backend is the REST client for the ingestion backend, covering
// the four endpoints the dashboard consumes: ingestion confirmation, the
// daily close series, per-day headlines, and stored-data coverage.
//
// All endpoints are idempotent from the caller's perspective. Non-2xx
// response bodies are opaque diagnostics and are surfaced verbatim in the
// error message as "<label>: <status> <body>".
package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tickerscope/internal/domain"
)

// Client talks to the backend REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a backend client. The timeout bounds every individual
// request, so a hung call can never leave a pipeline loading forever.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// ConfirmIngest asks the backend to ensure daily bars exist for the ticker
// over the given range. Only the HTTP status is consulted; the response
// body carries ingestion bookkeeping the dashboard does not need.
func (c *Client) ConfirmIngest(ctx context.Context, ticker string, r domain.DateRange) error {
	q := url.Values{}
	q.Set("ticker", ticker)
	if r.Start != "" {
		q.Set("start", r.Start)
	}
	if r.End != "" {
		q.Set("end", r.End)
	}

	_, err := c.do(ctx, http.MethodPost, "/symbols/confirm", q, "confirm")
	return err
}

// pricePointJSON is the wire shape of one close-series row. Close is a
// pointer so a missing field is distinguishable from 0 and rejected.
type pricePointJSON struct {
	Date  string   `json:"date"`
	Close *float64 `json:"close"`
}

// FetchClose retrieves the daily closing-price series for the ticker over
// the given range, ordered by date ascending. Rows failing schema
// validation (malformed date, missing close) are an error, not coerced.
func (c *Client) FetchClose(ctx context.Context, ticker string, r domain.DateRange) ([]domain.PricePoint, error) {
	q := url.Values{}
	q.Set("ticker", ticker)
	if r.Start != "" {
		q.Set("start", r.Start)
	}
	if r.End != "" {
		q.Set("end", r.End)
	}

	body, err := c.do(ctx, http.MethodGet, "/prices/close", q, "prices")
	if err != nil {
		return nil, err
	}

	var rows []pricePointJSON
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("prices: decoding response: %w", err)
	}

	series := make([]domain.PricePoint, 0, len(rows))
	for i, row := range rows {
		if !domain.ValidDay(row.Date) {
			return nil, fmt.Errorf("prices: row %d has invalid date %q", i, row.Date)
		}
		if row.Close == nil {
			return nil, fmt.Errorf("prices: row %d (%s) is missing close", i, row.Date)
		}
		series = append(series, domain.PricePoint{Date: row.Date, Close: *row.Close})
	}
	return series, nil
}

type headlineJSON struct {
	Title  string `json:"title"`
	URL    string `json:"url"`
	Source string `json:"source"`
}

type newsJSON struct {
	Headlines []headlineJSON `json:"headlines"`
}

// FetchHeadlines retrieves headlines for one (ticker, day). An absent or
// null headlines field decodes as an empty set; "no headlines" is a valid
// terminal state, distinct from an error.
func (c *Client) FetchHeadlines(ctx context.Context, ticker, day string) ([]domain.Headline, error) {
	q := url.Values{}
	q.Set("ticker", ticker)
	q.Set("day", day)

	body, err := c.do(ctx, http.MethodGet, "/news", q, "news")
	if err != nil {
		return nil, err
	}

	var resp newsJSON
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("news: decoding response: %w", err)
	}

	headlines := make([]domain.Headline, 0, len(resp.Headlines))
	for _, h := range resp.Headlines {
		headlines = append(headlines, domain.Headline{
			Title:  h.Title,
			URL:    h.URL,
			Source: h.Source,
		})
	}
	return headlines, nil
}

// Coverage describes the span of daily bars the backend currently stores
// for a ticker. Min and Max are empty when no bars are stored.
type Coverage struct {
	Ticker string `json:"ticker"`
	Min    string `json:"min"`
	Max    string `json:"max"`
	Count  int    `json:"count"`
}

// FetchCoverage retrieves the stored-data coverage for a ticker.
func (c *Client) FetchCoverage(ctx context.Context, ticker string) (*Coverage, error) {
	q := url.Values{}
	q.Set("ticker", ticker)

	body, err := c.do(ctx, http.MethodGet, "/prices/range", q, "coverage")
	if err != nil {
		return nil, err
	}

	var cov Coverage
	if err := json.Unmarshal(body, &cov); err != nil {
		return nil, fmt.Errorf("coverage: decoding response: %w", err)
	}
	return &cov, nil
}

// Health probes the backend liveness endpoint.
func (c *Client) Health(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/health", nil, "health")
	return err
}

// do issues a request and returns the response body, converting transport
// failures and non-2xx statuses into labelled errors.
func (c *Client) do(ctx context.Context, method, path string, q url.Values, label string) ([]byte, error) {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: building request: %w", label, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", label, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: reading response: %w", label, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s: %d %s", label, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}
