package backend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tickerscope/internal/domain"
)

func newTestClient(srv *httptest.Server) *Client {
	return NewClient(srv.URL, 5*time.Second)
}

func TestConfirmIngest(t *testing.T) {
	var gotPath, gotQuery string
	var gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		// The body is ingestion bookkeeping; only the status matters.
		w.Write([]byte(`{"ticker":"AAPL","bars_fetched":12,"bars_inserted":12}`))
	}))
	defer srv.Close()

	c := newTestClient(srv)
	err := c.ConfirmIngest(context.Background(), "AAPL", domain.DateRange{Start: "2024-01-01", End: "2024-06-01"})
	if err != nil {
		t.Fatalf("ConfirmIngest: %v", err)
	}

	if gotMethod != http.MethodPost {
		t.Errorf("method = %q, want POST", gotMethod)
	}
	if gotPath != "/symbols/confirm" {
		t.Errorf("path = %q, want /symbols/confirm", gotPath)
	}
	for _, part := range []string{"ticker=AAPL", "start=2024-01-01", "end=2024-06-01"} {
		if !strings.Contains(gotQuery, part) {
			t.Errorf("query %q missing %q", gotQuery, part)
		}
	}
}

func TestConfirmIngestOmitsEmptyRange(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := newTestClient(srv)
	if err := c.ConfirmIngest(context.Background(), "AAPL", domain.DateRange{}); err != nil {
		t.Fatalf("ConfirmIngest: %v", err)
	}
	if strings.Contains(gotQuery, "start=") || strings.Contains(gotQuery, "end=") {
		t.Errorf("empty range endpoints should be omitted, got query %q", gotQuery)
	}
}

func TestErrorMessageFormat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"detail":"Provider error: rate limited"}` + "\n"))
	}))
	defer srv.Close()

	c := newTestClient(srv)
	err := c.ConfirmIngest(context.Background(), "AAPL", domain.DateRange{})
	if err == nil {
		t.Fatal("expected error for 502 response")
	}

	want := `confirm: 502 {"detail":"Provider error: rate limited"}`
	if err.Error() != want {
		t.Errorf("error = %q, want %q", err.Error(), want)
	}
}

func TestFetchClose(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/prices/close" {
			t.Errorf("path = %q, want /prices/close", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"date":"2024-01-02","close":185.5},
			{"date":"2024-01-03","close":186.0}
		]`))
	}))
	defer srv.Close()

	c := newTestClient(srv)
	series, err := c.FetchClose(context.Background(), "AAPL", domain.DateRange{Start: "2024-01-01"})
	if err != nil {
		t.Fatalf("FetchClose: %v", err)
	}

	if len(series) != 2 {
		t.Fatalf("got %d points, want 2", len(series))
	}
	if series[0].Date != "2024-01-02" || series[0].Close != 185.5 {
		t.Errorf("first point = %+v", series[0])
	}
	if series[1].Date != "2024-01-03" || series[1].Close != 186.0 {
		t.Errorf("second point = %+v", series[1])
	}
}

func TestFetchCloseEmptySeries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := newTestClient(srv)
	series, err := c.FetchClose(context.Background(), "AAPL", domain.DateRange{})
	if err != nil {
		t.Fatalf("FetchClose: %v", err)
	}
	if series == nil || len(series) != 0 {
		t.Errorf("empty response should yield an empty non-nil series, got %#v", series)
	}
}

func TestFetchCloseSchemaValidation(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"missing close", `[{"date":"2024-01-02"}]`, "missing close"},
		{"bad date", `[{"date":"01/02/2024","close":1.0}]`, "invalid date"},
		{"non-numeric close", `[{"date":"2024-01-02","close":"abc"}]`, "decoding"},
		{"not an array", `{"date":"2024-01-02"}`, "decoding"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(c.body))
			}))
			defer srv.Close()

			cl := newTestClient(srv)
			_, err := cl.FetchClose(context.Background(), "AAPL", domain.DateRange{})
			if err == nil {
				t.Fatalf("expected validation error for body %s", c.body)
			}
			if !strings.Contains(err.Error(), c.want) {
				t.Errorf("error = %q, want it to mention %q", err.Error(), c.want)
			}
		})
	}
}

func TestFetchHeadlines(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/news" {
			t.Errorf("path = %q, want /news", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("ticker") != "AAPL" || q.Get("day") != "2024-01-02" {
			t.Errorf("query = %v", q)
		}
		w.Write([]byte(`{"ticker":"AAPL","date":"2024-01-02","headlines":[
			{"title":"Apple ships something","url":"https://example.com/a","source":"example.com"},
			{"title":"Analysts react","url":"https://example.com/b","source":"example.com"}
		]}`))
	}))
	defer srv.Close()

	c := newTestClient(srv)
	headlines, err := c.FetchHeadlines(context.Background(), "AAPL", "2024-01-02")
	if err != nil {
		t.Fatalf("FetchHeadlines: %v", err)
	}
	if len(headlines) != 2 {
		t.Fatalf("got %d headlines, want 2", len(headlines))
	}
	if headlines[0].Title != "Apple ships something" || headlines[0].Source != "example.com" {
		t.Errorf("first headline = %+v", headlines[0])
	}
}

func TestFetchHeadlinesAbsentFieldIsEmptySet(t *testing.T) {
	for _, body := range []string{`{}`, `{"headlines":null}`} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(body))
		}))

		c := newTestClient(srv)
		headlines, err := c.FetchHeadlines(context.Background(), "AAPL", "2024-01-02")
		srv.Close()
		if err != nil {
			t.Fatalf("FetchHeadlines(%s): %v", body, err)
		}
		if headlines == nil || len(headlines) != 0 {
			t.Errorf("body %s should yield empty non-nil set, got %#v", body, headlines)
		}
	}
}

func TestFetchCoverage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/prices/range" {
			t.Errorf("path = %q, want /prices/range", r.URL.Path)
		}
		w.Write([]byte(`{"ticker":"AAPL","min":"2022-06-01","max":"2024-06-01","count":504}`))
	}))
	defer srv.Close()

	c := newTestClient(srv)
	cov, err := c.FetchCoverage(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("FetchCoverage: %v", err)
	}
	if cov.Min != "2022-06-01" || cov.Max != "2024-06-01" || cov.Count != 504 {
		t.Errorf("coverage = %+v", cov)
	}
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("path = %q, want /health", r.URL.Path)
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := newTestClient(srv)
	if err := c.Health(context.Background()); err != nil {
		t.Fatalf("Health: %v", err)
	}
}

func TestContextCancellation(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	c := newTestClient(srv)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.FetchClose(ctx, "AAPL", domain.DateRange{})
	if err == nil {
		t.Fatal("expected error when context deadline is exceeded")
	}
	if !strings.Contains(err.Error(), "prices:") {
		t.Errorf("error should carry the operation label, got %q", err.Error())
	}
}
