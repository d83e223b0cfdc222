package domain

import (
	"testing"
	"time"
)

func TestLastDays(t *testing.T) {
	now := time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)
	r := LastDays(30, now)

	if r.Start != "2024-05-16" {
		t.Errorf("Start = %q, want %q", r.Start, "2024-05-16")
	}
	if r.End != "2024-06-15" {
		t.Errorf("End = %q, want %q", r.End, "2024-06-15")
	}
}

func TestValidDay(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"2024-01-02", true},
		{"2024-1-2", false},
		{"01/02/2024", false},
		{"", false},
		{"2024-13-01", false},
	}
	for _, c := range cases {
		if got := ValidDay(c.in); got != c.want {
			t.Errorf("ValidDay(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestNormalizeTicker(t *testing.T) {
	if got := NormalizeTicker("  aapl "); got != "AAPL" {
		t.Errorf("NormalizeTicker = %q, want %q", got, "AAPL")
	}
	if got := NormalizeTicker("   "); got != "" {
		t.Errorf("NormalizeTicker(blank) = %q, want empty", got)
	}
}

func TestLoadStatusConstructors(t *testing.T) {
	if s := Loading(); s.State != StateLoading || s.Message != "" {
		t.Errorf("Loading() = %+v", s)
	}
	if s := Ready(); s.State != StateReady || s.Message != "" {
		t.Errorf("Ready() = %+v", s)
	}
	if s := Failed("boom"); s.State != StateError || s.Message != "boom" {
		t.Errorf("Failed() = %+v", s)
	}

	var zero LoadStatus
	if zero.State != StateIdle {
		t.Error("zero-value LoadStatus should be idle")
	}
}

func TestLoadStateString(t *testing.T) {
	want := map[LoadState]string{
		StateIdle:    "idle",
		StateLoading: "loading",
		StateReady:   "ready",
		StateError:   "error",
	}
	for state, label := range want {
		if got := state.String(); got != label {
			t.Errorf("%d.String() = %q, want %q", int(state), got, label)
		}
	}
}
