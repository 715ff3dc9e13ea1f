package source

import (
	"testing"
	"time"
)

func TestRecordsPadsShortRows(t *testing.T) {
	grid := [][]string{
		{"user_id", "email", "status"},
		{"u1", "u1@example.com"},
	}

	records := Records(grid)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Str("status") != "" {
		t.Fatalf("expected padded blank status, got %q", records[0].Str("status"))
	}
	if records[0].Str("email") != "u1@example.com" {
		t.Fatalf("unexpected email %q", records[0].Str("email"))
	}
}

func TestRecordsHeaderOnly(t *testing.T) {
	if got := Records([][]string{{"user_id"}}); len(got) != 0 {
		t.Fatalf("expected no records for header-only grid, got %d", len(got))
	}
	if got := Records(nil); len(got) != 0 {
		t.Fatalf("expected no records for empty grid, got %d", len(got))
	}
}

func TestRecordFloat(t *testing.T) {
	rec := Record{"score": " 42.5 ", "pct": "33.3%", "bad": "n/a", "empty": ""}

	if got := rec.Float("score"); got != 42.5 {
		t.Errorf("expected 42.5, got %v", got)
	}
	if got := rec.Float("pct"); got != 33.3 {
		t.Errorf("expected percent suffix stripped, got %v", got)
	}
	if got := rec.Float("bad"); got != 0 {
		t.Errorf("expected 0 for unparseable value, got %v", got)
	}
	if got := rec.Float("empty"); got != 0 {
		t.Errorf("expected 0 for blank value, got %v", got)
	}
}

func TestRecordInt(t *testing.T) {
	rec := Record{"n": "7", "bad": "7.5"}

	if got := rec.Int("n"); got != 7 {
		t.Errorf("expected 7, got %d", got)
	}
	if got := rec.Int("bad"); got != 0 {
		t.Errorf("expected 0 for non-integer value, got %d", got)
	}
}

func TestRecordTime(t *testing.T) {
	rec := Record{
		"rfc":   "2026-03-01T09:30:00Z",
		"plain": "2026-03-01 09:30:00",
		"date":  "2026-03-01",
		"us":    "03/01/2026 09:30",
		"bad":   "yesterday",
		"empty": "",
	}

	for _, key := range []string{"rfc", "plain", "date", "us"} {
		if rec.Time(key) == nil {
			t.Errorf("expected %s to parse", key)
		}
	}
	if got := rec.Time("rfc"); got == nil || !got.Equal(time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)) {
		t.Errorf("unexpected rfc time %v", got)
	}
	if rec.Time("bad") != nil {
		t.Errorf("expected nil for unparseable time")
	}
	if rec.Time("empty") != nil {
		t.Errorf("expected nil for blank time")
	}
}

func TestRecordStrHelpers(t *testing.T) {
	rec := Record{"a": "  x  ", "b": "   "}

	if got := rec.Str("a"); got != "x" {
		t.Errorf("expected trimmed value, got %q", got)
	}
	if got := rec.StrOr("b", "fallback"); got != "fallback" {
		t.Errorf("expected fallback, got %q", got)
	}
	if rec.NullableStr("b") != nil {
		t.Errorf("expected nil for blank cell")
	}
	if v := rec.NullableStr("a"); v == nil || *v != "x" {
		t.Errorf("expected pointer to trimmed value, got %v", v)
	}
}
