package source

import (
	"context"
	"errors"
	"testing"

	"posture-service/internal/config"
	"posture-service/internal/models"
)

type stubGridClient struct {
	grid    [][]string
	err     error
	sheetID string
	rng     string
}

func (s *stubGridClient) FetchGrid(ctx context.Context, sheetID, readRange string) ([][]string, error) {
	s.sheetID = sheetID
	s.rng = readRange
	if s.err != nil {
		return nil, s.err
	}
	return s.grid, nil
}

func testSourcesConfig() config.SourcesConfig {
	return config.SourcesConfig{
		IdentitySheetID: "sheet-kb4",
		IdentityRange:   "Sheet1!A:N",
		DeviceSheetID:   "sheet-ncm",
		DeviceRange:     "Sheet1!A:K",
		AlertSheetID:    "sheet-edr",
		AlertRange:      "Sheet1!A:H",
		BreachSheetID:   "sheet-hibp",
		BreachRange:     "Sheet1!A:F",
	}
}

func TestSheetFetcherResolvesSource(t *testing.T) {
	grid := &stubGridClient{grid: [][]string{
		{"user_id", "email"},
		{"u1", "u1@example.com"},
	}}
	fetcher := NewSheetFetcher(grid, testSourcesConfig())

	records, err := fetcher.Fetch(context.Background(), models.SourceIdentity)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if grid.sheetID != "sheet-kb4" || grid.rng != "Sheet1!A:N" {
		t.Fatalf("fetched wrong range: %s %s", grid.sheetID, grid.rng)
	}
	if len(records) != 1 || records[0].Str("user_id") != "u1" {
		t.Fatalf("unexpected records: %v", records)
	}
}

func TestSheetFetcherUnknownSource(t *testing.T) {
	fetcher := NewSheetFetcher(&stubGridClient{}, testSourcesConfig())

	if _, err := fetcher.Fetch(context.Background(), "nope"); err == nil {
		t.Fatalf("expected error for unknown source")
	}
}

func TestSheetFetcherUnconfiguredSheet(t *testing.T) {
	cfg := testSourcesConfig()
	cfg.BreachSheetID = ""
	fetcher := NewSheetFetcher(&stubGridClient{}, cfg)

	if _, err := fetcher.Fetch(context.Background(), models.SourceBreach); err == nil {
		t.Fatalf("expected error for unconfigured sheet")
	}
}

func TestSheetFetcherWrapsFetchError(t *testing.T) {
	grid := &stubGridClient{err: errors.New("upstream 500")}
	fetcher := NewSheetFetcher(grid, testSourcesConfig())

	_, err := fetcher.Fetch(context.Background(), models.SourceDevice)
	if err == nil {
		t.Fatalf("expected wrapped fetch error")
	}
	if !errors.Is(err, grid.err) {
		t.Fatalf("expected cause to be preserved, got %v", err)
	}
}
