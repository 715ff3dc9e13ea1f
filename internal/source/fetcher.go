package source

import (
	"context"
	"fmt"

	"posture-service/internal/config"
	"posture-service/internal/models"
)

// Fetcher resolves a source id to its configured sheet and returns the
// feed as header-keyed records. Pure read, no side effects.
type Fetcher interface {
	Fetch(ctx context.Context, sourceID string) ([]Record, error)
}

// SheetFetcher backs the four sources with one spreadsheet range each.
type SheetFetcher struct {
	grid GridClient
	cfg  config.SourcesConfig
}

func NewSheetFetcher(grid GridClient, cfg config.SourcesConfig) *SheetFetcher {
	return &SheetFetcher{grid: grid, cfg: cfg}
}

func (f *SheetFetcher) Fetch(ctx context.Context, sourceID string) ([]Record, error) {
	var sheetID, readRange string
	switch sourceID {
	case models.SourceIdentity:
		sheetID, readRange = f.cfg.IdentitySheetID, f.cfg.IdentityRange
	case models.SourceDevice:
		sheetID, readRange = f.cfg.DeviceSheetID, f.cfg.DeviceRange
	case models.SourceAlert:
		sheetID, readRange = f.cfg.AlertSheetID, f.cfg.AlertRange
	case models.SourceBreach:
		sheetID, readRange = f.cfg.BreachSheetID, f.cfg.BreachRange
	default:
		return nil, fmt.Errorf("unknown source: %s", sourceID)
	}

	if sheetID == "" {
		return nil, fmt.Errorf("source %s has no spreadsheet configured", sourceID)
	}

	grid, err := f.grid.FetchGrid(ctx, sheetID, readRange)
	if err != nil {
		return nil, fmt.Errorf("source %s fetch failed: %w", sourceID, err)
	}

	return Records(grid), nil
}
