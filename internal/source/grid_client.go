package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"posture-service/internal/config"
	"posture-service/internal/util"
)

// GridClient fetches a two-dimensional grid of string cells from an
// external spreadsheet-like service. Implementations must report
// network and auth failures as errors, never as an empty grid.
type GridClient interface {
	FetchGrid(ctx context.Context, spreadsheetID, readRange string) ([][]string, error)
}

// HTTPGridClient reads grids from a sheets-values style HTTP API.
type HTTPGridClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *zap.Logger
}

// valuesResponse mirrors the values endpoint payload. Cells arrive as
// arbitrary JSON scalars and are coerced to strings.
type valuesResponse struct {
	Range  string          `json:"range"`
	Values [][]interface{} `json:"values"`
}

func NewHTTPGridClient(cfg config.SourcesConfig, logger *zap.Logger) *HTTPGridClient {
	return &HTTPGridClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}
}

// FetchGrid retrieves one sheet range. A sheet with no data rows yields
// an empty grid; any transport or HTTP error propagates to the caller.
func (c *HTTPGridClient) FetchGrid(ctx context.Context, spreadsheetID, readRange string) ([][]string, error) {
	endpoint := fmt.Sprintf("%s/v4/spreadsheets/%s/values/%s",
		c.baseURL, url.PathEscape(spreadsheetID), url.PathEscape(readRange))
	if c.apiKey != "" {
		endpoint += "?key=" + url.QueryEscape(c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build grid request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch grid: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("grid fetch returned status %d for spreadsheet %s", res.StatusCode, spreadsheetID)
	}

	var payload valuesResponse
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode grid response: %w", err)
	}

	grid := make([][]string, 0, len(payload.Values))
	for _, row := range payload.Values {
		cells := make([]string, 0, len(row))
		for _, cell := range row {
			cells = append(cells, coerceCell(cell))
		}
		grid = append(grid, cells)
	}

	util.Debug("Fetched source grid",
		zap.String("spreadsheet_id", spreadsheetID),
		zap.String("range", readRange),
		zap.Int("rows", len(grid)))

	return grid, nil
}

func coerceCell(cell interface{}) string {
	switch v := cell.(type) {
	case string:
		return v
	case float64:
		// JSON numbers without a fraction print as integers
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%g", v)
	case bool:
		return fmt.Sprintf("%t", v)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}
