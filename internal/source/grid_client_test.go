package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"posture-service/internal/config"
	"posture-service/internal/util"
)

func TestHTTPGridClientFetchGrid(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "secret" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"range":"Sheet1!A:C","values":[["user_id","score","active"],["u1",42,true],["u2",3.5,null]]}`))
	}))
	defer server.Close()

	client := NewHTTPGridClient(config.SourcesConfig{
		BaseURL: server.URL,
		APIKey:  "secret",
	}, util.Get())

	grid, err := client.FetchGrid(context.Background(), "sheet-1", "Sheet1!A:C")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(grid) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(grid))
	}
	if grid[1][1] != "42" {
		t.Errorf("expected integer cell coerced to %q, got %q", "42", grid[1][1])
	}
	if grid[1][2] != "true" {
		t.Errorf("expected bool cell coerced, got %q", grid[1][2])
	}
	if grid[2][1] != "3.5" {
		t.Errorf("expected float cell coerced, got %q", grid[2][1])
	}
	if grid[2][2] != "" {
		t.Errorf("expected null cell coerced to blank, got %q", grid[2][2])
	}
}

func TestHTTPGridClientErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewHTTPGridClient(config.SourcesConfig{BaseURL: server.URL}, util.Get())

	if _, err := client.FetchGrid(context.Background(), "sheet-1", "Sheet1!A:C"); err == nil {
		t.Fatalf("expected error for non-200 response")
	}
}
