// Package worldapi fetches world info, maintenance windows and fleet
// maintenance records from the game server's REST API.
package worldapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"airline_sim/internal/models"
)

const (
	worldInfoPath   = "/api/world/info"
	windowsPath     = "/api/maintenance/scheduled"
	fleetRecordPath = "/api/fleet/maintenance"

	maxBodyBytes = 8 << 20
)

// Client is a thin JSON client over the game server API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for baseURL. timeout bounds every request.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// WorldInfo performs the periodic world info poll
func (c *Client) WorldInfo(ctx context.Context) (models.WorldInfo, error) {
	var info models.WorldInfo
	if err := c.getJSON(ctx, worldInfoPath, nil, &info); err != nil {
		return models.WorldInfo{}, fmt.Errorf("failed to fetch world info: %w", err)
	}
	return info, nil
}

// MaintenanceWindows returns the windows scheduled between from and to (inclusive dates)
func (c *Client) MaintenanceWindows(ctx context.Context, from, to time.Time) ([]models.WindowRecord, error) {
	q := url.Values{}
	q.Set("startDate", from.UTC().Format("2006-01-02"))
	q.Set("endDate", to.UTC().Format("2006-01-02"))

	var raw []json.RawMessage
	if err := c.getJSON(ctx, windowsPath, q, &raw); err != nil {
		return nil, fmt.Errorf("failed to fetch maintenance windows: %w", err)
	}
	return decodeEach[models.WindowRecord](windowsPath, raw), nil
}

// FleetMaintenance returns the maintenance record of every aircraft in the fleet
func (c *Client) FleetMaintenance(ctx context.Context) ([]models.MaintenanceRecord, error) {
	var raw []json.RawMessage
	if err := c.getJSON(ctx, fleetRecordPath, nil, &raw); err != nil {
		return nil, fmt.Errorf("failed to fetch fleet maintenance: %w", err)
	}
	return decodeEach[models.MaintenanceRecord](fleetRecordPath, raw), nil
}

// decodeEach unmarshals every element on its own so one bad entry only costs itself
func decodeEach[T any](path string, raw []json.RawMessage) []T {
	out := make([]T, 0, len(raw))
	for i, elem := range raw {
		var v T
		if err := json.Unmarshal(elem, &v); err != nil {
			slog.Warn("Skipping malformed element", "path", path, "index", i, "error", err)
			continue
		}
		out = append(out, v)
	}
	return out
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d from %s: %s", resp.StatusCode, path, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}
