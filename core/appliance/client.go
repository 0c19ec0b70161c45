package appliance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrNotConfigured is returned when pull operations run without an appliance URL.
var ErrNotConfigured = fmt.Errorf("appliance is not configured")

// Client talks to the discovery appliance's REST API.
type Client struct {
	baseURL    string
	apiKey     string
	pageSize   int
	httpClient *http.Client
}

// NewClient creates a client from the configuration.
func NewClient(cfg Config) *Client {
	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 15
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 1000
	}
	return &Client{
		baseURL:  strings.TrimSuffix(cfg.URL, "/"),
		apiKey:   cfg.ApiKey,
		pageSize: pageSize,
		httpClient: &http.Client{
			Timeout: time.Duration(timeout) * time.Second,
		},
	}
}

// GetDevices fetches one page of the appliance device roster.
func (c *Client) GetDevices(ctx context.Context, offset, limit int) ([]RawDevice, error) {
	var devices []RawDevice
	path := fmt.Sprintf("/api/devices?offset=%d&limit=%d", offset, limit)
	if err := c.get(ctx, path, &devices); err != nil {
		return nil, err
	}
	return devices, nil
}

// ListAllDevices pages through the full device roster.
func (c *Client) ListAllDevices(ctx context.Context) ([]RawDevice, error) {
	var all []RawDevice
	offset := 0
	for {
		page, err := c.GetDevices(ctx, offset, c.pageSize)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < c.pageSize {
			return all, nil
		}
		offset += c.pageSize
	}
}

// GetPlannings fetches the appliance planning job definitions.
func (c *Client) GetPlannings(ctx context.Context) ([]RawPlanning, error) {
	var plannings []RawPlanning
	if err := c.get(ctx, "/api/planning", &plannings); err != nil {
		return nil, err
	}
	return plannings, nil
}

// GetSnapshot fetches the snapshot content for one device and planning.
// The response maps planning names to their result payloads.
func (c *Client) GetSnapshot(ctx context.Context, hostname string, planningID int64) (map[string]SnapshotResult, error) {
	var snapshot map[string]SnapshotResult
	path := fmt.Sprintf("/api/devices/snapshot/single/%s/%d", url.PathEscape(hostname), planningID)
	if err := c.get(ctx, path, &snapshot); err != nil {
		return nil, err
	}
	return snapshot, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	if c.baseURL == "" {
		return ErrNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build appliance request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("appliance unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("appliance returned %d for %s: %s", resp.StatusCode, path, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode appliance response: %w", err)
	}
	return nil
}
