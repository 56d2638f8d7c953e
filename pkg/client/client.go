package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/crewsync/crewsync/pkg/gateway"
	"github.com/crewsync/crewsync/pkg/types"
)

// Client talks to a running CrewSync instance's operational API
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the gateway at addr (host:port)
func NewClient(addr string) *Client {
	return &Client{
		baseURL: "http://" + addr,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Status fetches the engine's computed sync status
func (c *Client) Status(ctx context.Context) (types.SyncStatusReport, error) {
	var report types.SyncStatusReport
	if err := c.get(ctx, "/api/status", &report); err != nil {
		return types.SyncStatusReport{}, err
	}
	return report, nil
}

// Trigger reports a manual entity change
func (c *Client) Trigger(ctx context.Context, entityID, changeKind string) error {
	body, err := json.Marshal(gateway.TriggerRequest{EntityID: entityID, ChangeKind: changeKind})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/trigger", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("trigger request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("trigger rejected: %s", resp.Status)
	}
	return nil
}

// ForceSync requests a full cache rebuild and consumer refresh
func (c *Client) ForceSync(ctx context.Context) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/forcesync", nil)
	if err != nil {
		return false, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("force sync request failed: %w", err)
	}
	defer resp.Body.Close()

	var out gateway.ForceSyncResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false, fmt.Errorf("failed to decode force sync response: %w", err)
	}
	return out.Success, nil
}

// Consistency runs the divergence check
func (c *Client) Consistency(ctx context.Context) (types.ConsistencyReport, error) {
	var report types.ConsistencyReport
	if err := c.get(ctx, "/api/consistency", &report); err != nil {
		return types.ConsistencyReport{}, err
	}
	return report, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
