// Package grouping talks to the narrative-grouping service that
// clusters scored mentions into storylines.
package grouping

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/trueinf/Repushieldv7-sub000/internal/ports"
)

const defaultTimeout = 30 * time.Second

// Client assigns mentions to narrative groups over HTTP. Assignment is
// advisory: callers treat failures as non-fatal.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

var _ ports.Grouper = (*Client)(nil)

// NewClient builds a grouping client; httpClient may be nil.
func NewClient(baseURL, apiKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{baseURL: baseURL, apiKey: apiKey, client: httpClient}
}

// Assign asks the service to place a mention into a narrative group.
func (c *Client) Assign(ctx context.Context, mentionID, configID string) error {
	payload := map[string]string{
		"mention_id": mentionID,
		"config_id":  configID,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/assign", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, snippet)
	}
	return nil
}
