// Package websearch implements evidence retrieval against a web search
// API.
package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/trueinf/Repushieldv7-sub000/internal/domain"
	"github.com/trueinf/Repushieldv7-sub000/internal/ports"
)

const (
	defaultTimeout   = 30 * time.Second
	maxResponseBytes = 4 << 20
)

// Client queries a search endpoint and maps hits to evidence entries.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

var _ ports.EvidenceSearcher = (*Client)(nil)

// NewClient builds a search client; httpClient may be nil.
func NewClient(baseURL, apiKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{baseURL: baseURL, apiKey: apiKey, client: httpClient}
}

// Search returns evidence for the query. Hits without a URL are
// dropped.
func (c *Client) Search(ctx context.Context, query string) ([]domain.Evidence, error) {
	endpoint := fmt.Sprintf("%s/search?q=%s", c.baseURL, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		snippet := data
		if len(snippet) > 512 {
			snippet = snippet[:512]
		}
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, snippet)
	}

	var payload struct {
		Results []struct {
			Title   string `json:"title"`
			URL     string `json:"url"`
			Snippet string `json:"snippet"`
		} `json:"results"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	evidence := make([]domain.Evidence, 0, len(payload.Results))
	for _, hit := range payload.Results {
		if hit.URL == "" {
			continue
		}
		evidence = append(evidence, domain.Evidence{
			Title:   hit.Title,
			URL:     hit.URL,
			Snippet: hit.Snippet,
		})
	}
	return evidence, nil
}
