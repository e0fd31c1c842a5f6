// Package llm holds HTTP clients for the language-model services that
// score and synthesize content.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/trueinf/Repushieldv7-sub000/internal/domain"
	"github.com/trueinf/Repushieldv7-sub000/internal/ports"
)

const (
	defaultTimeout   = 60 * time.Second
	maxResponseBytes = 1 << 20
)

// Classifier calls a risk-classification endpoint. Requests are paced
// by a token-bucket limiter so a large backlog cannot flood the
// upstream service.
type Classifier struct {
	baseURL string
	apiKey  string
	client  *http.Client
	limiter *rate.Limiter
}

var _ ports.Classifier = (*Classifier)(nil)

// NewClassifier builds a classifier client. ratePerSecond <= 0 disables
// pacing; client may be nil.
func NewClassifier(baseURL, apiKey string, ratePerSecond float64, client *http.Client) *Classifier {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if ratePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(ratePerSecond), 1)
	}
	return &Classifier{baseURL: baseURL, apiKey: apiKey, client: client, limiter: limiter}
}

// Classify sends content to the classification endpoint and returns the
// raw analysis fields before normalization.
func (c *Classifier) Classify(ctx context.Context, text, entityName string) (domain.RiskScoreResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return domain.RiskScoreResult{}, fmt.Errorf("wait for rate limiter: %w", err)
	}

	payload := map[string]string{
		"text":   text,
		"entity": entityName,
	}

	var result domain.RiskScoreResult
	if err := postJSON(ctx, c.client, c.baseURL+"/v1/classify", c.apiKey, payload, &result); err != nil {
		return domain.RiskScoreResult{}, fmt.Errorf("classify: %w", err)
	}
	return result, nil
}

func postJSON(ctx context.Context, client *http.Client, endpoint, apiKey string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		snippet := data
		if len(snippet) > 512 {
			snippet = snippet[:512]
		}
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, snippet)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
