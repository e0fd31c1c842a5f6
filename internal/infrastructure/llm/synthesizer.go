package llm

import (
	"context"
	"fmt"
	"net/http"

	"github.com/trueinf/Repushieldv7-sub000/internal/domain"
	"github.com/trueinf/Repushieldv7-sub000/internal/ports"
)

// Synthesizer calls a response-generation endpoint that drafts a reply
// for a flagged post given the evidence collected for it.
type Synthesizer struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

var _ ports.Synthesizer = (*Synthesizer)(nil)

// NewSynthesizer builds a synthesis client; client may be nil.
func NewSynthesizer(baseURL, apiKey string, client *http.Client) *Synthesizer {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &Synthesizer{baseURL: baseURL, apiKey: apiKey, client: client}
}

// Draft asks the service for a suggested response to the given content.
func (s *Synthesizer) Draft(ctx context.Context, entityName, content string, evidence []domain.Evidence) (domain.ResponseDraft, error) {
	type evidenceItem struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Snippet string `json:"snippet"`
	}

	items := make([]evidenceItem, 0, len(evidence))
	for _, ev := range evidence {
		items = append(items, evidenceItem{Title: ev.Title, URL: ev.URL, Snippet: ev.Snippet})
	}

	payload := struct {
		Entity   string         `json:"entity"`
		Content  string         `json:"content"`
		Evidence []evidenceItem `json:"evidence"`
	}{Entity: entityName, Content: content, Evidence: items}

	var out struct {
		ResponseText string   `json:"response_text"`
		Tone         string   `json:"tone"`
		KeyPoints    []string `json:"key_points"`
	}
	if err := postJSON(ctx, s.client, s.baseURL+"/v1/synthesize", s.apiKey, payload, &out); err != nil {
		return domain.ResponseDraft{}, fmt.Errorf("synthesize: %w", err)
	}

	return domain.ResponseDraft{
		Text:      out.ResponseText,
		Tone:      out.Tone,
		KeyPoints: out.KeyPoints,
	}, nil
}
