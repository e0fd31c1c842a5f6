package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/trueinf/Repushieldv7-sub000/internal/domain"
)

func TestClassifierSendsTextAndEntity(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/classify" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("unexpected auth header: %s", got)
		}

		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req["text"] != "some post" || req["entity"] != "Acme" {
			t.Errorf("unexpected request body: %v", req)
		}

		_, _ = w.Write([]byte(`{
			"sentiment": "negative",
			"risk_score": 8.2,
			"topics": ["recall"],
			"keywords": ["defect"],
			"summary": "Product defect allegations surfacing online"
		}`))
	}))
	defer server.Close()

	client := NewClassifier(server.URL, "secret", 0, server.Client())
	result, err := client.Classify(context.Background(), "some post", "Acme")
	if err != nil {
		t.Fatalf("classify returned error: %v", err)
	}
	if result.RiskScore != 8.2 || result.Sentiment != "negative" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestClassifierNonOKStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClassifier(server.URL, "", 0, server.Client())
	if _, err := client.Classify(context.Background(), "text", "Acme"); err == nil {
		t.Fatal("expected error for 429 response")
	}
}

func TestClassifierRateLimiterHonorsContext(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	// One token per hour: the first call drains the bucket, the second
	// has to wait and should bail out when the context is cancelled.
	client := NewClassifier(server.URL, "", 1.0/3600, server.Client())
	if _, err := client.Classify(context.Background(), "first", "Acme"); err != nil {
		t.Fatalf("first call failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := client.Classify(ctx, "second", "Acme"); err == nil {
		t.Fatal("expected error from cancelled context")
	}
	if calls.Load() != 1 {
		t.Fatalf("expected 1 upstream call, got %d", calls.Load())
	}
}

func TestSynthesizerDraft(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Entity   string `json:"entity"`
			Evidence []struct {
				URL string `json:"url"`
			} `json:"evidence"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Entity != "Acme" || len(req.Evidence) != 1 {
			t.Errorf("unexpected request: %+v", req)
		}

		_, _ = w.Write([]byte(`{
			"response_text": "We are aware of the claim and investigating.",
			"tone": "professional",
			"key_points": ["acknowledged", "investigating"]
		}`))
	}))
	defer server.Close()

	client := NewSynthesizer(server.URL, "", server.Client())
	draft, err := client.Draft(context.Background(), "Acme", "the post",
		[]domain.Evidence{{Title: "Report", URL: "https://ev.example/1", Snippet: "details"}})
	if err != nil {
		t.Fatalf("draft returned error: %v", err)
	}
	if draft.Tone != "professional" || len(draft.KeyPoints) != 2 {
		t.Fatalf("unexpected draft: %+v", draft)
	}
}
