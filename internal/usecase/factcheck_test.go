package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trueinf/Repushieldv7-sub000/internal/domain"
)

type stubSearcher struct {
	mu      sync.Mutex
	results []domain.Evidence
	err     error
	calls   int
}

func (s *stubSearcher) Search(ctx context.Context, query string) ([]domain.Evidence, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return s.results, s.err
}

type stubSynthesizer struct {
	draft domain.ResponseDraft
	err   error
}

func (s *stubSynthesizer) Draft(ctx context.Context, entityName, content string, evidence []domain.Evidence) (domain.ResponseDraft, error) {
	return s.draft, s.err
}

func scoredMention(id string, risk float64) domain.Mention {
	return domain.Mention{
		ID: id, ConfigID: "cfg-1", Platform: domain.PlatformTwitter, PostID: "p-" + id,
		Content:  "Acme dumped chemicals",
		Analysis: &domain.Analysis{RiskScore: risk, Sentiment: domain.SentimentNegative},
	}
}

func TestFactCheckEligibilityBoundary(t *testing.T) {
	t.Parallel()

	below := scoredMention("m-below", 6.9)
	at := scoredMention("m-at", 7.0)
	alreadyChecked := scoredMention("m-done", 9.0)
	alreadyChecked.FactCheck = &domain.FactCheck{Verdict: domain.VerdictFalse}

	store := newStoreWith(below, at, alreadyChecked)
	stage := NewFactCheckingStage(store, &stubSearcher{}, &stubSynthesizer{
		draft: domain.ResponseDraft{Text: "statement", Tone: "calm"},
	}, zerolog.Nop())

	result := stage.Execute(context.Background(), scoringConfig())

	assert.Equal(t, 1, result.Fetched, "only the 7.0 unchecked mention is eligible")
	assert.Equal(t, 1, result.Stored)
	assert.NotNil(t, store.get("m-at").FactCheck)
	assert.Nil(t, store.get("m-below").FactCheck)
}

func TestFactCheckSearchFailureProceedsUnverified(t *testing.T) {
	t.Parallel()

	store := newStoreWith(scoredMention("m-1", 8.0))
	stage := NewFactCheckingStage(store,
		&stubSearcher{err: errors.New("search quota exceeded")},
		&stubSynthesizer{draft: domain.ResponseDraft{Text: "statement"}},
		zerolog.Nop())

	result := stage.Execute(context.Background(), scoringConfig())

	assert.Equal(t, 1, result.Stored)
	assert.Empty(t, result.Errors)
	fc := store.get("m-1").FactCheck
	require.NotNil(t, fc)
	assert.Equal(t, domain.VerdictUnverified, fc.Verdict)
	assert.Empty(t, fc.Evidence)
}

func TestFactCheckSynthesisFallback(t *testing.T) {
	t.Parallel()

	store := newStoreWith(scoredMention("m-1", 8.0))
	stage := NewFactCheckingStage(store, &stubSearcher{},
		&stubSynthesizer{err: errors.New("model unavailable")}, zerolog.Nop())

	result := stage.Execute(context.Background(), scoringConfig())

	assert.Equal(t, 1, result.Stored)
	fc := store.get("m-1").FactCheck
	require.NotNil(t, fc)
	assert.NotEmpty(t, fc.Draft.Text)
	assert.Contains(t, fc.Draft.Text, "Acme")
	assert.Equal(t, "neutral", fc.Draft.Tone)
}

func TestFactCheckDraftLengthBound(t *testing.T) {
	t.Parallel()

	store := newStoreWith(scoredMention("m-1", 8.0))
	stage := NewFactCheckingStage(store, &stubSearcher{},
		&stubSynthesizer{draft: domain.ResponseDraft{Text: strings.Repeat("x", 500)}},
		zerolog.Nop())

	stage.Execute(context.Background(), scoringConfig())

	fc := store.get("m-1").FactCheck
	require.NotNil(t, fc)
	assert.Len(t, fc.Draft.Text, 280)
}

func TestFactCheckDraftTruncationKeepsValidUTF8(t *testing.T) {
	t.Parallel()

	// 94 three-byte runes = 282 bytes; byte 280 falls inside a rune.
	store := newStoreWith(scoredMention("m-1", 8.0))
	stage := NewFactCheckingStage(store, &stubSearcher{},
		&stubSynthesizer{draft: domain.ResponseDraft{Text: strings.Repeat("世", 94)}},
		zerolog.Nop())

	stage.Execute(context.Background(), scoringConfig())

	fc := store.get("m-1").FactCheck
	require.NotNil(t, fc)
	assert.True(t, utf8.ValidString(fc.Draft.Text))
	assert.LessOrEqual(t, len(fc.Draft.Text), 280)
	assert.Equal(t, strings.Repeat("世", 93), fc.Draft.Text)
}

func TestFactCheckItemIsolation(t *testing.T) {
	t.Parallel()

	ok := scoredMention("m-ok", 8.0)
	missing := scoredMention("m-gone", 8.0)
	store := newStoreWith(ok, missing)
	// Deleting after candidate selection is not possible with the fake, so
	// force the failure at persist time instead.
	delete(store.rows, "m-gone")
	store.rows["m-gone-candidate"] = missing

	stage := NewFactCheckingStage(store, &stubSearcher{},
		&stubSynthesizer{draft: domain.ResponseDraft{Text: "statement"}}, zerolog.Nop())

	result := stage.Execute(context.Background(), scoringConfig())

	assert.Equal(t, 2, result.Fetched)
	assert.Equal(t, 1, result.Stored)
	require.Len(t, result.Errors, 1)
	assert.NotNil(t, store.get("m-ok").FactCheck)
}

func TestVerdictFromEvidence(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		evidence []domain.Evidence
		want     domain.Verdict
	}{
		{
			name: "negative outweighs",
			evidence: []domain.Evidence{
				{Snippet: "claim debunked as fake news"},
				{Snippet: "officials denied the report"},
			},
			want: domain.VerdictFalse,
		},
		{
			name: "positive outweighs",
			evidence: []domain.Evidence{
				{Snippet: "independently verified and confirmed"},
			},
			want: domain.VerdictTrue,
		},
		{
			name: "tied nonzero counts",
			evidence: []domain.Evidence{
				{Snippet: "confirmed by one source, denied by another"},
			},
			want: domain.VerdictMisleading,
		},
		{
			name:     "no evidence",
			evidence: nil,
			want:     domain.VerdictUnverified,
		},
		{
			name: "neutral snippets",
			evidence: []domain.Evidence{
				{Snippet: "the company released a statement"},
			},
			want: domain.VerdictUnverified,
		},
		{
			name: "title counts too",
			evidence: []domain.Evidence{
				{Title: "Hoax alert", Snippet: "spreading online"},
			},
			want: domain.VerdictFalse,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, VerdictFromEvidence(tc.evidence))
		})
	}
}

func TestFactCheckParallelismCap(t *testing.T) {
	t.Parallel()

	mentions := make([]domain.Mention, 0, 6)
	for _, id := range []string{"a", "b", "c", "d", "e", "f"} {
		mentions = append(mentions, scoredMention("m-"+id, 8.0))
	}
	store := newStoreWith(mentions...)

	stage := NewFactCheckingStage(store, &stubSearcher{},
		&stubSynthesizer{draft: domain.ResponseDraft{Text: "statement"}},
		zerolog.Nop(), WithMaxParallel(2))

	result := stage.Execute(context.Background(), scoringConfig())
	assert.Equal(t, 6, result.Stored)
}
