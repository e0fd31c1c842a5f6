package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/trueinf/Repushieldv7-sub000/internal/domain"
	"github.com/trueinf/Repushieldv7-sub000/internal/ports"
)

// DefaultRiskThreshold is the risk score at and above which a mention
// becomes eligible for fact-checking.
const DefaultRiskThreshold = 7.0

const (
	maxDraftLength = 280
	queryWordLimit = 24
)

// Indicator word sets for the deterministic verdict heuristic.
var (
	positiveIndicators = []string{"confirmed", "true", "accurate", "verified", "correct"}
	negativeIndicators = []string{"false", "fake", "hoax", "debunked", "denied", "misleading"}
)

// FactCheckingStage gathers evidence, derives a verdict and drafts a
// response for high-risk mentions. Items run in parallel; the cap is
// configurable and defaults to unlimited, acceptable because eligibility
// requires risk >= 7 and item counts stay small.
type FactCheckingStage struct {
	store       ports.MentionStore
	searcher    ports.EvidenceSearcher
	synthesizer ports.Synthesizer
	threshold   float64
	maxParallel int
	logger      zerolog.Logger
	now         func() time.Time
}

// FactCheckOption tweaks the stage at construction time.
type FactCheckOption func(*FactCheckingStage)

// WithRiskThreshold overrides the eligibility threshold.
func WithRiskThreshold(v float64) FactCheckOption {
	return func(s *FactCheckingStage) {
		if v > 0 {
			s.threshold = v
		}
	}
}

// WithMaxParallel bounds concurrent fact checks; zero means unlimited.
func WithMaxParallel(n int) FactCheckOption {
	return func(s *FactCheckingStage) {
		if n >= 0 {
			s.maxParallel = n
		}
	}
}

// NewFactCheckingStage wires the fact-checking stage.
func NewFactCheckingStage(store ports.MentionStore, searcher ports.EvidenceSearcher,
	synthesizer ports.Synthesizer, logger zerolog.Logger, opts ...FactCheckOption) *FactCheckingStage {
	s := &FactCheckingStage{
		store:       store,
		searcher:    searcher,
		synthesizer: synthesizer,
		threshold:   DefaultRiskThreshold,
		logger:      logger.With().Str("component", "fact_check").Logger(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Execute fact-checks every eligible mention for the configuration. Each
// item is wrapped so a single failure never blocks the others.
func (s *FactCheckingStage) Execute(ctx context.Context, cfg domain.Configuration) domain.AgentResult {
	var result domain.AgentResult

	candidates, err := s.store.FactCheckCandidates(ctx, cfg.ID, s.threshold)
	if err != nil {
		result.AddError("load fact-check candidates: %v", err)
		return result
	}
	result.Fetched = len(candidates)
	if len(candidates) == 0 {
		return result
	}

	var sem *semaphore.Weighted
	if s.maxParallel > 0 {
		sem = semaphore.NewWeighted(int64(s.maxParallel))
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, mention := range candidates {
		wg.Add(1)
		go func(m domain.Mention) {
			defer wg.Done()
			if sem != nil {
				if err := sem.Acquire(ctx, 1); err != nil {
					mu.Lock()
					result.AddError("fact-check %s: %v", m.ID, err)
					mu.Unlock()
					return
				}
				defer sem.Release(1)
			}
			if err := s.checkOne(ctx, cfg, m); err != nil {
				mu.Lock()
				result.AddError("fact-check %s: %v", m.ID, err)
				mu.Unlock()
				return
			}
			mu.Lock()
			result.Stored++
			mu.Unlock()
		}(mention)
	}
	wg.Wait()

	return result
}

func (s *FactCheckingStage) checkOne(ctx context.Context, cfg domain.Configuration, m domain.Mention) error {
	query := evidenceQuery(cfg.EntityName, m.Content)

	evidence, err := s.searcher.Search(ctx, query)
	if err != nil {
		// Proceed with an empty evidence set; the verdict degrades to
		// unverified rather than failing the item.
		s.logger.Warn().Err(err).Str("mention_id", m.ID).Msg("evidence search failed")
		evidence = nil
	}

	verdict := VerdictFromEvidence(evidence)

	draft, err := s.synthesizer.Draft(ctx, cfg.EntityName, m.Content, evidence)
	if err != nil || strings.TrimSpace(draft.Text) == "" {
		if err != nil {
			s.logger.Warn().Err(err).Str("mention_id", m.ID).Msg("synthesis failed, using fallback draft")
		}
		draft = fallbackDraft(cfg.EntityName)
	}
	if len(draft.Text) > maxDraftLength {
		cut := maxDraftLength
		for cut > 0 && !utf8.RuneStart(draft.Text[cut]) {
			cut--
		}
		draft.Text = draft.Text[:cut]
	}

	return s.store.SaveFactCheck(ctx, m.ID, domain.FactCheck{
		Verdict:   verdict,
		Evidence:  evidence,
		Draft:     draft,
		CheckedAt: s.now(),
	})
}

// VerdictFromEvidence derives a truth status from gathered snippets by
// counting positive-indicator vs negative-indicator word occurrences.
func VerdictFromEvidence(evidence []domain.Evidence) domain.Verdict {
	var corpus strings.Builder
	for _, ev := range evidence {
		corpus.WriteString(strings.ToLower(ev.Title))
		corpus.WriteString(" ")
		corpus.WriteString(strings.ToLower(ev.Snippet))
		corpus.WriteString(" ")
	}
	text := corpus.String()

	var positive, negative int
	for _, word := range positiveIndicators {
		positive += strings.Count(text, word)
	}
	for _, word := range negativeIndicators {
		negative += strings.Count(text, word)
	}

	switch {
	case negative > positive && negative > 0:
		return domain.VerdictFalse
	case positive > negative && positive > 0:
		return domain.VerdictTrue
	case positive == negative && positive > 0:
		return domain.VerdictMisleading
	default:
		return domain.VerdictUnverified
	}
}

func evidenceQuery(entityName, content string) string {
	words := strings.Fields(content)
	if len(words) > queryWordLimit {
		words = words[:queryWordLimit]
	}
	return strings.TrimSpace(entityName + " " + strings.Join(words, " "))
}

func fallbackDraft(entityName string) domain.ResponseDraft {
	return domain.ResponseDraft{
		Text: fmt.Sprintf("%s is aware of this claim and is reviewing it. "+
			"An official statement will follow once the facts are established.", entityName),
		Tone:      "neutral",
		KeyPoints: []string{"claim under review", "official statement to follow"},
	}
}
