package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/trueinf/Repushieldv7-sub000/internal/domain"
)

// memStore is an in-memory MentionStore implementing the real query
// predicates, shared by the stage tests.
type memStore struct {
	mu             sync.Mutex
	rows           map[string]domain.Mention // by mention id
	analysisErr    map[string]error          // per-mention SaveAnalysis failures
	unscoredErr    error
	candidatesErr  error
	savedFactCheck map[string]domain.FactCheck
}

func newStoreWith(mentions ...domain.Mention) *memStore {
	s := &memStore{
		rows:           map[string]domain.Mention{},
		analysisErr:    map[string]error{},
		savedFactCheck: map[string]domain.FactCheck{},
	}
	for _, m := range mentions {
		s.rows[m.ID] = m
	}
	return s
}

func (s *memStore) Insert(ctx context.Context, m domain.Mention) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.rows {
		if existing.Platform == m.Platform && existing.PostID == m.PostID {
			return false, nil
		}
	}
	s.rows[m.ID] = m
	return true, nil
}

func (s *memStore) Unscored(ctx context.Context, configID string, limit int) ([]domain.Mention, error) {
	if s.unscoredErr != nil {
		return nil, s.unscoredErr
	}
	return s.selectWhere(limit, func(m domain.Mention) bool {
		return m.ConfigID == configID && m.Analysis == nil
	}), nil
}

func (s *memStore) Incomplete(ctx context.Context, configID string, limit int) ([]domain.Mention, error) {
	return s.selectWhere(limit, func(m domain.Mention) bool {
		return m.ConfigID == configID && (m.Analysis == nil || len(m.Analysis.Topics) == 0)
	}), nil
}

func (s *memStore) ByIDs(ctx context.Context, ids []string) ([]domain.Mention, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Mention, 0, len(ids))
	for _, id := range ids {
		if m, ok := s.rows[id]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *memStore) FactCheckCandidates(ctx context.Context, configID string, minRisk float64) ([]domain.Mention, error) {
	if s.candidatesErr != nil {
		return nil, s.candidatesErr
	}
	return s.selectWhere(0, func(m domain.Mention) bool {
		return m.ConfigID == configID &&
			m.Analysis != nil && m.Analysis.RiskScore >= minRisk &&
			m.FactCheck == nil
	}), nil
}

func (s *memStore) SaveAnalysis(ctx context.Context, mentionID string, a domain.Analysis) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.analysisErr[mentionID]; err != nil {
		return err
	}
	m, ok := s.rows[mentionID]
	if !ok {
		return fmt.Errorf("mention %s not found", mentionID)
	}
	m.Analysis = &a
	s.rows[mentionID] = m
	return nil
}

func (s *memStore) SaveFactCheck(ctx context.Context, mentionID string, fc domain.FactCheck) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.rows[mentionID]
	if !ok {
		return fmt.Errorf("mention %s not found", mentionID)
	}
	m.FactCheck = &fc
	s.rows[mentionID] = m
	s.savedFactCheck[mentionID] = fc
	return nil
}

func (s *memStore) selectWhere(limit int, pred func(domain.Mention) bool) []domain.Mention {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Mention
	for _, m := range s.rows {
		if pred(m) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (s *memStore) get(id string) domain.Mention {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rows[id]
}
