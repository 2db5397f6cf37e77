package assessment

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store for demo/test use.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*SessionScores   // session id → scores
	bySubj   map[string][]string         // subject id → session ids, oldest first
	badges   map[string]map[string]Badge // subject id → badge id → badge
	signals  map[string]*SignalScores    // session id → signals
}

// NewMemoryStore creates an empty in-memory assessment store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*SessionScores),
		bySubj:   make(map[string][]string),
		badges:   make(map[string]map[string]Badge),
		signals:  make(map[string]*SignalScores),
	}
}

func (s *MemoryStore) CreateSession(ctx context.Context, scores *SessionScores) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *scores
	cp.Insights = append([]Insight(nil), scores.Insights...)
	cp.Badges = append([]Badge(nil), scores.Badges...)
	cp.Decisions = append([]DecisionRecord(nil), scores.Decisions...)

	s.sessions[scores.ID] = &cp
	s.bySubj[scores.SubjectID] = append(s.bySubj[scores.SubjectID], scores.ID)
	return nil
}

func (s *MemoryStore) GetSession(ctx context.Context, id string) (*SessionScores, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	scores, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	cp := *scores
	return &cp, nil
}

func (s *MemoryStore) ListBySubject(ctx context.Context, subjectID string, limit int) ([]*SessionScores, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.bySubj[subjectID]
	if limit > 0 && len(ids) > limit {
		// Most recent `limit` sessions, still oldest first.
		ids = ids[len(ids)-limit:]
	}

	result := make([]*SessionScores, 0, len(ids))
	for _, id := range ids {
		cp := *s.sessions[id]
		result = append(result, &cp)
	}
	return result, nil
}

func (s *MemoryStore) AwardBadge(ctx context.Context, subjectID string, b Badge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	held := s.badges[subjectID]
	if held == nil {
		held = make(map[string]Badge)
		s.badges[subjectID] = held
	}
	if _, ok := held[b.ID]; ok {
		return nil // idempotent
	}
	held[b.ID] = b
	return nil
}

func (s *MemoryStore) ListBadges(ctx context.Context, subjectID string) ([]Badge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	held := s.badges[subjectID]
	result := make([]Badge, 0, len(held))
	for _, b := range held {
		result = append(result, b)
	}
	return result, nil
}

func (s *MemoryStore) PutSignals(ctx context.Context, sig *SignalScores) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *sig
	s.signals[sig.SessionID] = &cp
	return nil
}

func (s *MemoryStore) GetSignals(ctx context.Context, sessionID string) (*SignalScores, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sig, ok := s.signals[sessionID]
	if !ok {
		return nil, ErrSignalsNotFound
	}
	cp := *sig
	return &cp, nil
}
