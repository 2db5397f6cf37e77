package riskintel

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store for demo/test use.
type MemoryStore struct {
	mu              sync.RWMutex
	stacks          map[string]*ReasonStack
	recommendations map[string]*Recommendation // keyed by stack id
	bySubject       map[string][]string        // subject id → stack ids, newest first
}

// NewMemoryStore creates an empty in-memory risk-intelligence store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		stacks:          make(map[string]*ReasonStack),
		recommendations: make(map[string]*Recommendation),
		bySubject:       make(map[string][]string),
	}
}

func (s *MemoryStore) SaveEvaluation(ctx context.Context, stack *ReasonStack, rec *Recommendation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stackCopy := *stack
	stackCopy.Factors = append([]ContributingFactor(nil), stack.Factors...)
	recCopy := *rec
	recCopy.Alternatives = append([]Alternative(nil), rec.Alternatives...)

	s.stacks[stack.ID] = &stackCopy
	s.recommendations[stack.ID] = &recCopy
	s.bySubject[stack.SubjectID] = append([]string{stack.ID}, s.bySubject[stack.SubjectID]...)
	return nil
}

func (s *MemoryStore) GetStack(ctx context.Context, id string) (*ReasonStack, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stack, ok := s.stacks[id]
	if !ok {
		return nil, ErrStackNotFound
	}
	cp := *stack
	cp.Factors = append([]ContributingFactor(nil), stack.Factors...)
	return &cp, nil
}

func (s *MemoryStore) GetRecommendation(ctx context.Context, stackID string) (*Recommendation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.recommendations[stackID]
	if !ok {
		return nil, ErrStackNotFound
	}
	cp := *rec
	cp.Alternatives = append([]Alternative(nil), rec.Alternatives...)
	return &cp, nil
}

func (s *MemoryStore) ListStacksBySubject(ctx context.Context, subjectID string, limit int) ([]*ReasonStack, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.bySubject[subjectID]
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	result := make([]*ReasonStack, 0, len(ids))
	for _, id := range ids {
		cp := *s.stacks[id]
		cp.Factors = append([]ContributingFactor(nil), s.stacks[id].Factors...)
		result = append(result, &cp)
	}
	return result, nil
}
