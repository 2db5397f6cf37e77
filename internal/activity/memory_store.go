package activity

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store for demo/test use.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string][]*Record // subject id → records, oldest first
}

// NewMemoryStore creates an empty in-memory activity store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string][]*Record)}
}

func (s *MemoryStore) Append(ctx context.Context, records []*Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	touched := make(map[string]bool)
	for _, r := range records {
		cp := *r
		s.records[r.SubjectID] = append(s.records[r.SubjectID], &cp)
		touched[r.SubjectID] = true
	}

	// Keep per-subject order stable even if a batch arrives out of order.
	for subject := range touched {
		recs := s.records[subject]
		sort.SliceStable(recs, func(i, j int) bool {
			return recs[i].Timestamp.Before(recs[j].Timestamp)
		})
	}
	return nil
}

func (s *MemoryStore) ListBySubjectSince(ctx context.Context, subjectID string, since time.Time) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*Record
	for _, r := range s.records[subjectID] {
		if !r.Timestamp.Before(since) {
			cp := *r
			result = append(result, &cp)
		}
	}
	return result, nil
}
