package memory

import (
	"context"
	"sort"
	"sync"
)

// CompletionStore keeps completed days per user in process memory.
type CompletionStore struct {
	mu     sync.RWMutex
	byUser map[string]map[int]struct{}
}

func NewCompletionStore() *CompletionStore {
	return &CompletionStore{byUser: make(map[string]map[int]struct{})}
}

func (s *CompletionStore) IsCompleted(_ context.Context, userID string, dayID int) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byUser[userID][dayID]
	return ok, nil
}

func (s *CompletionStore) MarkCompleted(_ context.Context, userID string, dayID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	days, ok := s.byUser[userID]
	if !ok {
		days = make(map[int]struct{})
		s.byUser[userID] = days
	}
	days[dayID] = struct{}{}
	return nil
}

func (s *CompletionStore) ListCompleted(_ context.Context, userID string) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]int, 0, len(s.byUser[userID]))
	for id := range s.byUser[userID] {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids, nil
}
