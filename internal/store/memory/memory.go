// Package memory implements an in-process answer store.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"coachrag/internal/domain"
	"coachrag/internal/store"
)

// Store keeps answers in memory. It is safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	byID   map[string]*domain.Answer
	byUser map[string][]string
}

var _ store.Store = (*Store)(nil)

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		byID:   make(map[string]*domain.Answer),
		byUser: make(map[string][]string),
	}
}

func (s *Store) Create(_ context.Context, userID, rawText string) (domain.Answer, error) {
	a := &domain.Answer{
		ID:        uuid.NewString(),
		UserID:    userID,
		RawText:   rawText,
		CreatedAt: time.Now().UTC(),
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[a.ID] = a
	s.byUser[userID] = append(s.byUser[userID], a.ID)
	return copyAnswer(a), nil
}

func (s *Store) SetSummary(_ context.Context, id, summary string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[id]
	if !ok {
		return store.ErrNotFound
	}
	if a.Summary != nil {
		return store.ErrSummaryExists
	}
	a.Summary = &summary
	return nil
}

func (s *Store) Get(_ context.Context, id string) (domain.Answer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.byID[id]
	if !ok {
		return domain.Answer{}, store.ErrNotFound
	}
	return copyAnswer(a), nil
}

func (s *Store) List(_ context.Context, userID string) ([]domain.Answer, error) {
	return s.filter(userID, func(*domain.Answer) bool { return true }), nil
}

func (s *Store) ListWithSummary(_ context.Context, userID string) ([]domain.Answer, error) {
	return s.filter(userID, func(a *domain.Answer) bool { return a.Summary != nil }), nil
}

func (s *Store) ListPending(_ context.Context, userID string) ([]domain.Answer, error) {
	return s.filter(userID, func(a *domain.Answer) bool { return a.Summary == nil }), nil
}

func (s *Store) Close() error { return nil }

func (s *Store) filter(userID string, keep func(*domain.Answer) bool) []domain.Answer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Answer
	for _, id := range s.byUser[userID] {
		if a := s.byID[id]; keep(a) {
			out = append(out, copyAnswer(a))
		}
	}
	return out
}

func copyAnswer(a *domain.Answer) domain.Answer {
	out := *a
	if a.Summary != nil {
		v := *a.Summary
		out.Summary = &v
	}
	return out
}
