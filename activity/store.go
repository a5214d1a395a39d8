package activity

import (
	"context"
	"sync"

	"tastemap/models"
	"tastemap/utils"
)

// Store persists feed entries. List returns newest first; an empty user lists everyone.
type Store interface {
	Insert(ctx context.Context, e models.ActivityEntry) error
	List(ctx context.Context, user string, limit, offset int) ([]models.ActivityEntry, error)
	// Delete returns utils.ErrNotFound for unknown ids.
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) (int64, error)
	// Prune removes all but the newest keep entries and reports how many went.
	Prune(ctx context.Context, keep int) (int64, error)
}

// MemoryStore keeps entries in insertion order, oldest first.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []models.ActivityEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Insert(_ context.Context, e models.ActivityEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
	return nil
}

func (s *MemoryStore) List(_ context.Context, user string, limit, offset int) ([]models.ActivityEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.ActivityEntry{}
	skipped := 0
	for i := len(s.entries) - 1; i >= 0 && len(out) < limit; i-- {
		e := s.entries[i]
		if user != "" && e.User != user {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.entries {
		if e.ID == id {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return nil
		}
	}
	return utils.ErrNotFound
}

func (s *MemoryStore) DeleteAll(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := int64(len(s.entries))
	s.entries = nil
	return n, nil
}

func (s *MemoryStore) Prune(_ context.Context, keep int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	extra := len(s.entries) - keep
	if extra <= 0 {
		return 0, nil
	}
	s.entries = append([]models.ActivityEntry(nil), s.entries[extra:]...)
	return int64(extra), nil
}
