package userdata

import (
	"context"
	"sort"
	"sync"
	"time"

	"tastemap/models"
	"tastemap/utils"
)

// MemoryRepository keeps profiles in process, scoped to one server instance.
type MemoryRepository struct {
	mu    sync.Mutex
	users map[string]models.UserProfile
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{users: make(map[string]models.UserProfile)}
}

func (m *MemoryRepository) GetOrCreate(_ context.Context, username string, now time.Time) (models.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.load(username, now).Clone(), nil
}

func (m *MemoryRepository) ListUsernames(_ context.Context) ([]string, error) {
	m.mu.Lock()
	names := make([]string, 0, len(m.users))
	for name := range m.users {
		names = append(names, name)
	}
	m.mu.Unlock()
	sort.Strings(names)
	return names, nil
}

func (m *MemoryRepository) UpdateVisited(_ context.Context, username, rid string, mode Mode, now time.Time) (Transition, error) {
	return m.update(username, now, true, func(p *models.UserProfile) { applyVisited(p, rid, mode) })
}

func (m *MemoryRepository) UpdateInterest(_ context.Context, username, rid string, change InterestChange, now time.Time) (Transition, error) {
	return m.update(username, now, true, func(p *models.UserProfile) { applyInterest(p, rid, change) })
}

func (m *MemoryRepository) SaveLocation(_ context.Context, username string, loc models.SavedLocation, now time.Time) (models.UserProfile, error) {
	t, err := m.update(username, now, true, func(p *models.UserProfile) { applySaveLocation(p, loc) })
	return t.After, err
}

func (m *MemoryRepository) RemoveSavedLocation(_ context.Context, username, locationID string, now time.Time) (models.UserProfile, error) {
	t, err := m.update(username, now, false, func(p *models.UserProfile) { applyRemoveLocation(p, locationID) })
	return t.After, err
}

func (m *MemoryRepository) update(username string, now time.Time, create bool, apply func(*models.UserProfile)) (Transition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[username]; !ok && !create {
		return Transition{}, utils.ErrNotFound
	}
	before := m.load(username, now)
	after := before.Clone()
	apply(&after)
	after.UpdatedAt = now
	m.users[username] = after
	return Transition{Before: before.Clone(), After: after.Clone()}, nil
}

// load returns the stored profile, creating it if needed. Callers hold mu.
func (m *MemoryRepository) load(username string, now time.Time) models.UserProfile {
	p, ok := m.users[username]
	if !ok {
		p = models.NewUserProfile(username, now)
		m.users[username] = p
	}
	return p
}
