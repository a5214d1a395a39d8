package comments

import (
	"context"
	"sort"
	"sync"

	"tastemap/models"
	"tastemap/utils"
)

// Filter selects comments by restaurant or by author.
type Filter struct {
	RestaurantID string
	Username     string
}

func (f Filter) match(c models.Comment) bool {
	return (f.RestaurantID == "" || c.RestaurantID == f.RestaurantID) &&
		(f.Username == "" || c.Username == f.Username)
}

// RatingSummary is the raw aggregate a Store computes; the service rounds it.
type RatingSummary struct {
	Total        int64    `bson:"total"`
	RatingsCount int64    `bson:"ratingsCount"`
	Average      *float64 `bson:"average"`
}

type Store interface {
	Insert(ctx context.Context, c models.Comment) error
	// Get returns utils.ErrNotFound for unknown ids.
	Get(ctx context.Context, id string) (models.Comment, error)
	Update(ctx context.Context, c models.Comment) error
	Delete(ctx context.Context, id string) error
	// List returns one page, newest first, plus the total number of matches.
	List(ctx context.Context, f Filter, limit, offset int) ([]models.Comment, int64, error)
	Summarize(ctx context.Context, restaurantID string) (RatingSummary, error)
}

type MemoryStore struct {
	mu       sync.RWMutex
	comments map[string]models.Comment
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{comments: make(map[string]models.Comment)}
}

func (s *MemoryStore) Insert(_ context.Context, c models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.comments[c.ID] = c
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.comments[id]
	if !ok {
		return models.Comment{}, utils.ErrNotFound
	}
	return c, nil
}

func (s *MemoryStore) Update(_ context.Context, c models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.comments[c.ID]; !ok {
		return utils.ErrNotFound
	}
	s.comments[c.ID] = c
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.comments[id]; !ok {
		return utils.ErrNotFound
	}
	delete(s.comments, id)
	return nil
}

func (s *MemoryStore) List(_ context.Context, f Filter, limit, offset int) ([]models.Comment, int64, error) {
	s.mu.RLock()
	var matched []models.Comment
	for _, c := range s.comments {
		if f.match(c) {
			matched = append(matched, c)
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	start, end := utils.Page{Limit: limit, Offset: offset}.Window(len(matched))
	page := append([]models.Comment{}, matched[start:end]...)
	return page, int64(len(matched)), nil
}

func (s *MemoryStore) Summarize(_ context.Context, restaurantID string) (RatingSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sum RatingSummary
	total := 0
	for _, c := range s.comments {
		if c.RestaurantID != restaurantID {
			continue
		}
		sum.Total++
		if c.Rating != nil {
			sum.RatingsCount++
			total += *c.Rating
		}
	}
	if sum.RatingsCount > 0 {
		avg := float64(total) / float64(sum.RatingsCount)
		sum.Average = &avg
	}
	return sum, nil
}
