package restaurants

import (
	"context"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"

	"tastemap/models"
	"tastemap/utils"
)

type cellEntry struct {
	cell s2.CellID
	id   string
}

// MemoryStore keeps restaurants in process. Radius queries scan an S2 leaf-cell index
// restricted to a covering of the search cap.
type MemoryStore struct {
	mu    sync.RWMutex
	byID  map[string]models.Restaurant
	cells []cellEntry // sorted by cell
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]models.Restaurant)}
}

func (s *MemoryStore) FindByExternalID(_ context.Context, id string) (models.Restaurant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.byID[id]
	if !ok {
		return models.Restaurant{}, utils.ErrNotFound
	}
	return r, nil
}

func (s *MemoryStore) FindNear(_ context.Context, center models.Point, radiusMeters float64, cuisine string) ([]models.Restaurant, error) {
	if radiusMeters <= 0 {
		return []models.Restaurant{}, nil
	}
	origin := latLng(center)
	region := s2.CapFromCenterAngle(s2.PointFromLatLng(origin), s1.Angle(radiusMeters/earthRadiusMeters))
	coverer := &s2.RegionCoverer{MaxLevel: 30, MaxCells: 16}
	covering := coverer.Covering(region)

	type hit struct {
		r    models.Restaurant
		dist float64
	}
	var hits []hit

	s.mu.RLock()
	for _, c := range covering {
		lo, hi := c.RangeMin(), c.RangeMax()
		i := sort.Search(len(s.cells), func(i int) bool { return s.cells[i].cell >= lo })
		for ; i < len(s.cells) && s.cells[i].cell <= hi; i++ {
			r := s.byID[s.cells[i].id]
			d := DistanceMeters(center, r.Point())
			if d > radiusMeters {
				continue
			}
			if cuisineFilterActive(cuisine) && !utils.ContainsIgnoreCase(r.Cuisine, cuisine) {
				continue
			}
			hits = append(hits, hit{r, d})
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].dist < hits[j].dist })
	if len(hits) > MaxResults {
		hits = hits[:MaxResults]
	}
	out := make([]models.Restaurant, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.r)
	}
	return out, nil
}

func (s *MemoryStore) Upsert(_ context.Context, obs models.ObservedRestaurant, now time.Time) (UpsertResult, error) {
	id := obs.ExternalID()
	if id == "" {
		return UpsertResult{}, utils.Validation("Restaurant data or ID is missing")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.byID[id]
	if !ok {
		r, err := NewFromObservation(obs, now)
		if err != nil {
			return UpsertResult{}, err
		}
		s.byID[id] = r
		s.index(id, r.Point())
		log.Printf("Saved new restaurant: %s (ID: %s)", r.Name, id)
		return UpsertResult{Restaurant: r, Created: true, Changes: Changes{}}, nil
	}

	merged, changes := Merge(existing, obs)
	if changes.Empty() {
		return UpsertResult{Restaurant: existing, Changes: changes}, nil
	}
	merged.LastObservedAt = now
	merged.Version = existing.Version + 1
	s.byID[id] = merged
	log.Printf("Updated restaurant: %s (ID: %s) fields=%s", merged.Name, id, strings.Join(changes.Fields(), ","))
	return UpsertResult{Restaurant: merged, Changes: changes}, nil
}

func (s *MemoryStore) index(id string, p models.Point) {
	cell := s2.CellIDFromLatLng(latLng(p))
	i := sort.Search(len(s.cells), func(i int) bool { return s.cells[i].cell >= cell })
	s.cells = append(s.cells, cellEntry{})
	copy(s.cells[i+1:], s.cells[i:])
	s.cells[i] = cellEntry{cell: cell, id: id}
}

// Len reports how many restaurants are stored.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}
