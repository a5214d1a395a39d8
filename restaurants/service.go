package restaurants

import (
	"context"
	"errors"
	"log"
	"math"
	"sort"

	"tastemap/models"
	"tastemap/overpass"
	"tastemap/utils"
)

const (
	DefaultRadius = 5000
	MaxRadius     = 50000
)

// Source fetches nearby restaurants from the upstream geodata service.
type Source interface {
	FetchNearby(ctx context.Context, center models.Point, radiusMeters int) ([]models.ObservedRestaurant, error)
}

type SearchQuery struct {
	Center  models.Point
	Radius  int
	Cuisine string
}

// Validate applies the radius default and checks ranges.
func (q *SearchQuery) Validate() error {
	if math.IsNaN(q.Center.Lat) || q.Center.Lat < -90 || q.Center.Lat > 90 {
		return utils.Validation("Latitude must be between -90 and 90")
	}
	if math.IsNaN(q.Center.Lng) || q.Center.Lng < -180 || q.Center.Lng > 180 {
		return utils.Validation("Longitude must be between -180 and 180")
	}
	if q.Radius == 0 {
		q.Radius = DefaultRadius
	}
	if q.Radius < 1 || q.Radius > MaxRadius {
		return utils.Validation("Radius must be between 1 and 50000 meters")
	}
	return nil
}

type SearchResult struct {
	Restaurants []models.Restaurant
	// Source is "store" when the store answered directly, "overpass" after a fetch and
	// "fallback" when degraded samples are served.
	Source   string
	Degraded bool
}

type Service struct {
	Store      Store
	Reconciler *Reconciler
	Source     Source
	// DegradedFallback serves the fixed sample set instead of failing when Source errors.
	DegradedFallback bool
}

func NewService(store Store, source Source, degraded bool) *Service {
	return &Service{
		Store:            store,
		Reconciler:       NewReconciler(store),
		Source:           source,
		DegradedFallback: degraded,
	}
}

func (s *Service) Get(ctx context.Context, id string) (models.Restaurant, error) {
	r, err := s.Store.FindByExternalID(ctx, id)
	if errors.Is(err, utils.ErrNotFound) {
		return models.Restaurant{}, utils.NotFound("Restaurant not found")
	}
	return r, err
}

// Search answers from the store, populating it from the source on an empty result.
func (s *Service) Search(ctx context.Context, q SearchQuery) (SearchResult, error) {
	if err := q.Validate(); err != nil {
		return SearchResult{}, err
	}
	radius := float64(q.Radius)

	found, err := s.Store.FindNear(ctx, q.Center, radius, q.Cuisine)
	if err != nil {
		return SearchResult{}, err
	}
	if len(found) > 0 || s.Source == nil {
		return SearchResult{Restaurants: found, Source: "store"}, nil
	}

	observed, err := s.Source.FetchNearby(ctx, q.Center, q.Radius)
	if err != nil {
		if !s.DegradedFallback {
			return SearchResult{}, utils.Upstream("Failed to fetch restaurants", err)
		}
		log.Printf("overpass unavailable, serving fallback restaurants: %v", err)
		return SearchResult{Restaurants: s.fallback(q), Source: "fallback", Degraded: true}, nil
	}

	written := 0
	for _, obs := range observed {
		res, err := s.Reconciler.ReconcileResult(ctx, obs)
		if err != nil {
			log.Printf("skipping restaurant %q: %v", obs.ExternalID(), err)
			continue
		}
		if res.Written() {
			written++
		}
	}
	log.Printf("fetched %d restaurants near %.4f,%.4f (%d written)", len(observed), q.Center.Lat, q.Center.Lng, written)

	found, err = s.Store.FindNear(ctx, q.Center, radius, q.Cuisine)
	if err != nil {
		return SearchResult{}, err
	}
	return SearchResult{Restaurants: found, Source: "overpass"}, nil
}

// fallback builds the sample records around the search center in memory; they are never
// persisted and obey the same radius and cuisine rules as FindNear.
func (s *Service) fallback(q SearchQuery) []models.Restaurant {
	out := []models.Restaurant{}
	for _, obs := range overpass.SampleRestaurants(q.Center) {
		r, err := NewFromObservation(obs, s.Reconciler.Now().UTC())
		if err != nil {
			continue
		}
		if DistanceMeters(q.Center, r.Point()) > float64(q.Radius) {
			continue
		}
		if cuisineFilterActive(q.Cuisine) && !utils.ContainsIgnoreCase(r.Cuisine, q.Cuisine) {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return DistanceMeters(q.Center, out[i].Point()) < DistanceMeters(q.Center, out[j].Point())
	})
	return out
}
