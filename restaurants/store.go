package restaurants

import (
	"context"
	"time"

	"github.com/golang/geo/s2"

	"tastemap/models"
)

const (
	// MaxResults caps every radius query.
	MaxResults = 500

	earthRadiusMeters = 6371008.8
)

// Store is the keyed collection of restaurant records.
type Store interface {
	FindByExternalID(ctx context.Context, id string) (models.Restaurant, error)
	// FindNear returns records within radiusMeters of center ordered by distance, optionally
	// filtered by a case-insensitive cuisine substring.
	FindNear(ctx context.Context, center models.Point, radiusMeters float64, cuisine string) ([]models.Restaurant, error)
	// Upsert inserts an unseen id or merges obs into the stored record, atomically per id.
	Upsert(ctx context.Context, obs models.ObservedRestaurant, now time.Time) (UpsertResult, error)
}

type UpsertResult struct {
	Restaurant models.Restaurant
	Created    bool
	Changes    Changes
}

// Written reports whether the upsert touched the store.
func (r UpsertResult) Written() bool {
	return r.Created || !r.Changes.Empty()
}

func cuisineFilterActive(cuisine string) bool {
	return cuisine != "" && cuisine != "all"
}

// DistanceMeters is the great-circle distance between a and b.
func DistanceMeters(a, b models.Point) float64 {
	return latLng(a).Distance(latLng(b)).Radians() * earthRadiusMeters
}

func latLng(p models.Point) s2.LatLng {
	return s2.LatLngFromDegrees(p.Lat, p.Lng)
}
