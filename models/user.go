package models

import (
	"slices"
	"time"
)

const MaxSavedLocations = 10

// InterestState is the mutually exclusive interest marker a user holds for a restaurant.
type InterestState string

const (
	InterestNone          InterestState = "none"
	InterestInterested    InterestState = "interested"
	InterestNotInterested InterestState = "not_interested"
)

type SavedLocation struct {
	ID          string    `json:"_id" bson:"id"`
	Name        string    `json:"name" bson:"name"`
	Coordinates []float64 `json:"coordinates" bson:"coordinates"`
	SavedAt     time.Time `json:"savedAt" bson:"savedAt"`
}

type UserProfile struct {
	Username       string          `json:"username" bson:"username"`
	Visited        []string        `json:"visitedRestaurants" bson:"visited"`
	Interested     []string        `json:"interestedRestaurants" bson:"interested"`
	NotInterested  []string        `json:"notInterestedRestaurants" bson:"notInterested"`
	SavedLocations []SavedLocation `json:"savedLocations" bson:"savedLocations"`
	CreatedAt      time.Time       `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt" bson:"updatedAt"`
}

// NewUserProfile returns an empty profile with non-nil collections.
func NewUserProfile(username string, now time.Time) UserProfile {
	return UserProfile{
		Username:       username,
		Visited:        []string{},
		Interested:     []string{},
		NotInterested:  []string{},
		SavedLocations: []SavedLocation{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func (u UserProfile) HasVisited(restaurantID string) bool {
	return slices.Contains(u.Visited, restaurantID)
}

func (u UserProfile) InterestIn(restaurantID string) InterestState {
	switch {
	case slices.Contains(u.Interested, restaurantID):
		return InterestInterested
	case slices.Contains(u.NotInterested, restaurantID):
		return InterestNotInterested
	default:
		return InterestNone
	}
}

// Clone returns a deep copy so callers can mutate without aliasing stored slices.
func (u UserProfile) Clone() UserProfile {
	c := u
	c.Visited = append([]string{}, u.Visited...)
	c.Interested = append([]string{}, u.Interested...)
	c.NotInterested = append([]string{}, u.NotInterested...)
	c.SavedLocations = make([]SavedLocation, 0, len(u.SavedLocations))
	for _, l := range u.SavedLocations {
		l.Coordinates = append([]float64{}, l.Coordinates...)
		c.SavedLocations = append(c.SavedLocations, l)
	}
	return c
}
