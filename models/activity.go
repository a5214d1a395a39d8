package models

import "time"

type Action string

const (
	ActionVisited       Action = "visited"
	ActionInterested    Action = "interested"
	ActionNotInterested Action = "not_interested"
)

func (a Action) Valid() bool {
	switch a {
	case ActionVisited, ActionInterested, ActionNotInterested:
		return true
	}
	return false
}

type FeedLocation struct {
	Name        string    `json:"name" bson:"name"`
	Coordinates []float64 `json:"coordinates" bson:"coordinates"`
}

// ActivityEntry is one immutable line of the shared activity feed.
type ActivityEntry struct {
	ID             string        `json:"id" bson:"_id"`
	User           string        `json:"user" bson:"user"`
	RestaurantName string        `json:"restaurantName" bson:"restaurantName"`
	RestaurantID   string        `json:"restaurantId" bson:"restaurantId"`
	Action         Action        `json:"action" bson:"action"`
	Location       *FeedLocation `json:"location,omitempty" bson:"location,omitempty"`
	CreatedAt      time.Time     `json:"timestamp" bson:"createdAt"`
}
