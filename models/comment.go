package models

import "time"

type Comment struct {
	ID           string    `json:"_id" bson:"_id"`
	RestaurantID string    `json:"restaurantId" bson:"restaurantId"`
	Username     string    `json:"username" bson:"username"`
	Comment      string    `json:"comment" bson:"comment"`
	Rating       *int      `json:"rating" bson:"rating"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt" bson:"updatedAt"`
}

type CommentStats struct {
	TotalComments int64    `json:"totalComments" bson:"totalComments"`
	AverageRating *float64 `json:"averageRating" bson:"averageRating"`
	RatingsCount  int64    `json:"ratingsCount" bson:"ratingsCount"`
}
