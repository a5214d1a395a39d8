package routes

import (
	"github.com/julienschmidt/httprouter"

	"tastemap/activity"
	"tastemap/auth"
	"tastemap/comments"
	"tastemap/geocode"
	"tastemap/ratelim"
	"tastemap/restaurants"
	"tastemap/userdata"
)

// Handlers bundles every feature's HTTP handler.
type Handlers struct {
	Restaurants *restaurants.Handler
	Users       *userdata.Handler
	Social      *activity.Handler
	Comments    *comments.Handler
	Geocode     *geocode.Handler
	Auth        *auth.Handler
}

func RoutesWrapper(router *httprouter.Router, h Handlers, rateLimiter *ratelim.RateLimiter) {
	AddRestaurantRoutes(router, h.Restaurants, rateLimiter)
	AddUserRoutes(router, h.Users, rateLimiter)
	AddSocialRoutes(router, h.Social, rateLimiter)
	AddCommentsRoutes(router, h.Comments, rateLimiter)
	AddGeocodeRoutes(router, h.Geocode, rateLimiter)
	AddAuthRoutes(router, h.Auth, rateLimiter)
}
