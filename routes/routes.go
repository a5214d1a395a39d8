package routes

import (
	"github.com/julienschmidt/httprouter"

	"tastemap/activity"
	"tastemap/auth"
	"tastemap/comments"
	"tastemap/geocode"
	"tastemap/middleware"
	"tastemap/ratelim"
	"tastemap/restaurants"
	"tastemap/userdata"
)

// GET /api/restaurants/search is served by the :id route; see restaurants.Handler.GetRestaurant.
func AddRestaurantRoutes(router *httprouter.Router, h *restaurants.Handler, rateLimiter *ratelim.RateLimiter) {
	router.GET("/api/restaurants/:id", rateLimiter.Limit(h.GetRestaurant))
}

func AddUserRoutes(router *httprouter.Router, h *userdata.Handler, rateLimiter *ratelim.RateLimiter) {
	router.GET("/api/users", rateLimiter.Limit(h.ListUsers))
	router.GET("/api/users/:username", rateLimiter.Limit(h.GetUser))
	router.POST("/api/users/:username/visited/:restaurantId", rateLimiter.Limit(h.Visited))
	router.POST("/api/users/:username/interested/:restaurantId", rateLimiter.Limit(h.Interested))
	router.POST("/api/users/:username/not-interested/:restaurantId", rateLimiter.Limit(h.NotInterested))
	router.POST("/api/users/:username/locations", rateLimiter.Limit(h.SaveLocation))
	router.DELETE("/api/users/:username/locations/:locationId", rateLimiter.Limit(h.RemoveLocation))
}

func AddSocialRoutes(router *httprouter.Router, h *activity.Handler, rateLimiter *ratelim.RateLimiter) {
	router.GET("/api/social", rateLimiter.Limit(h.GetFeed))
	router.GET("/api/social/user/:username", rateLimiter.Limit(h.GetUserFeed))
	router.POST("/api/social", rateLimiter.Limit(h.AddEntry))
	router.DELETE("/api/social/:id", rateLimiter.Limit(h.DeleteEntry))
	router.DELETE("/api/social", rateLimiter.Limit(middleware.AdminOnly(h.ClearFeed)))
}

func AddCommentsRoutes(router *httprouter.Router, h *comments.Handler, rateLimiter *ratelim.RateLimiter) {
	router.GET("/api/comments/restaurant/:restaurantId", rateLimiter.Limit(h.GetRestaurantComments))
	router.GET("/api/comments/user/:username", rateLimiter.Limit(h.GetUserComments))
	router.GET("/api/comments/stats/:restaurantId", rateLimiter.Limit(h.GetStats))
	router.POST("/api/comments", rateLimiter.Limit(h.CreateComment))
	router.PUT("/api/comments/:commentId", rateLimiter.Limit(h.UpdateComment))
	router.DELETE("/api/comments/:commentId", rateLimiter.Limit(h.DeleteComment))
}

func AddGeocodeRoutes(router *httprouter.Router, h *geocode.Handler, rateLimiter *ratelim.RateLimiter) {
	router.GET("/api/geocode", rateLimiter.Limit(h.Search))
	router.GET("/api/geocode/reverse", rateLimiter.Limit(h.Reverse))
}

func AddAuthRoutes(router *httprouter.Router, h *auth.Handler, rateLimiter *ratelim.RateLimiter) {
	router.POST("/api/auth/login", rateLimiter.Limit(h.Login))
}
