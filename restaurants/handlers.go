package restaurants

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"

	"tastemap/models"
	"tastemap/utils"
)

// SearchTimeout bounds a search, including one upstream fetch and reconciling its results.
const SearchTimeout = 35 * time.Second

type Handler struct {
	Service *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Service: svc}
}

// GetRestaurant serves GET /api/restaurants/:id. httprouter cannot register the static
// "search" segment next to the wildcard, so it is dispatched here.
func (h *Handler) GetRestaurant(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	if id == "search" {
		h.Search(w, r, ps)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	rest, err := h.Service.Get(ctx, id)
	if err != nil {
		utils.RespondWithErr(w, err)
		return
	}
	utils.RespondWithSuccess(w, http.StatusOK, utils.M{"data": rest.View()})
}

// Search serves GET /api/restaurants/search?lat&lng&radius&cuisine.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	q, err := parseSearchQuery(r)
	if err != nil {
		utils.RespondWithErr(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), SearchTimeout)
	defer cancel()

	res, err := h.Service.Search(ctx, q)
	if err != nil {
		utils.RespondWithErr(w, err)
		return
	}
	utils.RespondWithSuccess(w, http.StatusOK, utils.M{
		"count":    len(res.Restaurants),
		"data":     models.Views(res.Restaurants),
		"source":   res.Source,
		"degraded": res.Degraded,
	})
}

func parseSearchQuery(r *http.Request) (SearchQuery, error) {
	v := r.URL.Query()
	latStr, lngStr := strings.TrimSpace(v.Get("lat")), strings.TrimSpace(v.Get("lng"))
	if latStr == "" || lngStr == "" {
		return SearchQuery{}, utils.Validation("Latitude and longitude are required")
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return SearchQuery{}, utils.Validation("Invalid latitude")
	}
	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil {
		return SearchQuery{}, utils.Validation("Invalid longitude")
	}

	q := SearchQuery{Center: models.Point{Lat: lat, Lng: lng}, Cuisine: strings.TrimSpace(v.Get("cuisine"))}
	if rs := strings.TrimSpace(v.Get("radius")); rs != "" {
		radius, err := strconv.Atoi(rs)
		if err != nil || radius < 1 {
			return SearchQuery{}, utils.Validation("Radius must be between 1 and 50000 meters")
		}
		q.Radius = radius
	}
	return q, nil
}
