package geocode

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/julienschmidt/httprouter"

	"tastemap/models"
	"tastemap/utils"
)

type Handler struct {
	Client *Client
}

func NewHandler(c *Client) *Handler {
	return &Handler{Client: c}
}

// Search serves GET /api/geocode?q=.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	place, err := h.Client.Search(ctx, r.URL.Query().Get("q"))
	if err != nil {
		utils.RespondWithErr(w, err)
		return
	}
	utils.RespondWithSuccess(w, http.StatusOK, utils.M{"data": place})
}

// Reverse serves GET /api/geocode/reverse?lat&lng.
func (h *Handler) Reverse(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	lat, errLat := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lng, errLng := strconv.ParseFloat(r.URL.Query().Get("lng"), 64)
	if errLat != nil || errLng != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Latitude and longitude are required")
		return
	}

	addr, err := h.Client.Reverse(ctx, models.Point{Lat: lat, Lng: lng})
	if err != nil {
		utils.RespondWithErr(w, err)
		return
	}
	utils.RespondWithSuccess(w, http.StatusOK, utils.M{"data": addr})
}
