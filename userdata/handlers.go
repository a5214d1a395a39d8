package userdata

import (
	"context"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"tastemap/models"
	"tastemap/utils"
)

type Handler struct {
	Ledger *Ledger
}

func NewHandler(l *Ledger) *Handler {
	return &Handler{Ledger: l}
}

type interactionRequest struct {
	RestaurantName string                     `json:"restaurantName"`
	RestaurantData *models.ObservedRestaurant `json:"restaurantData"`
	Action         string                     `json:"action"`
}

type saveLocationRequest struct {
	Name        string    `json:"name"`
	Coordinates []float64 `json:"coordinates"`
}

// ListUsers returns every known username.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	names, err := h.Ledger.ListUsernames(ctx)
	if err != nil {
		utils.RespondWithErr(w, err)
		return
	}
	utils.RespondWithSuccess(w, http.StatusOK, utils.M{"data": names})
}

// GetUser returns the profile, creating it on first access.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	p, err := h.Ledger.Profile(ctx, ps.ByName("username"))
	if err != nil {
		utils.RespondWithErr(w, err)
		return
	}
	utils.RespondWithSuccess(w, http.StatusOK, utils.M{"data": p})
}

func (h *Handler) Visited(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var req interactionRequest
	mode, err := decodeInteraction(r, &req)
	if err != nil {
		utils.RespondWithErr(w, err)
		return
	}

	rid := ps.ByName("restaurantId")
	t, err := h.Ledger.RecordVisited(ctx, ps.ByName("username"), rid, Interaction{
		RestaurantName: req.RestaurantName,
		RestaurantData: req.RestaurantData,
		Mode:           mode,
	})
	if err != nil {
		utils.RespondWithErr(w, err)
		return
	}
	utils.RespondWithSuccess(w, http.StatusOK, utils.M{"visited": t.After.HasVisited(rid), "data": t.After})
}

func (h *Handler) Interested(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.interest(w, r, ps, models.InterestInterested, "interested")
}

func (h *Handler) NotInterested(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.interest(w, r, ps, models.InterestNotInterested, "notInterested")
}

func (h *Handler) interest(w http.ResponseWriter, r *http.Request, ps httprouter.Params, want models.InterestState, key string) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var req interactionRequest
	mode, err := decodeInteraction(r, &req)
	if err != nil {
		utils.RespondWithErr(w, err)
		return
	}

	rid := ps.ByName("restaurantId")
	t, err := h.Ledger.RecordInterest(ctx, ps.ByName("username"), rid, InterestChange{Want: want, Mode: mode}, req.RestaurantData)
	if err != nil {
		utils.RespondWithErr(w, err)
		return
	}
	utils.RespondWithSuccess(w, http.StatusOK, utils.M{key: t.After.InterestIn(rid) == want, "data": t.After})
}

func (h *Handler) SaveLocation(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var req saveLocationRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondWithErr(w, err)
		return
	}
	p, err := h.Ledger.SaveLocation(ctx, ps.ByName("username"), req.Name, req.Coordinates)
	if err != nil {
		utils.RespondWithErr(w, err)
		return
	}
	utils.RespondWithSuccess(w, http.StatusOK, utils.M{"savedLocations": p.SavedLocations})
}

func (h *Handler) RemoveLocation(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	p, err := h.Ledger.RemoveSavedLocation(ctx, ps.ByName("username"), ps.ByName("locationId"))
	if err != nil {
		utils.RespondWithErr(w, err)
		return
	}
	utils.RespondWithSuccess(w, http.StatusOK, utils.M{"savedLocations": p.SavedLocations})
}

func decodeInteraction(r *http.Request, req *interactionRequest) (Mode, error) {
	if err := utils.DecodeJSON(r, req); err != nil {
		return "", err
	}
	return ParseMode(req.Action)
}
