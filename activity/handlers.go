package activity

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"tastemap/middleware"
	"tastemap/models"
	"tastemap/utils"
)

type Handler struct {
	Feed *Feed
}

func NewHandler(f *Feed) *Handler {
	return &Handler{Feed: f}
}

// GetFeed lists the newest entries across all users.
func (h *Handler) GetFeed(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	entries, err := h.Feed.ListRecent(ctx, utils.ParsePage(r, DefaultListLimit))
	if err != nil {
		utils.RespondWithErr(w, err)
		return
	}
	utils.RespondWithSuccess(w, http.StatusOK, utils.M{"count": len(entries), "data": entries})
}

func (h *Handler) GetUserFeed(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	entries, err := h.Feed.ListRecentForUser(ctx, ps.ByName("username"), utils.ParsePage(r, DefaultUserListLimit))
	if err != nil {
		utils.RespondWithErr(w, err)
		return
	}
	utils.RespondWithSuccess(w, http.StatusOK, utils.M{"count": len(entries), "data": entries})
}

// AddEntry records a manual feed entry.
func (h *Handler) AddEntry(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var req models.ActivityEntry
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondWithErr(w, err)
		return
	}
	e, err := h.Feed.Append(ctx, req)
	if err != nil {
		utils.RespondWithErr(w, err)
		return
	}
	utils.RespondWithSuccess(w, http.StatusCreated, utils.M{"data": e})
}

func (h *Handler) DeleteEntry(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Feed.DeleteOne(ctx, ps.ByName("id")); err != nil {
		utils.RespondWithErr(w, err)
		return
	}
	utils.RespondWithSuccess(w, http.StatusOK, utils.M{"message": "Feed entry deleted"})
}

// ClearFeed deletes every entry. Mounted behind admin authentication.
func (h *Handler) ClearFeed(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	n, err := h.Feed.ClearAll(ctx)
	if err != nil {
		utils.RespondWithErr(w, err)
		return
	}
	log.Printf("social feed cleared by %s (%d entries)", middleware.UsernameFromRequest(r), n)
	utils.RespondWithSuccess(w, http.StatusOK, utils.M{"message": "Social feed cleared", "deletedCount": n})
}
