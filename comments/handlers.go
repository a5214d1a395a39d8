package comments

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"tastemap/utils"
)

type Handler struct {
	Service *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Service: svc}
}

func (h *Handler) GetRestaurantComments(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	page, err := h.Service.ListForRestaurant(ctx, ps.ByName("restaurantId"), utils.ParsePage(r, DefaultPageLimit))
	respondPage(w, page, err)
}

func (h *Handler) GetUserComments(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	page, err := h.Service.ListForUser(ctx, ps.ByName("username"), utils.ParsePage(r, DefaultPageLimit))
	respondPage(w, page, err)
}

func respondPage(w http.ResponseWriter, page Page, err error) {
	if err != nil {
		utils.RespondWithErr(w, err)
		return
	}
	utils.RespondWithSuccess(w, http.StatusOK, utils.M{
		"data":    page.Comments,
		"total":   page.Total,
		"hasMore": page.HasMore,
	})
}

func (h *Handler) CreateComment(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var in CreateInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.RespondWithErr(w, err)
		return
	}
	c, err := h.Service.Create(ctx, in)
	if err != nil {
		utils.RespondWithErr(w, err)
		return
	}
	utils.RespondWithSuccess(w, http.StatusCreated, utils.M{"data": c})
}

// UpdateComment edits the author's own comment. A JSON null rating clears it; an absent
// rating leaves it unchanged.
func (h *Handler) UpdateComment(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var body struct {
		Username string          `json:"username"`
		Comment  *string         `json:"comment"`
		Rating   json.RawMessage `json:"rating"`
	}
	if err := utils.DecodeJSON(r, &body); err != nil {
		utils.RespondWithErr(w, err)
		return
	}
	in := UpdateInput{Username: body.Username, Comment: body.Comment}
	if len(body.Rating) > 0 {
		in.SetRating = true
		if err := json.Unmarshal(body.Rating, &in.Rating); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, "Rating must be between 1 and 5")
			return
		}
	}

	c, err := h.Service.Update(ctx, ps.ByName("commentId"), in)
	if err != nil {
		utils.RespondWithErr(w, err)
		return
	}
	utils.RespondWithSuccess(w, http.StatusOK, utils.M{"data": c})
}

// DeleteComment removes the author's own comment. The username comes from the body,
// or the query string for clients that cannot send a DELETE body.
func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var body struct {
		Username string `json:"username"`
	}
	if err := utils.DecodeJSON(r, &body); err != nil {
		utils.RespondWithErr(w, err)
		return
	}
	if body.Username == "" {
		body.Username = r.URL.Query().Get("username")
	}

	if err := h.Service.Delete(ctx, ps.ByName("commentId"), body.Username); err != nil {
		utils.RespondWithErr(w, err)
		return
	}
	utils.RespondWithSuccess(w, http.StatusOK, utils.M{"message": "Comment deleted successfully"})
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	stats, err := h.Service.Stats(ctx, ps.ByName("restaurantId"))
	if err != nil {
		utils.RespondWithErr(w, err)
		return
	}
	utils.RespondWithSuccess(w, http.StatusOK, utils.M{"data": stats})
}
