package restaurants

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"

	"tastemap/models"
)

func newTestRouter(t *testing.T) (*httprouter.Router, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	store.Upsert(context.Background(), observed("n1", "Cafe X", -33.8, 151.2), time.Now())

	h := NewHandler(NewService(store, nil, false))
	router := httprouter.New()
	router.GET("/api/restaurants/:id", h.GetRestaurant)
	return router, store
}

func TestHandlerSearchAndGet(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/restaurants/search?lat=-33.8&lng=151.2&radius=1000", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("search status %d: %s", rec.Code, rec.Body)
	}
	var body struct {
		Success bool `json:"success"`
		Count   int  `json:"count"`
		Data    []struct {
			ID      string  `json:"id"`
			Lat     float64 `json:"lat"`
			Cuisine string  `json:"cuisine"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Success || body.Count != 1 || body.Data[0].ID != "n1" || body.Data[0].Lat != -33.8 {
		t.Fatalf("unexpected body %+v", body)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/restaurants/n1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("get status %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/restaurants/missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestHandlerSearchValidation(t *testing.T) {
	router, _ := newTestRouter(t)

	for _, target := range []string{
		"/api/restaurants/search?lng=151.2",
		"/api/restaurants/search?lat=abc&lng=151.2",
		"/api/restaurants/search?lat=1&lng=1&radius=0",
		"/api/restaurants/search?lat=1&lng=1&radius=60000",
	} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", target, rec.Code)
		}
	}
}

type deadlineSource struct {
	deadline time.Time
	ok       bool
}

func (s *deadlineSource) FetchNearby(ctx context.Context, _ models.Point, _ int) ([]models.ObservedRestaurant, error) {
	s.deadline, s.ok = ctx.Deadline()
	return nil, nil
}

func TestHandlerSearchBoundsUpstreamCall(t *testing.T) {
	src := &deadlineSource{}
	h := NewHandler(NewService(NewMemoryStore(), src, false))
	router := httprouter.New()
	router.GET("/api/restaurants/:id", h.GetRestaurant)

	start := time.Now()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/restaurants/search?lat=10&lng=10", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("search status %d: %s", rec.Code, rec.Body)
	}
	if !src.ok || src.deadline.Sub(start) > SearchTimeout+time.Second {
		t.Fatalf("upstream call ran without a bounded deadline: %v %v", src.deadline, src.ok)
	}
}
