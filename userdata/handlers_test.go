package userdata

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/julienschmidt/httprouter"
)

func newTestRouter() (*httprouter.Router, *recordingFeed) {
	l, feed, _ := newTestLedger()
	h := NewHandler(l)
	router := httprouter.New()
	router.GET("/api/users", h.ListUsers)
	router.GET("/api/users/:username", h.GetUser)
	router.POST("/api/users/:username/visited/:restaurantId", h.Visited)
	router.POST("/api/users/:username/interested/:restaurantId", h.Interested)
	router.POST("/api/users/:username/not-interested/:restaurantId", h.NotInterested)
	router.POST("/api/users/:username/locations", h.SaveLocation)
	router.DELETE("/api/users/:username/locations/:locationId", h.RemoveLocation)
	return router, feed
}

func do(router http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestVisitedEndpoint(t *testing.T) {
	router, feed := newTestRouter()

	rec := do(router, http.MethodPost, "/api/users/alice/visited/n1", `{"restaurantName":"Cafe X"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body)
	}
	var body struct {
		Success bool `json:"success"`
		Visited bool `json:"visited"`
	}
	json.NewDecoder(rec.Body).Decode(&body)
	if !body.Success || !body.Visited || len(feed.entries) != 1 {
		t.Fatalf("unexpected response %+v feed=%d", body, len(feed.entries))
	}

	rec = do(router, http.MethodPost, "/api/users/alice/visited/n1", "")
	json.NewDecoder(rec.Body).Decode(&body)
	if body.Visited {
		t.Fatal("second call should toggle off")
	}

	if rec := do(router, http.MethodPost, "/api/users/alice/visited/n1", `{"action":"flip"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad action, got %d", rec.Code)
	}
	if rec := do(router, http.MethodPost, "/api/users/alice/visited/n1", `{bad json`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad json, got %d", rec.Code)
	}
}

func TestInterestEndpoints(t *testing.T) {
	router, _ := newTestRouter()

	do(router, http.MethodPost, "/api/users/bob/not-interested/n1", "")
	rec := do(router, http.MethodPost, "/api/users/bob/interested/n1", `{"action":"add"}`)
	var body struct {
		Interested bool `json:"interested"`
		Data       struct {
			NotInterested []string `json:"notInterestedRestaurants"`
		} `json:"data"`
	}
	json.NewDecoder(rec.Body).Decode(&body)
	if !body.Interested || len(body.Data.NotInterested) != 0 {
		t.Fatalf("unexpected response %+v", body)
	}
}

func TestLocationEndpoints(t *testing.T) {
	router, _ := newTestRouter()

	rec := do(router, http.MethodPost, "/api/users/carol/locations", `{"name":"Home","coordinates":[-33.8,151.2]}`)
	var body struct {
		SavedLocations []struct {
			ID   string `json:"_id"`
			Name string `json:"name"`
		} `json:"savedLocations"`
	}
	json.NewDecoder(rec.Body).Decode(&body)
	if rec.Code != http.StatusOK || len(body.SavedLocations) != 1 || body.SavedLocations[0].ID == "" {
		t.Fatalf("save: %d %+v", rec.Code, body)
	}

	rec = do(router, http.MethodDelete, "/api/users/carol/locations/"+body.SavedLocations[0].ID, "")
	json.NewDecoder(rec.Body).Decode(&body)
	if rec.Code != http.StatusOK || len(body.SavedLocations) != 0 {
		t.Fatalf("remove: %d %+v", rec.Code, body)
	}

	if rec := do(router, http.MethodDelete, "/api/users/nobody/locations/x", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestUsersEndpoints(t *testing.T) {
	router, _ := newTestRouter()

	if rec := do(router, http.MethodGet, "/api/users/x", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for short username, got %d", rec.Code)
	}
	do(router, http.MethodGet, "/api/users/dave", "")
	rec := do(router, http.MethodGet, "/api/users", "")
	var body struct {
		Data []string `json:"data"`
	}
	json.NewDecoder(rec.Body).Decode(&body)
	if len(body.Data) != 1 || body.Data[0] != "dave" {
		t.Fatalf("unexpected users %+v", body.Data)
	}
}
