package overpass

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang/geo/s2"

	"tastemap/models"
)

const sampleResponse = `{
  "elements": [
    {"type": "node", "id": 101, "lat": -33.80, "lon": 151.28,
     "tags": {"amenity": "restaurant", "name": "Cafe X", "cuisine": "thai;fast_food",
              "addr:housenumber": "12", "addr:street": "Main St", "phone": "+61 2 0000"}},
    {"type": "way", "id": 202, "center": {"lat": -33.81, "lon": 151.29},
     "tags": {"amenity": "fast_food", "brand": "Burger Co", "addr:suburb": "Manly"}},
    {"type": "node", "id": 303, "lat": -33.82, "lon": 151.30,
     "tags": {"amenity": "ice_cream"}},
    {"type": "relation", "id": 404, "tags": {"amenity": "pub", "name": "No Geometry"}}
  ]
}`

type memCache struct {
	mu   sync.Mutex
	data map[string]string
}

func (m *memCache) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memCache) SetWithExpiry(_ context.Context, key, value string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func TestFetchNearbyNormalizes(t *testing.T) {
	queries := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		queries <- string(body)
		w.Write([]byte(sampleResponse))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	got, err := c.FetchNearby(context.Background(), models.Point{Lat: -33.8, Lng: 151.28}, 2000)
	if err != nil {
		t.Fatalf("FetchNearby: %v", err)
	}

	gotQuery := <-queries
	if !strings.Contains(gotQuery, "[out:json][timeout:5]") || !strings.Contains(gotQuery, "around:2000,") {
		t.Fatalf("unexpected query:\n%s", gotQuery)
	}
	if !strings.Contains(gotQuery, "restaurant|cafe|fast_food|bar|pub|nightclub") {
		t.Fatalf("query does not select every amenity:\n%s", gotQuery)
	}

	if len(got) != 3 {
		t.Fatalf("expected 3 restaurants (element without coordinates dropped), got %d", len(got))
	}

	first := got[0]
	if first.ExternalID() != "node:101" || first.Name != "Cafe X" {
		t.Fatalf("unexpected first record %+v", first)
	}
	if first.Cuisine != "Thai, Fast Food" {
		t.Fatalf("unexpected cuisine %q", first.Cuisine)
	}
	if first.Address != "12 Main St" {
		t.Fatalf("unexpected address %q", first.Address)
	}
	if first.Type != "Restaurant" || first.OpeningHours != models.NotAvailable {
		t.Fatalf("unexpected type/hours %q %q", first.Type, first.OpeningHours)
	}

	second := got[1]
	if second.Name != "Burger Co" || second.Address != "Manly" || second.Type != "Fast Food" {
		t.Fatalf("unexpected second record %+v", second)
	}
	if p, ok := second.Point(); !ok || p.Lat != -33.81 {
		t.Fatalf("center coordinates not used: %+v", p)
	}
	if second.Cuisine != models.DefaultCuisine {
		t.Fatalf("expected default cuisine, got %q", second.Cuisine)
	}

	third := got[2]
	if third.Name != "Ice_cream (Unnamed)" {
		t.Fatalf("unexpected fallback name %q", third.Name)
	}
	if third.Address != "-33.8200, 151.3000" {
		t.Fatalf("expected coordinate address, got %q", third.Address)
	}
}

func TestFetchNearbyNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "busy", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second).FetchNearby(context.Background(), models.Point{}, 100)
	var fe *FetchError
	if !errors.As(err, &fe) || fe.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected FetchError with 429, got %v", err)
	}
}

func TestFetchNearbyBadBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>"))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second).FetchNearby(context.Background(), models.Point{}, 100)
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FetchError, got %v", err)
	}
}

func TestFetchNearbyUsesCache(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(sampleResponse))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	c.Cache = &memCache{data: map[string]string{}}
	c.CacheTTL = time.Minute

	at := models.Point{Lat: -33.8, Lng: 151.28}
	for i := 0; i < 2; i++ {
		got, err := c.FetchNearby(context.Background(), at, 1000)
		if err != nil || len(got) != 3 {
			t.Fatalf("call %d: %v (%d results)", i, err, len(got))
		}
	}
	if n := calls.Load(); n != 1 {
		t.Fatalf("expected a single upstream call, got %d", n)
	}
}

func TestFormatCuisine(t *testing.T) {
	cases := map[string]string{
		"":                    models.DefaultCuisine,
		"italian":             "Italian",
		" pizza ; ice_cream ": "Pizza, Ice Cream",
		"BBQ":                 "Bbq",
	}
	for in, want := range cases {
		if got := FormatCuisine(in); got != want {
			t.Fatalf("FormatCuisine(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestAddressFallbackChain(t *testing.T) {
	if got := address(map[string]string{"addr:full": "1 Full Rd", "addr:street": "Ignored"}, 0, 0); got != "1 Full Rd" {
		t.Fatalf("addr:full should win, got %q", got)
	}
	if got := address(map[string]string{"addr:street": "Main St"}, 0, 0); got != "Main St" {
		t.Fatalf("street only, got %q", got)
	}
	if got := address(map[string]string{"addr:city": "Sydney"}, 0, 0); got != "Sydney" {
		t.Fatalf("city fallback, got %q", got)
	}
}

func TestSampleRestaurantsSurroundCenter(t *testing.T) {
	centers := []models.Point{
		{Lat: -33.7975, Lng: 151.2878},
		{Lat: 51.5074, Lng: -0.1278},
		{Lat: 0, Lng: 179.999},
		{Lat: 89.9999, Lng: 0},
	}
	for _, c := range centers {
		for _, s := range SampleRestaurants(c) {
			p, ok := s.Point()
			if !ok || s.ExternalID() == "" {
				t.Fatalf("sample %+v lacks id or coordinates", s)
			}
			d := s2.LatLngFromDegrees(c.Lat, c.Lng).Distance(s2.LatLngFromDegrees(p.Lat, p.Lng)).Radians() * 6371008.8
			if d > 500 {
				t.Fatalf("sample %s is %.0f m from %+v", s.Name, d, c)
			}
		}
	}
}

func TestNodeAndWayWithSameIDStayDistinct(t *testing.T) {
	lat, lon := 1.0, 2.0
	node, ok := normalize(element{Type: "node", ID: 42, Lat: &lat, Lon: &lon, Tags: map[string]string{"amenity": "cafe", "name": "Corner Cafe"}})
	if !ok {
		t.Fatal("node dropped")
	}
	way, ok := normalize(element{Type: "way", ID: 42, Center: &center{Lat: 1, Lon: 2}, Tags: map[string]string{"amenity": "restaurant", "name": "Harbour Grill"}})
	if !ok {
		t.Fatal("way dropped")
	}
	if node.ExternalID() != "node:42" || way.ExternalID() != "way:42" {
		t.Fatalf("got %q and %q", node.ExternalID(), way.ExternalID())
	}
}
