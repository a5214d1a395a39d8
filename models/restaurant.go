package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"time"
)

// Point is a WGS84 coordinate pair.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (p Point) Valid() bool {
	return !math.IsNaN(p.Lat) && !math.IsNaN(p.Lng) &&
		p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// GeoJSON returns the point in the [lng, lat] order used by 2dsphere indexes.
func (p Point) GeoJSON() GeoJSONPoint {
	return GeoJSONPoint{Type: "Point", Coordinates: []float64{p.Lng, p.Lat}}
}

type GeoJSONPoint struct {
	Type        string    `json:"type" bson:"type"`
	Coordinates []float64 `json:"coordinates" bson:"coordinates"`
}

func (g GeoJSONPoint) Point() Point {
	if len(g.Coordinates) != 2 {
		return Point{}
	}
	return Point{Lat: g.Coordinates[1], Lng: g.Coordinates[0]}
}

// Defaults substituted when a restaurant is first stored without the field.
const (
	DefaultName    = "Unknown Restaurant"
	DefaultType    = "restaurant"
	DefaultCuisine = "Not specified"
	DefaultAddress = "Address not available"
	NotAvailable   = "N/A"
)

// Restaurant is a stored record keyed by the upstream geodata id.
type Restaurant struct {
	ExternalID     string       `json:"id" bson:"externalId"`
	Name           string       `json:"name" bson:"name"`
	Type           string       `json:"type" bson:"type"`
	Cuisine        string       `json:"cuisine" bson:"cuisine"`
	Address        string       `json:"address" bson:"address"`
	Phone          string       `json:"phone,omitempty" bson:"phone,omitempty"`
	Website        string       `json:"website,omitempty" bson:"website,omitempty"`
	OpeningHours   string       `json:"opening_hours,omitempty" bson:"opening_hours,omitempty"`
	Takeaway       string       `json:"takeaway,omitempty" bson:"takeaway,omitempty"`
	Delivery       string       `json:"delivery,omitempty" bson:"delivery,omitempty"`
	Location       GeoJSONPoint `json:"-" bson:"location"`
	LastObservedAt time.Time    `json:"lastUpdated" bson:"lastUpdated"`
	CreatedAt      time.Time    `json:"createdAt" bson:"createdAt"`
	Version        int64        `json:"-" bson:"version"`
}

// RestaurantView is the flat shape served to clients.
type RestaurantView struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Type         string    `json:"type"`
	Cuisine      string    `json:"cuisine"`
	Address      string    `json:"address"`
	Lat          float64   `json:"lat"`
	Lng          float64   `json:"lng"`
	Phone        *string   `json:"phone"`
	Website      *string   `json:"website"`
	OpeningHours *string   `json:"opening_hours"`
	Takeaway     *string   `json:"takeaway"`
	Delivery     *string   `json:"delivery"`
	LastUpdated  time.Time `json:"lastUpdated"`
}

func (r Restaurant) Point() Point { return r.Location.Point() }

// CuisineTags splits the stored cuisine text into its ordered tags.
func (r Restaurant) CuisineTags() []string {
	var tags []string
	for _, t := range strings.Split(r.Cuisine, ",") {
		t = strings.TrimSpace(t)
		if t == "" || t == DefaultCuisine {
			continue
		}
		tags = append(tags, t)
	}
	return tags
}

func (r Restaurant) View() RestaurantView {
	p := r.Point()
	return RestaurantView{
		ID:           r.ExternalID,
		Name:         r.Name,
		Type:         r.Type,
		Cuisine:      r.Cuisine,
		Address:      r.Address,
		Lat:          p.Lat,
		Lng:          p.Lng,
		Phone:        nullable(r.Phone),
		Website:      nullable(r.Website),
		OpeningHours: nullable(r.OpeningHours),
		Takeaway:     nullable(r.Takeaway),
		Delivery:     nullable(r.Delivery),
		LastUpdated:  r.LastObservedAt,
	}
}

func Views(rs []Restaurant) []RestaurantView {
	out := make([]RestaurantView, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.View())
	}
	return out
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// ObservedRestaurant is a snapshot seen by a client or fetched from the geodata source.
type ObservedRestaurant struct {
	ID           FlexibleID `json:"id"`
	Name         string     `json:"name"`
	Type         string     `json:"type"`
	Cuisine      string     `json:"cuisine"`
	Address      string     `json:"address"`
	Phone        string     `json:"phone"`
	Website      string     `json:"website"`
	OpeningHours string     `json:"opening_hours"`
	Takeaway     string     `json:"takeaway"`
	Delivery     string     `json:"delivery"`
	Lat          *float64   `json:"lat"`
	Lng          *float64   `json:"lng"`
}

func (o ObservedRestaurant) ExternalID() string {
	return strings.TrimSpace(string(o.ID))
}

// Point returns the observed coordinates, if both are present and in range.
func (o ObservedRestaurant) Point() (Point, bool) {
	if o.Lat == nil || o.Lng == nil {
		return Point{}, false
	}
	p := Point{Lat: *o.Lat, Lng: *o.Lng}
	return p, p.Valid()
}

// FlexibleID accepts an identifier encoded either as a JSON string or number.
type FlexibleID string

func (id *FlexibleID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = FlexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = FlexibleID(n.String())
	return nil
}
