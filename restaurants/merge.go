package restaurants

import (
	"sort"
	"strings"
	"time"

	"tastemap/models"
	"tastemap/utils"
)

// Changes maps the bson field name of every merged field to its new value.
type Changes map[string]string

func (c Changes) Empty() bool { return len(c) == 0 }

// Fields lists the changed field names in a stable order.
func (c Changes) Fields() []string {
	fields := make([]string, 0, len(c))
	for f := range c {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

type mergeField struct {
	key         string
	observed    func(*models.ObservedRestaurant) string
	stored      func(*models.Restaurant) *string
	placeholder string
	fallback    string
}

// Placeholder values are treated like absent data so they never overwrite known values.
var mergeFields = []mergeField{
	{"name", func(o *models.ObservedRestaurant) string { return o.Name }, func(r *models.Restaurant) *string { return &r.Name }, models.DefaultName, models.DefaultName},
	{"type", func(o *models.ObservedRestaurant) string { return o.Type }, func(r *models.Restaurant) *string { return &r.Type }, "", models.DefaultType},
	{"cuisine", func(o *models.ObservedRestaurant) string { return o.Cuisine }, func(r *models.Restaurant) *string { return &r.Cuisine }, models.DefaultCuisine, models.DefaultCuisine},
	{"address", func(o *models.ObservedRestaurant) string { return o.Address }, func(r *models.Restaurant) *string { return &r.Address }, models.DefaultAddress, models.DefaultAddress},
	{"phone", func(o *models.ObservedRestaurant) string { return o.Phone }, func(r *models.Restaurant) *string { return &r.Phone }, "", ""},
	{"website", func(o *models.ObservedRestaurant) string { return o.Website }, func(r *models.Restaurant) *string { return &r.Website }, "", ""},
	{"opening_hours", func(o *models.ObservedRestaurant) string { return o.OpeningHours }, func(r *models.Restaurant) *string { return &r.OpeningHours }, "", ""},
	{"takeaway", func(o *models.ObservedRestaurant) string { return o.Takeaway }, func(r *models.Restaurant) *string { return &r.Takeaway }, "", ""},
	{"delivery", func(o *models.ObservedRestaurant) string { return o.Delivery }, func(r *models.Restaurant) *string { return &r.Delivery }, "", ""},
}

// present returns the cleaned observed value and whether it carries information.
func (f mergeField) present(obs *models.ObservedRestaurant) (string, bool) {
	v := strings.TrimSpace(f.observed(obs))
	if v == "" || strings.EqualFold(v, models.NotAvailable) {
		return "", false
	}
	if f.placeholder != "" && v == f.placeholder {
		return "", false
	}
	return v, true
}

// NewFromObservation builds the first stored version of a restaurant.
func NewFromObservation(obs models.ObservedRestaurant, now time.Time) (models.Restaurant, error) {
	id := obs.ExternalID()
	if id == "" {
		return models.Restaurant{}, utils.Validation("Restaurant data or ID is missing")
	}
	p, ok := obs.Point()
	if !ok {
		return models.Restaurant{}, utils.Validation("Restaurant coordinates are missing or invalid")
	}

	r := models.Restaurant{
		ExternalID:     id,
		Location:       p.GeoJSON(),
		LastObservedAt: now,
		CreatedAt:      now,
		Version:        1,
	}
	for _, f := range mergeFields {
		v, ok := f.present(&obs)
		if !ok {
			v = f.fallback
		}
		*f.stored(&r) = v
	}
	return r, nil
}

// Merge overlays obs onto stored. A field is replaced only when the observation carries a
// value for it that differs from the stored one; location is never touched.
func Merge(stored models.Restaurant, obs models.ObservedRestaurant) (models.Restaurant, Changes) {
	merged := stored
	changes := Changes{}
	for _, f := range mergeFields {
		v, ok := f.present(&obs)
		if !ok {
			continue
		}
		dst := f.stored(&merged)
		if *dst == v {
			continue
		}
		*dst = v
		changes[f.key] = v
	}
	return merged, changes
}
