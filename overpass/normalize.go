package overpass

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"tastemap/models"
)

// externalID namespaces the OSM id by element type; nodes, ways and relations number
// independently. ":" keeps the id a single URL path segment.
func externalID(el element) string {
	id := strconv.FormatInt(el.ID, 10)
	if el.Type == "" {
		return id
	}
	return el.Type + ":" + id
}

func normalize(el element) (models.ObservedRestaurant, bool) {
	lat, lon, ok := coordinates(el)
	if !ok {
		return models.ObservedRestaurant{}, false
	}
	tags := el.Tags
	if tags == nil {
		tags = map[string]string{}
	}

	amenity := tags["amenity"]
	if amenity == "" {
		amenity = "unknown"
	}

	return models.ObservedRestaurant{
		ID:           models.FlexibleID(externalID(el)),
		Name:         displayName(tags, amenity),
		Type:         humanize(amenity),
		Cuisine:      FormatCuisine(tags["cuisine"]),
		Address:      address(tags, lat, lon),
		Phone:        orNA(tags["phone"]),
		Website:      firstNonEmpty(tags["website"], tags["contact:website"]),
		OpeningHours: orNA(tags["opening_hours"]),
		Takeaway:     orNA(tags["takeaway"]),
		Delivery:     orNA(tags["delivery"]),
		Lat:          &lat,
		Lng:          &lon,
	}, true
}

func coordinates(el element) (float64, float64, bool) {
	if el.Lat != nil && el.Lon != nil {
		return *el.Lat, *el.Lon, true
	}
	if el.Center != nil {
		return el.Center.Lat, el.Center.Lon, true
	}
	return 0, 0, false
}

func displayName(tags map[string]string, amenity string) string {
	if name := firstNonEmpty(tags["name"], tags["brand"]); name != "" {
		return name
	}
	return upperFirst(amenity) + " (Unnamed)"
}

// FormatCuisine turns a raw "thai;fast_food" tag into "Thai, Fast Food".
func FormatCuisine(raw string) string {
	var parts []string
	for _, c := range strings.Split(raw, ";") {
		if c = strings.TrimSpace(c); c != "" {
			parts = append(parts, humanize(c))
		}
	}
	if len(parts) == 0 {
		return models.DefaultCuisine
	}
	return strings.Join(parts, ", ")
}

func humanize(s string) string {
	// Casers are stateful; one per call.
	return cases.Title(language.Und).String(strings.ReplaceAll(s, "_", " "))
}

func address(tags map[string]string, lat, lon float64) string {
	if full := tags["addr:full"]; full != "" {
		return full
	}

	var street []string
	for _, k := range []string{"addr:housenumber", "addr:street"} {
		if v := tags[k]; v != "" {
			street = append(street, v)
		}
	}
	if len(street) > 0 {
		return strings.Join(street, " ")
	}

	if v := firstNonEmpty(tags["addr:place"], tags["addr:suburb"], tags["addr:city"]); v != "" {
		return v
	}
	return fmt.Sprintf("%.4f, %.4f", lat, lon)
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func orNA(s string) string {
	if s == "" {
		return models.NotAvailable
	}
	return s
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
