package overpass

import (
	"math"

	"tastemap/models"
)

const metersPerDegree = 111320.0

// SampleRestaurants is the fixed set served in degraded mode when the source is unreachable.
// Records sit a short walk from center and are never written to the store.
func SampleRestaurants(center models.Point) []models.ObservedRestaurant {
	return []models.ObservedRestaurant{
		sample("f1", "Beach Cafe", "cafe", "Australian", "The Corso", offset(center, 120, 0), "7:00-17:00", "yes", "no"),
		sample("f2", "Seaside Restaurant", "restaurant", "Seafood", "Marine Parade", offset(center, -150, 210), "12:00-22:00", "yes", "yes"),
	}
}

// offset moves p by north/east meters, clamped to valid coordinates.
func offset(p models.Point, north, east float64) models.Point {
	lat := math.Max(-90, math.Min(90, p.Lat+north/metersPerDegree))
	cos := math.Cos(lat * math.Pi / 180)
	if cos < 1e-6 {
		return models.Point{Lat: lat, Lng: p.Lng}
	}
	lng := p.Lng + east/(metersPerDegree*cos)
	if lng > 180 {
		lng -= 360
	} else if lng < -180 {
		lng += 360
	}
	return models.Point{Lat: lat, Lng: lng}
}

func sample(id, name, kind, cuisine, addr string, at models.Point, hours, takeaway, delivery string) models.ObservedRestaurant {
	lat, lng := at.Lat, at.Lng
	return models.ObservedRestaurant{
		ID:           models.FlexibleID(id),
		Name:         name,
		Type:         kind,
		Cuisine:      cuisine,
		Address:      addr,
		Phone:        models.NotAvailable,
		OpeningHours: hours,
		Takeaway:     takeaway,
		Delivery:     delivery,
		Lat:          &lat,
		Lng:          &lng,
	}
}
