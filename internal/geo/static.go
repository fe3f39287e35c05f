package geo

import (
	"math/rand"
	"strings"

	"tripweaver/internal/models/trip_models"
)

// cityCoords is the static fallback table for well-known destinations.
// Unknown cities fall through to the default (Paris).
var cityCoords = map[string]trip_models.Coordinates{
	"paris":         {Lat: 48.8566, Lng: 2.3522},
	"tokyo":         {Lat: 35.6762, Lng: 139.6503},
	"new york":      {Lat: 40.7128, Lng: -74.0060},
	"london":        {Lat: 51.5074, Lng: -0.1278},
	"rome":          {Lat: 41.9028, Lng: 12.4964},
	"barcelona":     {Lat: 41.3851, Lng: 2.1734},
	"bali":          {Lat: -8.3405, Lng: 115.0920},
	"dubai":         {Lat: 25.2048, Lng: 55.2708},
	"sydney":        {Lat: -33.8688, Lng: 151.2093},
	"los angeles":   {Lat: 34.0522, Lng: -118.2437},
	"san francisco": {Lat: 37.7749, Lng: -122.4194},
	"miami":         {Lat: 25.7617, Lng: -80.1918},
	"amsterdam":     {Lat: 52.3676, Lng: 4.9041},
	"singapore":     {Lat: 1.3521, Lng: 103.8198},
	"hong kong":     {Lat: 22.3193, Lng: 114.1694},
	"bangkok":       {Lat: 13.7563, Lng: 100.5018},
	"istanbul":      {Lat: 41.0082, Lng: 28.9784},
	"mexico city":   {Lat: 19.4326, Lng: -99.1332},
	"cairo":         {Lat: 30.0444, Lng: 31.2357},
	"cape town":     {Lat: -33.9249, Lng: 18.4241},
}

var defaultCoords = trip_models.Coordinates{Lat: 48.8566, Lng: 2.3522}

// CityCenter looks up a destination in the static table using
// bidirectional substring matching ("Tokyo, Japan" still hits "tokyo").
func CityCenter(destination string) trip_models.Coordinates {
	key := strings.ToLower(strings.TrimSpace(destination))
	for name, coords := range cityCoords {
		if strings.Contains(key, name) || strings.Contains(name, key) {
			return coords
		}
	}
	return defaultCoords
}

// RandomOffset returns base shifted by up to ±r, used to jitter
// city-center fallbacks so map pins don't stack.
func RandomOffset(base, r float64) float64 {
	return base + (rand.Float64()-0.5)*r*2
}

// Jitter applies RandomOffset to both axes.
func Jitter(c trip_models.Coordinates, r float64) trip_models.Coordinates {
	return trip_models.Coordinates{
		Lat: RandomOffset(c.Lat, r),
		Lng: RandomOffset(c.Lng, r),
	}
}
