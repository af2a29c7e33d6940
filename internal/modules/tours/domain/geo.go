package domain

import (
	"math"
	"strconv"
	"strings"

	"toursApi/internal/shared/apperror"
)

const (
	MessageLatLng   = "Please provide latitude and longitude in the format lat,lng."
	MessageDistance = "Please provide a valid distance."
)

type Unit string

const (
	UnitMiles      Unit = "mi"
	UnitKilometers Unit = "km"
)

// Earth radius in the unit's terms, as used for $centerSphere.
const (
	earthRadiusMiles = 3963.2
	earthRadiusKm    = 6378.1

	// EarthRadiusMeters matches the sphere the store uses for $geoNear.
	EarthRadiusMeters = 6378100.0
)

// ParseUnit treats anything other than "mi" as kilometres.
func ParseUnit(raw string) Unit {
	if strings.EqualFold(strings.TrimSpace(raw), string(UnitMiles)) {
		return UnitMiles
	}
	return UnitKilometers
}

// Radians converts a distance to an angle on the earth's surface.
func (u Unit) Radians(distance float64) float64 {
	if u == UnitMiles {
		return distance / earthRadiusMiles
	}
	return distance / earthRadiusKm
}

// Multiplier converts metres to the unit.
func (u Unit) Multiplier() float64 {
	if u == UnitMiles {
		return 0.000621371
	}
	return 0.001
}

// Point is a position in degrees.
type Point struct {
	Lat float64
	Lng float64
}

// ParseLatLng reads "lat,lng".
func ParseLatLng(raw string) (Point, error) {
	rawLat, rawLng, ok := strings.Cut(raw, ",")
	if !ok {
		return Point{}, apperror.BadRequest(MessageLatLng)
	}
	lat, errLat := strconv.ParseFloat(strings.TrimSpace(rawLat), 64)
	lng, errLng := strconv.ParseFloat(strings.TrimSpace(rawLng), 64)
	if errLat != nil || errLng != nil || math.Abs(lat) > 90 || math.Abs(lng) > 180 {
		return Point{}, apperror.BadRequest(MessageLatLng)
	}
	return Point{Lat: lat, Lng: lng}, nil
}

func ParseDistance(raw string) (float64, error) {
	d, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || d < 0 || math.IsNaN(d) || math.IsInf(d, 0) {
		return 0, apperror.BadRequest(MessageDistance)
	}
	return d, nil
}

// Haversine returns the great-circle distance between a and b in metres.
func Haversine(a, b Point) float64 {
	lat1, lat2 := a.Lat*math.Pi/180, b.Lat*math.Pi/180
	dLat := lat2 - lat1
	dLng := (b.Lng - a.Lng) * math.Pi / 180
	h := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * EarthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(h)))
}

// PointOf reads a GeoJSON point, which stores longitude first.
func PointOf(value any) (Point, bool) {
	m, ok := value.(map[string]any)
	if !ok {
		return Point{}, false
	}
	coords, ok := m["coordinates"].([]any)
	if !ok || len(coords) < 2 {
		return Point{}, false
	}
	lng, ok1 := coords[0].(float64)
	lat, ok2 := coords[1].(float64)
	if !ok1 || !ok2 {
		return Point{}, false
	}
	return Point{Lat: lat, Lng: lng}, true
}
