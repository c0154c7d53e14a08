package types

import "math"

// Point is a WGS84 coordinate pair.
type Point struct {
	Longitude float64 `db:"longitude" json:"lng"`
	Latitude  float64 `db:"latitude" json:"lat"`
}

func (p Point) Valid() bool {
	return p.Longitude >= -180 && p.Longitude <= 180 && p.Latitude >= -90 && p.Latitude <= 90
}

// Location is a point plus a human readable place name.
type Location struct {
	Point
	Name string `db:"location_name" json:"name"`
}

// GeoFilter constrains a query to a circle around Origin.
type GeoFilter struct {
	Origin       Point
	RadiusMeters float64
}

// ValidRadius reports whether meters is a usable search radius: positive
// and finite. NaN fails.
func ValidRadius(meters float64) bool {
	return meters > 0 && !math.IsInf(meters, 1)
}
