// Package geo implements the geofence check used by attendance admission.
package geo

import "math"

// earthRadiusMeters is the mean Earth radius used by the Haversine formula.
const earthRadiusMeters = 6371000

// Point is a geographic coordinate in signed decimal degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Fence is a circular region: center plus radius in meters.
type Fence struct {
	Center Point
	Radius float64
}

// Distance returns the great-circle distance between two points in meters.
// The atan2 form stays defined for zero and near-antipodal separations.
func Distance(a, b Point) float64 {
	dLat := radians(b.Lat - a.Lat)
	dLng := radians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(a.Lat))*math.Cos(radians(b.Lat))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	// Rounding can push h a hair past 1 near antipodes; clamp so the
	// sqrt stays real.
	h = math.Min(h, 1)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusMeters * c
}

// Check reports whether p falls inside the fence. When it does not,
// overage is the distance beyond the radius, rounded to whole meters
// for user-facing messaging.
func (f Fence) Check(p Point) (inside bool, overage int) {
	d := Distance(f.Center, p)
	if d <= f.Radius {
		return true, 0
	}
	return false, int(math.Round(d - f.Radius))
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
