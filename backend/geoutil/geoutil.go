package geoutil

import (
	"math"

	"nightsafe/backend/server/api"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

const EarthRadiusMeters = 6371008.8

func LatLng(p api.Point) s2.LatLng {
	return s2.LatLngFromDegrees(p.Lat, p.Lon)
}

// DistanceMeters is the great-circle distance between a and b.
func DistanceMeters(a, b api.Point) float64 {
	return AngleToMeters(LatLng(a).Distance(LatLng(b)))
}

func AngleToMeters(a s1.Angle) float64 {
	return a.Radians() * EarthRadiusMeters
}

// Projection is a local equirectangular projection in meters around an origin.
// Accurate enough for city-scale distances.
type Projection struct {
	origin api.Point
	kx, ky float64 // meters per degree
}

func NewProjection(origin api.Point) Projection {
	ky := EarthRadiusMeters * math.Pi / 180
	kx := ky * math.Cos(origin.Lat*math.Pi/180)
	if math.Abs(kx) < 1e-9 {
		kx = 1e-9
	}
	return Projection{origin: origin, kx: kx, ky: ky}
}

func (p Projection) ToPlane(pt api.Point) r2.Point {
	return r2.Point{
		X: (pt.Lon - p.origin.Lon) * p.kx,
		Y: (pt.Lat - p.origin.Lat) * p.ky,
	}
}

func (p Projection) FromPlane(v r2.Point) api.Point {
	return api.Point{
		Lat: p.origin.Lat + v.Y/p.ky,
		Lon: p.origin.Lon + v.X/p.kx,
	}
}

// PolylineLengthMeters sums the great-circle lengths of consecutive legs.
func PolylineLengthMeters(pts []api.Point) float64 {
	total := 0.0
	for i := 1; i < len(pts); i++ {
		total += DistanceMeters(pts[i-1], pts[i])
	}
	return total
}
