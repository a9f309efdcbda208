// Package geo computes distances from the reference point and projects
// coordinates onto the terminal map.
package geo

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const earthRadiusKm = 6371.0

// kmPerDegreeLat is close enough everywhere for a terminal map.
const kmPerDegreeLat = 111.32

// Point is a WGS84 coordinate.
type Point struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// ParsePoint parses "lat,lng".
func ParsePoint(s string) (Point, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return Point{}, fmt.Errorf("parse point %q: want \"lat,lng\"", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return Point{}, fmt.Errorf("parse latitude: %w", err)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return Point{}, fmt.Errorf("parse longitude: %w", err)
	}
	p := Point{Lat: lat, Lng: lng}
	if !p.Valid() {
		return Point{}, fmt.Errorf("parse point %q: out of range", s)
	}
	return p, nil
}

// Valid reports whether the point is a real coordinate.
func (p Point) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

func (p Point) String() string {
	return fmt.Sprintf("%.5f,%.5f", p.Lat, p.Lng)
}

// HaversineKm returns the great-circle distance between a and b.
func HaversineKm(a, b Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}

// Zoom levels as the half-width of the visible area in kilometers.
var zoomLevelsKm = []float64{0.5, 1, 2, 4, 8, 16, 32}

// Viewport is the map's visible area. Pan and zoom change only the
// viewport; they never touch filter state.
type Viewport struct {
	Center Point
	zoom   int // index into zoomLevelsKm
}

// NewViewport centers a viewport at c with a half-width close to km.
func NewViewport(c Point, km float64) Viewport {
	v := Viewport{Center: c}
	for i, z := range zoomLevelsKm {
		v.zoom = i
		if z >= km {
			break
		}
	}
	return v
}

// HalfWidthKm is the distance from the center to the left or right edge.
func (v Viewport) HalfWidthKm() float64 {
	return zoomLevelsKm[v.zoom]
}

// ZoomIn narrows the viewport. It stops at the closest level.
func (v Viewport) ZoomIn() Viewport {
	if v.zoom > 0 {
		v.zoom--
	}
	return v
}

// ZoomOut widens the viewport. It stops at the widest level.
func (v Viewport) ZoomOut() Viewport {
	if v.zoom < len(zoomLevelsKm)-1 {
		v.zoom++
	}
	return v
}

// Pan moves the center by a fraction of the half-width. dx is east, dy
// is north.
func (v Viewport) Pan(dx, dy float64) Viewport {
	km := v.HalfWidthKm()
	v.Center.Lat += dy * km / kmPerDegreeLat
	v.Center.Lng += dx * km / (kmPerDegreeLat * math.Cos(v.Center.Lat*math.Pi/180))
	v.Center.Lat = math.Max(-90, math.Min(90, v.Center.Lat))
	return v
}

// Project maps p onto a width x height character grid. Terminal cells are
// about twice as tall as they are wide, so the vertical span is halved.
// ok is false when p falls outside the viewport.
func (v Viewport) Project(p Point, width, height int) (x, y int, ok bool) {
	if width <= 0 || height <= 0 {
		return 0, 0, false
	}
	halfW := v.HalfWidthKm()
	halfH := halfW * float64(height) * 2 / float64(width)

	eastKm := (p.Lng - v.Center.Lng) * kmPerDegreeLat * math.Cos(v.Center.Lat*math.Pi/180)
	northKm := (p.Lat - v.Center.Lat) * kmPerDegreeLat

	fx := (eastKm + halfW) / (2 * halfW)
	fy := (halfH - northKm) / (2 * halfH)
	if fx < 0 || fx >= 1 || fy < 0 || fy >= 1 {
		return 0, 0, false
	}
	return int(fx * float64(width)), int(fy * float64(height)), true
}

// Located is an item with a position that can carry a computed distance.
type Located[T any] interface {
	Location() Point
	WithDistanceKm(km float64) T
}

// WithDistances returns copies of items with their distance from origin
// set. Items with an invalid location are returned unchanged.
func WithDistances[T Located[T]](items []T, origin Point) []T {
	out := make([]T, len(items))
	for i, it := range items {
		loc := it.Location()
		if !loc.Valid() || (loc == Point{}) {
			out[i] = it
			continue
		}
		out[i] = it.WithDistanceKm(HaversineKm(origin, loc))
	}
	return out
}
