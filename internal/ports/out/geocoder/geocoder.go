package geocoder

import (
	"context"
	"errors"
)

// ErrNoResults indicates the address could not be resolved.
var ErrNoResults = errors.New("no geocoding results")

// Point is a WGS84 coordinate.
type Point struct {
	Latitude  float64
	Longitude float64
}

// Geocoder resolves a free-text address into coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (Point, error)
}
