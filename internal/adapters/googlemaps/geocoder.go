package googlemaps

import (
	"context"
	"fmt"

	"googlemaps.github.io/maps"

	"github.com/roteiro-app/travel-planner-api/internal/ports/out/geocoder"
)

// Geocoder resolves addresses with the Google Maps Geocoding API, biased to Brazil.
type Geocoder struct {
	client *maps.Client
}

func NewGeocoder(apiKey string, opts ...maps.ClientOption) (*Geocoder, error) {
	c, err := maps.NewClient(append([]maps.ClientOption{maps.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("GOOGLE_MAPS_API_KEY: %w", err)
	}
	return &Geocoder{client: c}, nil
}

func (g *Geocoder) Geocode(ctx context.Context, address string) (geocoder.Point, error) {
	res, err := g.client.Geocode(ctx, &maps.GeocodingRequest{
		Address:  address,
		Region:   "br",
		Language: "pt-BR",
	})
	if err != nil {
		return geocoder.Point{}, fmt.Errorf("geocode: %w", err)
	}
	if len(res) == 0 {
		return geocoder.Point{}, geocoder.ErrNoResults
	}
	loc := res[0].Geometry.Location
	return geocoder.Point{Latitude: loc.Lat, Longitude: loc.Lng}, nil
}
