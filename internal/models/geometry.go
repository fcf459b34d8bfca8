package models

import (
	"fmt"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// MapBounds is the collection bounding box in WGS84 degrees, used to fit the
// map view around all rendered polygons.
type MapBounds struct {
	MinLat float64 `json:"min_lat"`
	MinLng float64 `json:"min_lng"`
	MaxLat float64 `json:"max_lat"`
	MaxLng float64 `json:"max_lng"`
}

// DecodeGeometry parses the feature's raw GeoJSON geometry. GeoJSON coordinate
// order is [lng, lat].
func (f *Feature) DecodeGeometry() (geom.T, error) {
	if len(f.Geometry) == 0 {
		return nil, fmt.Errorf("feature %s has no geometry", f.ID)
	}
	var g geom.T
	if err := geojson.Unmarshal(f.Geometry, &g); err != nil {
		return nil, fmt.Errorf("failed to decode geometry for feature %s: %w", f.ID, err)
	}
	return g, nil
}

// Bounds accumulates the bounding box of every decodable geometry in the
// collection. Features with missing or malformed geometry are skipped; the
// second return value reports whether any geometry contributed.
func (fc *FeatureCollection) Bounds() (MapBounds, bool) {
	bounds := geom.NewBounds(geom.XY)
	found := false
	for i := range fc.Features {
		g, err := fc.Features[i].DecodeGeometry()
		if err != nil {
			continue
		}
		bounds.Extend(g)
		found = true
	}
	if !found || bounds.IsEmpty() {
		return MapBounds{}, false
	}
	return MapBounds{
		MinLng: bounds.Min(0),
		MinLat: bounds.Min(1),
		MaxLng: bounds.Max(0),
		MaxLat: bounds.Max(1),
	}, true
}
