package utils

import (
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

// ParseGeofence decodes a project's boundary from its stored GeoJSON
// geometry. Polygon and MultiPolygon are accepted.
func ParseGeofence(raw json.RawMessage) (orb.Geometry, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty geofence")
	}
	geom, err := geojson.UnmarshalGeometry(raw)
	if err != nil {
		return nil, fmt.Errorf("parse geofence: %w", err)
	}
	switch g := geom.Geometry().(type) {
	case orb.Polygon, orb.MultiPolygon:
		return g, nil
	default:
		return nil, fmt.Errorf("geofence must be a Polygon or MultiPolygon, got %s", geom.Type)
	}
}

// PointInGeofence reports whether a lat/lng position falls inside the
// boundary. Site polygons are small enough that planar math is fine.
func PointInGeofence(geom orb.Geometry, lat, lng float64) bool {
	pt := orb.Point{lng, lat}
	switch g := geom.(type) {
	case orb.Polygon:
		return planar.PolygonContains(g, pt)
	case orb.MultiPolygon:
		return planar.MultiPolygonContains(g, pt)
	default:
		return false
	}
}
