// Package geo holds geographic data structures, GeoJSON decoding and the
// map projections used by the map renderer.
package geo

import (
	"encoding/json"
	"fmt"
)

// FeatureCollection follows the standard GeoJSON structure.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Feature is a single geographic feature with geometry and properties.
type Feature struct {
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
	Geometry   Geometry       `json:"geometry"`
}

// Geometry carries the raw coordinates of a feature. Coordinates are kept
// as decoded JSON and accessed through Rings, which normalizes Polygon and
// MultiPolygon into a flat list of rings.
type Geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// Name returns the feature's name property, or "" when absent.
func (f Feature) Name() string {
	if s, ok := f.Properties["name"].(string); ok {
		return s
	}
	if s, ok := f.Properties["NAME"].(string); ok {
		return s
	}
	return ""
}

// Rings returns the outer+hole rings of a Polygon or MultiPolygon as
// [][][2]float64 (ring → vertex → lon/lat). Other geometry types yield nil.
func (g Geometry) Rings() ([][][2]float64, error) {
	switch g.Type {
	case "Polygon":
		var poly [][][2]float64
		if err := json.Unmarshal(g.Coordinates, &poly); err != nil {
			return nil, fmt.Errorf("decoding Polygon coordinates: %w", err)
		}
		return poly, nil
	case "MultiPolygon":
		var multi [][][][2]float64
		if err := json.Unmarshal(g.Coordinates, &multi); err != nil {
			return nil, fmt.Errorf("decoding MultiPolygon coordinates: %w", err)
		}
		var rings [][][2]float64
		for _, poly := range multi {
			rings = append(rings, poly...)
		}
		return rings, nil
	default:
		return nil, nil
	}
}

// DecodeFeatureCollection parses GeoJSON bytes.
func DecodeFeatureCollection(data []byte) (*FeatureCollection, error) {
	var fc FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("decoding GeoJSON: %w", err)
	}
	if fc.Type != "FeatureCollection" {
		return nil, fmt.Errorf("unexpected GeoJSON type %q", fc.Type)
	}
	return &fc, nil
}

// Bounds is a geographic bounding box.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}
