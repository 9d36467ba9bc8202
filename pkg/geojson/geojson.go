// Package geojson provides the GeoJSON types used to export AuroraX positions.
package geojson

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Geometry represents a GeoJSON geometry object.
type Geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// Feature is a GeoJSON feature.
type Feature struct {
	Type       string         `json:"type"`
	Geometry   *Geometry      `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

// FeatureCollection is a GeoJSON feature collection.
type FeatureCollection struct {
	Type     string     `json:"type"`
	BBox     []float64  `json:"bbox,omitempty"`
	Features []*Feature `json:"features"`
}

// NewPoint creates a Point geometry at [lon, lat].
func NewPoint(lon, lat float64) (*Geometry, error) {
	if err := checkPosition(lon, lat); err != nil {
		return nil, err
	}
	coordsJSON, err := json.Marshal([]float64{lon, lat})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal Point coordinates: %w", err)
	}
	return &Geometry{Type: "Point", Coordinates: coordsJSON}, nil
}

// NewLineString creates a LineString geometry from [lon, lat] positions.
func NewLineString(coords [][]float64) (*Geometry, error) {
	if len(coords) < 2 {
		return nil, fmt.Errorf("LineString needs at least 2 positions, got %d", len(coords))
	}
	for i, c := range coords {
		if len(c) < 2 {
			return nil, fmt.Errorf("position %d: expected at least 2 values, got %d", i, len(c))
		}
		if err := checkPosition(c[0], c[1]); err != nil {
			return nil, fmt.Errorf("position %d: %w", i, err)
		}
	}
	coordsJSON, err := json.Marshal(coords)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal LineString coordinates: %w", err)
	}
	return &Geometry{Type: "LineString", Coordinates: coordsJSON}, nil
}

func checkPosition(lon, lat float64) error {
	if lon < -180 || lon > 180 {
		return fmt.Errorf("longitude %g out of range [-180, 180]", lon)
	}
	if lat < -90 || lat > 90 {
		return fmt.Errorf("latitude %g out of range [-90, 90]", lat)
	}
	return nil
}

// Point returns the coordinates as a Point [lon, lat].
// Returns error if geometry is not a Point.
func (g *Geometry) Point() ([]float64, error) {
	if g.Type != "Point" {
		return nil, fmt.Errorf("geometry is not a Point, got %s", g.Type)
	}
	var coords []float64
	if err := json.Unmarshal(g.Coordinates, &coords); err != nil {
		return nil, fmt.Errorf("failed to unmarshal Point coordinates: %w", err)
	}
	if len(coords) < 2 {
		return nil, fmt.Errorf("invalid Point coordinates: expected at least 2 values, got %d", len(coords))
	}
	return coords, nil
}

// LineString returns the coordinates as a LineString [][lon, lat].
// Returns error if geometry is not a LineString.
func (g *Geometry) LineString() ([][]float64, error) {
	if g.Type != "LineString" {
		return nil, fmt.Errorf("geometry is not a LineString, got %s", g.Type)
	}
	var coords [][]float64
	if err := json.Unmarshal(g.Coordinates, &coords); err != nil {
		return nil, fmt.Errorf("failed to unmarshal LineString coordinates: %w", err)
	}
	return coords, nil
}

// NewFeature wraps a geometry with properties.
func NewFeature(g *Geometry, properties map[string]any) *Feature {
	if properties == nil {
		properties = map[string]any{}
	}
	return &Feature{Type: "Feature", Geometry: g, Properties: properties}
}

// NewFeatureCollection collects features and computes their bounding box.
// An empty collection has no bbox.
func NewFeatureCollection(features ...*Feature) (*FeatureCollection, error) {
	fc := &FeatureCollection{Type: "FeatureCollection", Features: features}
	if fc.Features == nil {
		fc.Features = []*Feature{}
	}
	if len(features) == 0 {
		return fc, nil
	}

	bbox := []float64{math.Inf(1), math.Inf(1), math.Inf(-1), math.Inf(-1)}
	for i, f := range features {
		b, err := ComputeBBox(f.Geometry)
		if err != nil {
			return nil, fmt.Errorf("feature %d: %w", i, err)
		}
		bbox[0] = math.Min(bbox[0], b[0])
		bbox[1] = math.Min(bbox[1], b[1])
		bbox[2] = math.Max(bbox[2], b[2])
		bbox[3] = math.Max(bbox[3], b[3])
	}
	fc.BBox = bbox
	return fc, nil
}

// ComputeBBox computes the bounding box of a Point or LineString.
// Returns [west, south, east, north].
func ComputeBBox(g *Geometry) ([]float64, error) {
	if g == nil {
		return nil, fmt.Errorf("geometry is nil")
	}

	var positions [][]float64
	switch g.Type {
	case "Point":
		p, err := g.Point()
		if err != nil {
			return nil, err
		}
		positions = [][]float64{p}
	case "LineString":
		line, err := g.LineString()
		if err != nil {
			return nil, err
		}
		positions = line
	default:
		return nil, fmt.Errorf("unsupported geometry type for bbox: %s", g.Type)
	}

	minLon, minLat := math.Inf(1), math.Inf(1)
	maxLon, maxLat := math.Inf(-1), math.Inf(-1)
	for _, p := range positions {
		if len(p) < 2 {
			continue
		}
		minLon = math.Min(minLon, p[0])
		minLat = math.Min(minLat, p[1])
		maxLon = math.Max(maxLon, p[0])
		maxLat = math.Max(maxLat, p[1])
	}

	if math.IsInf(minLon, 0) || math.IsInf(minLat, 0) {
		return nil, fmt.Errorf("failed to compute bounding box: no valid coordinates found")
	}

	return []float64{minLon, minLat, maxLon, maxLat}, nil
}

// ToWKT converts a Point or LineString to WKT.
func ToWKT(g *Geometry) (string, error) {
	if g == nil {
		return "", fmt.Errorf("geometry is nil")
	}

	switch g.Type {
	case "Point":
		coords, err := g.Point()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("POINT(%s %s)", formatFloat(coords[0]), formatFloat(coords[1])), nil
	case "LineString":
		coords, err := g.LineString()
		if err != nil {
			return "", err
		}
		points := make([]string, len(coords))
		for i, point := range coords {
			if len(point) < 2 {
				return "", fmt.Errorf("invalid point in linestring: expected at least 2 coordinates")
			}
			points[i] = formatFloat(point[0]) + " " + formatFloat(point[1])
		}
		return "LINESTRING(" + strings.Join(points, ",") + ")", nil
	default:
		return "", fmt.Errorf("unsupported geometry type for WKT conversion: %s", g.Type)
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
