// Package geo holds the GeoJSON boundary set for the NUTS3 regions and the
// derived map framing (bounding box, center, zoom).
package geo

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"
)

type FeatureCollection struct {
	Type     string     `json:"type"`
	Features []*Feature `json:"features"`
}

// Feature properties are kept loosely typed: GISCO exports mix strings with
// numeric fields such as LEVL_CODE.
type Feature struct {
	Type       string                 `json:"type"`
	Properties map[string]interface{} `json:"properties"`
	Geometry   *Geometry              `json:"geometry"`
}

// Geometry covers both Polygon and MultiPolygon shapes. Coordinates are kept
// raw so the whole structure can be re-marshaled into the figure unchanged.
type Geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// Bounds is a lon/lat bounding box.
type Bounds struct {
	MinLon float64
	MinLat float64
	MaxLon float64
	MaxLat float64
}

// Property returns a string-valued property, or "" when absent or non-string.
func (f *Feature) Property(key string) string {
	if f == nil || f.Properties == nil {
		return ""
	}
	s, _ := f.Properties[key].(string)
	return s
}

// NutsID returns the feature's NUTS_ID property.
func (f *Feature) NutsID() string {
	return f.Property("NUTS_ID")
}

// Name builds the display name from the non-empty level properties.
func (f *Feature) Name() string {
	parts := []string{}
	for _, key := range []string{"NUTS_Level_1", "NUTS_Level_2", "NUTS_Level_3"} {
		if v := strings.TrimSpace(f.Property(key)); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " - ")
}

// Load reads a FeatureCollection from disk.
func Load(path string) (*FeatureCollection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read geojson: %w", err)
	}
	fc := &FeatureCollection{}
	if err := json.Unmarshal(data, fc); err != nil {
		return nil, fmt.Errorf("cannot parse geojson: %w", err)
	}
	if fc.Type != "FeatureCollection" {
		return nil, fmt.Errorf("unexpected geojson type %q", fc.Type)
	}
	return fc, nil
}

// FeatureIDs lists the NUTS_ID of every feature, skipping those without one.
func (fc *FeatureCollection) FeatureIDs() []string {
	ids := make([]string, 0, len(fc.Features))
	for _, f := range fc.Features {
		if id := f.NutsID(); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// Find returns the feature with the given NUTS_ID, or nil.
func (fc *FeatureCollection) Find(nutsID string) *Feature {
	for _, f := range fc.Features {
		if f.NutsID() == nutsID {
			return f
		}
	}
	return nil
}

// TotalBounds walks every coordinate pair of every feature.
func (fc *FeatureCollection) TotalBounds() (Bounds, error) {
	b := Bounds{
		MinLon: math.Inf(1), MinLat: math.Inf(1),
		MaxLon: math.Inf(-1), MaxLat: math.Inf(-1),
	}
	seen := false
	for _, f := range fc.Features {
		if f.Geometry == nil {
			continue
		}
		switch f.Geometry.Type {
		case "Polygon":
			var coords [][][]float64
			if err := json.Unmarshal(f.Geometry.Coordinates, &coords); err != nil {
				return b, fmt.Errorf("bad polygon in %s: %w", f.NutsID(), err)
			}
			for _, ring := range coords {
				for _, pt := range ring {
					b.extend(pt)
					seen = true
				}
			}
		case "MultiPolygon":
			var coords [][][][]float64
			if err := json.Unmarshal(f.Geometry.Coordinates, &coords); err != nil {
				return b, fmt.Errorf("bad multipolygon in %s: %w", f.NutsID(), err)
			}
			for _, poly := range coords {
				for _, ring := range poly {
					for _, pt := range ring {
						b.extend(pt)
						seen = true
					}
				}
			}
		}
	}
	if !seen {
		return b, fmt.Errorf("feature collection has no coordinates")
	}
	return b, nil
}

func (b *Bounds) extend(pt []float64) {
	if len(pt) < 2 {
		return
	}
	lon, lat := pt[0], pt[1]
	if lon < b.MinLon {
		b.MinLon = lon
	}
	if lon > b.MaxLon {
		b.MaxLon = lon
	}
	if lat < b.MinLat {
		b.MinLat = lat
	}
	if lat > b.MaxLat {
		b.MaxLat = lat
	}
}

// DefaultZoom keeps the whole country in frame, slightly zoomed out.
const DefaultZoom = 4.5

// CenterZoom returns the framing for the choropleth: the bbox midpoint and the
// fixed zoom level.
func (fc *FeatureCollection) CenterZoom() (lat, lon, zoom float64, err error) {
	b, err := fc.TotalBounds()
	if err != nil {
		return 0, 0, 0, err
	}
	lon = (b.MinLon + b.MaxLon) / 2
	lat = (b.MinLat + b.MaxLat) / 2
	return lat, lon, DefaultZoom, nil
}
