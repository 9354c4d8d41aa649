// Package geojson serializes computed city layouts as GeoJSON feature
// collections for map-style rendering.
//
// The exporter normalizes all coordinates into a small range around
// the origin (so map renderers treat them as valid lat/lng values),
// preserving aspect ratio, and emits features in a fixed order: the
// grass polygon, then streets, then buildings. Identical layouts
// always serialize to identical bytes.
package geojson

import (
	"bytes"
	"encoding/json"
	"io"
	"time"

	"github.com/matzehuels/codecity/pkg/layout"
)

// targetRange is half the output coordinate span, roughly 500m at the
// equator for human-scale buildings in map renderers.
const targetRange = 0.005

// Export converts a city layout into a normalized feature collection.
// The input city is not modified.
func Export(city *layout.City) FeatureCollection {
	norm := normalizer(city)

	fc := FeatureCollection{
		Type:     "FeatureCollection",
		Features: []Feature{},
	}

	if city.Grass != nil {
		fc.Features = append(fc.Features, Feature{
			Type: "Feature",
			Geometry: Geometry{
				Type: TypePolygon,
				Ring: closedRing(city.Grass.Bounds[:], norm),
			},
			Properties: GrassProperties{Layer: LayerGrass},
		})
	}

	for _, s := range city.Streets {
		fc.Features = append(fc.Features, Feature{
			Type: "Feature",
			Geometry: Geometry{
				Type: TypeLineString,
				Line: [][2]float64{norm(s.Start), norm(s.End)},
			},
			Properties: StreetProperties{
				ID:              s.Path,
				Name:            s.Name,
				Path:            s.Path,
				Depth:           s.Depth,
				FileCount:       s.FileCount,
				DescendantCount: s.DescendantCount,
				RoadClass:       s.RoadClass(),
				Layer:           LayerStreets,
			},
		})
	}

	for _, b := range city.Buildings {
		fc.Features = append(fc.Features, Feature{
			Type: "Feature",
			Geometry: Geometry{
				Type: TypePolygon,
				Ring: closedRing(b.Corners[:], norm),
			},
			Properties: BuildingProperties{
				ID:            b.Path,
				Name:          b.Name,
				Path:          b.Path,
				Street:        b.Street,
				Language:      b.Language,
				LinesOfCode:   b.LinesOfCode,
				AvgLineLength: b.AvgLineLength,
				CreatedAt:     timestamp(b.CreatedAt),
				LastModified:  timestamp(b.LastModified),
				Tier:          b.Tier,
				BaseHeight:    b.BaseHeight,
				TopHeight:     b.TopHeight,
				TierWidth:     b.TierWidth,
			},
		})
	}

	return fc
}

// Marshal exports a city and renders it as indented JSON.
func Marshal(city *layout.City) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(city, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write exports a city as indented JSON to w.
func Write(city *layout.City, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(Export(city))
}

// normalizer scans every emitted coordinate, then returns a transform
// that scales the geometry uniformly (preserving aspect ratio) into
// [-targetRange, targetRange] centered at the origin. An empty city
// normalizes against a unit bounding box so the transform never
// divides by zero.
func normalizer(city *layout.City) func(layout.Coord) [2]float64 {
	minX, minY := 0.0, 0.0
	maxX, maxY := 1.0, 1.0
	first := true

	grow := func(p layout.Coord) {
		if first {
			minX, minY, maxX, maxY = p.X, p.Y, p.X, p.Y
			first = false
			return
		}
		minX = min(minX, p.X)
		minY = min(minY, p.Y)
		maxX = max(maxX, p.X)
		maxY = max(maxY, p.Y)
	}

	for _, s := range city.Streets {
		grow(s.Start)
		grow(s.End)
	}
	for _, b := range city.Buildings {
		for _, c := range b.Corners {
			grow(c)
		}
	}
	if city.Grass != nil {
		for _, c := range city.Grass.Bounds {
			grow(c)
		}
	}

	width := maxX - minX
	if width == 0 {
		width = 1
	}
	height := maxY - minY
	if height == 0 {
		height = 1
	}
	scale := min(targetRange*2/width, targetRange*2/height)

	centerX := (minX + maxX) / 2
	centerY := (minY + maxY) / 2

	return func(p layout.Coord) [2]float64 {
		return [2]float64{(p.X - centerX) * scale, (p.Y - centerY) * scale}
	}
}

// closedRing normalizes a footprint's corners and closes the ring by
// repeating the first point.
func closedRing(corners []layout.Coord, norm func(layout.Coord) [2]float64) [][2]float64 {
	ring := make([][2]float64, 0, len(corners)+1)
	for _, c := range corners {
		ring = append(ring, norm(c))
	}
	ring = append(ring, ring[0])
	return ring
}

// timestamp renders feature times in RFC 3339, with zero times as an
// empty string rather than the zero-value date.
func timestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
