package geojson

import "encoding/json"

// Layer names emitted in feature properties.
const (
	LayerGrass     = "grass"
	LayerStreets   = "streets"
	LayerBuildings = "buildings"
)

// Geometry type tags.
const (
	TypeLineString = "LineString"
	TypePolygon    = "Polygon"
)

// FeatureCollection is the wire format consumed by the map renderer.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Feature pairs a tagged geometry with its layer-specific properties.
// Properties is always one of [GrassProperties], [StreetProperties],
// or [BuildingProperties].
type Feature struct {
	Type       string   `json:"type"`
	Geometry   Geometry `json:"geometry"`
	Properties any      `json:"properties"`
}

// Geometry is a tagged GeoJSON geometry. LineString coordinates are a
// point list; Polygon coordinates are a single ring, stored closed
// (first point repeated last, at least five points for a four-corner
// footprint).
type Geometry struct {
	Type string
	Line [][2]float64
	Ring [][2]float64
}

// MarshalJSON emits the coordinates field in the shape the geometry
// type requires: a point list for LineString, a ring list for Polygon.
func (g Geometry) MarshalJSON() ([]byte, error) {
	switch g.Type {
	case TypePolygon:
		return json.Marshal(struct {
			Type        string         `json:"type"`
			Coordinates [][][2]float64 `json:"coordinates"`
		}{g.Type, [][][2]float64{g.Ring}})
	default:
		return json.Marshal(struct {
			Type        string       `json:"type"`
			Coordinates [][2]float64 `json:"coordinates"`
		}{g.Type, g.Line})
	}
}

// GrassProperties annotates the single ground polygon.
type GrassProperties struct {
	Layer string `json:"layer"`
}

// StreetProperties annotates a street line segment. Connector streets
// carry an empty Name.
type StreetProperties struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Path            string `json:"path"`
	Depth           int    `json:"depth"`
	FileCount       int    `json:"file_count"`
	DescendantCount int    `json:"descendant_count"`
	RoadClass       string `json:"road_class"`
	Layer           string `json:"layer"`
}

// BuildingProperties annotates one tier polygon of a file's building.
type BuildingProperties struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Path          string  `json:"path"`
	Street        string  `json:"street"`
	Language      string  `json:"language"`
	LinesOfCode   int     `json:"lines_of_code"`
	AvgLineLength float64 `json:"avg_line_length"`
	CreatedAt     string  `json:"created_at"`
	LastModified  string  `json:"last_modified"`
	Tier          int     `json:"tier"`
	BaseHeight    float64 `json:"base_height"`
	TopHeight     float64 `json:"top_height"`
	TierWidth     float64 `json:"tier_width"`
	Layer         string  `json:"layer"`
}
