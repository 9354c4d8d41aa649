package layout

import "time"

// =============================================================================
// City - Layout Output
// =============================================================================

// Coord is a point in city space, before export normalization.
type Coord struct {
	X, Y float64
}

// Street is a folder rendered as a road segment. Connector streets
// (the short stubs joining a parent street to a child street origin)
// have an empty Name and a ">"-joined Path.
type Street struct {
	Path            string
	Name            string
	Depth           int
	FileCount       int
	Start           Coord
	End             Coord
	DescendantCount int
}

// Road class thresholds, in descendant files.
const (
	primaryThreshold   = 50
	secondaryThreshold = 10
)

// RoadClass derives the street's traffic tier from how many files are
// nested beneath it. Busy folders render as wide primary roads.
func (s Street) RoadClass() string {
	switch {
	case s.DescendantCount >= primaryThreshold:
		return "primary"
	case s.DescendantCount >= secondaryThreshold:
		return "secondary"
	default:
		return "tertiary"
	}
}

// Building is one tier of a file's building stack. A file with
// multiple tiers produces one Building per tier, all sharing the same
// Path and horizontal center; tiers of the same file are the only
// features allowed to overlap.
type Building struct {
	Path          string
	Name          string
	Street        string
	Language      string
	LinesOfCode   int
	AvgLineLength float64
	CreatedAt     time.Time
	LastModified  time.Time

	// Corners is the square footprint, counterclockwise, unclosed.
	Corners [4]Coord

	Tier       int
	BaseHeight float64
	TopHeight  float64
	TierWidth  float64
}

// Grass is the single ground polygon covering all emitted geometry
// plus margin.
type Grass struct {
	Bounds [4]Coord
}

// City is the complete output of one layout invocation.
type City struct {
	Streets   []Street
	Buildings []Building
	Grass     *Grass
}

// Empty reports whether the city contains no geometry.
func (c *City) Empty() bool {
	return len(c.Streets) == 0 && len(c.Buildings) == 0
}
