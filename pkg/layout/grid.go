package layout

import "math"

// =============================================================================
// Occupancy Grid
// =============================================================================

// CellKind identifies what occupies a grid cell.
type CellKind int

const (
	// KindRoad marks a cell claimed by a street or connector.
	KindRoad CellKind = iota
	// KindBuilding marks a cell claimed by a building footprint.
	KindBuilding
	// KindReserved marks a cell held back from placement without
	// belonging to a concrete feature.
	KindReserved
)

// Cell addresses one discrete unit of the grid.
type Cell struct {
	X, Y int
}

// Content records the owner of an occupied cell. Exactly one Content
// exists per occupied cell; absence from the grid means empty.
type Content struct {
	Kind      CellKind
	OwnerPath string
	Depth     int
}

// Grid is a reservation map over integer cells. It tracks which street
// or building owns each cell so the layout engine never produces two
// unrelated overlapping elements. A Grid belongs to exactly one layout
// invocation and is not safe for concurrent use.
type Grid struct {
	CellSize float64
	cells    map[Cell]Content
}

// NewGrid creates an empty grid with the given cell size in world units.
// The cell size should equal the minimum building footprint so that a
// single cell can always hold the narrowest building.
func NewGrid(cellSize float64) *Grid {
	return &Grid{
		CellSize: cellSize,
		cells:    make(map[Cell]Content),
	}
}

// GridToWorld converts a grid position to world coordinates.
func (g *Grid) GridToWorld(gx, gy int) (float64, float64) {
	return float64(gx) * g.CellSize, float64(gy) * g.CellSize
}

// WorldToGrid converts world coordinates to the containing grid cell,
// using floor division so negative coordinates round toward -inf.
func (g *Grid) WorldToGrid(x, y float64) (int, int) {
	return int(math.Floor(x / g.CellSize)), int(math.Floor(y / g.CellSize))
}

// At returns the content of a cell, if occupied.
func (g *Grid) At(c Cell) (Content, bool) {
	content, ok := g.cells[c]
	return content, ok
}

// Len returns the number of occupied cells.
func (g *Grid) Len() int { return len(g.cells) }

// CanPlaceBuilding reports whether a building may claim the cell.
// Buildings only ever occupy empty cells.
func (g *Grid) CanPlaceBuilding(c Cell) bool {
	_, occupied := g.cells[c]
	return !occupied
}

// CanPlaceRoad reports whether a road at the given depth may claim the
// cell. Roads may occupy empty cells, or cross an existing road whose
// depth differs by exactly one: a folder's street may cross its direct
// parent's street, never a sibling's or grandparent's. Buildings and
// reserved cells always block.
func (g *Grid) CanPlaceRoad(c Cell, depth int) bool {
	existing, occupied := g.cells[c]
	if !occupied {
		return true
	}
	if existing.Kind == KindRoad {
		diff := existing.Depth - depth
		return diff == 1 || diff == -1
	}
	return false
}

// PlaceBuilding claims a width x height rectangle of cells anchored at
// c for a building. The whole rectangle is checked before any cell is
// written, so a failed placement never partially occupies the grid.
func (g *Grid) PlaceBuilding(c Cell, owner string, depth, width, height int) bool {
	for dx := 0; dx < width; dx++ {
		for dy := 0; dy < height; dy++ {
			if !g.CanPlaceBuilding(Cell{c.X + dx, c.Y + dy}) {
				return false
			}
		}
	}
	for dx := 0; dx < width; dx++ {
		for dy := 0; dy < height; dy++ {
			g.cells[Cell{c.X + dx, c.Y + dy}] = Content{
				Kind:      KindBuilding,
				OwnerPath: owner,
				Depth:     depth,
			}
		}
	}
	return true
}

// PlaceRoad claims an explicit list of cells for a road. All cells are
// checked before any write. On a legal crossing the existing road cell
// is overwritten: ownership transfers to the most recently placed road.
func (g *Grid) PlaceRoad(cells []Cell, owner string, depth int) bool {
	for _, c := range cells {
		if !g.CanPlaceRoad(c, depth) {
			return false
		}
	}
	for _, c := range cells {
		g.cells[c] = Content{
			Kind:      KindRoad,
			OwnerPath: owner,
			Depth:     depth,
		}
	}
	return true
}

// LPath produces a Manhattan path from start to end with at most one
// turn. horizontalFirst selects which axis is walked first; the path
// degenerates to a straight line when start and end share an axis.
func (g *Grid) LPath(start, end Cell, horizontalFirst bool) []Cell {
	var path []Cell
	if horizontalFirst {
		for _, x := range stepRange(start.X, end.X) {
			path = append(path, Cell{x, start.Y})
		}
		// Vertical leg; the corner cell is already in the path.
		for _, y := range stepRange(start.Y, end.Y)[1:] {
			path = append(path, Cell{end.X, y})
		}
	} else {
		for _, y := range stepRange(start.Y, end.Y) {
			path = append(path, Cell{start.X, y})
		}
		for _, x := range stepRange(start.X, end.X)[1:] {
			path = append(path, Cell{x, end.Y})
		}
	}
	return path
}

// FindFreeRegion searches outward from start for the anchor of a fully
// free width x height rectangle, expanding breadth-first in the four
// cardinal directions. Roads and buildings both block the rectangle:
// the search is used to claim untouched space for a street and its
// building rows. The search gives up once it would need cells farther
// than maxSearchRadius from start on either axis, returning ok=false.
func (g *Grid) FindFreeRegion(start Cell, width, height, maxSearchRadius int) (Cell, bool) {
	visited := map[Cell]bool{}
	queue := []Cell{start}

	for len(queue) > 0 {
		pos := queue[0]
		queue = queue[1:]
		if visited[pos] {
			continue
		}
		visited[pos] = true

		if abs(pos.X-start.X) > maxSearchRadius || abs(pos.Y-start.Y) > maxSearchRadius {
			continue
		}

		if g.regionIsFree(pos, width, height) {
			return pos, true
		}

		for _, d := range [4]Cell{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
			next := Cell{pos.X + d.X, pos.Y + d.Y}
			if !visited[next] {
				queue = append(queue, next)
			}
		}
	}
	return Cell{}, false
}

func (g *Grid) regionIsFree(topLeft Cell, width, height int) bool {
	for dx := 0; dx < width; dx++ {
		for dy := 0; dy < height; dy++ {
			if !g.CanPlaceBuilding(Cell{topLeft.X + dx, topLeft.Y + dy}) {
				return false
			}
		}
	}
	return true
}

// stepRange returns the integers from a to b inclusive, stepping
// toward b. A single-element range is returned when a == b.
func stepRange(a, b int) []int {
	step := 1
	if b < a {
		step = -1
	}
	out := make([]int, 0, abs(b-a)+1)
	for v := a; v != b+step; v += step {
		out = append(out, v)
	}
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
