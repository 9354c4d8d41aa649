package layout

import (
	"math"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/codecity/pkg/metrics"
)

// Layout constants, in grid cells unless noted.
const (
	// DefaultCellSize is the grid cell edge in world units. It equals
	// the minimum building footprint so one cell always fits the
	// narrowest building.
	DefaultCellSize = 6.0

	// DefaultMaxSearchRadius bounds the free-region search. A folder
	// whose street cannot be placed within this radius is dropped.
	DefaultMaxSearchRadius = 100

	// buildingOffsetCells is the perpendicular distance from a street
	// row to its building row.
	buildingOffsetCells = 2

	// buildingBlockCells is the edge of the square cell block reserved
	// per building. Two cells cover MaxBuildingWidth, so the widest
	// tier can never spill into a neighbor's reservation.
	buildingBlockCells = 2

	// streetHeightCells is the clearance a new street region needs:
	// the road row plus a building row and spacing.
	streetHeightCells = 4

	// branchLeadCells separates a street's building row from its first
	// subfolder branch point.
	branchLeadCells = 2

	// minStreetCells is the shortest folder street.
	minStreetCells = 4

	// minMainStreetCells is the shortest main street.
	minMainStreetCells = 10

	// RootStreetPath is the path key of the main street.
	RootStreetPath = "root"
)

// Config controls a layout run. The zero value is usable; empty fields
// fall back to defaults.
type Config struct {
	// RootName labels the main street, typically the repository name.
	RootName string

	// CellSize is the grid cell edge in world units.
	CellSize float64

	// MaxSearchRadius bounds the breadth-first free-region search.
	MaxSearchRadius int

	// Logger receives dropped-subtree diagnostics. Defaults to the
	// global logger.
	Logger *log.Logger
}

func (c *Config) applyDefaults() {
	if c.RootName == "" {
		c.RootName = "root"
	}
	if c.CellSize <= 0 {
		c.CellSize = DefaultCellSize
	}
	if c.MaxSearchRadius <= 0 {
		c.MaxSearchRadius = DefaultMaxSearchRadius
	}
	if c.Logger == nil {
		c.Logger = log.Default()
	}
}

// Engine computes a collision-free city layout for one set of file
// metrics. All state is owned by a single Layout call; an Engine value
// must not be shared between goroutines, but independent engines may
// run concurrently.
type Engine struct {
	cfg  Config
	grid *Grid

	streets   []Street
	buildings []Building
	created   map[string]bool

	byFolder    map[string][]metrics.FileMetrics
	descendants map[string]int
	totalFiles  int
}

// Layout converts ordered file metrics into a City. The input order is
// the only non-spatial tie-break: identical inputs produce identical
// output.
func Layout(files []metrics.FileMetrics, cfg Config) *City {
	cfg.applyDefaults()

	// An empty repository yields an empty, structurally valid city.
	if len(files) == 0 {
		return &City{}
	}

	e := &Engine{
		cfg:         cfg,
		grid:        NewGrid(cfg.CellSize),
		created:     make(map[string]bool),
		byFolder:    make(map[string][]metrics.FileMetrics),
		descendants: make(map[string]int),
		totalFiles:  len(files),
	}

	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
		e.byFolder[parentFolder(f.Path)] = append(e.byFolder[parentFolder(f.Path)], f)
	}
	tree := BuildTree(paths)
	e.countDescendants(tree, files)

	e.layoutMainStreet(tree)

	city := &City{Streets: e.streets, Buildings: e.buildings}
	city.Grass = grassFor(city)
	return city
}

// countDescendants records, for every folder, how many files are
// nested anywhere beneath it.
func (e *Engine) countDescendants(tree *Folder, files []metrics.FileMetrics) {
	tree.Walk(func(f *Folder) {
		if f.Path == "" {
			e.descendants[f.Path] = len(files)
			return
		}
		prefix := f.Path + "/"
		n := 0
		for _, fm := range files {
			if strings.HasPrefix(fm.Path, prefix) {
				n++
			}
		}
		e.descendants[f.Path] = n
	})
}

// =============================================================================
// Sizing
// =============================================================================

// fileRowCells returns the street length consumed by a folder's own
// files, two per column on opposite sides.
func (e *Engine) fileRowCells(folderPath string) int {
	n := len(e.byFolder[folderPath])
	return (n + 1) / 2 * buildingBlockCells
}

// spanCells is the pure bottom-up sizing pass: the street length a
// folder needs for its own file row plus a branch slot per subfolder.
// Placement never consults it again after streets are sized, so the
// pass stays independent of the grid.
func (e *Engine) spanCells(f *Folder) int {
	span := e.fileRowCells(f.Path)
	if len(f.Children) > 0 {
		sub := 0
		for _, c := range f.Children {
			sub += e.spanCells(c)
		}
		span += branchLeadCells + sub
	}
	if span < minStreetCells {
		span = minStreetCells
	}
	return span
}

// =============================================================================
// Placement
// =============================================================================

// layoutMainStreet reserves the horizontal main street at the origin,
// sized so every top-level branch point lies within its span, then
// places root files and branches into each top-level folder.
func (e *Engine) layoutMainStreet(tree *Folder) {
	lead := e.fileRowCells("") + branchLeadCells
	length := lead
	for _, c := range tree.Children {
		length += e.spanCells(c)
	}
	if length < minMainStreetCells {
		length = minMainStreetCells
	}

	cells := make([]Cell, length)
	for x := range cells {
		cells[x] = Cell{x, 0}
	}
	e.grid.PlaceRoad(cells, RootStreetPath, 0)

	e.addStreet(Street{
		Path:            RootStreetPath,
		Name:            e.cfg.RootName,
		Depth:           0,
		FileCount:       len(e.byFolder[""]),
		Start:           e.worldCoord(Cell{0, 0}),
		End:             e.worldCoord(Cell{length, 0}),
		DescendantCount: e.totalFiles,
	})

	e.placeFileRow(e.byFolder[""], RootStreetPath, Cell{0, 0}, 0)

	branchX := lead
	side := 1
	for _, child := range tree.Children {
		span := e.spanCells(child)
		branch := Cell{branchX + span/2, 0}
		e.placeFolder(child, 1, RootStreetPath, branch, side)
		branchX += span
		side = -side
	}
}

// placeFolder reserves a street region for one folder via breadth-first
// search, lays the connector road from the parent branch point, places
// the folder's files, and recurses into subfolders. When no free region
// exists within the search radius the whole subtree is skipped: the
// omission is deliberate, surfaced only as a diagnostic.
func (e *Engine) placeFolder(f *Folder, depth int, parentPath string, parentBranch Cell, side int) {
	width := e.spanCells(f)

	searchStart := Cell{parentBranch.X, parentBranch.Y + side*(buildingOffsetCells+1)}
	origin, ok := e.grid.FindFreeRegion(searchStart, width, streetHeightCells, e.cfg.MaxSearchRadius)
	if !ok {
		e.cfg.Logger.Warn("no free region for folder, dropping subtree",
			"path", f.Path, "radius", e.cfg.MaxSearchRadius)
		return
	}

	// Connector road, one depth below the parent street so the
	// crossing at the branch point is legal. The terminal cell is left
	// for the folder street itself.
	connectorPath := parentPath + ">" + f.Path
	connector := e.grid.LPath(parentBranch, origin, false)
	if len(connector) > 1 {
		if !e.grid.PlaceRoad(connector[:len(connector)-1], connectorPath, depth) {
			e.cfg.Logger.Debug("connector road blocked", "path", connectorPath)
		}
	}
	e.addStreet(Street{
		Path:            connectorPath,
		Depth:           depth,
		Start:           e.worldCoord(parentBranch),
		End:             e.worldCoord(origin),
		DescendantCount: e.descendants[f.Path],
	})

	cells := make([]Cell, width)
	for i := range cells {
		cells[i] = Cell{origin.X + i, origin.Y}
	}
	// The street feature is emitted even when its road cells cannot
	// all be reserved, so the folder keeps its label and file row; the
	// road just lacks grid backing where it was blocked.
	if !e.grid.PlaceRoad(cells, f.Path, depth) {
		e.cfg.Logger.Warn("street road partially blocked", "path", f.Path)
	}

	files := e.byFolder[f.Path]
	e.addStreet(Street{
		Path:            f.Path,
		Name:            f.Name,
		Depth:           depth,
		FileCount:       len(files),
		Start:           e.worldCoord(origin),
		End:             e.worldCoord(Cell{origin.X + width, origin.Y}),
		DescendantCount: e.descendants[f.Path],
	})

	e.placeFileRow(files, f.Path, origin, depth)

	// Subfolders branch beyond the file row, fanning out on the side
	// opposite to how this folder branched in.
	branchX := origin.X + e.fileRowCells(f.Path) + branchLeadCells
	subSide := -side
	for _, child := range f.Children {
		span := e.spanCells(child)
		branch := Cell{branchX + span/2, origin.Y}
		e.placeFolder(child, depth+1, f.Path, branch, subSide)
		branchX += span
		subSide = -subSide
	}
}

// placeFileRow places a folder's files as buildings alternating on the
// two sides of its street, advancing one building block per pair. Each
// file reserves a block wide enough for the maximum tier width; a file
// whose block cannot be reserved is skipped rather than emitted
// overlapping.
func (e *Engine) placeFileRow(files []metrics.FileMetrics, streetPath string, streetStart Cell, depth int) {
	for i, fm := range files {
		side := 1
		if i%2 == 1 {
			side = -1
		}
		column := i / 2 * buildingBlockCells

		anchor := Cell{streetStart.X + column, streetStart.Y + buildingOffsetCells}
		if side < 0 {
			anchor.Y = streetStart.Y - buildingOffsetCells - (buildingBlockCells - 1)
		}

		if !e.grid.PlaceBuilding(anchor, fm.Path, depth, buildingBlockCells, buildingBlockCells) {
			e.cfg.Logger.Debug("building placement blocked, skipping file", "path", fm.Path)
			continue
		}
		e.emitTiers(fm, streetPath, anchor)
	}
}

// emitTiers appends one Building per tier for a placed file. All tiers
// share the center of the reserved block and stack seamlessly: each
// tier's top is the next tier's base.
func (e *Engine) emitTiers(fm metrics.FileMetrics, streetPath string, anchor Cell) {
	numTiers := NumTiers(fm.LinesOfCode)
	widths := TierWidths(fm.LineLengths, numTiers)
	tierHeight := InterpolateHeight(fm.LinesOfCode) / float64(numTiers)

	wx, wy := e.grid.GridToWorld(anchor.X, anchor.Y)
	centerX := wx + e.cfg.CellSize*buildingBlockCells/2
	centerY := wy + e.cfg.CellSize*buildingBlockCells/2

	for tier := 0; tier < numTiers; tier++ {
		half := widths[tier] / 2
		e.buildings = append(e.buildings, Building{
			Path:          fm.Path,
			Name:          baseName(fm.Path),
			Street:        streetPath,
			Language:      fm.Language,
			LinesOfCode:   fm.LinesOfCode,
			AvgLineLength: fm.AvgLineLength,
			CreatedAt:     fm.CreatedAt,
			LastModified:  fm.LastModified,
			Corners: [4]Coord{
				{centerX - half, centerY - half},
				{centerX + half, centerY - half},
				{centerX + half, centerY + half},
				{centerX - half, centerY + half},
			},
			Tier:       tier,
			BaseHeight: float64(tier) * tierHeight,
			TopHeight:  float64(tier+1) * tierHeight,
			TierWidth:  widths[tier],
		})
	}
}

// addStreet appends a street feature unless one with the same path key
// was already created. Folders are normally reached once, but the
// guard keeps re-entry idempotent.
func (e *Engine) addStreet(s Street) {
	if e.created[s.Path] {
		return
	}
	e.created[s.Path] = true
	e.streets = append(e.streets, s)
}

func (e *Engine) worldCoord(c Cell) Coord {
	x, y := e.grid.GridToWorld(c.X, c.Y)
	return Coord{x, y}
}

// =============================================================================
// Grass
// =============================================================================

const grassMargin = 10.0

// grassFor returns the ground polygon covering all streets and
// buildings plus margin, or nil for an empty city.
func grassFor(c *City) *Grass {
	if c.Empty() {
		return nil
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	grow := func(p Coord) {
		minX = min(minX, p.X)
		minY = min(minY, p.Y)
		maxX = max(maxX, p.X)
		maxY = max(maxY, p.Y)
	}

	for _, s := range c.Streets {
		grow(s.Start)
		grow(s.End)
	}
	for _, b := range c.Buildings {
		for _, p := range b.Corners {
			grow(p)
		}
	}

	return &Grass{Bounds: [4]Coord{
		{minX - grassMargin, minY - grassMargin},
		{maxX + grassMargin, minY - grassMargin},
		{maxX + grassMargin, maxY + grassMargin},
		{minX - grassMargin, maxY + grassMargin},
	}}
}
