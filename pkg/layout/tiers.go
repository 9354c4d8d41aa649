package layout

import "sort"

// Building dimension constants, in world units.
const (
	// MinBuildingWidth is the narrowest tier footprint.
	MinBuildingWidth = 3.0
	// MaxBuildingWidth is the widest tier footprint. The occupancy grid
	// always reserves space for this width so narrower tiers can never
	// cause a missed collision.
	MaxBuildingWidth = 10.0

	// widthDivisor maps a section's average line length to a tier width.
	widthDivisor = 3.0

	// defaultLineLength stands in for the trimmed mean of an empty
	// section.
	defaultLineLength = 40.0

	// maxTiers caps the tier count for very large files.
	maxTiers = 10
)

// tierThresholds holds the upper lines-of-code bound for each tier
// count below maxTiers. A file with at most tierThresholds[i] lines
// gets i+1 tiers.
var tierThresholds = [...]int{50, 100, 200, 400, 700, 1000, 1500, 2500, 4000}

// NumTiers returns how many vertical tiers a file's building has,
// stepping up with lines of code and capping at ten.
func NumTiers(linesOfCode int) int {
	for i, limit := range tierThresholds {
		if linesOfCode <= limit {
			return i + 1
		}
	}
	return maxTiers
}

// heightBreakpoints anchors the piecewise-linear total-height curve.
// Heights grow steeply at first so small files remain distinguishable,
// then flatten toward the skyscraper cap.
var heightBreakpoints = []struct {
	loc    int
	height float64
}{
	{0, 3},
	{50, 10},
	{100, 25},
	{300, 75},
	{500, 150},
	{1000, 300},
	{3000, 500},
	{5000, 828},
}

// InterpolateHeight converts a line count into a total building height
// by linear interpolation between fixed breakpoints. Heights cap at
// the final breakpoint for files of 5000 lines or more.
func InterpolateHeight(linesOfCode int) float64 {
	last := heightBreakpoints[len(heightBreakpoints)-1]
	if linesOfCode >= last.loc {
		return last.height
	}
	for i := 1; i < len(heightBreakpoints); i++ {
		hi := heightBreakpoints[i]
		if linesOfCode <= hi.loc {
			lo := heightBreakpoints[i-1]
			t := float64(linesOfCode-lo.loc) / float64(hi.loc-lo.loc)
			return lo.height + t*(hi.height-lo.height)
		}
	}
	return last.height
}

// TierWidths computes the footprint width of each tier, bottom to top.
// The file's per-line lengths are split into numTiers contiguous,
// near-equal sections; each section's trimmed mean line length scales
// linearly into a width clamped to [MinBuildingWidth, MaxBuildingWidth].
// A file with uniform line lengths yields a near-uniform pillar, while
// sections with longer lines widen their tier.
func TierWidths(lineLengths []int, numTiers int) []float64 {
	if numTiers <= 0 {
		numTiers = 1
	}

	widths := make([]float64, numTiers)
	base := len(lineLengths) / numTiers
	rem := len(lineLengths) % numTiers

	start := 0
	for i := 0; i < numTiers; i++ {
		size := base
		// Remainder lines go one per section from the bottom up.
		if i < rem {
			size++
		}
		section := lineLengths[start : start+size]
		start += size

		width := trimmedMean(section) / widthDivisor
		if width < MinBuildingWidth {
			width = MinBuildingWidth
		}
		if width > MaxBuildingWidth {
			width = MaxBuildingWidth
		}
		widths[i] = width
	}
	return widths
}

// trimmedMean averages a section of line lengths after dropping the
// top and bottom 10% (at least one element each side) to keep a single
// enormous line from skewing the tier width. Sections of four or fewer
// lines use the plain mean; an empty section falls back to a fixed
// default.
func trimmedMean(values []int) float64 {
	if len(values) == 0 {
		return defaultLineLength
	}
	if len(values) <= 4 {
		return mean(values)
	}

	sorted := make([]int, len(values))
	copy(sorted, values)
	sort.Ints(sorted)

	trim := len(sorted) / 10
	if trim < 1 {
		trim = 1
	}
	return mean(sorted[trim : len(sorted)-trim])
}

func mean(values []int) float64 {
	sum := 0
	for _, v := range values {
		sum += v
	}
	return float64(sum) / float64(len(values))
}
