// Package layout turns a repository's file metrics into a
// collision-free 2D city: streets are folders, buildings are files
// stacked into tiers by size.
//
// # Architecture
//
// The package has four cooperating parts:
//
//   - [BuildTree]: groups flat file paths into a folder tree whose
//     child order (first appearance in the input) is the layout's only
//     non-spatial tie-break.
//   - [Grid]: a reservation map over integer cells. Every street and
//     building claims cells atomically before it is emitted, which is
//     what guarantees that no two unrelated elements overlap.
//   - [Engine] (via [Layout]): walks the folder tree recursively,
//     reserving a street per folder, branch connectors to subfolders,
//     and a building block per file. Folder streets are positioned by
//     a bounded breadth-first search for free space; a folder that
//     cannot be placed is dropped from the output with a diagnostic.
//   - Tier generation ([NumTiers], [TierWidths], [InterpolateHeight]):
//     converts a file's line statistics into a stack of square tiers
//     whose heights chain exactly (each tier's top is the next tier's
//     base).
//
// # Crossing rule
//
// Roads may only cross roads whose nesting depth differs by exactly
// one: a folder's street crosses its direct parent's street at the
// branch point, and nothing else. Buildings never share a cell with
// anything.
//
// # Concurrency
//
// Each [Layout] call owns its grid and accumulators exclusively.
// Independent layouts may run in parallel without synchronization.
package layout
