// Package layout places the rows and instructions of a pattern on a 2-D
// chart grid.
//
// [Compute] returns a [Grid]: one [RowPlacement] per row with its
// [InstructionPlacement]s, the bounding [Box] and the instruction
// [Connection]s. Renderers draw instructions as boxes at (X, Y) with the
// given Width and Height; a row is one unit high and y grows in knit order.
//
//	grid, err := layout.Compute(p)
//	for _, inst := range grid.Instructions() {
//	    fmt.Println(inst.RowID, inst.X, inst.Y, inst.Type())
//	}
//
// Only connections that skip rows are interesting to draw; see
// [Grid.VisibleConnections].
package layout
