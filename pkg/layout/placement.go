package layout

import (
	"math"

	"github.com/matzehuels/stitchgraph/pkg/pattern"
)

// Box is an axis-aligned rectangle in grid units. Y grows downward, in knit
// order: later rows have larger y.
type Box struct {
	MinX, MinY float64
	MaxX, MaxY float64
}

// Width returns the horizontal span of the box.
func (b Box) Width() float64 { return b.MaxX - b.MinX }

// Height returns the vertical span of the box.
func (b Box) Height() float64 { return b.MaxY - b.MinY }

// Contains reports whether the point lies inside the box. The max edges
// are exclusive.
func (b Box) Contains(x, y float64) bool {
	return x >= b.MinX && x < b.MaxX && y >= b.MinY && y < b.MaxY
}

// Tuple returns (min x, min y, max x, max y).
func (b Box) Tuple() [4]float64 { return [4]float64{b.MinX, b.MinY, b.MaxX, b.MaxY} }

func (b Box) extend(x, y, w, h float64) Box {
	return Box{
		MinX: math.Min(b.MinX, x),
		MinY: math.Min(b.MinY, y),
		MaxX: math.Max(b.MaxX, x+w),
		MaxY: math.Max(b.MaxY, y+h),
	}
}

// RowPlacement is a row placed on the grid.
type RowPlacement struct {
	Row          pattern.Row
	ID           pattern.ID
	X, Y         float64
	Width        float64
	Height       float64
	Instructions []InstructionPlacement
}

// InstructionPlacement is an instruction placed on the grid.
type InstructionPlacement struct {
	Instruction pattern.Instruction
	RowID       pattern.ID
	X, Y        float64
	Width       float64
	Height      float64
}

// Left returns the left edge.
func (p InstructionPlacement) Left() float64 { return p.X }

// Right returns the right edge.
func (p InstructionPlacement) Right() float64 { return p.X + p.Width }

// CenterX returns the horizontal center.
func (p InstructionPlacement) CenterX() float64 { return p.X + p.Width/2 }

// CenterY returns the vertical center.
func (p InstructionPlacement) CenterY() float64 { return p.Y + p.Height/2 }

// Color returns the instruction color, if any.
func (p InstructionPlacement) Color() (string, bool) { return p.Instruction.Color() }

// Type returns the instruction type.
func (p InstructionPlacement) Type() string { return p.Instruction.Type() }

// Connection links a producing instruction to a consuming one.
type Connection struct {
	Start InstructionPlacement
	Stop  InstructionPlacement
}

// IsVisible reports whether the connection jumps over at least one row.
// Connections between adjacent rows are implied by the chart and are not
// drawn.
func (c Connection) IsVisible() bool { return c.Stop.Y-c.Start.Y > RowHeight }
