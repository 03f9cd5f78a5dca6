package layout

import (
	"cmp"
	"math"
	"slices"

	"github.com/matzehuels/stitchgraph/pkg/errors"
	"github.com/matzehuels/stitchgraph/pkg/pattern"
)

// RowHeight is the vertical distance between a row and the rows it feeds.
const RowHeight = 1

// Grid is the chart layout of one pattern.
type Grid struct {
	Pattern *pattern.Pattern

	// Rows in display order: ascending y, then ascending x.
	Rows []RowPlacement

	// Connections between instructions in display order of their producer.
	Connections []Connection

	// Box encloses every placed row.
	Box Box

	byInstruction map[pattern.InstructionHandle]int
	byRow         map[pattern.RowHandle]int
}

// Instructions returns every placed instruction, row by row in display
// order.
func (g *Grid) Instructions() []InstructionPlacement {
	var out []InstructionPlacement
	for _, r := range g.Rows {
		out = append(out, r.Instructions...)
	}
	return out
}

// Row returns the placement of a row.
func (g *Grid) Row(r pattern.Row) (RowPlacement, bool) {
	i, ok := g.byRow[r.Handle()]
	if !ok {
		return RowPlacement{}, false
	}
	return g.Rows[i], true
}

// Instruction returns the placement of an instruction.
func (g *Grid) Instruction(inst pattern.Instruction) (InstructionPlacement, bool) {
	row, ok := inst.Row()
	if !ok {
		return InstructionPlacement{}, false
	}
	rp, ok := g.Row(row)
	if !ok {
		return InstructionPlacement{}, false
	}
	i, ok := g.byInstruction[inst.Handle()]
	if !ok {
		return InstructionPlacement{}, false
	}
	return rp.Instructions[i], true
}

// VisibleConnections returns the connections that skip at least one row.
func (g *Grid) VisibleConnections() []Connection {
	var out []Connection
	for _, c := range g.Connections {
		if c.IsVisible() {
			out = append(out, c)
		}
	}
	return out
}

// Compute lays out p on the chart grid.
//
// Compute propagates coordinates outward from a seed row over the mesh
// connections. Expansion order matters: the same pattern always yields the
// same chart, and a different order would yield a different one.
//
// # Algorithm
//
//  1. The first row by id is placed at (0, 0).
//  2. A FIFO worklist holds (row, x, y) candidates. A candidate places its
//     row when the row is unplaced or currently sits at a smaller y; rows
//     never move up. Candidates for rows already on their own expansion
//     branch are dropped.
//  3. On placement, instructions are laid out left to right from the row's
//     x, each as wide as its grid-layout width or its consumed mesh count.
//  4. Produced mesh i connected to mesh j of another row proposes that row
//     at (x + i - j, y + 1); consumed mesh i fed by mesh j proposes
//     (x + i - j, y - 1).
//
// Rows the seed cannot reach are seeded in id order at the left edge of the
// box, directly below it.
//
// # Errors
//
// A pattern without rows, or whose first row has no instructions, fails
// with MALFORMED_PATTERN before anything is placed.
func Compute(p *pattern.Pattern) (*Grid, error) {
	rows := p.SortedRows()
	if len(rows) == 0 {
		return nil, errors.New(errors.ErrCodeMalformedPattern, "pattern %s has no rows", p.ID())
	}
	if rows[0].Instructions().Len() == 0 {
		return nil, errors.New(errors.ErrCodeMalformedPattern,
			"first row %s of pattern %s has no instructions", rows[0].ID(), p.ID())
	}

	e := newEngine(rows)
	e.expand(rows[0], 0, 0)
	for _, r := range rows[1:] {
		if _, placed := e.placed[r.Handle()]; placed {
			continue
		}
		box := e.box()
		e.expand(r, int(math.Floor(box.MinX)), int(math.Ceil(box.MaxY)))
	}
	return e.grid(p), nil
}

type point struct{ x, y int }

// branch is the chain of rows a candidate was reached through.
type branch struct {
	row    pattern.RowHandle
	parent *branch
}

func (b *branch) contains(h pattern.RowHandle) bool {
	for ; b != nil; b = b.parent {
		if b.row == h {
			return true
		}
	}
	return false
}

type candidate struct {
	row  pattern.Row
	at   point
	from *branch
}

// rowIndex caches what propagation needs per row: meshes in row order and
// their row-relative indices. The pattern is not mutated during layout.
type rowIndex struct {
	produced []pattern.Mesh
	consumed []pattern.Mesh
	width    float64
}

type engine struct {
	rows      []pattern.Row
	index     map[pattern.RowHandle]*rowIndex
	meshIndex map[pattern.MeshHandle]int
	placed    map[pattern.RowHandle]point
}

func newEngine(rows []pattern.Row) *engine {
	e := &engine{
		rows:      rows,
		index:     make(map[pattern.RowHandle]*rowIndex, len(rows)),
		meshIndex: make(map[pattern.MeshHandle]int),
		placed:    make(map[pattern.RowHandle]point, len(rows)),
	}
	for _, r := range rows {
		ri := &rowIndex{produced: r.ProducedMeshes(), consumed: r.ConsumedMeshes()}
		for i, m := range ri.produced {
			e.meshIndex[m.Handle()] = i
		}
		for i, m := range ri.consumed {
			e.meshIndex[m.Handle()] = i
		}
		for _, inst := range r.Instructions().All() {
			ri.width += inst.Width()
		}
		e.index[r.Handle()] = ri
	}
	return e
}

func (e *engine) expand(seed pattern.Row, x, y int) {
	queue := []candidate{{row: seed, at: point{x, y}}}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]

		h := c.row.Handle()
		if c.from.contains(h) {
			continue
		}
		if prev, ok := e.placed[h]; ok && prev.y >= c.at.y {
			continue
		}
		e.placed[h] = c.at
		here := &branch{row: h, parent: c.from}

		ri := e.index[h]
		for i, m := range ri.produced {
			if next, ok := e.propose(m, i, c.at, RowHeight, here); ok {
				queue = append(queue, next)
			}
		}
		for i, m := range ri.consumed {
			if next, ok := e.propose(m, i, c.at, -RowHeight, here); ok {
				queue = append(queue, next)
			}
		}
	}
}

// propose turns the mesh at row-relative index i into a candidate for the
// row on the other end of its connection.
func (e *engine) propose(m pattern.Mesh, i int, at point, dy int, from *branch) (candidate, bool) {
	peer, ok := m.Peer()
	if !ok {
		return candidate{}, false
	}
	row, ok := peer.Instruction().Row()
	if !ok {
		return candidate{}, false
	}
	j, ok := e.meshIndex[peer.Handle()]
	if !ok {
		return candidate{}, false
	}
	return candidate{row: row, at: point{at.x + i - j, at.y + dy}, from: from}, true
}

func (e *engine) box() Box {
	b := Box{MinX: math.Inf(1), MinY: math.Inf(1), MaxX: math.Inf(-1), MaxY: math.Inf(-1)}
	for h, at := range e.placed {
		b = b.extend(float64(at.x), float64(at.y), e.index[h].width, RowHeight)
	}
	return b
}

func (e *engine) grid(p *pattern.Pattern) *Grid {
	g := &Grid{
		Pattern:       p,
		byInstruction: make(map[pattern.InstructionHandle]int),
		byRow:         make(map[pattern.RowHandle]int, len(e.placed)),
	}

	for _, r := range e.rows {
		at, ok := e.placed[r.Handle()]
		if !ok {
			continue
		}
		rp := RowPlacement{
			Row:    r,
			ID:     r.ID(),
			X:      float64(at.x),
			Y:      float64(at.y),
			Width:  e.index[r.Handle()].width,
			Height: RowHeight,
		}
		x := rp.X
		for i, inst := range r.Instructions().All() {
			w := inst.Width()
			rp.Instructions = append(rp.Instructions, InstructionPlacement{
				Instruction: inst,
				RowID:       rp.ID,
				X:           x,
				Y:           rp.Y,
				Width:       w,
				Height:      RowHeight,
			})
			g.byInstruction[inst.Handle()] = i
			x += w
		}
		g.Rows = append(g.Rows, rp)
	}

	// e.rows is in id order, so the stable sort breaks (y, x) ties by id.
	slices.SortStableFunc(g.Rows, func(a, b RowPlacement) int {
		if c := cmp.Compare(a.Y, b.Y); c != 0 {
			return c
		}
		return cmp.Compare(a.X, b.X)
	})

	g.Box = e.box()
	for i, rp := range g.Rows {
		g.byRow[rp.Row.Handle()] = i
	}
	g.Connections = g.connections()
	return g
}

func (g *Grid) connections() []Connection {
	type pair struct{ from, to pattern.InstructionHandle }
	seen := make(map[pair]bool)
	var out []Connection
	for _, rp := range g.Rows {
		for _, start := range rp.Instructions {
			for _, m := range start.Instruction.ProducedMeshes() {
				peer, ok := m.Peer()
				if !ok {
					continue
				}
				stop, ok := g.Instruction(peer.Instruction())
				if !ok {
					continue
				}
				key := pair{start.Instruction.Handle(), stop.Instruction.Handle()}
				if seen[key] {
					continue
				}
				seen[key] = true
				out = append(out, Connection{Start: start, Stop: stop})
			}
		}
	}
	return out
}
