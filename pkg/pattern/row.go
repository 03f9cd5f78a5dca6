package pattern

import (
	"github.com/matzehuels/stitchgraph/pkg/errors"
	"github.com/matzehuels/stitchgraph/pkg/spec"
)

// rowLink is a neighbor map entry: the peer mesh and the row it currently
// belongs to (NoRow if that instruction was removed from its row).
type rowLink struct {
	row  RowHandle
	mesh MeshHandle
}

type rowRecord struct {
	id           ID
	spec         spec.Map
	defaults     spec.Map
	instructions []InstructionHandle

	// forward maps this row's produced meshes to their consumers,
	// backward maps this row's consumed meshes to their producers.
	forward  map[MeshHandle]rowLink
	backward map[MeshHandle]rowLink
}

// Row is a view of an ordered sequence of instructions.
type Row struct {
	p *Pattern
	h RowHandle
}

// Link is the far end of a row connection: a row and a row-relative mesh
// index in it.
type Link struct {
	Row   Row
	Index int
}

// Handle returns the row's arena handle.
func (r Row) Handle() RowHandle { return r.h }

// Pattern returns the owning pattern.
func (r Row) Pattern() *Pattern { return r.p }

// ID returns the row id.
func (r Row) ID() ID { return r.rec().id }

// Spec returns the row specification as given to AddRow.
func (r Row) Spec() spec.Map { return r.rec().spec }

// Color returns the row color, if set.
func (r Row) Color() (string, bool) {
	v, ok := r.rec().spec[KeyColor]
	if !ok {
		return "", false
	}
	s, isString := v.AsString()
	return s, isString
}

// Instructions returns the mutable instruction list of the row.
func (r Row) Instructions() RowInstructions { return RowInstructions{row: r} }

// NumberOfProducedMeshes sums the produced meshes of all instructions.
func (r Row) NumberOfProducedMeshes() int {
	n := 0
	for _, h := range r.rec().instructions {
		n += len(r.p.instruction(h).produced)
	}
	return n
}

// NumberOfConsumedMeshes sums the consumed meshes of all instructions.
func (r Row) NumberOfConsumedMeshes() int {
	n := 0
	for _, h := range r.rec().instructions {
		n += len(r.p.instruction(h).consumed)
	}
	return n
}

// ProducedMeshes returns the produced meshes in row order.
func (r Row) ProducedMeshes() []Mesh { return r.collect(Produced) }

// ConsumedMeshes returns the consumed meshes in row order.
func (r Row) ConsumedMeshes() []Mesh { return r.collect(Consumed) }

func (r Row) collect(pol Polarity) []Mesh {
	var out []Mesh
	for _, h := range r.rec().instructions {
		for _, m := range r.p.instruction(h).handles(pol) {
			out = append(out, Mesh{p: r.p, h: m})
		}
	}
	return out
}

func (rec *instructionRecord) handles(pol Polarity) []MeshHandle {
	if pol == Produced {
		return rec.produced
	}
	return rec.consumed
}

// ResolveProduced maps a row-relative produced mesh index to the owning
// instruction and the index inside it. Indices outside [0, count) fail with
// INDEX_OUT_OF_RANGE.
func (r Row) ResolveProduced(index int) (Instruction, int, error) {
	return r.resolve(Produced, index)
}

// ResolveConsumed maps a row-relative consumed mesh index to the owning
// instruction and the index inside it.
func (r Row) ResolveConsumed(index int) (Instruction, int, error) {
	return r.resolve(Consumed, index)
}

func (r Row) resolve(pol Polarity, index int) (Instruction, int, error) {
	if index >= 0 {
		offset := 0
		for _, h := range r.rec().instructions {
			n := len(r.p.instruction(h).handles(pol))
			if index < offset+n {
				return Instruction{p: r.p, h: h}, index - offset, nil
			}
			offset += n
		}
	}
	return Instruction{}, 0, errors.New(errors.ErrCodeIndexOutOfRange,
		"%s mesh index %d out of range in row %s", pol, index, r.ID())
}

// ProducedMesh returns the produced mesh at a row-relative index.
func (r Row) ProducedMesh(index int) (Mesh, error) { return r.meshAt(Produced, index) }

// ConsumedMesh returns the consumed mesh at a row-relative index.
func (r Row) ConsumedMesh(index int) (Mesh, error) { return r.meshAt(Consumed, index) }

func (r Row) meshAt(pol Polarity, index int) (Mesh, error) {
	inst, local, err := r.resolve(pol, index)
	if err != nil {
		return Mesh{}, err
	}
	return Mesh{p: r.p, h: inst.rec().handles(pol)[local]}, nil
}

// FirstProducedMesh returns the row's first produced mesh, failing with
// INDEX_OUT_OF_RANGE on a row that produces nothing.
func (r Row) FirstProducedMesh() (Mesh, error) { return r.meshAt(Produced, 0) }

// LastProducedMesh returns the row's last produced mesh.
func (r Row) LastProducedMesh() (Mesh, error) {
	return r.meshAt(Produced, r.NumberOfProducedMeshes()-1)
}

// FirstConsumedMesh returns the row's first consumed mesh.
func (r Row) FirstConsumedMesh() (Mesh, error) { return r.meshAt(Consumed, 0) }

// LastConsumedMesh returns the row's last consumed mesh.
func (r Row) LastConsumedMesh() (Mesh, error) {
	return r.meshAt(Consumed, r.NumberOfConsumedMeshes()-1)
}

// ProducedLink returns the consumer of the produced mesh at index. ok is
// false when the mesh is unconnected or its consumer is detached.
func (r Row) ProducedLink(index int) (Link, bool, error) {
	return r.linkAt(Produced, index)
}

// ConsumedLink returns the producer of the consumed mesh at index.
func (r Row) ConsumedLink(index int) (Link, bool, error) {
	return r.linkAt(Consumed, index)
}

func (r Row) linkAt(pol Polarity, index int) (Link, bool, error) {
	m, err := r.meshAt(pol, index)
	if err != nil {
		return Link{}, false, err
	}
	l, ok := r.neighbor(pol, m.h)
	if !ok {
		return Link{}, false, nil
	}
	peerIndex, err := Mesh{p: r.p, h: l.mesh}.IndexInRow()
	if err != nil {
		return Link{}, false, err
	}
	return Link{Row: Row{p: r.p, h: l.row}, Index: peerIndex}, true, nil
}

// neighbor reads the row's own map for one of its meshes and reports only
// links whose peer is bound to a row.
func (r Row) neighbor(pol Polarity, m MeshHandle) (rowLink, bool) {
	table := r.rec().forward
	if pol == Consumed {
		table = r.rec().backward
	}
	l, ok := table[m]
	if !ok || l.row == NoRow {
		return rowLink{}, false
	}
	return l, true
}

// String returns the row id.
func (r Row) String() string { return "row " + r.ID().String() }

func (r Row) rec() *rowRecord { return r.p.row(r.h) }
