package pattern

import (
	"slices"

	"github.com/matzehuels/stitchgraph/pkg/errors"
	"github.com/matzehuels/stitchgraph/pkg/spec"
)

// Handles address records inside a [Pattern]. They stay valid for the
// lifetime of the pattern; records are never deleted, only detached.
type (
	RowHandle         int
	InstructionHandle int
	MeshHandle        int
)

const (
	// NoRow is the row handle of a detached instruction.
	NoRow RowHandle = -1
	// noMesh marks an unconnected mesh.
	noMesh MeshHandle = -1
)

// Definitions supplies the library specification for an instruction type.
// It is the lowest priority entry of every instruction's chain.
type Definitions interface {
	Definition(instructionType string) (spec.Map, bool)
}

// Pattern is one knitted piece: an arena of rows, instructions and meshes.
//
// All entities are records owned by the pattern and referenced by integer
// handles. [Row], [Instruction] and [Mesh] are small views (pattern pointer
// plus handle) that carry the methods; they are comparable with ==.
//
// A Pattern is not safe for concurrent use. Callers that share one across
// goroutines must guard the whole pattern with a single lock, since walking
// and layout need a consistent snapshot of every row.
type Pattern struct {
	id   ID
	name string

	rows         []rowRecord
	instructions []instructionRecord
	meshes       []meshRecord

	rowIndex    map[ID]RowHandle
	definitions Definitions
}

// Option configures a Pattern.
type Option func(*Pattern)

// WithDefinitions sets the instruction library consulted after an
// instruction's own spec and its row defaults.
func WithDefinitions(d Definitions) Option {
	return func(p *Pattern) { p.definitions = d }
}

// New creates an empty pattern.
func New(id ID, name string, opts ...Option) *Pattern {
	p := &Pattern{
		id:       id,
		name:     name,
		rowIndex: make(map[ID]RowHandle),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ID returns the pattern id.
func (p *Pattern) ID() ID { return p.id }

// Name returns the pattern name.
func (p *Pattern) Name() string { return p.name }

// Definitions returns the instruction library the pattern inherits from,
// or nil.
func (p *Pattern) Definitions() Definitions { return p.definitions }

// AddRow creates a row with the given id. The row spec supplies defaults
// (such as color) to every instruction in the row; its "id" and
// "instructions" keys are not inherited. Duplicate ids fail with
// INVALID_INPUT.
func (p *Pattern) AddRow(id ID, rowSpec spec.Map) (Row, error) {
	if _, exists := p.rowIndex[id]; exists {
		return Row{}, errors.New(errors.ErrCodeInvalidInput, "duplicate row id %s", id)
	}
	if rowSpec == nil {
		rowSpec = spec.Map{}
	}
	h := RowHandle(len(p.rows))
	p.rows = append(p.rows, rowRecord{
		id:       id,
		spec:     rowSpec,
		defaults: rowSpec.Without("id", "instructions"),
		forward:  make(map[MeshHandle]rowLink),
		backward: make(map[MeshHandle]rowLink),
	})
	p.rowIndex[id] = h
	return Row{p: p, h: h}, nil
}

// MustAddRow is like AddRow but panics on a duplicate id. It is meant for
// building fixtures.
func (p *Pattern) MustAddRow(id ID) Row {
	r, err := p.AddRow(id, nil)
	if err != nil {
		panic(err)
	}
	return r
}

// Row returns the row with the given id.
func (p *Pattern) Row(id ID) (Row, bool) {
	h, ok := p.rowIndex[id]
	if !ok {
		return Row{}, false
	}
	return Row{p: p, h: h}, true
}

// RowAt returns the view for a row handle.
func (p *Pattern) RowAt(h RowHandle) Row { return Row{p: p, h: h} }

// InstructionAt returns the view for an instruction handle.
func (p *Pattern) InstructionAt(h InstructionHandle) Instruction {
	return Instruction{p: p, h: h}
}

// MeshAt returns the view for a mesh handle.
func (p *Pattern) MeshAt(h MeshHandle) Mesh { return Mesh{p: p, h: h} }

// NumRows returns the number of rows.
func (p *Pattern) NumRows() int { return len(p.rows) }

// Rows returns all rows in declaration order.
func (p *Pattern) Rows() []Row {
	out := make([]Row, len(p.rows))
	for i := range p.rows {
		out[i] = Row{p: p, h: RowHandle(i)}
	}
	return out
}

// SortedRows returns all rows ordered by id.
func (p *Pattern) SortedRows() []Row {
	out := p.Rows()
	slices.SortStableFunc(out, func(a, b Row) int { return a.ID().Compare(b.ID()) })
	return out
}

// Instructions returns every instruction bound to a row, row by row in
// declaration order.
func (p *Pattern) Instructions() []Instruction {
	var out []Instruction
	for _, r := range p.Rows() {
		out = append(out, r.Instructions().All()...)
	}
	return out
}

func (p *Pattern) row(h RowHandle) *rowRecord                         { return &p.rows[h] }
func (p *Pattern) instruction(h InstructionHandle) *instructionRecord { return &p.instructions[h] }
func (p *Pattern) mesh(h MeshHandle) *meshRecord                      { return &p.meshes[h] }
