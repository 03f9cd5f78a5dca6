package pattern

import (
	"github.com/matzehuels/stitchgraph/pkg/errors"
	"github.com/matzehuels/stitchgraph/pkg/spec"
)

// Specification keys understood by the graph.
const (
	KeyID                     = "id"
	KeyType                   = "type"
	KeyColor                  = "color"
	KeyNumberOfConsumedMeshes = "number of consumed meshes"
	KeyNumberOfProducedMeshes = "number of produced meshes"
	KeyGridLayout             = "grid-layout"
	KeyWidth                  = "width"
)

// Instruction types with dedicated predicates.
const (
	TypeKnit = "knit"
	TypePurl = "purl"
)

// Defaults for absent keys.
const (
	DefaultType                   = TypeKnit
	DefaultNumberOfConsumedMeshes = 1
	DefaultNumberOfProducedMeshes = 1
)

// MaxMeshes bounds the consumed and produced mesh counts of one instruction.
const MaxMeshes = 1 << 16

type instructionRecord struct {
	own         spec.Map
	row         RowHandle
	cachedIndex int
	produced    []MeshHandle
	consumed    []MeshHandle
}

// Instruction is a view of one knitting operation consuming N and producing
// M meshes. Its mesh counts are fixed when it is created.
type Instruction struct {
	p *Pattern
	h InstructionHandle
}

// newInstruction creates a detached instruction whose chain is resolved
// against row (which may be NoRow) for its mesh counts.
func (p *Pattern) newInstruction(own spec.Map, row RowHandle) (Instruction, error) {
	if own == nil {
		own = spec.Map{}
	}
	chain := p.chainFor(own, row)

	consumed, err := meshCount(chain, KeyNumberOfConsumedMeshes, DefaultNumberOfConsumedMeshes)
	if err != nil {
		return Instruction{}, err
	}
	produced, err := meshCount(chain, KeyNumberOfProducedMeshes, DefaultNumberOfProducedMeshes)
	if err != nil {
		return Instruction{}, err
	}

	h := InstructionHandle(len(p.instructions))
	rec := instructionRecord{
		own:         own,
		row:         NoRow,
		cachedIndex: -1,
		produced:    make([]MeshHandle, produced),
		consumed:    make([]MeshHandle, consumed),
	}
	for i := range rec.produced {
		rec.produced[i] = MeshHandle(len(p.meshes))
		p.meshes = append(p.meshes, meshRecord{polarity: Produced, instruction: h, index: i, link: noMesh})
	}
	for i := range rec.consumed {
		rec.consumed[i] = MeshHandle(len(p.meshes))
		p.meshes = append(p.meshes, meshRecord{polarity: Consumed, instruction: h, index: i, link: noMesh})
	}
	p.instructions = append(p.instructions, rec)
	return Instruction{p: p, h: h}, nil
}

func meshCount(chain spec.Chain, key string, def int) (int, error) {
	v, ok := chain.Get(key)
	if !ok {
		return def, nil
	}
	n, isInt := v.AsInt()
	if !isInt || n < 0 {
		return 0, errors.New(errors.ErrCodeInvalidInput, "%q must be a non-negative integer, got %v", key, v)
	}
	if n > MaxMeshes {
		return 0, errors.New(errors.ErrCodeInvalidInput, "%q must be at most %d, got %d", key, MaxMeshes, n)
	}
	return n, nil
}

// chainFor builds the lookup chain of an instruction spec: own spec, the
// row defaults, then the library definition of its type.
func (p *Pattern) chainFor(own spec.Map, row RowHandle) spec.Chain {
	var rowDefaults spec.Map
	if row != NoRow {
		rowDefaults = p.row(row).defaults
	}
	chain := spec.NewChain(own, rowDefaults)
	if p.definitions != nil {
		if def, ok := p.definitions.Definition(typeOf(chain)); ok {
			chain = chain.Inherit(def)
		}
	}
	return chain
}

func typeOf(chain spec.Chain) string {
	v, ok := chain.Get(KeyType)
	if !ok {
		return DefaultType
	}
	if s, isString := v.AsString(); isString {
		return s
	}
	return v.String()
}

// Handle returns the instruction's arena handle.
func (i Instruction) Handle() InstructionHandle { return i.h }

// Pattern returns the owning pattern.
func (i Instruction) Pattern() *Pattern { return i.p }

// Chain returns the lookup chain: own spec, row defaults, library entry.
func (i Instruction) Chain() spec.Chain {
	r := i.rec()
	return i.p.chainFor(r.own, r.row)
}

// Spec returns the instruction's own specification.
func (i Instruction) Spec() spec.Map { return i.rec().own }

// Get looks up key through the chain.
func (i Instruction) Get(key string) (spec.Value, bool) { return i.Chain().Get(key) }

// Lookup looks up key through the chain, failing with KEY_NOT_FOUND.
func (i Instruction) Lookup(key string) (spec.Value, error) { return i.Chain().Lookup(key) }

// ID returns the instruction's "id" value, if any.
func (i Instruction) ID() (spec.Value, bool) {
	v, ok := i.rec().own[KeyID]
	return v, ok
}

// Type returns the instruction type, "knit" when unset.
func (i Instruction) Type() string { return typeOf(i.Chain()) }

// Color returns the color name, if one is set anywhere in the chain.
func (i Instruction) Color() (string, bool) {
	v, ok := i.Get(KeyColor)
	if !ok || v.IsNull() {
		return "", false
	}
	if s, isString := v.AsString(); isString {
		return s, true
	}
	return v.String(), true
}

// DoesKnit reports whether the instruction is a plain knit stitch.
func (i Instruction) DoesKnit() bool { return i.Type() == TypeKnit }

// DoesPurl reports whether the instruction is a purl stitch.
func (i Instruction) DoesPurl() bool { return i.Type() == TypePurl }

// NumberOfConsumedMeshes returns how many meshes the instruction consumes.
func (i Instruction) NumberOfConsumedMeshes() int { return len(i.rec().consumed) }

// NumberOfProducedMeshes returns how many meshes the instruction produces.
func (i Instruction) NumberOfProducedMeshes() int { return len(i.rec().produced) }

// Width returns the chart width: the grid-layout width override if set,
// otherwise the number of consumed meshes.
func (i Instruction) Width() float64 {
	if v, ok := i.Chain().Path(KeyGridLayout, KeyWidth); ok {
		if w, isNum := v.AsNumber(); isNum {
			return w
		}
	}
	return float64(i.NumberOfConsumedMeshes())
}

// ProducedMeshes returns the meshes created by the instruction.
func (i Instruction) ProducedMeshes() []Mesh { return i.meshes(i.rec().produced) }

// ConsumedMeshes returns the meshes the instruction needs.
func (i Instruction) ConsumedMeshes() []Mesh { return i.meshes(i.rec().consumed) }

func (i Instruction) meshes(handles []MeshHandle) []Mesh {
	out := make([]Mesh, len(handles))
	for k, h := range handles {
		out[k] = Mesh{p: i.p, h: h}
	}
	return out
}

// FirstProducedMesh returns the first produced mesh, failing with
// INDEX_OUT_OF_RANGE when the instruction produces none.
func (i Instruction) FirstProducedMesh() (Mesh, error) { return i.edge(i.rec().produced, true, "produced") }

// LastProducedMesh returns the last produced mesh.
func (i Instruction) LastProducedMesh() (Mesh, error) { return i.edge(i.rec().produced, false, "produced") }

// FirstConsumedMesh returns the first consumed mesh.
func (i Instruction) FirstConsumedMesh() (Mesh, error) { return i.edge(i.rec().consumed, true, "consumed") }

// LastConsumedMesh returns the last consumed mesh.
func (i Instruction) LastConsumedMesh() (Mesh, error) { return i.edge(i.rec().consumed, false, "consumed") }

func (i Instruction) edge(handles []MeshHandle, first bool, what string) (Mesh, error) {
	if len(handles) == 0 {
		return Mesh{}, errors.New(errors.ErrCodeIndexOutOfRange, "instruction has no %s meshes", what)
	}
	if first {
		return Mesh{p: i.p, h: handles[0]}, nil
	}
	return Mesh{p: i.p, h: handles[len(handles)-1]}, nil
}

// Row returns the owning row. ok is false for a detached instruction.
func (i Instruction) Row() (Row, bool) {
	h := i.rec().row
	if h == NoRow {
		return Row{}, false
	}
	return Row{p: i.p, h: h}, true
}

// IsBound reports whether the instruction belongs to a row.
func (i Instruction) IsBound() bool { return i.rec().row != NoRow }

// IndexInRow returns the position of the instruction in its row, failing
// with NOT_FOUND_IN_CONTAINER once it has been removed.
func (i Instruction) IndexInRow() (int, error) {
	row, ok := i.Row()
	if !ok {
		return 0, errors.New(errors.ErrCodeNotFoundInContainer, "instruction %d is not in a row", i.h)
	}
	return row.Instructions().IndexOf(i)
}

// IndexOfFirstProducedMesh returns the row-relative index of the
// instruction's first produced mesh: the produced count of all preceding
// instructions.
func (i Instruction) IndexOfFirstProducedMesh() (int, error) {
	return i.prefix(Instruction.NumberOfProducedMeshes)
}

// IndexOfFirstConsumedMesh returns the row-relative index of the
// instruction's first consumed mesh.
func (i Instruction) IndexOfFirstConsumedMesh() (int, error) {
	return i.prefix(Instruction.NumberOfConsumedMeshes)
}

func (i Instruction) prefix(count func(Instruction) int) (int, error) {
	index, err := i.IndexInRow()
	if err != nil {
		return 0, err
	}
	row, _ := i.Row()
	sum := 0
	for _, before := range row.Instructions().All()[:index] {
		sum += count(before)
	}
	return sum, nil
}

// ProducingInstructions returns the distinct instructions connected to this
// instruction's consumed meshes, in mesh order.
func (i Instruction) ProducingInstructions() []Instruction {
	return i.neighbors(i.rec().consumed)
}

// ConsumingInstructions returns the distinct instructions connected to this
// instruction's produced meshes, in mesh order.
func (i Instruction) ConsumingInstructions() []Instruction {
	return i.neighbors(i.rec().produced)
}

func (i Instruction) neighbors(handles []MeshHandle) []Instruction {
	var out []Instruction
	seen := make(map[InstructionHandle]bool)
	for _, h := range handles {
		peer, ok := Mesh{p: i.p, h: h}.Peer()
		if !ok {
			continue
		}
		other := peer.Instruction()
		if !seen[other.h] {
			seen[other.h] = true
			out = append(out, other)
		}
	}
	return out
}

func (i Instruction) rec() *instructionRecord { return i.p.instruction(i.h) }
