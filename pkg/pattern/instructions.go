package pattern

import (
	"slices"

	"github.com/matzehuels/stitchgraph/pkg/errors"
	"github.com/matzehuels/stitchgraph/pkg/spec"
)

// RowInstructions is the ordered, mutable instruction list of a row.
// Mutations bind and unbind instructions inline and keep the neighbor maps
// of every affected row current before they return.
type RowInstructions struct {
	row Row
}

// Len returns the number of instructions.
func (ri RowInstructions) Len() int { return len(ri.list()) }

// At returns the instruction at index.
func (ri RowInstructions) At(index int) (Instruction, error) {
	list := ri.list()
	if index < 0 || index >= len(list) {
		return Instruction{}, errors.New(errors.ErrCodeIndexOutOfRange,
			"instruction index %d out of range in %s", index, ri.row)
	}
	return Instruction{p: ri.row.p, h: list[index]}, nil
}

// All returns the instructions in order.
func (ri RowInstructions) All() []Instruction {
	list := ri.list()
	out := make([]Instruction, len(list))
	for i, h := range list {
		out[i] = Instruction{p: ri.row.p, h: h}
	}
	return out
}

// Append creates an instruction from a raw spec at the end of the row.
// An empty spec yields a knit stitch.
func (ri RowInstructions) Append(s spec.Map) (Instruction, error) {
	return ri.Insert(ri.Len(), s)
}

// MustAppend is like Append but panics on an invalid spec. It is meant for
// building fixtures.
func (ri RowInstructions) MustAppend(s spec.Map) Instruction {
	inst, err := ri.Append(s)
	if err != nil {
		panic(err)
	}
	return inst
}

// Extend appends one instruction per spec.
func (ri RowInstructions) Extend(specs ...spec.Map) ([]Instruction, error) {
	out := make([]Instruction, 0, len(specs))
	for _, s := range specs {
		inst, err := ri.Append(s)
		if err != nil {
			return out, err
		}
		out = append(out, inst)
	}
	return out, nil
}

// Insert creates an instruction from a raw spec at index, which may equal
// Len to append.
func (ri RowInstructions) Insert(index int, s spec.Map) (Instruction, error) {
	if err := ri.checkInsert(index); err != nil {
		return Instruction{}, err
	}
	inst, err := ri.row.p.newInstruction(s, ri.row.h)
	if err != nil {
		return Instruction{}, err
	}
	ri.bind(index, inst)
	return inst, nil
}

// InsertInstruction moves an existing instruction to index in this row.
// A bound instruction is first removed from its current row, so index
// refers to the list after that removal when both rows are the same.
// Connections travel with the instruction.
func (ri RowInstructions) InsertInstruction(index int, inst Instruction) error {
	if inst.p != ri.row.p {
		return errors.New(errors.ErrCodeInvalidInput, "instruction belongs to another pattern")
	}
	if from, ok := inst.Row(); ok {
		at, err := from.Instructions().IndexOf(inst)
		if err != nil {
			return err
		}
		from.Instructions().unbind(at)
	}
	if err := ri.checkInsert(index); err != nil {
		return err
	}
	ri.bind(index, inst)
	return nil
}

// AppendInstruction moves an existing instruction to the end of this row.
func (ri RowInstructions) AppendInstruction(inst Instruction) error {
	if from, ok := inst.Row(); ok && from == ri.row {
		return ri.InsertInstruction(ri.Len()-1, inst)
	}
	return ri.InsertInstruction(ri.Len(), inst)
}

// Remove detaches the instruction at index and returns it. Its position
// cache is invalidated, so IndexInRow fails afterwards with
// NOT_FOUND_IN_CONTAINER. Its meshes stay connected.
func (ri RowInstructions) Remove(index int) (Instruction, error) {
	inst, err := ri.At(index)
	if err != nil {
		return Instruction{}, err
	}
	ri.unbind(index)
	return inst, nil
}

// IndexOf returns the position of inst in the row. The cached position is
// checked first; on a miss the list is scanned and the cache refreshed.
// Instructions not in this row fail with NOT_FOUND_IN_CONTAINER.
func (ri RowInstructions) IndexOf(inst Instruction) (int, error) {
	if inst.p == ri.row.p {
		list := ri.list()
		rec := inst.rec()
		if c := rec.cachedIndex; c >= 0 && c < len(list) && list[c] == inst.h {
			return c, nil
		}
		if i := slices.Index(list, inst.h); i >= 0 {
			rec.cachedIndex = i
			return i, nil
		}
	}
	return 0, errors.New(errors.ErrCodeNotFoundInContainer,
		"instruction %d not found in %s", inst.h, ri.row)
}

// Contains reports whether inst is in the row.
func (ri RowInstructions) Contains(inst Instruction) bool {
	_, err := ri.IndexOf(inst)
	return err == nil
}

func (ri RowInstructions) checkInsert(index int) error {
	if index < 0 || index > ri.Len() {
		return errors.New(errors.ErrCodeIndexOutOfRange,
			"insert index %d out of range in %s", index, ri.row)
	}
	return nil
}

func (ri RowInstructions) list() []InstructionHandle { return ri.row.rec().instructions }

// bind places a detached instruction at index and points every neighbor
// map entry for its connected meshes at this row.
func (ri RowInstructions) bind(index int, inst Instruction) {
	p, rh := ri.row.p, ri.row.h
	rr := p.row(rh)
	rr.instructions = slices.Insert(rr.instructions, index, inst.h)

	rec := inst.rec()
	rec.row = rh
	rec.cachedIndex = index

	for _, m := range rec.produced {
		if peer := p.mesh(m).link; peer != noMesh {
			peerRow := p.instruction(p.mesh(peer).instruction).row
			rr.forward[m] = rowLink{row: peerRow, mesh: peer}
			if peerRow != NoRow {
				p.row(peerRow).backward[peer] = rowLink{row: rh, mesh: m}
			}
		}
	}
	for _, m := range rec.consumed {
		if peer := p.mesh(m).link; peer != noMesh {
			peerRow := p.instruction(p.mesh(peer).instruction).row
			rr.backward[m] = rowLink{row: peerRow, mesh: peer}
			if peerRow != NoRow {
				p.row(peerRow).forward[peer] = rowLink{row: rh, mesh: m}
			}
		}
	}
}

// unbind detaches the instruction at index. Mesh links are kept; the
// peers' neighbor map entries are marked as pointing at no row.
func (ri RowInstructions) unbind(index int) {
	p, rh := ri.row.p, ri.row.h
	rr := p.row(rh)
	h := rr.instructions[index]
	rr.instructions = slices.Delete(rr.instructions, index, index+1)

	rec := p.instruction(h)
	rec.row = NoRow
	rec.cachedIndex = -1

	for _, m := range rec.produced {
		delete(rr.forward, m)
		if peer := p.mesh(m).link; peer != noMesh {
			if peerRow := p.instruction(p.mesh(peer).instruction).row; peerRow != NoRow {
				p.row(peerRow).backward[peer] = rowLink{row: NoRow, mesh: m}
			}
		}
	}
	for _, m := range rec.consumed {
		delete(rr.backward, m)
		if peer := p.mesh(m).link; peer != noMesh {
			if peerRow := p.instruction(p.mesh(peer).instruction).row; peerRow != NoRow {
				p.row(peerRow).forward[peer] = rowLink{row: NoRow, mesh: m}
			}
		}
	}
}
