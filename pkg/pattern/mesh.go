package pattern

import (
	"fmt"

	"github.com/matzehuels/stitchgraph/pkg/errors"
)

// Polarity tells which side of a connection a mesh belongs to.
type Polarity uint8

const (
	// Produced meshes are created by an instruction and leave it.
	Produced Polarity = iota
	// Consumed meshes are required by an instruction and enter it.
	Consumed
)

// String returns "produced" or "consumed".
func (pol Polarity) String() string {
	if pol == Produced {
		return "produced"
	}
	return "consumed"
}

// Opposite returns the other polarity.
func (pol Polarity) Opposite() Polarity {
	if pol == Produced {
		return Consumed
	}
	return Produced
}

// meshRecord is one member of the Produced/Consumed tagged union. The link
// is the mesh of opposite polarity it is connected to, or noMesh.
type meshRecord struct {
	polarity    Polarity
	instruction InstructionHandle
	index       int
	link        MeshHandle
}

// Mesh is a view of one yarn loop. A produced mesh is identified by the
// instruction that creates it and its index in that instruction; a consumed
// mesh by the instruction that needs it.
type Mesh struct {
	p *Pattern
	h MeshHandle
}

// Handle returns the mesh's arena handle.
func (m Mesh) Handle() MeshHandle { return m.h }

// Pattern returns the owning pattern.
func (m Mesh) Pattern() *Pattern { return m.p }

// Polarity returns the native polarity of the mesh.
func (m Mesh) Polarity() Polarity { return m.rec().polarity }

// Instruction returns the instruction owning this mesh.
func (m Mesh) Instruction() Instruction {
	return Instruction{p: m.p, h: m.rec().instruction}
}

// Index returns the index of the mesh inside its instruction.
func (m Mesh) Index() int { return m.rec().index }

// IsProduced is always true for a produced mesh. For a consumed mesh it is
// true only while a producer is connected.
func (m Mesh) IsProduced() bool {
	r := m.rec()
	return r.polarity == Produced || r.link != noMesh
}

// IsConsumed is always true for a consumed mesh. For a produced mesh it is
// true only while a consumer is connected.
func (m Mesh) IsConsumed() bool {
	r := m.rec()
	return r.polarity == Consumed || r.link != noMesh
}

// IsConnected reports whether the mesh has a partner.
func (m Mesh) IsConnected() bool { return m.rec().link != noMesh }

// IsConnectedTo reports whether m and other are linked to each other.
func (m Mesh) IsConnectedTo(other Mesh) bool {
	if m.p != other.p || m.p == nil {
		return false
	}
	return m.rec().link == other.h || other.rec().link == m.h
}

// Peer returns the connected mesh of opposite polarity.
func (m Mesh) Peer() (Mesh, bool) {
	link := m.rec().link
	if link == noMesh {
		return Mesh{}, false
	}
	return Mesh{p: m.p, h: link}, true
}

// ProducedSide returns the produced end of the connection. It panics if m
// is an unconnected consumed mesh.
func (m Mesh) ProducedSide() Mesh {
	if m.Polarity() == Produced {
		return m
	}
	return m.mustPeer("produced side")
}

// ConsumedSide returns the consumed end of the connection. It panics if m
// is an unconnected produced mesh.
func (m Mesh) ConsumedSide() Mesh {
	if m.Polarity() == Consumed {
		return m
	}
	return m.mustPeer("consumed side")
}

// ProducingInstruction returns the instruction that produces this mesh.
// It panics if m is an unconnected consumed mesh.
func (m Mesh) ProducingInstruction() Instruction {
	return m.ProducedSide().Instruction()
}

// ConsumingInstruction returns the instruction that consumes this mesh.
// It panics if m is an unconnected produced mesh.
func (m Mesh) ConsumingInstruction() Instruction {
	return m.ConsumedSide().Instruction()
}

// ProducingRow returns the row of the producing instruction. ok is false
// when the mesh is unconnected on that side or the instruction is detached.
func (m Mesh) ProducingRow() (Row, bool) {
	if !m.IsProduced() {
		return Row{}, false
	}
	return m.ProducingInstruction().Row()
}

// ConsumingRow returns the row of the consuming instruction.
func (m Mesh) ConsumingRow() (Row, bool) {
	if !m.IsConsumed() {
		return Row{}, false
	}
	return m.ConsumingInstruction().Row()
}

// IndexInRow returns the row-relative index of the mesh among the row's
// meshes of the same polarity. Detached instructions fail with
// NOT_FOUND_IN_CONTAINER.
func (m Mesh) IndexInRow() (int, error) {
	inst := m.Instruction()
	var first int
	var err error
	if m.Polarity() == Produced {
		first, err = inst.IndexOfFirstProducedMesh()
	} else {
		first, err = inst.IndexOfFirstConsumedMesh()
	}
	if err != nil {
		return 0, err
	}
	return first + m.Index(), nil
}

// ConnectTo links m to other. It fails with INVALID_CONNECTION_STATE unless
// the two meshes have opposite polarity, belong to the same pattern and are
// both unconnected. The mesh links and both rows' neighbor maps change
// together.
func (m Mesh) ConnectTo(other Mesh) error {
	if m.p == nil || m.p != other.p {
		return errors.New(errors.ErrCodeInvalidConnectionState, "meshes belong to different patterns")
	}
	a, b := m.rec(), other.rec()
	if a.polarity == b.polarity {
		return errors.New(errors.ErrCodeInvalidConnectionState,
			"cannot connect two %s meshes", a.polarity)
	}
	if a.link != noMesh {
		return errors.New(errors.ErrCodeInvalidConnectionState, "%s is already connected", m)
	}
	if b.link != noMesh {
		return errors.New(errors.ErrCodeInvalidConnectionState, "%s is already connected", other)
	}

	producer, consumer := m, other
	if a.polarity == Consumed {
		producer, consumer = other, m
	}
	m.p.link(producer.h, consumer.h)
	return nil
}

// Disconnect removes the connection of m. Disconnecting an unconnected
// mesh does nothing.
func (m Mesh) Disconnect() {
	r := m.rec()
	if r.link == noMesh {
		return
	}
	producer, consumer := m.h, r.link
	if r.polarity == Consumed {
		producer, consumer = r.link, m.h
	}
	m.p.unlink(producer, consumer)
}

// String describes the mesh for error messages.
func (m Mesh) String() string {
	if m.p == nil {
		return "mesh(nil)"
	}
	r := m.rec()
	return fmt.Sprintf("%s mesh %d of instruction %d", r.polarity, r.index, r.instruction)
}

func (m Mesh) rec() *meshRecord { return m.p.mesh(m.h) }

func (m Mesh) mustPeer(what string) Mesh {
	peer, ok := m.Peer()
	if !ok {
		panic(fmt.Sprintf("pattern: %s of unconnected %s", what, m))
	}
	return peer
}

// link and unlink are the only places that touch connection state. Each
// updates both mesh records and both rows' neighbor maps before returning.
func (p *Pattern) link(producer, consumer MeshHandle) {
	pr, cr := p.mesh(producer), p.mesh(consumer)
	pr.link = consumer
	cr.link = producer

	producerRow := p.instruction(pr.instruction).row
	consumerRow := p.instruction(cr.instruction).row
	if producerRow != NoRow {
		p.row(producerRow).forward[producer] = rowLink{row: consumerRow, mesh: consumer}
	}
	if consumerRow != NoRow {
		p.row(consumerRow).backward[consumer] = rowLink{row: producerRow, mesh: producer}
	}
}

func (p *Pattern) unlink(producer, consumer MeshHandle) {
	pr, cr := p.mesh(producer), p.mesh(consumer)
	pr.link = noMesh
	cr.link = noMesh

	if row := p.instruction(pr.instruction).row; row != NoRow {
		delete(p.row(row).forward, producer)
	}
	if row := p.instruction(cr.instruction).row; row != NoRow {
		delete(p.row(row).backward, consumer)
	}
}
