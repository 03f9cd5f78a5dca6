// Package pattern provides the knitting graph: rows of instructions whose
// produced meshes are wired to the consumed meshes of other rows.
//
// # Model
//
// A [Pattern] owns three arenas:
//
//   - rows: ordered instruction lists with an id and a spec
//   - instructions: a spec, an owning row and a fixed set of meshes
//   - meshes: produced or consumed, each linked to at most one mesh of the
//     opposite polarity
//
// Entities are referenced by integer handles. The exported [Row],
// [Instruction] and [Mesh] values are views over those handles and are
// cheap to copy and compare.
//
// # Building
//
//	p := pattern.New(pattern.StringID("swatch"), "Swatch")
//	r1 := p.MustAddRow(pattern.NumberID(1))
//	r2 := p.MustAddRow(pattern.NumberID(2))
//	r1.Instructions().Extend(spec.Map{}, spec.Map{})
//	r2.Instructions().Extend(spec.Map{}, spec.Map{})
//	err := pattern.ConnectRange(r1, 0, r2, 0, pattern.AllMeshes)
//
// # Invariants
//
// Row mesh index i belongs to exactly one instruction, found by prefix sums
// over the instructions' mesh counts. Connections are symmetric: both mesh
// records and both rows' neighbor maps are updated inside the same call.
// Removing an instruction from its row detaches it without disconnecting its
// meshes; neighbors then skip it.
package pattern
