package pattern

import (
	"github.com/matzehuels/stitchgraph/pkg/errors"
)

// AllMeshes asks ConnectRange to connect as many meshes as both rows allow.
const AllMeshes = -1

// ConnectRange connects count produced meshes of from, starting at
// fromStart, to the consumed meshes of to, starting at toStart, pairwise
// in order.
//
// With count == AllMeshes the count is
// min(from.produced - fromStart, to.consumed - toStart). Ranges that do not
// fit either row fail with INDEX_OUT_OF_RANGE before anything is connected.
// A pairwise connect that fails part-way returns an
// INVALID_CONNECTION_STATE error; the meshes connected before it stay
// connected and the pattern should be treated as broken.
func ConnectRange(from Row, fromStart int, to Row, toStart int, count int) error {
	if from.p == nil || from.p != to.p {
		return errors.New(errors.ErrCodeInvalidInput, "rows belong to different patterns")
	}
	produced := from.NumberOfProducedMeshes()
	consumed := to.NumberOfConsumedMeshes()
	if fromStart < 0 || fromStart > produced {
		return errors.New(errors.ErrCodeIndexOutOfRange,
			"start %d out of range for %d produced meshes of %s", fromStart, produced, from)
	}
	if toStart < 0 || toStart > consumed {
		return errors.New(errors.ErrCodeIndexOutOfRange,
			"start %d out of range for %d consumed meshes of %s", toStart, consumed, to)
	}
	if count == AllMeshes {
		count = min(produced-fromStart, consumed-toStart)
	}
	if count < 0 || fromStart+count > produced || toStart+count > consumed {
		return errors.New(errors.ErrCodeIndexOutOfRange,
			"cannot connect %d meshes from %s[%d:] to %s[%d:]", count, from, fromStart, to, toStart)
	}

	producers := from.ProducedMeshes()[fromStart : fromStart+count]
	consumers := to.ConsumedMeshes()[toStart : toStart+count]
	for k := range producers {
		if err := producers[k].ConnectTo(consumers[k]); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConnectionState, err,
				"connecting %s mesh %d to %s mesh %d", from, fromStart+k, to, toStart+k)
		}
	}
	return nil
}

// ConnectRange connects this row's produced meshes to another row; see the
// package-level ConnectRange.
func (r Row) ConnectRange(fromStart int, to Row, toStart int, count int) error {
	return ConnectRange(r, fromStart, to, toStart, count)
}

// RowsBefore returns the distinct rows producing this row's consumed
// meshes, in order of first occurrence. Unconnected meshes and producers
// detached from their row are skipped.
func (r Row) RowsBefore() []Row { return r.neighborRows(Consumed) }

// RowsAfter returns the distinct rows consuming this row's produced meshes,
// in order of first occurrence.
func (r Row) RowsAfter() []Row { return r.neighborRows(Produced) }

func (r Row) neighborRows(pol Polarity) []Row {
	var out []Row
	seen := make(map[RowHandle]bool)
	for _, h := range r.rec().instructions {
		for _, m := range r.p.instruction(h).handles(pol) {
			l, ok := r.neighbor(pol, m)
			if !ok || seen[l.row] {
				continue
			}
			seen[l.row] = true
			out = append(out, Row{p: r.p, h: l.row})
		}
	}
	return out
}
