// Package walk derives the knit order of a pattern: a row sequence in which
// every row comes after all rows whose meshes it consumes.
package walk

import (
	"slices"
	"strings"

	"github.com/matzehuels/stitchgraph/pkg/errors"
	"github.com/matzehuels/stitchgraph/pkg/pattern"
)

// Rows returns the rows of p in knit order.
//
// Rows uses a deterministic variant of Kahn's algorithm. The order it
// produces is part of the contract: renderers and stored charts compare
// knit orders exactly, so ties are broken the same way every time.
//
// # Algorithm
//
//  1. For every row, copy its RowsBefore into a pending list. Seed the
//     queue with the rows whose pending list is empty, in declaration order.
//  2. Pop the front of the queue and append it to the result.
//  3. Visit the popped row's RowsAfter in reverse. Remove the popped row
//     from each dependent's pending list; a dependent whose list becomes
//     empty is pushed to the front of the queue.
//  4. Repeat until the queue is empty.
//
// Pushing to the front makes the walk finish the most recently freed
// branch first, which keeps chains of rows together.
//
// # Cycles
//
// Rows left with a non-empty pending list cannot be ordered. Rows then
// fails with CYCLIC_DEPENDENCY naming them instead of returning a partial
// order.
//
// # Performance
//
// Time complexity is O(V + E·d), where d is the largest number of rows
// any single row depends on; pending lists are short in practice.
func Rows(p *pattern.Pattern) ([]pattern.Row, error) {
	rows := p.Rows()
	pending := make(map[pattern.RowHandle][]pattern.RowHandle, len(rows))
	queue := make([]pattern.Row, 0, len(rows))

	for _, r := range rows {
		before := r.RowsBefore()
		handles := make([]pattern.RowHandle, len(before))
		for i, b := range before {
			handles[i] = b.Handle()
		}
		pending[r.Handle()] = handles
		if len(handles) == 0 {
			queue = append(queue, r)
		}
	}

	order := make([]pattern.Row, 0, len(rows))
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		order = append(order, curr)

		after := curr.RowsAfter()
		for i := len(after) - 1; i >= 0; i-- {
			dep := after[i]
			list := pending[dep.Handle()]
			idx := slices.Index(list, curr.Handle())
			if idx < 0 {
				continue
			}
			list = slices.Delete(list, idx, idx+1)
			pending[dep.Handle()] = list
			if len(list) == 0 {
				queue = slices.Insert(queue, 0, dep)
			}
		}
	}

	if len(order) < len(rows) {
		var stuck []string
		for _, r := range rows {
			if len(pending[r.Handle()]) > 0 {
				stuck = append(stuck, r.ID().String())
			}
		}
		return nil, errors.New(errors.ErrCodeCyclicDependency,
			"cannot order rows %s: they depend on each other", strings.Join(stuck, ", "))
	}
	return order, nil
}

// IDs returns the row ids of p in knit order.
func IDs(p *pattern.Pattern) ([]pattern.ID, error) {
	order, err := Rows(p)
	if err != nil {
		return nil, err
	}
	ids := make([]pattern.ID, len(order))
	for i, r := range order {
		ids[i] = r.ID()
	}
	return ids, nil
}

// Instructions returns every instruction of p, row by row in knit order.
func Instructions(p *pattern.Pattern) ([]pattern.Instruction, error) {
	order, err := Rows(p)
	if err != nil {
		return nil, err
	}
	var out []pattern.Instruction
	for _, r := range order {
		out = append(out, r.Instructions().All()...)
	}
	return out, nil
}
