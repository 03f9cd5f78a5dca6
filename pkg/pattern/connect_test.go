package pattern

import (
	"testing"

	"github.com/matzehuels/stitchgraph/pkg/errors"
	"github.com/matzehuels/stitchgraph/pkg/spec"
)

func rowIDs(rows []Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.ID().String()
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestConnectRangeDefaultCount(t *testing.T) {
	_, r1, r2 := twoRows(t, 2)

	if err := ConnectRange(r1, 0, r2, 0, AllMeshes); err != nil {
		t.Fatalf("ConnectRange() error = %v", err)
	}

	for i := 0; i < 2; i++ {
		if !r1.ProducedMeshes()[i].IsConnectedTo(r2.ConsumedMeshes()[i]) {
			t.Errorf("produced mesh %d not connected to consumed mesh %d", i, i)
		}
	}
	if got := rowIDs(r2.RowsBefore()); !equalStrings(got, []string{"1"}) {
		t.Errorf("RowsBefore() = %v, want [1]", got)
	}
	if got := rowIDs(r1.RowsAfter()); !equalStrings(got, []string{"2"}) {
		t.Errorf("RowsAfter() = %v, want [2]", got)
	}
	if got := r1.RowsBefore(); len(got) != 0 {
		t.Errorf("RowsBefore() of first row = %v, want none", got)
	}
}

func TestConnectRangeBounds(t *testing.T) {
	tests := []struct {
		name      string
		fromStart int
		toStart   int
		count     int
		wantCode  errors.Code
		connected int
	}{
		{"offset default count", 1, 0, AllMeshes, "", 2},
		{"explicit count", 0, 1, 1, "", 1},
		{"zero count", 0, 0, 0, "", 0},
		{"start past end", 4, 0, AllMeshes, errors.ErrCodeIndexOutOfRange, 0},
		{"negative start", -1, 0, 1, errors.ErrCodeIndexOutOfRange, 0},
		{"count too large", 0, 0, 4, errors.ErrCodeIndexOutOfRange, 0},
		{"count past consumer", 0, 2, 2, errors.ErrCodeIndexOutOfRange, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(StringID("test"), "test")
			from := p.MustAddRow(NumberID(1))
			to := p.MustAddRow(NumberID(2))
			from.Instructions().Extend(spec.Map{}, spec.Map{}, spec.Map{})
			to.Instructions().Extend(spec.Map{}, spec.Map{}, spec.Map{})

			err := ConnectRange(from, tt.fromStart, to, tt.toStart, tt.count)
			if tt.wantCode == "" && err != nil {
				t.Fatalf("ConnectRange() error = %v", err)
			}
			if tt.wantCode != "" && !errors.Is(err, tt.wantCode) {
				t.Fatalf("ConnectRange() error = %v, want %s", err, tt.wantCode)
			}

			connected := 0
			for _, m := range from.ProducedMeshes() {
				if m.IsConnected() {
					connected++
				}
			}
			if connected != tt.connected {
				t.Errorf("connected meshes = %d, want %d", connected, tt.connected)
			}
		})
	}
}

func TestConnectRangeFailsOnConnectedMesh(t *testing.T) {
	p, r1, r2 := twoRows(t, 2)
	r3 := p.MustAddRow(NumberID(3))
	r3.Instructions().Extend(spec.Map{}, spec.Map{})

	if err := r1.ConnectRange(1, r3, 0, 1); err != nil {
		t.Fatalf("ConnectRange() error = %v", err)
	}
	err := ConnectRange(r1, 0, r2, 0, AllMeshes)
	if !errors.Is(err, errors.ErrCodeInvalidConnectionState) {
		t.Errorf("ConnectRange() error = %v, want INVALID_CONNECTION_STATE", err)
	}
}

// mappingPattern wires rows of different widths:
//
//	1.1 [0,1] -> 2.1 [0,1]     1.1 [3,4] -> 2.2 [0,1]
//	2.2 [0,1] -> 3.2 [0,1]     3.2 [0,1] -> 4.1 [3,4]
//	2.1 [0,1] -> 4.1 [0,1]
func mappingPattern(t *testing.T) (*Pattern, map[string]Row) {
	t.Helper()
	yarnOver := spec.Map{KeyType: spec.String("yo"), KeyNumberOfConsumedMeshes: spec.Int(0)}
	p := New(StringID("mapping"), "mapping")
	rows := map[string]Row{}
	layout := map[string][]spec.Map{
		"1.1": {{}, {}, {}, {}, yarnOver},
		"2.1": {{}, {}},
		"2.2": {{}, {}},
		"3.2": {{}, {}},
		"4.1": {{}, {}, {}, {}, {}},
	}
	for _, id := range []string{"1.1", "2.1", "2.2", "3.2", "4.1"} {
		r := p.MustAddRow(StringID(id))
		if _, err := r.Instructions().Extend(layout[id]...); err != nil {
			t.Fatalf("Extend() error = %v", err)
		}
		rows[id] = r
	}

	links := []struct {
		from      string
		fromStart int
		to        string
		toStart   int
		count     int
	}{
		{"1.1", 0, "2.1", 0, 2},
		{"1.1", 3, "2.2", 0, 2},
		{"2.2", 0, "3.2", 0, AllMeshes},
		{"3.2", 0, "4.1", 3, 2},
		{"2.1", 0, "4.1", 0, 2},
	}
	for _, l := range links {
		if err := ConnectRange(rows[l.from], l.fromStart, rows[l.to], l.toStart, l.count); err != nil {
			t.Fatalf("ConnectRange(%s, %s) error = %v", l.from, l.to, err)
		}
	}
	return p, rows
}

func TestRowNeighbors(t *testing.T) {
	_, rows := mappingPattern(t)

	tests := []struct {
		row    string
		before []string
		after  []string
	}{
		{"1.1", []string{}, []string{"2.1", "2.2"}},
		{"2.1", []string{"1.1"}, []string{"4.1"}},
		{"2.2", []string{"1.1"}, []string{"3.2"}},
		{"3.2", []string{"2.2"}, []string{"4.1"}},
		{"4.1", []string{"2.1", "3.2"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.row, func(t *testing.T) {
			r := rows[tt.row]
			if got := rowIDs(r.RowsBefore()); !equalStrings(got, tt.before) {
				t.Errorf("RowsBefore() = %v, want %v", got, tt.before)
			}
			if got := rowIDs(r.RowsAfter()); !equalStrings(got, tt.after) {
				t.Errorf("RowsAfter() = %v, want %v", got, tt.after)
			}
		})
	}
}

func TestRowLinks(t *testing.T) {
	_, rows := mappingPattern(t)
	r11 := rows["1.1"]

	tests := []struct {
		index   int
		wantRow string
		wantIdx int
		wantOK  bool
	}{
		{0, "2.1", 0, true},
		{1, "2.1", 1, true},
		{2, "", 0, false},
		{3, "2.2", 0, true},
		{4, "2.2", 1, true},
	}
	for _, tt := range tests {
		l, ok, err := r11.ProducedLink(tt.index)
		if err != nil {
			t.Fatalf("ProducedLink(%d) error = %v", tt.index, err)
		}
		if ok != tt.wantOK {
			t.Fatalf("ProducedLink(%d) ok = %v, want %v", tt.index, ok, tt.wantOK)
		}
		if ok && (l.Row.ID().String() != tt.wantRow || l.Index != tt.wantIdx) {
			t.Errorf("ProducedLink(%d) = (%s, %d), want (%s, %d)", tt.index, l.Row.ID(), l.Index, tt.wantRow, tt.wantIdx)
		}
	}

	l, ok, err := rows["4.1"].ConsumedLink(4)
	if err != nil || !ok || l.Row != rows["3.2"] || l.Index != 1 {
		t.Errorf("ConsumedLink(4) = (%v, %d, %v, %v), want (row 3.2, 1, true, nil)", l.Row, l.Index, ok, err)
	}
	if _, _, err := r11.ProducedLink(5); !errors.Is(err, errors.ErrCodeIndexOutOfRange) {
		t.Errorf("ProducedLink(5) error = %v, want INDEX_OUT_OF_RANGE", err)
	}
}

func TestRemovedInstructionKeepsConnections(t *testing.T) {
	_, r1, r2 := twoRows(t, 2)
	if err := ConnectRange(r1, 0, r2, 0, AllMeshes); err != nil {
		t.Fatalf("ConnectRange() error = %v", err)
	}

	removed, err := r2.Instructions().Remove(0)
	if err != nil {
		t.Fatalf("Remove(0) error = %v", err)
	}

	consumed := removed.ConsumedMeshes()[0]
	if !consumed.IsConnectedTo(r1.ProducedMeshes()[0]) {
		t.Error("removal disconnected the instruction's mesh")
	}
	if _, ok := consumed.ProducingRow(); !ok {
		t.Error("ProducingRow() of removed consumer lost its producer row")
	}

	// Row 1 still reaches row 2 through its second mesh.
	if got := rowIDs(r1.RowsAfter()); !equalStrings(got, []string{"2"}) {
		t.Errorf("RowsAfter() = %v, want [2]", got)
	}
	if _, ok, _ := r1.ProducedLink(0); ok {
		t.Error("ProducedLink(0) reports a detached consumer")
	}
}

func TestTransferInstructionBetweenRows(t *testing.T) {
	p, r1, r2 := twoRows(t, 2)
	r3 := p.MustAddRow(NumberID(3))
	if err := ConnectRange(r1, 0, r2, 0, AllMeshes); err != nil {
		t.Fatalf("ConnectRange() error = %v", err)
	}

	moved, _ := r2.Instructions().At(1)
	if err := r3.Instructions().AppendInstruction(moved); err != nil {
		t.Fatalf("AppendInstruction() error = %v", err)
	}

	if row, ok := moved.Row(); !ok || row != r3 {
		t.Fatalf("Row() = %v, %v, want row 3", row, ok)
	}
	if r2.Instructions().Len() != 1 || r3.Instructions().Len() != 1 {
		t.Errorf("Len() = %d, %d, want 1, 1", r2.Instructions().Len(), r3.Instructions().Len())
	}
	if got := rowIDs(r1.RowsAfter()); !equalStrings(got, []string{"2", "3"}) {
		t.Errorf("RowsAfter() = %v, want [2 3]", got)
	}
	if got := rowIDs(r3.RowsBefore()); !equalStrings(got, []string{"1"}) {
		t.Errorf("RowsBefore() = %v, want [1]", got)
	}
	l, ok, err := r1.ProducedLink(1)
	if err != nil || !ok || l.Row != r3 || l.Index != 0 {
		t.Errorf("ProducedLink(1) = (%v, %d, %v, %v), want (row 3, 0, true, nil)", l.Row, l.Index, ok, err)
	}

	// Moving within a row reorders it.
	first, _ := r1.Instructions().At(0)
	if err := r1.Instructions().AppendInstruction(first); err != nil {
		t.Fatalf("AppendInstruction() same row error = %v", err)
	}
	if i, _ := first.IndexInRow(); i != 1 {
		t.Errorf("IndexInRow() after reorder = %d, want 1", i)
	}
	if got := rowIDs(r1.RowsAfter()); !equalStrings(got, []string{"3", "2"}) {
		t.Errorf("RowsAfter() after reorder = %v, want [3 2]", got)
	}
}

func TestInstructionNeighbors(t *testing.T) {
	p := New(StringID("test"), "test")
	r1 := p.MustAddRow(NumberID(1))
	r2 := p.MustAddRow(NumberID(2))
	r1.Instructions().Extend(spec.Map{}, spec.Map{})
	k2tog := r2.Instructions().MustAppend(spec.Map{
		KeyType:                   spec.String("k2tog"),
		KeyNumberOfConsumedMeshes: spec.Int(2),
	})
	if err := ConnectRange(r1, 0, r2, 0, AllMeshes); err != nil {
		t.Fatalf("ConnectRange() error = %v", err)
	}

	producers := k2tog.ProducingInstructions()
	if len(producers) != 2 {
		t.Fatalf("ProducingInstructions() = %d instructions, want 2", len(producers))
	}
	for i, inst := range producers {
		if idx, _ := inst.IndexInRow(); idx != i {
			t.Errorf("ProducingInstructions()[%d] index = %d, want %d", i, idx, i)
		}
	}
	first, _ := r1.Instructions().At(0)
	if got := first.ConsumingInstructions(); len(got) != 1 || got[0] != k2tog {
		t.Errorf("ConsumingInstructions() = %v, want [k2tog]", got)
	}
	if idx, err := k2tog.IndexOfFirstConsumedMesh(); err != nil || idx != 0 {
		t.Errorf("IndexOfFirstConsumedMesh() = %d, %v, want 0, nil", idx, err)
	}
}
