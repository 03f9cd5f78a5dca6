package library

import (
	"strings"
	"testing"

	"github.com/matzehuels/stitchgraph/pkg/errors"
	"github.com/matzehuels/stitchgraph/pkg/pattern"
	"github.com/matzehuels/stitchgraph/pkg/spec"
)

func TestDefaultIsShared(t *testing.T) {
	if Default() != Default() {
		t.Error("Default() returned two different libraries")
	}
}

func TestDefaultMeshCounts(t *testing.T) {
	tests := []struct {
		typ      string
		consumed int
		produced int
	}{
		{"knit", 1, 1},
		{"purl", 1, 1},
		{"yo", 0, 1},
		{"k2tog", 2, 1},
		{"skp", 2, 1},
		{"cdd", 3, 1},
		{"bo", 1, 0},
		{"co", 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			def, ok := Default().Definition(tt.typ)
			if !ok {
				t.Fatalf("Definition(%q) not found", tt.typ)
			}
			consumed, _ := def[pattern.KeyNumberOfConsumedMeshes].AsInt()
			produced, _ := def[pattern.KeyNumberOfProducedMeshes].AsInt()
			if consumed != tt.consumed || produced != tt.produced {
				t.Errorf("%s meshes = %d, %d, want %d, %d", tt.typ, consumed, produced, tt.consumed, tt.produced)
			}
		})
	}
}

func TestDefaultChartWidths(t *testing.T) {
	tests := []struct {
		typ   string
		width float64
		set   bool
	}{
		{"co", 1, true},
		{"yo", 0, false},
		{"knit", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			def, _ := Default().Definition(tt.typ)
			grid, ok := def[pattern.KeyGridLayout].AsMap()
			if ok != tt.set {
				t.Fatalf("%s has grid-layout = %v, want %v", tt.typ, ok, tt.set)
			}
			if !ok {
				return
			}
			if w, _ := grid[pattern.KeyWidth].AsNumber(); w != tt.width {
				t.Errorf("%s width = %v, want %v", tt.typ, w, tt.width)
			}
		})
	}
}

func TestTypesSorted(t *testing.T) {
	types := Default().Types()
	if len(types) != 11 {
		t.Fatalf("Types() = %v, want 11 types", types)
	}
	for i := 1; i < len(types); i++ {
		if types[i-1] > types[i] {
			t.Errorf("Types() not sorted: %v", types)
		}
	}
}

func TestLoadMergesRedefinitions(t *testing.T) {
	lib := Default().Clone()
	err := lib.Load(strings.NewReader(`[{"type": "knit", "color": "blue"}, {"type": "bobble", "number of consumed meshes": 1}]`))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	knit, _ := lib.Definition("knit")
	if c, _ := knit["color"].AsString(); c != "blue" {
		t.Errorf("knit color = %q, want blue", c)
	}
	if n, _ := knit[pattern.KeyNumberOfConsumedMeshes].AsInt(); n != 1 {
		t.Errorf("knit consumed = %d, want 1 inherited from the earlier definition", n)
	}
	if _, ok := lib.Definition("bobble"); !ok {
		t.Error("bobble not loaded")
	}
	if _, ok := Default().Definition("bobble"); ok {
		t.Error("Clone() shares definitions with Default()")
	}
	if got := lib.All()[len(lib.All())-1]; got[pattern.KeyType].String() != "bobble" {
		t.Errorf("All() last = %v, want bobble", got)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		code  errors.Code
	}{
		{"not json", `{`, errors.ErrCodeParse},
		{"not a list", `{"type": "knit"}`, errors.ErrCodeParse},
		{"missing type", `[{"title": "x"}]`, errors.ErrCodeInvalidInput},
		{"numeric type", `[{"type": 3}]`, errors.ErrCodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New().Load(strings.NewReader(tt.input))
			if !errors.Is(err, tt.code) {
				t.Errorf("Load() error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestChain(t *testing.T) {
	chain := Default().Chain(spec.Map{pattern.KeyType: spec.String("yo"), "color": spec.String("red")})
	if v, _ := chain.Get(pattern.KeyNumberOfConsumedMeshes); !spec.Equal(v, spec.Int(0)) {
		t.Errorf("yo consumed = %v, want 0", v)
	}
	if v, _ := chain.Get("color"); v.String() != "red" {
		t.Errorf("color = %v, want red", v)
	}

	untyped := Default().Chain(spec.Map{})
	if v, _ := untyped.Get("title"); v.String() != "knit" {
		t.Errorf("untyped title = %v, want knit", v)
	}
}

func TestPatternInheritsDefinitions(t *testing.T) {
	p := pattern.New(pattern.StringID("lace"), "lace", pattern.WithDefinitions(Default()))
	r := p.MustAddRow(pattern.NumberID(1))
	if _, err := r.Instructions().Extend(
		spec.Map{pattern.KeyType: spec.String("yo")},
		spec.Map{pattern.KeyType: spec.String("k2tog")},
	); err != nil {
		t.Fatalf("Extend() error = %v", err)
	}
	if got := r.NumberOfConsumedMeshes(); got != 2 {
		t.Errorf("NumberOfConsumedMeshes() = %d, want 2", got)
	}
	if got := r.NumberOfProducedMeshes(); got != 2 {
		t.Errorf("NumberOfProducedMeshes() = %d, want 2", got)
	}
}
