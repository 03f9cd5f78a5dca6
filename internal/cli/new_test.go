package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/stitchgraph/pkg/errors"
	pio "github.com/matzehuels/stitchgraph/pkg/io"
	"github.com/matzehuels/stitchgraph/pkg/walk"
)

func TestSwatchBuild(t *testing.T) {
	tests := []struct {
		stitch string
		// purls of the first two rows, left to right
		want [2]string
	}{
		{stitchStockinette, [2]string{"kkk", "kkk"}},
		{stitchGarter, [2]string{"kkk", "ppp"}},
		{stitchRib, [2]string{"kpk", "kpk"}},
		{stitchSeed, [2]string{"kpk", "pkp"}},
	}
	for _, tt := range tests {
		t.Run(tt.stitch, func(t *testing.T) {
			sw := swatch{ID: "s", Rows: 4, Width: 3, Stitch: tt.stitch, Color: "navy"}
			set, err := sw.build()
			if err != nil {
				t.Fatalf("build() error = %v", err)
			}
			p, err := set.At(0)
			if err != nil {
				t.Fatal(err)
			}
			if p.NumRows() != 4 || len(p.Instructions()) != 12 {
				t.Fatalf("swatch = %d rows, %d instructions, want 4, 12", p.NumRows(), len(p.Instructions()))
			}
			if got := len(pio.Connections(p)); got != 3 {
				t.Errorf("connections = %d, want 3", got)
			}
			if _, err := walk.Rows(p); err != nil {
				t.Errorf("walk.Rows() error = %v", err)
			}

			for y, row := range p.Rows()[:2] {
				got := ""
				for _, inst := range row.Instructions().All() {
					if inst.DoesPurl() {
						got += "p"
					} else {
						got += "k"
					}
				}
				if got != tt.want[y] {
					t.Errorf("row %d = %s, want %s", y+1, got, tt.want[y])
				}
			}
			if c, ok := p.Rows()[0].Color(); !ok || c != "navy" {
				t.Errorf("row color = %q, %v, want navy", c, ok)
			}
		})
	}
}

func TestSwatchValidate(t *testing.T) {
	ok := swatch{ID: "s", Rows: 1, Width: 1, Stitch: stitchRib}
	tests := []struct {
		name string
		edit func(*swatch)
		code errors.Code
	}{
		{"empty id", func(s *swatch) { s.ID = "" }, errors.ErrCodeInvalidID},
		{"path id", func(s *swatch) { s.ID = "../s" }, errors.ErrCodeInvalidID},
		{"no rows", func(s *swatch) { s.Rows = 0 }, errors.ErrCodeInvalidInput},
		{"too wide", func(s *swatch) { s.Width = maxSwatchSize + 1 }, errors.ErrCodeInvalidInput},
		{"stitch", func(s *swatch) { s.Stitch = "cable" }, errors.ErrCodeInvalidInput},
		{"color", func(s *swatch) { s.Color = "not-a-color" }, errors.ErrCodeInvalidInput},
	}
	if err := ok.validate(); err != nil {
		t.Fatalf("validate() error = %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sw := ok
			tt.edit(&sw)
			if err := sw.validate(); !errors.Is(err, tt.code) {
				t.Errorf("validate() = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestNewCommand(t *testing.T) {
	dir := isolate(t)
	out := filepath.Join(dir, "rib.yaml")

	args := []string{"new", "--no-input", "--id", "rib", "--rows", "3", "--width", "4", "--stitch", "rib", "-o", out}
	if _, err := run(t, args...); err != nil {
		t.Fatalf("new error = %v", err)
	}
	set, err := pio.Import(out)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	p, err := set.At(0)
	if err != nil {
		t.Fatal(err)
	}
	if p.ID().String() != "rib" || p.Name() != "rib" || p.NumRows() != 3 {
		t.Errorf("pattern = %s %q with %d rows, want rib with 3", p.ID(), p.Name(), p.NumRows())
	}

	if _, err := run(t, args...); err == nil {
		t.Error("new over an existing file succeeded")
	}
	if _, err := os.Stat(out); err != nil {
		t.Error(err)
	}
}
