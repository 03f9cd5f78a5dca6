package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/matzehuels/stitchgraph/pkg/color"
	"github.com/matzehuels/stitchgraph/pkg/errors"
	pio "github.com/matzehuels/stitchgraph/pkg/io"
	"github.com/matzehuels/stitchgraph/pkg/pattern"
	"github.com/matzehuels/stitchgraph/pkg/spec"
)

// Swatch stitches offered by the new command.
const (
	stitchStockinette = "stockinette"
	stitchGarter      = "garter"
	stitchRib         = "rib"
	stitchSeed        = "seed"
)

const maxSwatchSize = 500

// swatch describes a rectangular pattern of knits and purls.
type swatch struct {
	ID     string
	Name   string
	Rows   int
	Width  int
	Stitch string
	Color  string
}

// purlAt reports whether the stitch at column x of row y is a purl.
func (s swatch) purlAt(x, y int) bool {
	switch s.Stitch {
	case stitchGarter:
		return y%2 == 1
	case stitchRib:
		return x%2 == 1
	case stitchSeed:
		return (x+y)%2 == 1
	}
	return false
}

func (s swatch) validate() error {
	if err := errors.ValidatePatternID(s.ID); err != nil {
		return err
	}
	if s.Rows < 1 || s.Rows > maxSwatchSize || s.Width < 1 || s.Width > maxSwatchSize {
		return errors.New(errors.ErrCodeInvalidInput, "swatch must be 1 to %d rows and stitches, got %dx%d", maxSwatchSize, s.Width, s.Rows)
	}
	switch s.Stitch {
	case stitchStockinette, stitchGarter, stitchRib, stitchSeed:
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown stitch %q", s.Stitch)
	}
	if s.Color != "" {
		if _, err := color.Normalize(s.Color); err != nil {
			return err
		}
	}
	return nil
}

// build creates a one-pattern set with every row fully connected to the
// next.
func (s swatch) build() (*pio.PatternSet, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}
	name := s.Name
	if name == "" {
		name = s.ID
	}
	set := pio.NewPatternSet(nil)
	p, err := set.NewPattern(pattern.StringID(s.ID), name)
	if err != nil {
		return nil, err
	}

	var prev pattern.Row
	for y := range s.Rows {
		rowSpec := spec.Map{}
		if s.Color != "" {
			rowSpec[pattern.KeyColor] = spec.String(s.Color)
		}
		row, err := p.AddRow(pattern.NumberID(float64(y+1)), rowSpec)
		if err != nil {
			return nil, err
		}
		specs := make([]spec.Map, s.Width)
		for x := range specs {
			specs[x] = spec.Map{}
			if s.purlAt(x, y) {
				specs[x][pattern.KeyType] = spec.String(pattern.TypePurl)
			}
		}
		if _, err := row.Instructions().Extend(specs...); err != nil {
			return nil, err
		}
		if y > 0 {
			if err := pattern.ConnectRange(prev, 0, row, 0, pattern.AllMeshes); err != nil {
				return nil, err
			}
		}
		prev = row
	}
	return set, nil
}

// newCommand creates the new command, which writes a starter swatch.
func (c *CLI) newCommand() *cobra.Command {
	var (
		sw      = swatch{ID: "swatch", Rows: 10, Width: 10, Stitch: stitchStockinette}
		output  string
		noInput bool
	)

	cmd := &cobra.Command{
		Use:   "new",
		Short: "Create a swatch pattern file",
		Long: `New asks for the size, stitch and color of a rectangular swatch and writes
it as a pattern set. The extension of --output picks JSON or YAML. Pass
--no-input to use the flags without asking.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !noInput {
				if err := swatchForm(&sw).RunWithContext(cmd.Context()); err != nil {
					return err
				}
			}
			set, err := sw.build()
			if err != nil {
				return err
			}
			if output == "" {
				output = sw.ID + ".json"
			}
			if _, err := os.Stat(output); err == nil {
				return errors.New(errors.ErrCodeInvalidPath, "%s already exists", output)
			}
			if err := pio.Export(set, output); err != nil {
				return err
			}

			printSuccess("Created %s swatch, %d×%d", sw.Stitch, sw.Width, sw.Rows)
			printFile(output)
			printNewline()
			printNextStep("Render", appName+" render "+output)
			return nil
		},
	}

	cmd.Flags().StringVar(&sw.ID, "id", sw.ID, "pattern id")
	cmd.Flags().StringVar(&sw.Name, "name", "", "pattern name (default: the id)")
	cmd.Flags().IntVar(&sw.Rows, "rows", sw.Rows, "number of rows")
	cmd.Flags().IntVar(&sw.Width, "width", sw.Width, "stitches per row")
	cmd.Flags().StringVar(&sw.Stitch, "stitch", sw.Stitch, "stitch: stockinette, garter, rib, seed")
	cmd.Flags().StringVar(&sw.Color, "color", "", "yarn color (name or #rrggbb)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <id>.json)")
	cmd.Flags().BoolVar(&noInput, "no-input", false, "do not ask, use the flags")
	return cmd
}

func swatchForm(sw *swatch) *huh.Form {
	rows, width := strconv.Itoa(sw.Rows), strconv.Itoa(sw.Width)
	size := func(dst *int) func(string) error {
		return func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n < 1 || n > maxSwatchSize {
				return fmt.Errorf("enter a number from 1 to %d", maxSwatchSize)
			}
			*dst = n
			return nil
		}
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Pattern id").Value(&sw.ID).Validate(errors.ValidatePatternID),
			huh.NewInput().Title("Name").Placeholder(sw.ID).Value(&sw.Name),
		),
		huh.NewGroup(
			huh.NewInput().Title("Rows").Value(&rows).Validate(size(&sw.Rows)),
			huh.NewInput().Title("Stitches per row").Value(&width).Validate(size(&sw.Width)),
			huh.NewSelect[string]().
				Title("Stitch").
				Options(huh.NewOptions(stitchStockinette, stitchGarter, stitchRib, stitchSeed)...).
				Value(&sw.Stitch),
			huh.NewInput().Title("Color").Placeholder("none").Value(&sw.Color).Validate(func(s string) error {
				if s == "" {
					return nil
				}
				_, err := color.Normalize(s)
				return err
			}),
		),
	)
}
