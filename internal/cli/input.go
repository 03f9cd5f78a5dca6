package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stitchgraph/pkg/pattern"
	"github.com/matzehuels/stitchgraph/pkg/pipeline"
)

// selection holds the flags that pick one pattern out of a set, and the
// instruction file the set is read against.
type selection struct {
	pattern      string
	index        int
	instructions string
}

func (s *selection) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&s.pattern, "pattern", "p", "", "pattern id to use (default: the first pattern)")
	cmd.Flags().IntVar(&s.index, "index", 0, "pattern index to use when --pattern is not given")
	cmd.Flags().StringVar(&s.instructions, "instructions", "", "JSON file of extra instruction definitions")
}

// use points r at the instruction file, if one was given.
func (s selection) use(r *pipeline.Runner) error {
	if s.instructions == "" {
		return nil
	}
	return r.UseInstructions(s.instructions)
}

func (s selection) apply(opts *pipeline.Options) {
	opts.Pattern = s.pattern
	opts.Index = s.index
}

// loadPattern reads path and selects one of its patterns.
func loadPattern(ctx context.Context, r *pipeline.Runner, path string, sel selection) (*pipeline.Document, *pattern.Pattern, error) {
	if err := sel.use(r); err != nil {
		return nil, nil, err
	}
	doc, err := r.LoadFile(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	var opts pipeline.Options
	sel.apply(&opts)
	p, err := r.Select(doc, opts)
	if err != nil {
		return nil, nil, err
	}
	return doc, p, nil
}
