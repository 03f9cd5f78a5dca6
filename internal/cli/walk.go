package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stitchgraph/pkg/pattern"
	"github.com/matzehuels/stitchgraph/pkg/walk"
)

// walkCommand creates the walk command, which prints the knit order.
func (c *CLI) walkCommand() *cobra.Command {
	var (
		sel          selection
		instructions bool
		asJSON       bool
	)

	cmd := &cobra.Command{
		Use:   "walk [file]",
		Short: "Print the knit order of a pattern",
		Long: `Walk prints the rows of a pattern in knit order: every row comes after
the rows whose meshes it consumes. With --instructions it prints every
instruction as "row:index type" instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			runner, err := c.newRunner(ctx, true)
			if err != nil {
				return err
			}
			defer runner.Close()

			_, p, err := loadPattern(ctx, runner, args[0], sel)
			if err != nil {
				return err
			}
			if instructions {
				insts, err := walk.Instructions(p)
				if err != nil {
					return err
				}
				return writeInstructions(cmd.OutOrStdout(), insts, asJSON)
			}
			order, err := runner.Walk(ctx, p)
			if err != nil {
				return err
			}
			return writeOrder(cmd.OutOrStdout(), order, asJSON)
		},
	}

	sel.bind(cmd)
	cmd.Flags().BoolVarP(&instructions, "instructions", "i", false, "print instructions instead of rows")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func writeOrder(w io.Writer, order []pattern.Row, asJSON bool) error {
	ids := make([]pattern.ID, len(order))
	for i, r := range order {
		ids[i] = r.ID()
	}
	if asJSON {
		return json.NewEncoder(w).Encode(ids)
	}
	for _, id := range ids {
		if _, err := fmt.Fprintln(w, id); err != nil {
			return err
		}
	}
	return nil
}

type walkedInstruction struct {
	Row   pattern.ID `json:"row"`
	Index int        `json:"index"`
	Type  string     `json:"type"`
}

func writeInstructions(w io.Writer, insts []pattern.Instruction, asJSON bool) error {
	out := make([]walkedInstruction, 0, len(insts))
	for _, inst := range insts {
		row, ok := inst.Row()
		if !ok {
			continue
		}
		i, err := inst.IndexInRow()
		if err != nil {
			return err
		}
		out = append(out, walkedInstruction{Row: row.ID(), Index: i, Type: inst.Type()})
	}
	if asJSON {
		return json.NewEncoder(w).Encode(out)
	}
	for _, wi := range out {
		if _, err := fmt.Fprintf(w, "%s:%d %s\n", wi.Row, wi.Index, wi.Type); err != nil {
			return err
		}
	}
	return nil
}
