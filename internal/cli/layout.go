package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stitchgraph/pkg/pipeline"
)

// layoutCommand creates the layout command, which writes the chart layout
// of a pattern as JSON.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		sel     selection
		output  string
		noCache bool
		refresh bool
	)

	cmd := &cobra.Command{
		Use:   "layout [file]",
		Short: "Compute the chart layout of a pattern",
		Long: `Compute the chart layout of a pattern.

The layout places every row and instruction on a grid measured in
instruction widths, with y growing in knit order. The output is the same
JSON that 'render -f json' writes. Use "-o -" to print it.

Results are cached for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := pipeline.Options{Format: pipeline.FormatJSON, Refresh: refresh, Logger: c.Logger}
			sel.apply(&opts)
			return c.runLayout(cmd.Context(), args[0], opts, sel, output, noCache)
		},
	}

	sel.bind(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "recompute even when cached")

	return cmd
}

func (c *CLI) runLayout(ctx context.Context, input string, opts pipeline.Options, sel selection, output string, noCache bool) error {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()
	if err := sel.use(runner); err != nil {
		return err
	}

	doc, err := runner.LoadFile(ctx, input)
	if err != nil {
		return err
	}

	spin := newSpinner(ctx, "Computing layout...")
	spin.Start()
	res, err := runner.Execute(ctx, doc, opts)
	if err != nil {
		spin.StopWithError("Layout failed")
		return fmt.Errorf("compute layout: %w", err)
	}
	spin.Stop()

	if output == "-" {
		_, err := os.Stdout.Write(res.Artifact)
		return err
	}
	if output == "" {
		output = strings.TrimSuffix(input, filepath.Ext(input)) + ".layout.json"
	}
	if err := os.WriteFile(output, res.Artifact, 0o644); err != nil {
		return fmt.Errorf("write output %s: %w", output, err)
	}

	printSuccess("Layout complete")
	printFile(output)
	printStats(res.Stats, res.CacheInfo.Hit)
	printNewline()
	printNextStep("Render", appName+" render "+input)
	return nil
}
