package cli

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

// browseCommand creates the browse command, an interactive terminal view of
// a pattern's chart layout.
func (c *CLI) browseCommand() *cobra.Command {
	var sel selection

	cmd := &cobra.Command{
		Use:   "browse [file]",
		Short: "Browse the chart of a pattern in the terminal",
		Args:  cobra.ExactArgs(1),
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
			g, err := runner.Layout(ctx, p)
			if err != nil {
				return err
			}

			prog := tea.NewProgram(NewChartModel(g), tea.WithAltScreen(), tea.WithContext(ctx))
			if _, err := prog.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	sel.bind(cmd)
	return cmd
}
