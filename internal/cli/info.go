package cli

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	pio "github.com/matzehuels/stitchgraph/pkg/io"
	"github.com/matzehuels/stitchgraph/pkg/walk"
)

// patternSummary is one line of the info table.
type patternSummary struct {
	Index        int
	ID           string
	Name         string
	Rows         int
	Instructions int
	Connections  int
	Ordered      bool
}

func summarize(set *pio.PatternSet) []patternSummary {
	out := make([]patternSummary, 0, set.Len())
	for i, p := range set.Patterns() {
		_, err := walk.Rows(p)
		out = append(out, patternSummary{
			Index:        i,
			ID:           p.ID().String(),
			Name:         p.Name(),
			Rows:         p.NumRows(),
			Instructions: len(p.Instructions()),
			Connections:  len(pio.Connections(p)),
			Ordered:      err == nil,
		})
	}
	return out
}

// infoCommand creates the info command, which summarizes a pattern set.
func (c *CLI) infoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info [file]",
		Short: "Summarize the patterns in a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := c.newRunner(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer runner.Close()

			doc, err := runner.LoadFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			set := doc.Set

			fmt.Println(StyleTitle.Render(args[0]))
			printKeyValue("Type", set.Type)
			printKeyValue("Version", set.Version)
			if !set.Comment.IsNull() {
				printKeyValue("Comment", set.Comment.String())
			}
			printKeyValue("Library", plural(set.Library.Len(), "instruction type"))
			printKeyValue("Hash", doc.Hash[:12])
			printNewline()

			fmt.Println(summaryTable(summarize(set)))
			return nil
		},
	}
}

func summaryTable(rows []patternSummary) string {
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	cells := make([][]string, len(rows))
	for i, s := range rows {
		order := StyleSuccess.Render(iconSuccess)
		if !s.Ordered {
			order = styleIconError.Render("cycle")
		}
		cells[i] = []string{
			strconv.Itoa(s.Index),
			s.ID,
			s.Name,
			strconv.Itoa(s.Rows),
			strconv.Itoa(s.Instructions),
			strconv.Itoa(s.Connections),
			order,
		}
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("#", "ID", "Name", "Rows", "Instructions", "Connections", "Order").
		Rows(cells...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col == 1 {
				return lipgloss.NewStyle().Foreground(colorCyan)
			}
			return lipgloss.NewStyle()
		}).
		Render()
}
