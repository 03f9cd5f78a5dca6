package chart

import (
	"encoding/json"

	"github.com/matzehuels/stitchgraph/pkg/color"
	"github.com/matzehuels/stitchgraph/pkg/layout"
	"github.com/matzehuels/stitchgraph/pkg/pattern"
)

type jsonOutput struct {
	Pattern     pattern.ID       `json:"pattern"`
	Name        string           `json:"name"`
	Box         jsonBox          `json:"box"`
	Rows        []jsonRow        `json:"rows"`
	Connections []jsonConnection `json:"connections,omitempty"`
}

type jsonBox struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
}

type jsonRow struct {
	ID           pattern.ID        `json:"id"`
	X            float64           `json:"x"`
	Y            float64           `json:"y"`
	Width        float64           `json:"width"`
	Instructions []jsonInstruction `json:"instructions"`
}

type jsonInstruction struct {
	Index  int     `json:"index"`
	Type   string  `json:"type"`
	Color  string  `json:"color"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type jsonEnd struct {
	Row   pattern.ID `json:"row"`
	Index int        `json:"index"`
}

type jsonConnection struct {
	From    jsonEnd `json:"from"`
	To      jsonEnd `json:"to"`
	Visible bool    `json:"visible"`
}

// RenderJSON exports the layout in grid units: the box, every row with its
// instructions and every instruction connection.
func RenderJSON(g *layout.Grid) ([]byte, error) {
	out := jsonOutput{
		Pattern: g.Pattern.ID(),
		Name:    g.Pattern.Name(),
		Box:     jsonBox{g.Box.MinX, g.Box.MinY, g.Box.MaxX, g.Box.MaxY},
		Rows:    make([]jsonRow, 0, len(g.Rows)),
	}
	for _, rp := range g.Rows {
		row := jsonRow{ID: rp.ID, X: rp.X, Y: rp.Y, Width: rp.Width, Instructions: make([]jsonInstruction, 0, len(rp.Instructions))}
		for i, inst := range rp.Instructions {
			row.Instructions = append(row.Instructions, jsonInstruction{
				Index:  i,
				Type:   inst.Type(),
				Color:  color.OrDefault(inst.Color()),
				X:      inst.X,
				Y:      inst.Y,
				Width:  inst.Width,
				Height: inst.Height,
			})
		}
		out.Rows = append(out.Rows, row)
	}
	for _, c := range g.Connections {
		out.Connections = append(out.Connections, jsonConnection{
			From:    jsonEnd{Row: c.Start.RowID, Index: indexOf(c.Start)},
			To:      jsonEnd{Row: c.Stop.RowID, Index: indexOf(c.Stop)},
			Visible: c.IsVisible(),
		})
	}
	return json.MarshalIndent(out, "", "  ")
}
