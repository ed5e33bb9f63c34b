package main

import (
	"fmt"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"hopm/internal/sandbox"
)

// renderFootprint lists grants in the order a start applies them, with the
// runtime promises that remain afterwards as the caption.
func renderFootprint(grants []sandbox.Grant) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"Step", "Label", "Rights", "Access", "Path"})
	for i, g := range grants {
		tw.AppendRow(table.Row{strconv.Itoa(i + 1), g.Label, g.Rights.String(), describeRights(g.Rights), g.Path})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 3, Align: text.AlignCenter, AlignHeader: text.AlignCenter},
	})
	tw.SetCaption(fmt.Sprintf("Runtime promises: %s", sandbox.RuntimePromises))
	return tw.Render()
}

func describeRights(r sandbox.Rights) string {
	switch r {
	case sandbox.RightsRead:
		return "read"
	case sandbox.RightsReadWrite:
		return "read, write"
	case sandbox.RightsWriteCreate:
		return "write, create"
	case sandbox.RightsExecute:
		return "execute"
	default:
		return "hidden"
	}
}
