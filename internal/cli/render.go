package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

var outputFormats = []string{"table", "markdown", "csv", "json"}

func validFormat(format string) bool {
	return slices.Contains(outputFormats, format)
}

// grid is tabular command output. data is what json mode encodes instead
// of the rendered rows.
type grid struct {
	header  []string
	rows    [][]string
	numeric map[int]bool // right-aligned columns
	data    any
}

func (g grid) render(w io.Writer, format string) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(g.data)
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	header := make(table.Row, len(g.header))
	for i, h := range g.header {
		header[i] = h
	}
	t.AppendHeader(header)

	var configs []table.ColumnConfig
	for i := range g.header {
		if g.numeric[i] {
			configs = append(configs, table.ColumnConfig{Number: i + 1, Align: text.AlignRight})
		}
	}
	t.SetColumnConfigs(configs)

	for _, r := range g.rows {
		row := make(table.Row, len(r))
		for i, v := range r {
			row[i] = v
		}
		t.AppendRow(row)
	}

	switch format {
	case "markdown":
		t.RenderMarkdown()
	case "csv":
		t.RenderCSV()
	default:
		t.Render()
		_, _ = fmt.Fprintf(w, "(%d rows)\n", len(g.rows))
	}
	return nil
}
