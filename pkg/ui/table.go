package ui

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
)

// NewTable returns a rounded table writer that renders to w
func NewTable(w io.Writer, header ...interface{}) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	if len(header) > 0 {
		t.AppendHeader(table.Row(header))
	}
	t.SetStyle(table.StyleRounded)
	return t
}

// RenderKeyValues prints label/value pairs as a two-column table
func RenderKeyValues(w io.Writer, title string, pairs [][2]interface{}) {
	t := NewTable(w)
	if title != "" {
		t.SetTitle(title)
	}
	for _, p := range pairs {
		t.AppendRow(table.Row{p[0], p[1]})
	}
	t.Render()
}
