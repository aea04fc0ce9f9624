// Package format renders terminal tables and small value formatters used by
// the report and history commands.
package format

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Mode controls the output format.
type Mode int

const (
	ASCII    Mode = iota // fixed-width terminal tables
	Markdown             // GitHub-flavoured Markdown tables
)

// ColumnConfig controls per-column formatting.
type ColumnConfig struct {
	Number   int  // 1-based column index
	Right    bool // right-align (numbers, costs)
	MaxWidth int  // truncate content beyond this width (0 = unlimited)
}

// Table is a thin wrapper over go-pretty that renders in a configured Mode.
type Table struct {
	writer table.Writer
	mode   Mode
}

// NewTable returns an empty table rendering in the given Mode.
func NewTable(m Mode) *Table {
	w := table.NewWriter()
	if m == ASCII {
		w.SetStyle(table.StyleLight)
	}
	return &Table{writer: w, mode: m}
}

// Header sets the column headers.
func (t *Table) Header(cols ...string) {
	row := make(table.Row, len(cols))
	for i, c := range cols {
		row[i] = c
	}
	t.writer.AppendHeader(row)
}

// Row appends a data row. Values are stringified via fmt.Sprint.
func (t *Table) Row(vals ...any) {
	row := make(table.Row, len(vals))
	copy(row, vals)
	t.writer.AppendRow(row)
}

// Footer appends a footer row, e.g. totals.
func (t *Table) Footer(vals ...any) {
	row := make(table.Row, len(vals))
	copy(row, vals)
	t.writer.AppendFooter(row)
}

// Columns applies per-column configuration.
func (t *Table) Columns(cfgs ...ColumnConfig) {
	goCfgs := make([]table.ColumnConfig, len(cfgs))
	for i, c := range cfgs {
		align := text.AlignDefault
		if c.Right {
			align = text.AlignRight
		}
		goCfgs[i] = table.ColumnConfig{
			Number:   c.Number,
			Align:    align,
			WidthMax: c.MaxWidth,
		}
	}
	t.writer.SetColumnConfigs(goCfgs)
}

// String renders the table in the configured Mode.
func (t *Table) String() string {
	if t.mode == Markdown {
		return t.writer.RenderMarkdown()
	}
	return t.writer.Render()
}
