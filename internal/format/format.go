// Package format renders report tables in ASCII, Markdown, or tab-separated
// form behind a single builder interface.
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
	TSV                  // tab-separated values, for machine consumption
)

// Align specifies the horizontal alignment for a column.
type Align int

const (
	AlignDefault Align = iota
	AlignLeft
	AlignCenter
	AlignRight
)

// Column controls per-column formatting.
type Column struct {
	Number   int   // 1-based column index
	Align    Align // horizontal alignment
	MaxWidth int   // truncate or wrap beyond this width; 0 = unlimited
}

// Table accumulates rows once and renders in the Mode set at creation.
type Table interface {
	// Header sets the column headers.
	Header(cols ...string)
	// Row appends a data row.
	Row(vals ...any)
	// Footer appends a footer row (e.g. totals).
	Footer(vals ...any)
	// Columns applies per-column configuration.
	Columns(cfgs ...Column)
	// String renders the table.
	String() string
}

// NewTable returns a Table rendering in the given Mode.
func NewTable(m Mode) Table {
	w := table.NewWriter()
	if m == ASCII {
		w.SetStyle(table.StyleLight)
	}
	return &prettyTable{writer: w, mode: m}
}

type prettyTable struct {
	writer table.Writer
	mode   Mode
}

func (t *prettyTable) Header(cols ...string) {
	row := make(table.Row, len(cols))
	for i, c := range cols {
		row[i] = c
	}
	t.writer.AppendHeader(row)
}

func (t *prettyTable) Row(vals ...any) {
	row := make(table.Row, len(vals))
	copy(row, vals)
	t.writer.AppendRow(row)
}

func (t *prettyTable) Footer(vals ...any) {
	row := make(table.Row, len(vals))
	copy(row, vals)
	t.writer.AppendFooter(row)
}

func (t *prettyTable) Columns(cfgs ...Column) {
	out := make([]table.ColumnConfig, len(cfgs))
	for i, c := range cfgs {
		out[i] = table.ColumnConfig{
			Number:   c.Number,
			Align:    toTextAlign(c.Align),
			WidthMax: c.MaxWidth,
		}
	}
	t.writer.SetColumnConfigs(out)
}

func (t *prettyTable) String() string {
	switch t.mode {
	case Markdown:
		return t.writer.RenderMarkdown()
	case TSV:
		return t.writer.RenderTSV()
	default:
		return t.writer.Render()
	}
}

func toTextAlign(a Align) text.Align {
	switch a {
	case AlignLeft:
		return text.AlignLeft
	case AlignRight:
		return text.AlignRight
	case AlignCenter:
		return text.AlignCenter
	default:
		return text.AlignDefault
	}
}
