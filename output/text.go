package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
)

// TextFormatter renders rows as an aligned text table, indenting grouped
// rows by depth.
type TextFormatter struct {
	writer io.Writer
}

func NewTextFormatter(w io.Writer) *TextFormatter {
	return &TextFormatter{writer: w}
}

// SetOutput sets the output writer
func (f *TextFormatter) SetOutput(w io.Writer) {
	f.writer = w
}

func (f *TextFormatter) Format(t *Table) error {
	tw := tablewriter.NewWriter(f.writer)
	tw.SetHeader(t.Columns)
	tw.SetAutoFormatHeaders(false)
	tw.SetAutoWrapText(false)
	tw.SetAlignment(tablewriter.ALIGN_LEFT)
	if len(t.Rows) < int(t.Total) {
		tw.SetFooter(footer(len(t.Columns), fmt.Sprintf("%d of %d", len(t.Rows), t.Total)))
	}

	for i, row := range t.Rows {
		cells := make([]string, len(t.Columns))
		for j := range cells {
			if j < len(row) {
				cells[j] = formatValue(row[j])
			}
		}
		if i < len(t.Depths) && t.Depths[i] > 0 && len(cells) > 0 {
			cells[0] = strings.Repeat("  ", t.Depths[i]) + cells[0]
		}
		tw.Append(cells)
	}
	tw.Render()
	return nil
}

func footer(columns int, text string) []string {
	cells := make([]string, max(columns, 1))
	cells[len(cells)-1] = text
	return cells
}
