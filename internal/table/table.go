// Package table defines the normalized tabular form that analyzer answers
// are converted to, plus Markdown rendering and parsing. Every query result
// in netquery passes through this type exactly once on its way back to the
// user, so Render and Parse must stay inverse operations.
package table

import (
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
)

// EmptySentinel is the user-facing text for a structurally empty result.
const EmptySentinel = "Got an empty result."

// FailedSentinel is the user-facing text for a failed execution.
const FailedSentinel = "Unable to get a result."

// Table holds rows of string cells under named columns.
type Table struct {
	Columns []string
	Rows    [][]string
}

// Empty returns a table with no columns and no rows.
func Empty() Table {
	return Table{}
}

// IsEmpty reports whether the table has no rows.
func (t Table) IsEmpty() bool {
	return len(t.Rows) == 0
}

// NumRows returns the row count.
func (t Table) NumRows() int {
	return len(t.Rows)
}

// Head returns a copy of the table truncated to at most n rows.
func (t Table) Head(n int) Table {
	if n < 0 {
		n = 0
	}
	if n > len(t.Rows) {
		n = len(t.Rows)
	}
	out := Table{Columns: append([]string(nil), t.Columns...)}
	for _, row := range t.Rows[:n] {
		out.Rows = append(out.Rows, append([]string(nil), row...))
	}
	return out
}

// Select returns a copy of the table restricted to the named columns,
// in the given order. Unknown columns are skipped.
func (t Table) Select(columns ...string) Table {
	idx := make([]int, 0, len(columns))
	out := Table{}
	for _, want := range columns {
		for i, col := range t.Columns {
			if col == want {
				idx = append(idx, i)
				out.Columns = append(out.Columns, col)
				break
			}
		}
	}
	for _, row := range t.Rows {
		outRow := make([]string, 0, len(idx))
		for _, i := range idx {
			if i < len(row) {
				outRow = append(outRow, row[i])
			} else {
				outRow = append(outRow, "")
			}
		}
		out.Rows = append(out.Rows, outRow)
	}
	return out
}

// RenderMarkdown renders the table as a GitHub-style Markdown table.
// An empty table renders to an empty string.
func (t Table) RenderMarkdown() string {
	if len(t.Columns) == 0 {
		return ""
	}

	var buf strings.Builder
	w := tablewriter.NewWriter(&buf)
	w.SetHeader(t.Columns)
	w.SetAutoFormatHeaders(false)
	w.SetAutoWrapText(false)
	w.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	w.SetAlignment(tablewriter.ALIGN_LEFT)
	w.SetCenterSeparator("|")
	w.SetColumnSeparator("|")
	w.SetRowSeparator("-")
	w.SetBorders(tablewriter.Border{Left: true, Top: false, Right: true, Bottom: false})
	w.AppendBulk(t.Rows)
	w.Render()
	return strings.TrimRight(buf.String(), "\n")
}

// ParseMarkdown parses a Markdown table back into a Table. The first pipe
// row is the header, delimiter rows (dashes/colons only) are dropped, and
// cell and column-name whitespace is trimmed.
func ParseMarkdown(md string) (Table, error) {
	var t Table
	lines := strings.Split(strings.TrimSpace(md), "\n")

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || !strings.Contains(line, "|") {
			continue
		}
		if isDelimiterRow(line) {
			continue
		}
		cells := splitRow(line)
		if t.Columns == nil {
			t.Columns = cells
			continue
		}
		// Pad short rows so every row matches the header width.
		for len(cells) < len(t.Columns) {
			cells = append(cells, "")
		}
		t.Rows = append(t.Rows, cells[:len(t.Columns)])
	}

	if t.Columns == nil {
		return Table{}, fmt.Errorf("no table header found in input")
	}
	return t, nil
}

// isDelimiterRow reports whether a pipe row contains only dashes, colons,
// and whitespace between the separators.
func isDelimiterRow(line string) bool {
	seen := false
	for _, r := range line {
		switch r {
		case '|', ':', ' ', '\t':
		case '-':
			seen = true
		default:
			return false
		}
	}
	return seen
}

// splitRow splits a pipe-delimited row into trimmed cells, dropping the
// empty leading/trailing cells produced by border pipes.
func splitRow(line string) []string {
	parts := strings.Split(line, "|")
	if len(parts) > 0 && strings.TrimSpace(parts[0]) == "" {
		parts = parts[1:]
	}
	if len(parts) > 0 && strings.TrimSpace(parts[len(parts)-1]) == "" {
		parts = parts[:len(parts)-1]
	}
	cells := make([]string, len(parts))
	for i, p := range parts {
		cells[i] = strings.TrimSpace(p)
	}
	return cells
}
