package extract

import (
	"strings"

	"github.com/ledongthuc/pdf"
)

// Table detection works off positioned text runs. A row whose runs
// cluster into two or more cells (separated by a horizontal gap wider
// than normal glyph spacing) is tabular; two or more consecutive
// tabular rows form a table.

const minTableRows = 2

type tableGrid [][]string

// detectTables returns each detected table on the page as a row/column
// grid, in top-to-bottom order.
func detectTables(page pdf.Page) []tableGrid {
	rows, err := page.GetTextByRow()
	if err != nil {
		return nil
	}

	var tables []tableGrid
	var current tableGrid
	flush := func() {
		if len(current) >= minTableRows {
			tables = append(tables, current)
		}
		current = nil
	}

	for _, row := range rows {
		cells := clusterCells(row.Content)
		if len(cells) >= 2 {
			current = append(current, cells)
			continue
		}
		flush()
	}
	flush()

	return tables
}

// clusterCells merges a row's text runs into cells. A new cell starts
// when the gap to the previous run exceeds the glyph-spacing threshold
// for that run's font size.
func clusterCells(runs []pdf.Text) []string {
	if len(runs) == 0 {
		return nil
	}

	var cells []string
	var cell strings.Builder
	prevEnd := runs[0].X

	for i, t := range runs {
		if i > 0 {
			gap := t.X - prevEnd
			if gap > cellGapThreshold(t.FontSize) {
				cells = append(cells, strings.TrimSpace(cell.String()))
				cell.Reset()
			} else if gap > t.FontSize/4 && !strings.HasSuffix(cell.String(), " ") {
				cell.WriteString(" ")
			}
		}
		cell.WriteString(t.S)
		end := t.X + t.W
		if end > prevEnd {
			prevEnd = end
		}
	}
	if s := strings.TrimSpace(cell.String()); s != "" {
		cells = append(cells, s)
	}

	// Drop rows that collapsed to a single empty-ish cell.
	out := cells[:0]
	for _, c := range cells {
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}

func cellGapThreshold(fontSize float64) float64 {
	th := 2 * fontSize
	if th < 8 {
		th = 8
	}
	return th
}

// serializeTable renders a grid as text, one row per line with columns
// joined by " | ", so the summarizer sees tables uniformly with prose.
func serializeTable(tbl tableGrid) string {
	lines := make([]string, 0, len(tbl))
	for _, row := range tbl {
		lines = append(lines, strings.Join(row, " | "))
	}
	return strings.Join(lines, "\n")
}
