package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/gookit/color"
	"github.com/mattn/go-runewidth"

	"github.com/dbsmedya/formrows/internal/rows"
)

// maxCellWidth bounds console column width; longer cells are truncated.
const maxCellWidth = 40

var (
	headerStyle  = color.New(color.FgCyan, color.OpBold)
	cellReplacer = strings.NewReplacer("\n", " ", "\t", " ")
)

// WriteTable writes rs as an aligned console table. Widths are measured in
// terminal cells so wide characters line up. colorize styles the header.
func WriteTable(w io.Writer, rs []*rows.Row, colorize bool) error {
	cols := Columns(rs)
	if len(cols) == 0 {
		_, err := fmt.Fprintln(w, "(no rows)")
		return err
	}

	cells := make([][]string, len(rs))
	widths := make([]int, len(cols))
	for i, col := range cols {
		widths[i] = runewidth.StringWidth(col)
	}
	for r, row := range rs {
		cells[r] = make([]string, len(cols))
		for i, col := range cols {
			v, _ := row.Get(col)
			cell := runewidth.Truncate(cellReplacer.Replace(FormatValue(v)), maxCellWidth, "…")
			cells[r][i] = cell
			if cw := runewidth.StringWidth(cell); cw > widths[i] {
				widths[i] = cw
			}
		}
	}

	header := make([]string, len(cols))
	rule := make([]string, len(cols))
	for i, col := range cols {
		header[i] = runewidth.FillRight(col, widths[i])
		if colorize {
			header[i] = headerStyle.Sprint(header[i])
		}
		rule[i] = strings.Repeat("-", widths[i])
	}

	if _, err := fmt.Fprintln(w, strings.TrimRight(strings.Join(header, "  "), " ")); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, strings.Join(rule, "  ")); err != nil {
		return err
	}
	for _, row := range cells {
		line := make([]string, len(row))
		for i, cell := range row {
			line[i] = runewidth.FillRight(cell, widths[i])
		}
		if _, err := fmt.Fprintln(w, strings.TrimRight(strings.Join(line, "  "), " ")); err != nil {
			return err
		}
	}
	return nil
}
