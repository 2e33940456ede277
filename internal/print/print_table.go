package print

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/bgunnarsson/ankidb/internal/db"
)

const defaultMaxWidth = 40

type Options struct {
	MaxWidth int  // max display width for each column, 0 = 40
	NoFooter bool // omit the "(n rows)" line
}

func RenderTable(w io.Writer, rows *db.Rows, opts Options) {
	if opts.MaxWidth <= 0 {
		opts.MaxWidth = defaultMaxWidth
	}

	cols := len(rows.Columns)
	if cols == 0 {
		fmt.Fprintln(w, "(no columns)")
		return
	}

	cells := make([][]string, len(rows.Data))
	for r, row := range rows.Data {
		cells[r] = make([]string, cols)
		for i := 0; i < cols && i < len(row); i++ {
			cells[r][i] = formatCell(row[i])
		}
	}

	// display widths, capped per column
	widths := make([]int, cols)
	for i, col := range rows.Columns {
		widths[i] = min(runewidth.StringWidth(col.Name), opts.MaxWidth)
	}
	for _, row := range cells {
		for i, c := range row {
			widths[i] = max(widths[i], min(runewidth.StringWidth(c), opts.MaxWidth))
		}
	}

	sep := func(ch string) string {
		var b strings.Builder
		b.WriteString("+")
		for _, wd := range widths {
			b.WriteString(strings.Repeat(ch, wd+2))
			b.WriteString("+")
		}
		return b.String()
	}

	writeRow := func(row []string) {
		var b strings.Builder
		b.WriteString("|")
		for i, c := range row {
			b.WriteString(" ")
			b.WriteString(runewidth.FillRight(truncate(c, widths[i]), widths[i]))
			b.WriteString(" |")
		}
		fmt.Fprintln(w, b.String())
	}

	fmt.Fprintln(w, sep("-"))
	header := make([]string, cols)
	for i, col := range rows.Columns {
		header[i] = col.Name
	}
	writeRow(header)
	fmt.Fprintln(w, sep("="))

	for _, row := range cells {
		writeRow(row)
	}
	fmt.Fprintln(w, sep("-"))

	if !opts.NoFooter {
		fmt.Fprintf(w, "(%d %s)\n", len(cells), plural(len(cells), "row", "rows"))
	}
}

// RenderColumn renders the values of a single-column query under name.
func RenderColumn(w io.Writer, name string, values []any, opts Options) {
	rows := &db.Rows{Columns: []db.Column{{Name: name}}}
	for _, v := range values {
		rows.Data = append(rows.Data, db.Row{v})
	}
	RenderTable(w, rows, opts)
}

// FormatValue renders one value the way a table cell shows it, untruncated.
func FormatValue(v any) string { return formatCell(v) }

func formatCell(v any) string {
	if v == nil {
		return "NULL"
	}
	switch t := v.(type) {
	case []byte:
		// heuristic: treat as string if printable, else show len
		s := string(t)
		if isPrintable(s) {
			return s
		}
		return fmt.Sprintf("<blob %d bytes>", len(t))
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	default:
		return fmt.Sprint(t)
	}
}

func isPrintable(s string) bool {
	for _, r := range s {
		if r < 32 && r != '\n' && r != '\t' {
			return false
		}
	}
	return true
}

// truncate cuts s to at most w display columns, marking the cut with "...".
func truncate(s string, w int) string {
	if runewidth.StringWidth(s) <= w {
		return s
	}
	if w <= 3 {
		return runewidth.Truncate(s, w, "")
	}
	return runewidth.Truncate(s, w, "...")
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
