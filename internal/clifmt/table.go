package clifmt

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/term"
)

var ansiRe = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func visualLen(s string) int {
	return utf8.RuneCountInString(ansiRe.ReplaceAllString(s, ""))
}

// terminalWidth returns the terminal column count for stdout, honoring a
// COLUMNS override; 0 means no width constraint should be applied.
func terminalWidth() int {
	if cols := os.Getenv("COLUMNS"); cols != "" {
		if n, err := strconv.Atoi(cols); err == nil && n > 0 {
			return n
		}
	}
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return 0
	}
	return w
}

// align controls how a column's cells are justified.
type align int

const (
	alignLeft align = iota
	alignRight
)

// column describes one of nodectl's table columns, inferred from its header
// name: PIN is the one numeric field nodectl ever prints and reads better
// right-justified; ACTIVE carries a yes/no reading that reads better with
// the same green/dim treatment as a connectivity check.
type column struct {
	header string
	align  align
	active bool
}

func columnFor(header string) column {
	switch header {
	case "PIN":
		return column{header: header, align: alignRight}
	case "ACTIVE":
		return column{header: header, active: true}
	default:
		return column{header: header}
	}
}

func (c column) render(value string) string {
	if c.active {
		switch strings.ToLower(value) {
		case "yes":
			return Green(value)
		case "no":
			return Dim(value)
		}
	}
	return value
}

// Table renders nodectl's list output (sensors, actuators, logs, errors):
// column-aligned, ANSI-aware, wrapped and capped to the terminal width so a
// long detail or error string doesn't force a line to overflow. Headers and
// a dash divider are written lazily on Flush, so an empty table prints
// nothing.
type Table struct {
	columns []column
	rows    [][]string
	prefix  string
}

// NewTable creates a table with the given column headers.
func NewTable(headers ...string) *Table {
	cols := make([]column, len(headers))
	for i, h := range headers {
		cols[i] = columnFor(h)
	}
	return &Table{columns: cols}
}

// WithPrefix sets a string prepended to every printed line.
func (t *Table) WithPrefix(prefix string) *Table {
	t.prefix = prefix
	return t
}

// Row appends a row to the table.
func (t *Table) Row(values ...string) {
	t.rows = append(t.rows, values)
}

// Flush writes all buffered rows.
func (t *Table) Flush() {
	if len(t.rows) == 0 {
		return
	}

	rendered := make([][]string, len(t.rows))
	widths := make([]int, len(t.columns))
	for i, c := range t.columns {
		widths[i] = visualLen(c.header)
	}
	for ri, row := range t.rows {
		rendered[ri] = make([]string, len(row))
		for i, v := range row {
			cell := v
			if i < len(t.columns) {
				cell = t.columns[i].render(v)
			}
			rendered[ri][i] = cell
			if i < len(widths) {
				if vl := visualLen(cell); vl > widths[i] {
					widths[i] = vl
				}
			}
		}
	}

	if tw := terminalWidth(); tw > 0 {
		widths = fitToWidth(widths, t.columns, tw, visualLen(t.prefix))
	}

	headers := make([]string, len(t.columns))
	dividers := make([]string, len(t.columns))
	for i, c := range t.columns {
		headers[i] = c.header
		dividers[i] = strings.Repeat("-", widths[i])
	}
	t.printRow(headers, widths)
	t.printRow(dividers, widths)
	for _, row := range rendered {
		t.printRow(row, widths)
	}
}

// fitToWidth shrinks the widest over-minimum column(s) until the rendered
// line, including the fixed two-space gap between columns, fits termWidth.
func fitToWidth(widths []int, columns []column, termWidth, prefixLen int) []int {
	result := make([]int, len(widths))
	copy(result, widths)

	minWidths := make([]int, len(columns))
	for i, c := range columns {
		minWidths[i] = visualLen(c.header)
	}

	const colGap = 2
	for {
		lineWidth := prefixLen
		for _, w := range result {
			lineWidth += w
		}
		if len(result) > 1 {
			lineWidth += colGap * (len(result) - 1)
		}
		if lineWidth <= termWidth {
			return result
		}

		maxW, maxI := -1, -1
		for i, w := range result {
			if w > minWidths[i] && w > maxW {
				maxW, maxI = w, i
			}
		}
		if maxI < 0 {
			return result
		}

		excess := lineWidth - termWidth
		if available := result[maxI] - minWidths[maxI]; excess > available {
			excess = available
		}
		result[maxI] -= excess
	}
}

// wrapCell breaks s into lines of at most width visual columns, splitting
// on word boundaries and falling back to a hard break for a single word
// longer than width.
func wrapCell(s string, width int) []string {
	if width <= 0 || visualLen(s) <= width {
		return []string{s}
	}

	var lines []string
	var cur []rune
	curLen := 0

	emit := func() {
		lines = append(lines, string(cur))
		cur, curLen = nil, 0
	}
	appendRunes := func(r []rune) {
		for len(r) > 0 {
			take := len(r)
			if take > width {
				take = width
			}
			cur = append(cur, r[:take]...)
			curLen += take
			r = r[take:]
			if len(r) > 0 {
				emit()
			}
		}
	}

	for _, word := range strings.Fields(ansiRe.ReplaceAllString(s, "")) {
		wRunes := []rune(word)
		switch {
		case curLen == 0:
			appendRunes(wRunes)
		case curLen+1+len(wRunes) <= width:
			cur = append(cur, ' ')
			cur = append(cur, wRunes...)
			curLen += 1 + len(wRunes)
		default:
			emit()
			appendRunes(wRunes)
		}
	}
	if curLen > 0 {
		emit()
	}
	if len(lines) == 0 {
		return []string{""}
	}
	return lines
}

func (t *Table) printRow(row []string, widths []int) {
	wrapped := make([][]string, len(widths))
	maxLines := 1
	for i := range widths {
		val := ""
		if i < len(row) {
			val = row[i]
		}
		wrapped[i] = wrapCell(val, widths[i])
		if len(wrapped[i]) > maxLines {
			maxLines = len(wrapped[i])
		}
	}

	for l := 0; l < maxLines; l++ {
		parts := make([]string, len(widths))
		for i := range widths {
			val := ""
			if l < len(wrapped[i]) {
				val = wrapped[i][l]
			}
			pad := widths[i] - visualLen(val)
			if pad < 0 {
				pad = 0
			}
			if i < len(t.columns) && t.columns[i].align == alignRight {
				parts[i] = strings.Repeat(" ", pad) + val
			} else {
				parts[i] = val + strings.Repeat(" ", pad)
			}
		}
		fmt.Fprintln(os.Stdout, t.prefix+strings.TrimRight(strings.Join(parts, "  "), " "))
	}
}
