package render

import (
	"fmt"
	"strings"
)

// writer accumulates output lines. Indentation is the configured indent
// string repeated once per nesting level.
type writer struct {
	indent string
	depth  int
	lines  []string
}

func newWriter(indent string) *writer {
	return &writer{indent: indent}
}

func (w *writer) line(s string) {
	if s == "" {
		w.lines = append(w.lines, "")
		return
	}
	w.lines = append(w.lines, strings.Repeat(w.indent, w.depth)+s)
}

func (w *writer) linef(format string, args ...any) {
	w.line(fmt.Sprintf(format, args...))
}

// blank adds an empty separator line unless the output is empty or already
// ends in one.
func (w *writer) blank() {
	if n := len(w.lines); n > 0 && w.lines[n-1] != "" {
		w.lines = append(w.lines, "")
	}
}

// blanks is blank for n separator lines.
func (w *writer) blanks(n int) {
	if len(w.lines) == 0 {
		return
	}
	trailing := 0
	for i := len(w.lines) - 1; i >= 0 && w.lines[i] == ""; i-- {
		trailing++
	}
	for ; trailing < n; trailing++ {
		w.lines = append(w.lines, "")
	}
}

// open writes s and indents what follows.
func (w *writer) open(s string) {
	w.line(s)
	w.depth++
}

func (w *writer) openf(format string, args ...any) {
	w.open(fmt.Sprintf(format, args...))
}

// close dedents and writes s.
func (w *writer) close(s string) {
	w.depth--
	w.line(s)
}

// text writes a block of fixed lines. A leading tab on a line counts as one
// nesting level, so templates follow the configured indent.
func (w *writer) text(block string) {
	for _, l := range strings.Split(strings.Trim(block, "\n"), "\n") {
		trimmed := strings.TrimLeft(l, "\t")
		if trimmed == "" {
			w.line("")
			continue
		}
		w.depth += len(l) - len(trimmed)
		w.line(trimmed)
		w.depth -= len(l) - len(trimmed)
	}
}

// align pads the columns of rows so they line up, then writes each row.
// The last column is never padded.
func (w *writer) align(rows [][]string) {
	var widths []int
	for _, row := range rows {
		for i, cell := range row {
			if i == len(row)-1 {
				break
			}
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			if n := len([]rune(cell)); n > widths[i] {
				widths[i] = n
			}
		}
	}
	for _, row := range rows {
		var b strings.Builder
		for i, cell := range row {
			b.WriteString(cell)
			if i < len(row)-1 {
				b.WriteString(strings.Repeat(" ", widths[i]-len([]rune(cell))+1))
			}
		}
		w.line(strings.TrimRight(b.String(), " "))
	}
}

// finish returns the lines with trailing blanks dropped.
func (w *writer) finish() []string {
	out := w.lines
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return out
}

// commentLines renders leading comments with a line prefix such as "//".
// Multi-line comments become one comment line per line.
func commentLines(prefix string, comments []string) []string {
	var out []string
	for _, c := range comments {
		for _, l := range strings.Split(c, "\n") {
			if l == "" {
				out = append(out, prefix)
				continue
			}
			out = append(out, prefix+" "+l)
		}
	}
	return out
}
