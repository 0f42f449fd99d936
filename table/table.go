package table

import (
	"fmt"
	"io"
	"strings"
)

// FormatFunc colors or otherwise decorates a padded cell
type FormatFunc func(value string) string

// Column defines a column's properties
type Column struct {
	Header string
	Blank  string // Shown for empty cells (default: "-")
	Right  bool   // Right-align, for numbers
	Format FormatFunc
}

// Table collects rows and renders them with aligned columns
type Table struct {
	columns []Column
	rows    [][]string
	widths  []int
}

// New creates a table with the given columns
func New(cols ...Column) *Table {
	t := &Table{
		columns: cols,
		widths:  make([]int, len(cols)),
	}
	for i := range t.columns {
		if t.columns[i].Blank == "" {
			t.columns[i].Blank = "-"
		}
		t.widths[i] = visibleLength(t.columns[i].Header)
	}
	return t
}

// AddRow adds a row; missing or empty cells get the column's blank value
func (t *Table) AddRow(cells ...string) {
	row := make([]string, len(t.columns))
	for i := range row {
		if i < len(cells) && cells[i] != "" {
			row[i] = cells[i]
		} else {
			row[i] = t.columns[i].Blank
		}
		t.widths[i] = max(t.widths[i], visibleLength(row[i]))
	}
	t.rows = append(t.rows, row)
}

// Len returns the number of rows added
func (t *Table) Len() int {
	return len(t.rows)
}

// Render writes the header, a dashed rule and every row to w
func (t *Table) Render(w io.Writer) error {
	headers := make([]string, len(t.columns))
	rule := make([]string, len(t.columns))
	for i, col := range t.columns {
		headers[i] = t.pad(i, col.Header)
		rule[i] = strings.Repeat("-", t.widths[i])
	}
	if _, err := fmt.Fprintln(w, strings.TrimRight(strings.Join(headers, " "), " ")); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, strings.Join(rule, " ")); err != nil {
		return err
	}

	for _, row := range t.rows {
		cells := make([]string, len(row))
		for i, val := range row {
			cells[i] = t.pad(i, val)
			if f := t.columns[i].Format; f != nil {
				cells[i] = f(cells[i])
			}
		}
		if _, err := fmt.Fprintln(w, strings.TrimRight(strings.Join(cells, " "), " ")); err != nil {
			return err
		}
	}
	return nil
}

func (t *Table) pad(col int, s string) string {
	n := t.widths[col] - visibleLength(s)
	if n <= 0 {
		return s
	}
	if t.columns[col].Right {
		return strings.Repeat(" ", n) + s
	}
	return s + strings.Repeat(" ", n)
}

// visibleLength counts runes outside ANSI escape sequences
func visibleLength(s string) int {
	length := 0
	inEscape := false
	for _, r := range s {
		switch {
		case r == '\033':
			inEscape = true
		case inEscape:
			if r == 'm' {
				inEscape = false
			}
		default:
			length++
		}
	}
	return length
}
