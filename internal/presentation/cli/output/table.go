package output

import (
	"strings"
	"unicode/utf8"
)

// Alignment is the horizontal placement of a cell.
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignRight
)

// TableColumn is one table column.
type TableColumn struct {
	Header string
	Align  Alignment
}

// TableData is a header row plus body rows. Missing cells print empty.
type TableData struct {
	Columns []TableColumn
	Rows    [][]string
}

// Table writes data with columns padded to their widest cell and separated by
// two spaces. Nothing is written without columns.
func (f *Formatter) Table(data TableData) error {
	if len(data.Columns) == 0 {
		return nil
	}

	widths := make([]int, len(data.Columns))
	for i, col := range data.Columns {
		widths[i] = displayWidth(col.Header)
	}
	for _, row := range data.Rows {
		for i := 0; i < len(row) && i < len(widths); i++ {
			widths[i] = max(widths[i], displayWidth(row[i]))
		}
	}

	var b strings.Builder
	headers := make([]string, len(data.Columns))
	rules := make([]string, len(data.Columns))
	for i, col := range data.Columns {
		headers[i] = col.Header
		rules[i] = strings.Repeat("-", widths[i])
	}
	b.WriteString(f.Bold(joinCells(headers, data.Columns, widths)))
	b.WriteByte('\n')
	b.WriteString(strings.Join(rules, "  "))
	for _, row := range data.Rows {
		b.WriteByte('\n')
		b.WriteString(joinCells(row, data.Columns, widths))
	}
	return f.Println("%s", b.String())
}

func joinCells(cells []string, cols []TableColumn, widths []int) string {
	parts := make([]string, len(cols))
	for i, col := range cols {
		var cell string
		if i < len(cells) {
			cell = cells[i]
		}
		parts[i] = pad(cell, widths[i], col.Align)
	}
	return strings.TrimRight(strings.Join(parts, "  "), " ")
}

func pad(s string, width int, align Alignment) string {
	n := width - displayWidth(s)
	if n <= 0 {
		return s
	}
	if align == AlignRight {
		return strings.Repeat(" ", n) + s
	}
	return s + strings.Repeat(" ", n)
}

func displayWidth(s string) int {
	return utf8.RuneCountInString(s)
}
