// Package sheet turns raw spreadsheet input into a headers-plus-rows table.
// It carries no field semantics; mapping and validation happen downstream.
package sheet

import (
	"strings"

	"github.com/fieldday/combine/internal/domain/model"
)

// Table is the parsed shape of one spreadsheet: ordered headers and rows
// keyed by header text.
type Table struct {
	Headers []string
	Rows    []model.RawRow
}

// Empty reports whether the table holds no data rows.
func (t Table) Empty() bool { return len(t.Rows) == 0 }

// ParseDelimited parses comma-delimited text into a Table. The first
// non-empty line is the header row; every later line becomes one row keyed by
// header position. Rows shorter than the header list pad missing trailing
// cells with empty strings. Parsing never fails: empty or header-only input
// yields a table with zero rows.
//
// The dialect is deliberately simple: naive comma split with double-quote
// stripping, no embedded-delimiter escaping. It matches the export format in
// ExportSample; workbook input covers sheets that need richer cells.
func ParseDelimited(text string) Table {
	lines := make([]string, 0, 64)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return Table{}
	}

	headers := splitLine(lines[0])
	rows := make([]model.RawRow, 0, len(lines)-1)
	for _, line := range lines[1:] {
		cells := splitLine(line)
		row := make(model.RawRow, len(headers))
		for i, h := range headers {
			if i < len(cells) {
				row[h] = cells[i]
			} else {
				row[h] = ""
			}
		}
		rows = append(rows, row)
	}
	return Table{Headers: headers, Rows: rows}
}

// splitLine comma-splits one line, stripping wrapping double quotes and
// surrounding whitespace from each cell.
func splitLine(line string) []string {
	parts := strings.Split(line, ",")
	cells := make([]string, len(parts))
	for i, p := range parts {
		p = strings.TrimSpace(p)
		p = strings.Trim(p, `"`)
		cells[i] = strings.TrimSpace(p)
	}
	return cells
}
