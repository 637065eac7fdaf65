package sheet

import (
	"fmt"
	"io"
	"strings"

	"github.com/fieldday/combine/internal/domain/model"
	"github.com/xuri/excelize/v2"
)

// ParseWorkbook reads the first sheet of an XLSX workbook into a Table.
// The shape matches ParseDelimited: first row headers, later rows keyed by
// header position, short rows padded with empty cells.
func ParseWorkbook(r io.Reader) (Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Table{}, fmt.Errorf("%w: %w", ErrWorkbookOpen, err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Table{}, ErrWorkbookEmpty
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return Table{}, fmt.Errorf("%w: %w", ErrWorkbookOpen, err)
	}

	// Cells go through the same cleanup as delimited input so both paths
	// produce identical tables. Workbook cells keep embedded commas whole.
	var table Table
	for _, cells := range rows {
		cleaned := make([]string, len(cells))
		for i, c := range cells {
			cleaned[i] = trimCell(c)
		}
		if allEmpty(cleaned) {
			continue
		}
		if table.Headers == nil {
			table.Headers = cleaned
			continue
		}
		row := make(model.RawRow, len(table.Headers))
		for i, h := range table.Headers {
			if i < len(cleaned) {
				row[h] = cleaned[i]
			} else {
				row[h] = ""
			}
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

func trimCell(c string) string {
	c = strings.TrimSpace(c)
	c = strings.Trim(c, `"`)
	return strings.TrimSpace(c)
}

func allEmpty(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}
