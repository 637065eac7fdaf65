package sheet

import "errors"

// Sentinel kinds for workbook parsing errors. Delimited parsing never fails.
var (
	ErrWorkbookOpen  = errors.New("workbook open failed")
	ErrWorkbookEmpty = errors.New("workbook has no sheets")
)
