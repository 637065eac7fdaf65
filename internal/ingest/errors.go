package ingest

import "errors"

// Sentinel kinds for ingestion errors.
var (
	ErrEmptySheet         = errors.New("sheet has no data rows")
	ErrTooManyRows        = errors.New("sheet exceeds the row limit")
	ErrMappingIncomplete  = errors.New("field mapping does not resolve name columns")
	ErrUploadFailed       = errors.New("roster upload failed")
	ErrValidationTimedOut = errors.New("row validation timed out")
)
