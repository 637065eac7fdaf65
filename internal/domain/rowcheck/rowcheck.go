// Package rowcheck validates mapped roster rows.
//
// Rows are never dropped here: every row comes back with its warnings and a
// validity verdict, and the caller decides what reaches the store.
package rowcheck

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/fieldday/combine/internal/domain/fieldmap"
	"github.com/fieldday/combine/internal/domain/model"
)

// Warning messages, stable so the UI can rely on them.
const (
	WarnMissingFirstName = "missing first name"
	WarnMissingLastName  = "missing last name"
	WarnBadNumber        = "number is not numeric"
)

// ValidatedRow is a mapped row plus its validation outcome. Created once per
// row; callers must treat it as immutable.
type ValidatedRow struct {
	Fields   model.MappedRow `json:"fields"`
	Name     string          `json:"name"`
	Warnings []string        `json:"warnings,omitempty"`
	Valid    bool            `json:"valid"`
}

// CheckHeaders validates raw headers before any mapping is applied. A
// non-empty result means the name fields cannot be resolved and the mapping
// must be corrected before row validation proceeds.
func CheckHeaders(headers []string) []string {
	if fieldmap.HasNameHeaders(headers) {
		return nil
	}
	return []string{"could not find first and last name columns; adjust the field mapping"}
}

// CheckRow validates one mapped row. Name is non-empty iff both name parts
// are non-blank after trimming; a row is valid iff it has a name and no
// warnings. A non-numeric number only warns; allocation can still fill it.
func CheckRow(row model.MappedRow) ValidatedRow {
	first := strings.TrimSpace(row[model.FieldFirstName])
	last := strings.TrimSpace(row[model.FieldLastName])

	var warnings []string
	if first == "" {
		warnings = append(warnings, WarnMissingFirstName)
	}
	if last == "" {
		warnings = append(warnings, WarnMissingLastName)
	}

	var name string
	if first != "" && last != "" {
		name = first + " " + last
	}

	if raw, ok := row[model.FieldNumber]; ok {
		trimmed := strings.TrimSpace(raw)
		if trimmed != "" {
			if _, err := strconv.Atoi(trimmed); err != nil {
				warnings = append(warnings, WarnBadNumber)
			}
		}
	}

	return ValidatedRow{
		Fields:   row,
		Name:     name,
		Warnings: warnings,
		Valid:    len(warnings) == 0 && name != "",
	}
}

// Critical reports whether the row's problems exclude it from upload
// (a missing name) as opposed to soft issues.
func (r ValidatedRow) Critical() bool {
	return r.Name == ""
}

// numericLiteral matches complete numeric literals only. parseFloat-style
// laxness would accept partial input like "4.." while typing.
var numericLiteral = regexp.MustCompile(`^-?\d+(\.\d+)?$`)

// StrictFloat parses s as a complete numeric literal. It rejects anything a
// lax float parser would sloppily accept.
func StrictFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if !numericLiteral.MatchString(s) {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
