// Package fieldmap resolves spreadsheet headers to canonical field keys.
//
// A Mapping records, per canonical key, where its values come from: a source
// header, the ignore sentinel, or unset ("auto"). Default mappings are
// generated from a synonym table; explicit caller overrides always win.
package fieldmap

import (
	"github.com/fieldday/combine/internal/domain/model"
)

// Target is one mapping decision for a canonical key.
// The zero value means unset ("auto").
type Target struct {
	Header string `json:"header,omitempty"`
	Ignore bool   `json:"ignore,omitempty"`
}

// Unset reports whether the target is still "auto".
func (t Target) Unset() bool { return !t.Ignore && t.Header == "" }

// HeaderTarget maps a key to a source header.
func HeaderTarget(header string) Target { return Target{Header: header} }

// IgnoreTarget marks a key as deliberately unmapped.
func IgnoreTarget() Target { return Target{Ignore: true} }

// Mapping assigns a Target to each canonical key. Keys absent from the map
// are treated as unset.
type Mapping map[model.FieldKey]Target

// Keys returns the canonical keys a mapping for this event covers: the fixed
// set plus one drill-score key per drill, in display order.
func Keys(drills []model.DrillDefinition) []model.FieldKey {
	keys := model.FixedFields()
	for _, d := range drills {
		keys = append(keys, model.DrillScoreField(d.Key))
	}
	return keys
}

// DefaultMapping matches each canonical key against the parsed headers.
// It is pure and total: keys with no unique header match stay unset. A
// header claimed by one key is never claimed again, which keeps the
// one-source-header-per-key invariant under auto resolution.
func DefaultMapping(headers []string, drills []model.DrillDefinition) Mapping {
	m := make(Mapping)
	claimed := make(map[string]bool, len(headers))
	for _, key := range Keys(drills) {
		for _, h := range headers {
			if claimed[h] || !matchesKey(h, key, drills) {
				continue
			}
			m[key] = HeaderTarget(h)
			claimed[h] = true
			break
		}
	}
	return m
}

// Merge layers explicit overrides on top of a base mapping. Override
// targets always win, including explicit unsets.
func Merge(base, overrides Mapping) Mapping {
	out := make(Mapping, len(base)+len(overrides))
	for k, t := range base {
		out[k] = t
	}
	for k, t := range overrides {
		out[k] = t
	}
	return out
}

// Normalize enforces one source header per key even when overrides were
// explicit: if two keys point at the same header, the first key in display
// order keeps it and later ones reset to unset. Reset keys are returned so
// the caller can surface them.
func Normalize(m Mapping, drills []model.DrillDefinition) (Mapping, []model.FieldKey) {
	out := make(Mapping, len(m))
	claimed := make(map[string]model.FieldKey)
	var dropped []model.FieldKey
	for _, key := range Keys(drills) {
		t, ok := m[key]
		if !ok || t.Unset() || t.Ignore {
			if ok {
				out[key] = t
			}
			continue
		}
		if _, taken := claimed[t.Header]; taken {
			dropped = append(dropped, key)
			continue
		}
		claimed[t.Header] = key
		out[key] = t
	}
	return out, dropped
}

// Apply re-keys every row from source headers to canonical keys. A key
// mapped to ignore or left unset is simply absent from the output row.
func Apply(rows []model.RawRow, m Mapping) []model.MappedRow {
	out := make([]model.MappedRow, 0, len(rows))
	for _, row := range rows {
		mapped := make(model.MappedRow)
		for key, t := range m {
			if t.Ignore || t.Unset() {
				continue
			}
			if v, ok := row[t.Header]; ok {
				mapped[key] = v
			}
		}
		out = append(out, mapped)
	}
	return out
}
