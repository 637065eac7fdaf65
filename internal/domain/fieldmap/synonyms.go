package fieldmap

import (
	"strings"

	"github.com/fieldday/combine/internal/domain/model"
)

// synonyms maps each fixed canonical kind to the header spellings seen in
// the wild. Matching happens on normalized header text.
var synonyms = map[model.FieldKind][]string{
	model.KindFirstName:  {"first name", "first", "fname", "firstname", "given name", "player first name"},
	model.KindLastName:   {"last name", "last", "lname", "lastname", "surname", "family name", "player last name"},
	model.KindNumber:     {"number", "jersey number", "jersey", "#", "no", "num", "player number", "jersey #"},
	model.KindAgeGroup:   {"age group", "age", "agegroup", "division", "age division", "group"},
	model.KindExternalID: {"external id", "id", "player id", "externalid"},
	model.KindTeamName:   {"team", "team name", "club", "school"},
	model.KindPosition:   {"position", "pos"},
	model.KindNotes:      {"notes", "note", "comments", "comment"},
}

// normalizeHeader lowercases and collapses separators so "First_Name",
// "first-name" and "First Name" all compare equal.
func normalizeHeader(h string) string {
	h = strings.TrimSpace(strings.ToLower(h))
	h = strings.ReplaceAll(h, "_", " ")
	h = strings.ReplaceAll(h, "-", " ")
	return strings.Join(strings.Fields(h), " ")
}

// matchesKey reports whether a raw header resolves to the canonical key.
// Fixed keys match through the synonym table; drill keys match their key or
// label text.
func matchesKey(header string, key model.FieldKey, drills []model.DrillDefinition) bool {
	norm := normalizeHeader(header)
	if key.IsDrill() {
		for _, d := range drills {
			if d.Key != key.DrillKey() {
				continue
			}
			return norm == normalizeHeader(d.Key) || norm == normalizeHeader(d.Label)
		}
		return false
	}
	for _, s := range synonyms[key.Kind()] {
		if norm == s {
			return true
		}
	}
	return false
}

// HasNameHeaders reports whether both name fields can be resolved among raw
// headers before any mapping is applied.
func HasNameHeaders(headers []string) bool {
	first, last := false, false
	for _, h := range headers {
		if matchesKey(h, model.FieldFirstName, nil) {
			first = true
		}
		if matchesKey(h, model.FieldLastName, nil) {
			last = true
		}
	}
	return first && last
}
