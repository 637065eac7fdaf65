package sheet

import (
	"strings"

	"github.com/fieldday/combine/internal/domain/model"
)

// ExportSample renders a downloadable starter sheet for an event: the
// recognized roster headers plus one column per drill, followed by two
// example rows. Lines are comma-joined without quoting, the same dialect
// ParseDelimited accepts.
func ExportSample(drills []model.DrillDefinition) string {
	headers := []string{"First Name", "Last Name", "Number", "Age Group", "Team", "Position", "Notes"}
	for _, d := range drills {
		headers = append(headers, d.Label)
	}

	rows := [][]string{
		{"Jordan", "Avery", "1201", "12U", "Falcons", "QB", ""},
		{"Riley", "Chen", "", "10U", "Hawks", "WR", "left-handed"},
	}
	for i := range rows {
		for range drills {
			rows[i] = append(rows[i], "")
		}
	}

	var b strings.Builder
	b.WriteString(strings.Join(headers, ","))
	b.WriteString("\n")
	for _, r := range rows {
		b.WriteString(strings.Join(r, ","))
		b.WriteString("\n")
	}
	return b.String()
}
