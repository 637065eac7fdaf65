package seedroster

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
)

var firstNames = []string{
	"Jordan", "Riley", "Sam", "Avery", "Casey", "Quinn", "Morgan", "Taylor",
	"Reese", "Dakota", "Emerson", "Finley", "Harper", "Kendall", "Logan",
	"Micah", "Noah", "Parker", "Rowan", "Skyler",
}

var lastNames = []string{
	"Avery", "Chen", "Okafor", "Nguyen", "Garcia", "Kim", "Patel", "Brooks",
	"Diaz", "Foster", "Hayes", "Iwu", "Jensen", "Lopez", "Murphy", "Ortiz",
	"Reed", "Silva", "Turner", "Walsh",
}

var teams = []string{"Falcons", "Hawks", "Wolves", "Tigers", "Bears", "Eagles"}

var positions = []string{"QB", "RB", "WR", "TE", "LB", "DB", ""}

const defaultNumberedPc = 0.3

// ageGroupBase extracts the numeric prefix of an age group label, e.g. 12
// for "12U". Unparseable labels fall back to zero.
func ageGroupBase(group string) int {
	n := 0
	for _, r := range group {
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int(r-'0')
	}
	return n
}

// GenerateCSV renders a roster sheet with the given shape: mostly clean
// rows, a configurable share of pre-numbered ones, and optionally a few
// rows with the kinds of problems real sheets have (blank names, padded
// numbers, non-numeric scores).
func GenerateCSV(cfg *Config) string {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	groups := cfg.AgeGroups
	if len(groups) == 0 {
		groups = []string{"10U", "12U", "14U"}
	}
	numberedPc := cfg.NumberedPc
	if numberedPc <= 0 {
		numberedPc = defaultNumberedPc
	}

	var b strings.Builder
	b.WriteString("First Name,Last Name,Number,Age Group,Team,Position,Notes\n")

	// Track explicit numbers so the sheet never collides with itself.
	taken := map[int]bool{}
	for i := 0; i < cfg.NumPlayers; i++ {
		first := firstNames[rng.Intn(len(firstNames))]
		last := lastNames[rng.Intn(len(lastNames))]
		group := groups[rng.Intn(len(groups))]
		team := teams[rng.Intn(len(teams))]
		pos := positions[rng.Intn(len(positions))]

		number := ""
		if rng.Float64() < numberedPc {
			base := ageGroupBase(group) * 100
			for tries := 0; tries < 50; tries++ {
				n := base + 1 + rng.Intn(99)
				if !taken[n] {
					taken[n] = true
					number = fmt.Sprintf("%d", n)
					break
				}
			}
		}

		note := ""
		if cfg.MessyPc > 0 && rng.Float64() < cfg.MessyPc {
			switch rng.Intn(3) {
			case 0:
				first = "" // critical: excluded from upload
			case 1:
				number = " " + number + " " // padded; survives trimming
			default:
				note = "needs follow-up"
			}
		}

		b.WriteString(strings.Join([]string{first, last, number, group, team, pos, note}, ","))
		b.WriteString("\n")
	}
	return b.String()
}
