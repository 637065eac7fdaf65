// Package numbering assigns collision-free player numbers scoped by age group.
//
// An age group resolves to a two-digit "century" bucket; the assigned number
// is bucket*100 + counter. Assignment is sequential by design: each chosen
// number must join the known set before the next row is considered.
package numbering

import (
	"math/rand"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/fieldday/combine/internal/domain/model"
	"github.com/fieldday/combine/pkg/metrics"
)

// Allocation constants.
const (
	minBucket     = 5  // ages at or below collapse here
	unknownBucket = 99 // unrecognized age-group text
	maxCounter    = 999
	fallbackLow   = 9900
	fallbackHigh  = 9999
	fallbackDraws = 200
)

// bucketTable resolves age-group labels that carry no digits.
var bucketTable = map[string]int{
	"prek":         minBucket,
	"pre k":        minBucket,
	"kindergarten": minBucket,
	"k":            minBucket,
	"adult":        18,
}

// firstInt extracts the leading integer from labels like "12U", "U8", "6-8".
var firstInt = regexp.MustCompile(`\d+`)

// Bucket maps an age-group string to its numeric century prefix.
func Bucket(ageGroup string) int {
	norm := strings.TrimSpace(strings.ToLower(ageGroup))
	norm = strings.ReplaceAll(norm, "-", " ")
	if b, ok := bucketTable[norm]; ok {
		return b
	}
	if m := firstInt.FindString(norm); m != "" {
		age, err := strconv.Atoi(m)
		if err == nil && age > 0 {
			if age <= minBucket {
				return minBucket
			}
			if age < 100 {
				return age
			}
		}
	}
	return unknownBucket
}

// Allocator chooses player numbers. The zero value is not usable; call New.
type Allocator struct {
	rng *rand.Rand
}

// Option applies a configuration option to the Allocator.
type Option func(*Allocator)

// WithSeed makes the fallback draw deterministic, for tests.
func WithSeed(seed int64) Option {
	return func(a *Allocator) {
		a.rng = rand.New(rand.NewSource(seed)) //nolint:gosec // jersey numbers, not secrets
	}
}

// New creates an Allocator with configuration options.
func New(opts ...Option) *Allocator {
	a := &Allocator{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // jersey numbers, not secrets
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Next returns the first free number for the age group: candidates are
// bucket*100+counter with counter walking up from start. When the counter
// range is exhausted the allocator falls into the 9900-9999 band, re-rolling
// against the known set and then scanning the band so uniqueness holds
// whenever a slot is free.
func (a *Allocator) Next(ageGroup string, existing []int, start int) int {
	taken := make(map[int]struct{}, len(existing))
	for _, n := range existing {
		taken[n] = struct{}{}
	}
	return a.next(ageGroup, taken, start)
}

func (a *Allocator) next(ageGroup string, taken map[int]struct{}, start int) int {
	if start < 1 {
		start = 1
	}
	prefix := Bucket(ageGroup)
	for counter := start; counter <= maxCounter; counter++ {
		candidate := prefix*100 + counter
		if _, ok := taken[candidate]; !ok {
			metrics.RecordNumberAssigned()
			return candidate
		}
	}

	// Deterministic range exhausted. Degraded but non-fatal.
	metrics.RecordNumberFallback()
	for i := 0; i < fallbackDraws; i++ {
		candidate := fallbackLow + a.rng.Intn(fallbackHigh-fallbackLow+1)
		if _, ok := taken[candidate]; !ok {
			metrics.RecordNumberAssigned()
			return candidate
		}
	}
	for candidate := fallbackLow; candidate <= fallbackHigh; candidate++ {
		if _, ok := taken[candidate]; !ok {
			metrics.RecordNumberAssigned()
			return candidate
		}
	}
	// Every slot in the band is taken; accept the residual collision.
	return fallbackLow + a.rng.Intn(fallbackHigh-fallbackLow+1)
}

// AutoAssign fills in numbers for every unnumbered player in one pass. The
// accumulator is seeded with every already-assigned number and each new
// choice joins it before the next player is processed; the input slice is
// never mutated.
func (a *Allocator) AutoAssign(players []model.Player) []model.Player {
	return a.AutoAssignWith(players, nil)
}

// AutoAssignWith is AutoAssign with the accumulator additionally seeded by
// numbers already persisted outside the batch. Uniqueness must hold across
// the union of both sets.
func (a *Allocator) AutoAssignWith(players []model.Player, existing []int) []model.Player {
	taken := make(map[int]struct{}, len(players)+len(existing))
	for _, n := range existing {
		taken[n] = struct{}{}
	}
	for _, p := range players {
		if p.Numbered() {
			taken[p.Number] = struct{}{}
		}
	}

	out := make([]model.Player, len(players))
	for i, p := range players {
		if !p.Numbered() {
			n := a.next(p.AgeGroup, taken, 1)
			taken[n] = struct{}{}
			p.Number = n
		}
		out[i] = p
	}
	return out
}
