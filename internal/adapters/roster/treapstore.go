package roster

import (
	"context"
	"math/rand"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/fieldday/combine/internal/domain/model"
	"github.com/fieldday/combine/pkg/metrics"
)

// maxNumber is the largest player number the cache indexes. Numbers are
// age-group-prefixed four digit values, with 9900-9999 reserved as the
// overflow band.
const maxNumber = 9999

// node is a treap node ordered by player number. Priorities are random so
// the tree stays balanced in expectation regardless of insertion order.
type node struct {
	number int
	id     string
	prio   uint64
	left   *node
	right  *node
	size   int
}

func nodeSize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func (n *node) update() {
	n.size = 1 + nodeSize(n.left) + nodeSize(n.right)
}

func rotateRight(n *node) *node {
	l := n.left
	n.left = l.right
	l.right = n
	n.update()
	l.update()
	return l
}

func rotateLeft(n *node) *node {
	r := n.right
	n.right = r.left
	r.left = n
	n.update()
	r.update()
	return r
}

func insert(n *node, number int, id string, prio uint64) *node {
	if n == nil {
		return &node{number: number, id: id, prio: prio, size: 1}
	}
	if number < n.number || (number == n.number && id < n.id) {
		n.left = insert(n.left, number, id, prio)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, number, id, prio)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	n.update()
	return n
}

// collectRange appends ids of nodes with lo <= number <= hi in number order,
// stopping once limit ids have been gathered.
func collectRange(n *node, lo, hi int, limit int, out *[]string) {
	if n == nil || len(*out) >= limit {
		return
	}
	if n.number > lo {
		collectRange(n.left, lo, hi, limit, out)
	}
	if len(*out) >= limit {
		return
	}
	if n.number >= lo && n.number <= hi {
		*out = append(*out, n.id)
	}
	if n.number < hi {
		collectRange(n.right, lo, hi, limit, out)
	}
}

// TreapCache is an in-memory roster cache ordered by player number. The
// treap supports the digit-prefix range scans that drive number lookup
// while entering scores; exact lookups go through side maps.
type TreapCache struct {
	mu       sync.RWMutex
	root     *node
	byID     map[string]model.Player
	byNumber map[int]string

	rng    *rand.Rand
	seed   int64
	seeded bool
}

// NewTreapCache creates an empty roster cache.
func NewTreapCache(opts ...Option) *TreapCache {
	c := &TreapCache{
		byID:     make(map[string]model.Player),
		byNumber: make(map[int]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	if !c.seeded {
		c.seed = time.Now().UnixNano()
	}
	c.rng = rand.New(rand.NewSource(c.seed))
	return c
}

// Replace swaps in a fresh roster snapshot, rebuilding the treap.
func (c *TreapCache) Replace(_ context.Context, players []model.Player) {
	start := time.Now()
	defer func() {
		metrics.RecordRosterRefreshLatency(float64(time.Since(start).Milliseconds()))
	}()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.root = nil
	c.byID = make(map[string]model.Player, len(players))
	c.byNumber = make(map[int]string, len(players))
	for _, p := range players {
		c.byID[p.ID] = p
		if p.Numbered() {
			c.byNumber[p.Number] = p.ID
			c.root = insert(c.root, p.Number, p.ID, c.rng.Uint64())
		}
	}

	metrics.UpdateRosterPlayers(len(players))
}

// ByNumber returns the player holding exactly this number.
func (c *TreapCache) ByNumber(_ context.Context, number int) (model.Player, bool) {
	start := time.Now()
	defer func() {
		metrics.RecordRosterLookupLatency(float64(time.Since(start).Milliseconds()))
	}()

	c.mu.RLock()
	defer c.mu.RUnlock()

	id, ok := c.byNumber[number]
	if !ok {
		return model.Player{}, false
	}
	return c.byID[id], true
}

// ByID returns the player with the given store id.
func (c *TreapCache) ByID(_ context.Context, id string) (model.Player, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p, ok := c.byID[id]
	return p, ok
}

// PrefixCandidates returns players whose number starts with the given
// decimal digits, in number order. A prefix of "12" matches 12, 120-129
// and 1200-1299.
func (c *TreapCache) PrefixCandidates(_ context.Context, prefix string, limit int) []model.Player {
	start := time.Now()
	defer func() {
		metrics.RecordRosterLookupLatency(float64(time.Since(start).Milliseconds()))
	}()

	base, err := strconv.Atoi(prefix)
	if err != nil || base <= 0 || limit <= 0 {
		return nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := make([]string, 0, limit)
	for lo, hi := base, base; lo <= maxNumber; lo, hi = lo*10, hi*10+9 {
		collectRange(c.root, lo, min(hi, maxNumber), limit, &ids)
		if len(ids) >= limit {
			break
		}
	}

	out := make([]model.Player, 0, len(ids))
	for _, id := range ids {
		out = append(out, c.byID[id])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

// SearchName returns players whose names fuzzily match the query, best
// matches first.
func (c *TreapCache) SearchName(_ context.Context, query string, limit int) []model.Player {
	start := time.Now()
	defer func() {
		metrics.RecordRosterLookupLatency(float64(time.Since(start).Milliseconds()))
	}()

	if query == "" || limit <= 0 {
		return nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	type hit struct {
		player model.Player
		dist   int
	}
	hits := make([]hit, 0, limit)
	for _, p := range c.byID {
		rank := fuzzy.RankMatchNormalizedFold(query, p.Name)
		if rank < 0 {
			continue
		}
		hits = append(hits, hit{player: p, dist: rank})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].dist != hits[j].dist {
			return hits[i].dist < hits[j].dist
		}
		return hits[i].player.Number < hits[j].player.Number
	})

	if len(hits) > limit {
		hits = hits[:limit]
	}
	out := make([]model.Player, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.player)
	}
	return out
}

// Players returns the full roster, numbered players first in number order,
// then unnumbered players sorted by name then id.
func (c *TreapCache) Players(_ context.Context) []model.Player {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := make([]string, 0, nodeSize(c.root))
	collectRange(c.root, 0, maxNumber, nodeSize(c.root), &ids)

	out := make([]model.Player, 0, len(c.byID))
	for _, id := range ids {
		out = append(out, c.byID[id])
	}

	tail := make([]model.Player, 0, len(c.byID)-len(ids))
	for _, p := range c.byID {
		if !p.Numbered() {
			tail = append(tail, p)
		}
	}
	sort.Slice(tail, func(i, j int) bool {
		if tail[i].Name != tail[j].Name {
			return tail[i].Name < tail[j].Name
		}
		return tail[i].ID < tail[j].ID
	})
	return append(out, tail...)
}

// ScoredCount returns how many players have a recorded value for the drill.
func (c *TreapCache) ScoredCount(_ context.Context, drillKey string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	count := 0
	for _, p := range c.byID {
		if _, ok := p.Scores[drillKey]; ok {
			count++
		}
	}
	return count
}

// Numbers returns every assigned number in ascending order.
func (c *TreapCache) Numbers(_ context.Context) []int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]int, 0, len(c.byNumber))
	for n := range c.byNumber {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

// Count returns the number of cached players.
func (c *TreapCache) Count(_ context.Context) int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.byID)
}
