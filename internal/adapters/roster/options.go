package roster

// Option applies a configuration option to the TreapCache.
type Option func(*TreapCache)

// WithSeed makes treap priorities deterministic, for tests.
func WithSeed(seed int64) Option {
	return func(c *TreapCache) {
		c.seed = seed
		c.seeded = true
	}
}
