package bot

import "github.com/adaptivemaze/amaze-api/maze"

// defaultCacheSize bounds the per-episode path cache. Entries beyond
// the bound evict in insertion (FIFO) order.
const defaultCacheSize = 256

type cacheKey struct {
	pos  maze.Position
	goal maze.Position
}

// pathCache memoizes solved action sequences keyed by (position, goal)
// so a step that re-evaluates an unchanged position does not rerun A*.
// It is episode-scoped: Reset flushes it whenever the maze changes.
type pathCache struct {
	entries map[cacheKey][]maze.Action
	order   []cacheKey
	maxSize int
}

func newPathCache(maxSize int) *pathCache {
	if maxSize <= 0 {
		maxSize = defaultCacheSize
	}
	return &pathCache{
		entries: make(map[cacheKey][]maze.Action),
		maxSize: maxSize,
	}
}

func (c *pathCache) get(key cacheKey) ([]maze.Action, bool) {
	actions, ok := c.entries[key]
	return actions, ok
}

func (c *pathCache) put(key cacheKey, actions []maze.Action) {
	if _, ok := c.entries[key]; ok {
		c.entries[key] = actions
		return
	}
	if len(c.entries) >= c.maxSize {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	c.entries[key] = actions
	c.order = append(c.order, key)
}

func (c *pathCache) flush() {
	c.entries = make(map[cacheKey][]maze.Action)
	c.order = c.order[:0]
}
