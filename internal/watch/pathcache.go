package watch

import (
	"container/list"
	"sync"

	"github.com/fsviz/fsviz/internal/fstree"
)

const pathCacheSize = 4096

type pathCacheEntry struct {
	key   string
	value fstree.NodeID
}

// pathCache is a small LRU of resolved path-to-node lookups, so a burst
// of events in one directory walks the tree once.
type pathCache struct {
	mu    sync.Mutex
	max   int
	ll    *list.List
	items map[string]*list.Element
}

func newPathCache(max int) *pathCache {
	return &pathCache{
		max:   max,
		ll:    list.New(),
		items: make(map[string]*list.Element),
	}
}

func (c *pathCache) Get(key string) (fstree.NodeID, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		c.ll.MoveToFront(el)
		return el.Value.(pathCacheEntry).value, true
	}
	return fstree.InvalidID, false
}

func (c *pathCache) Set(key string, value fstree.NodeID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		el.Value = pathCacheEntry{key: key, value: value}
		c.ll.MoveToFront(el)
		return
	}

	el := c.ll.PushFront(pathCacheEntry{key: key, value: value})
	c.items[key] = el

	if c.ll.Len() > c.max {
		last := c.ll.Back()
		if last == nil {
			return
		}
		c.ll.Remove(last)
		delete(c.items, last.Value.(pathCacheEntry).key)
	}
}

func (c *pathCache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		c.ll.Remove(el)
		delete(c.items, key)
	}
}
