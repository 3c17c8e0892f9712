package di

import "sync"

// cacheKey identifies one registration: the token and its position in the
// token's sequence.
type cacheKey struct {
	token Token
	index int
}

type cacheEntry struct {
	mu    sync.Mutex
	key   cacheKey
	done  bool
	value any

	// owner is the resolution building the instance. Guarded by scopeCache.mu.
	owner *waiter
}

// waiter records the singleton entry a resolution is blocked on. Together
// with cacheEntry.owner it forms a waits-for graph across goroutines.
type waiter struct {
	waiting *cacheEntry
}

// waitCycleError reports that taking an entry lock would close a cycle of
// resolutions waiting on each other. keys runs from the requested entry to
// the entry held by the caller.
type waitCycleError struct {
	keys []cacheKey
}

func (e *waitCycleError) Error() string { return "singleton construction wait cycle" }

type builtInstance struct {
	key   cacheKey
	value any
}

// scopeCache holds singleton instances. Construction is serialized per key so
// concurrent first requests observe one instance. Failed constructions leave
// no trace and are retried on the next request.
type scopeCache struct {
	mu      sync.Mutex
	entries map[cacheKey]*cacheEntry
	order   []builtInstance
	built   map[cacheKey]struct{}
}

func newScopeCache() *scopeCache {
	return &scopeCache{
		entries: make(map[cacheKey]*cacheEntry),
		built:   make(map[cacheKey]struct{}),
	}
}

// getOrCreate returns the cached instance for key or builds it with factory.
// created reports whether factory ran and succeeded. w identifies the calling
// resolution; a nil w skips wait-cycle detection.
func (c *scopeCache) getOrCreate(key cacheKey, scope Scope, w *waiter, factory func() (any, error)) (value any, created bool, err error) {
	if scope == Transient {
		value, err = factory()
		return value, err == nil, err
	}

	c.mu.Lock()
	entry, ok := c.entries[key]
	if !ok {
		entry = &cacheEntry{key: key}
		c.entries[key] = entry
	}
	if keys := waitCycle(w, entry); keys != nil {
		c.mu.Unlock()
		return nil, false, &waitCycleError{keys: keys}
	}
	if w != nil {
		w.waiting = entry
	}
	c.mu.Unlock()

	entry.mu.Lock()
	defer entry.mu.Unlock()

	c.mu.Lock()
	if w != nil {
		w.waiting = nil
	}
	if entry.done {
		c.mu.Unlock()
		return entry.value, false, nil
	}
	entry.owner = w
	c.mu.Unlock()

	value, err = factory()

	c.mu.Lock()
	defer c.mu.Unlock()
	entry.owner = nil
	if err != nil {
		return nil, false, err
	}
	entry.value = value
	entry.done = true

	// A drain during construction dropped the entry; the instance joins the
	// current generation so the next drain tears it down.
	if _, ok := c.entries[key]; !ok {
		c.entries[key] = entry
	}
	if c.entries[key] == entry {
		c.built[key] = struct{}{}
	}
	c.order = append(c.order, builtInstance{key: key, value: value})
	return value, true, nil
}

// waitCycle follows owners and the entries they wait on, starting at entry.
// It returns the visited keys when the chain leads back to w. Must be called
// with scopeCache.mu held.
func waitCycle(w *waiter, entry *cacheEntry) []cacheKey {
	if w == nil {
		return nil
	}
	var keys []cacheKey
	for e := entry; e != nil && e.owner != nil; e = e.owner.waiting {
		keys = append(keys, e.key)
		if e.owner == w {
			return keys
		}
	}
	return nil
}

// initialized reports whether a singleton instance exists for key. It never
// waits on a construction in progress.
func (c *scopeCache) initialized(key cacheKey) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.built[key]
	return ok
}

// drain empties the cache and returns the instances in reverse construction order.
func (c *scopeCache) drain() []any {
	c.mu.Lock()
	order := c.order
	c.order = nil
	c.entries = make(map[cacheKey]*cacheEntry)
	c.built = make(map[cacheKey]struct{})
	c.mu.Unlock()

	out := make([]any, 0, len(order))
	for i := len(order) - 1; i >= 0; i-- {
		out = append(out, order[i].value)
	}
	return out
}

func (c *scopeCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.order)
}
