package schedule

import "sync"

// Lazy defers job-table construction until first read and caches the result,
// so the table can be declared before configuration is finalised. Invalidate
// forces the next read to rebuild, letting late configuration changes take
// effect without a process restart.
type Lazy struct {
	mu      sync.Mutex
	factory func() map[string]Entry
	cache   map[string]Entry
}

// NewLazy wraps a factory that reads current configuration on each rebuild.
func NewLazy(factory func() map[string]Entry) *Lazy {
	return &Lazy{factory: factory}
}

// Get returns the cached table, building it on first access.
func (l *Lazy) Get() map[string]Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cache == nil {
		l.cache = l.factory()
	}
	return l.cache
}

// Invalidate clears the cache so the next Get recomputes the table.
func (l *Lazy) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache = nil
}
