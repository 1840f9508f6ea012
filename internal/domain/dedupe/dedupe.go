// Package dedupe tracks names already emitted by a listing so repeated
// names can be skipped.
package dedupe

import (
	"container/list"
	"context"
	"strings"
	"sync"
	"sync/atomic"
)

// Deduper records seen names.
type Deduper interface {
	// SeenAndRecord atomically checks if name was seen and records it if not.
	// Returns true if name was already seen.
	SeenAndRecord(ctx context.Context, name string) bool

	// Unrecord forgets name so it can be recorded again.
	Unrecord(ctx context.Context, name string)

	Size() int64
}

// inMemoryDeduper keeps seen names in a map. In bounded mode the oldest
// name is evicted once maxSize is reached.
type inMemoryDeduper struct {
	mu         sync.Mutex
	seen       map[string]*list.Element
	order      *list.List // front = newest
	maxSize    int        // <= 0 means unbounded
	foldCase   bool
	trimSpaces bool
	size       atomic.Int64
}

// NewInMemoryDeduper creates a deduper. By default it is unbounded and
// matches names exactly.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		seen:  make(map[string]*list.Element),
		order: list.New(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *inMemoryDeduper) normalize(name string) string {
	if d.trimSpaces {
		name = strings.TrimSpace(name)
	}
	if d.foldCase {
		name = strings.ToLower(name)
	}
	return name
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, name string) bool {
	key := d.normalize(name)

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[key]; ok {
		return true
	}
	if d.maxSize > 0 && len(d.seen) >= d.maxSize {
		d.evictOldest()
	}
	d.seen[key] = d.order.PushFront(key)
	d.size.Add(1)
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, name string) {
	key := d.normalize(name)

	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.seen[key]; ok {
		d.order.Remove(el)
		delete(d.seen, key)
		d.size.Add(-1)
	}
}

// evictOldest must be called with d.mu held.
func (d *inMemoryDeduper) evictOldest() {
	el := d.order.Back()
	if el == nil {
		return
	}
	d.order.Remove(el)
	delete(d.seen, el.Value.(string))
	d.size.Add(-1)
}

func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
