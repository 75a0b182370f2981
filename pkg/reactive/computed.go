package reactive

import (
	"errors"
	"sync"
)

// ErrReadOnly is returned when setting a computed value that has no setter.
var ErrReadOnly = errors.New("reactive: computed value is read-only")

// Computed is a value derived from other cells. It recomputes lazily, the
// first time it is read after one of its dependencies changed.
type Computed[T any] struct {
	source

	get func() T
	set func(T)

	mu      sync.Mutex
	value   T
	dirty   bool
	sources []*source
}

// NewComputed creates a computed value. set may be nil.
func NewComputed[T any](get func() T, set func(T)) *Computed[T] {
	return &Computed[T]{
		source: newSource(),
		get:    get,
		set:    set,
		dirty:  true,
	}
}

// Get returns the current value, recomputing it if needed, and subscribes
// the current reader.
func (c *Computed[T]) Get() T {
	c.track()
	c.mu.Lock()
	dirty := c.dirty
	c.mu.Unlock()
	if dirty {
		c.recompute()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// Set passes v to the setter.
func (c *Computed[T]) Set(v T) error {
	if c.set == nil {
		return ErrReadOnly
	}
	c.set(v)
	return nil
}

// Writable reports whether the computed value has a setter.
func (c *Computed[T]) Writable() bool { return c.set != nil }

func (c *Computed[T]) recompute() {
	c.clearSources()
	old := setListener(c)
	v := c.get()
	setListener(old)

	c.mu.Lock()
	c.value = v
	c.dirty = false
	c.mu.Unlock()
}

func (c *Computed[T]) clearSources() {
	c.mu.Lock()
	sources := c.sources
	c.sources = nil
	c.mu.Unlock()
	for _, s := range sources {
		s.unsubscribe(c)
	}
}

func (c *Computed[T]) listenerID() uint64 { return c.id }

func (c *Computed[T]) addSource(s *source) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, existing := range c.sources {
		if existing == s {
			return
		}
	}
	c.sources = append(c.sources, s)
}

func (c *Computed[T]) markDirty(from *source) {
	c.mu.Lock()
	wasDirty := c.dirty
	c.dirty = true
	c.mu.Unlock()
	if !wasDirty {
		c.notify()
	}
}
