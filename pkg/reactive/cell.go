package reactive

import (
	"reflect"
	"sync"
)

// Cell is an observable value.
type Cell[T any] struct {
	source

	mu     sync.RWMutex
	value  T
	equals func(a, b T) bool
	before []beforeSet[T]
}

type beforeSet[T any] struct {
	id uint64
	fn func(next, prev T)
}

// NewCell creates a cell holding initial.
func NewCell[T any](initial T) *Cell[T] {
	return &Cell[T]{
		source: newSource(),
		value:  initial,
	}
}

// Named sets the name reported in TriggerEvents.
func (c *Cell[T]) Named(name string) *Cell[T] {
	c.name = name
	return c
}

// Name returns the cell's name.
func (c *Cell[T]) Name() string { return c.name }

// WithEquals sets the function used to decide whether a write changes the
// value.
func (c *Cell[T]) WithEquals(fn func(a, b T) bool) *Cell[T] {
	c.mu.Lock()
	c.equals = fn
	c.mu.Unlock()
	return c
}

// Get returns the value and subscribes the current reader.
func (c *Cell[T]) Get() T {
	c.track()
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value
}

// Peek returns the value without subscribing.
func (c *Cell[T]) Peek() T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value
}

// Set replaces the value. It reports whether the value changed; unchanged
// writes neither run pre-write callbacks nor notify subscribers.
func (c *Cell[T]) Set(v T) bool {
	c.mu.RLock()
	prev := c.value
	eq := c.equals
	hooks := make([]beforeSet[T], len(c.before))
	copy(hooks, c.before)
	c.mu.RUnlock()

	if eq == nil {
		eq = defaultEquals[T]
	}
	if eq(prev, v) {
		return false
	}

	for _, h := range hooks {
		h.fn(v, prev)
	}

	c.mu.Lock()
	c.value = v
	c.mu.Unlock()

	c.notify()
	return true
}

// Update sets the value to fn applied to the current value.
func (c *Cell[T]) Update(fn func(T) T) bool {
	return c.Set(fn(c.Peek()))
}

// OnBeforeSet registers fn to run before each write that changes the value,
// while Peek still returns the old value. The returned function removes it.
func (c *Cell[T]) OnBeforeSet(fn func(next, prev T)) (cancel func()) {
	id := nextID()
	c.mu.Lock()
	c.before = append(c.before, beforeSet[T]{id: id, fn: fn})
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, h := range c.before {
			if h.id == id {
				c.before = append(c.before[:i], c.before[i+1:]...)
				return
			}
		}
	}
}

// Subscribers returns the number of readers subscribed to the cell.
func (c *Cell[T]) Subscribers() int {
	return c.subscriberCount()
}

// defaultEquals compares comparable values with == and falls back to
// reflect.DeepEqual otherwise. Maps and slices are never equal, so writing
// a mutated map back to a cell always notifies.
func defaultEquals[T any](a, b T) bool {
	va, vb := any(a), any(b)
	if va == nil || vb == nil {
		return va == nil && vb == nil
	}
	ta, tb := reflect.TypeOf(va), reflect.TypeOf(vb)
	if ta != tb {
		return false
	}
	switch ta.Kind() {
	case reflect.Map, reflect.Slice, reflect.Func:
		return false
	}
	if ta.Comparable() {
		return va == vb
	}
	return reflect.DeepEqual(va, vb)
}
