package reactive

import "sync"

// source is the subscriber list shared by cells and computed values.
type source struct {
	id   uint64
	name string

	mu   sync.Mutex
	subs []listener
}

func newSource() source {
	return source{id: nextID()}
}

// track subscribes the current listener, if any.
func (s *source) track() {
	l := currentListener()
	if l == nil {
		return
	}
	s.subscribe(l)
	l.addSource(s)
}

func (s *source) subscribe(l listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := l.listenerID()
	for _, existing := range s.subs {
		if existing.listenerID() == id {
			return
		}
	}
	s.subs = append(s.subs, l)
}

func (s *source) unsubscribe(l listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := l.listenerID()
	for i, existing := range s.subs {
		if existing.listenerID() == id {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			return
		}
	}
}

// notify marks every subscriber dirty, or queues them inside a batch.
// Subscribers are copied first so they may unsubscribe while notified.
func (s *source) notify() {
	s.mu.Lock()
	subs := make([]listener, len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	ctx := current()
	if ctx.batchDepth > 0 {
		for _, l := range subs {
			ctx.pending = append(ctx.pending, pendingUpdate{l: l, from: s})
		}
		return
	}
	for _, l := range subs {
		l.markDirty(s)
	}
}

func (s *source) subscriberCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// Batch runs fn and delivers the notifications of every write made inside
// it once fn returns. Each subscriber is notified at most once. Batches
// nest; only the outermost one flushes.
func Batch(fn func()) {
	ctx := current()
	ctx.batchDepth++
	defer func() {
		ctx.batchDepth--
		if ctx.batchDepth == 0 {
			flushPending(ctx)
		}
	}()
	fn()
}

func flushPending(ctx *trackingContext) {
	updates := ctx.pending
	ctx.pending = nil
	seen := make(map[uint64]bool, len(updates))
	for _, u := range updates {
		id := u.l.listenerID()
		if seen[id] {
			continue
		}
		seen[id] = true
		u.l.markDirty(u.from)
	}
}
