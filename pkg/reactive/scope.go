package reactive

import "sync"

// Scope owns effects and cleanup functions so they can be released
// together.
type Scope struct {
	mu       sync.Mutex
	effects  []*Effect
	cleanups []func()
	stopped  bool
}

// NewScope creates an empty scope.
func NewScope() *Scope {
	return &Scope{}
}

// Run calls fn with s as the current scope. Effects created by fn belong to
// s. Run on a stopped scope does nothing.
func (s *Scope) Run(fn func()) {
	if s.Stopped() {
		return
	}
	old := setScope(s)
	defer setScope(old)
	fn()
}

// OnCleanup registers fn to be called by Stop. Cleanups run in reverse
// registration order.
func (s *Scope) OnCleanup(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.cleanups = append(s.cleanups, fn)
}

// Stop stops every effect in the scope and runs its cleanups. Calling Stop
// again does nothing.
func (s *Scope) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	effects := s.effects
	cleanups := s.cleanups
	s.effects = nil
	s.cleanups = nil
	s.mu.Unlock()

	for _, e := range effects {
		e.Stop()
	}
	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}
}

// Stopped reports whether Stop has been called.
func (s *Scope) Stopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

// Len returns the number of live effects owned by the scope.
func (s *Scope) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.effects)
}

func (s *Scope) add(e *Effect) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		e.stopped = true
		return
	}
	s.effects = append(s.effects, e)
}
