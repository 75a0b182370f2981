package reactive

import "sync"

// TriggerEvent describes the write that caused an effect to re-run.
type TriggerEvent struct {
	// Source is the name of the cell or computed value that changed. It is
	// empty for unnamed sources.
	Source string
}

// Effect runs a function and runs it again whenever a cell it read
// changes.
type Effect struct {
	id        uint64
	fn        func()
	scheduler func(job func())
	onTrigger []func(TriggerEvent)
	lazy      bool

	mu      sync.Mutex
	sources []*source
	stopped bool
	running bool
}

// EffectOption configures an Effect.
type EffectOption interface {
	apply(*Effect)
}

type effectOptionFunc func(*Effect)

func (f effectOptionFunc) apply(e *Effect) { f(e) }

// OnTrigger registers fn to be called each time a dependency change
// triggers the effect, before it is scheduled.
func OnTrigger(fn func(TriggerEvent)) EffectOption {
	return effectOptionFunc(func(e *Effect) {
		e.onTrigger = append(e.onTrigger, fn)
	})
}

// WithScheduler hands re-runs to schedule instead of running them inline.
// schedule receives the job to run; it may run it later or not at all.
func WithScheduler(schedule func(job func())) EffectOption {
	return effectOptionFunc(func(e *Effect) {
		e.scheduler = schedule
	})
}

// Lazy skips the initial run. The effect tracks nothing until Run is
// called.
func Lazy() EffectOption {
	return effectOptionFunc(func(e *Effect) {
		e.lazy = true
	})
}

// WatchEffect creates an effect running fn. Unless Lazy is given, fn runs
// once immediately to collect its dependencies. An effect created inside
// Scope.Run is stopped with the scope.
func WatchEffect(fn func(), opts ...EffectOption) *Effect {
	e := &Effect{
		id: nextID(),
		fn: fn,
	}
	for _, opt := range opts {
		opt.apply(e)
	}
	if s := currentScope(); s != nil {
		s.add(e)
	}
	if !e.lazy {
		e.Run()
	}
	return e
}

// Run runs the effect function now, replacing the tracked dependencies
// with the ones read during this run. Re-entrant calls are ignored.
func (e *Effect) Run() {
	e.mu.Lock()
	if e.stopped || e.running {
		e.mu.Unlock()
		return
	}
	e.running = true
	e.mu.Unlock()

	e.clearSources()
	old := setListener(e)
	defer func() {
		setListener(old)
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
	}()
	e.fn()
}

// Stop unsubscribes the effect from its dependencies. It never runs again.
func (e *Effect) Stop() {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return
	}
	e.stopped = true
	e.mu.Unlock()
	e.clearSources()
}

// Active reports whether the effect has not been stopped.
func (e *Effect) Active() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.stopped
}

// Dependencies returns the number of sources read during the last run.
func (e *Effect) Dependencies() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.sources)
}

func (e *Effect) clearSources() {
	e.mu.Lock()
	sources := e.sources
	e.sources = nil
	e.mu.Unlock()
	for _, s := range sources {
		s.unsubscribe(e)
	}
}

func (e *Effect) listenerID() uint64 { return e.id }

func (e *Effect) addSource(s *source) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, existing := range e.sources {
		if existing == s {
			return
		}
	}
	e.sources = append(e.sources, s)
}

func (e *Effect) markDirty(from *source) {
	e.mu.Lock()
	stopped := e.stopped
	e.mu.Unlock()
	if stopped {
		return
	}

	ev := TriggerEvent{}
	if from != nil {
		ev.Source = from.name
	}
	for _, fn := range e.onTrigger {
		fn(ev)
	}

	if e.scheduler != nil {
		e.scheduler(e.Run)
		return
	}
	e.Run()
}
