package app

import (
	"log/slog"

	"github.com/vango-dev/stencil/pkg/compiler"
	"github.com/vango-dev/stencil/pkg/reconcile"
	"go.opentelemetry.io/otel/trace"
)

// Options describes a component.
type Options struct {
	// Name identifies the instance in logs, spans and metrics.
	Name string

	// Template is the markup source. It is ignored when Compiled is set.
	Template string

	// Compiled is a template compiled ahead of time.
	Compiled *compiler.Template

	// Data holds the initial values of the reactive fields. The map is
	// copied.
	Data map[string]any

	// Methods are callable from template expressions.
	Methods map[string]Method

	// Computed are derived fields.
	Computed map[string]Computed

	// Watch lists watchers started when the instance is created.
	Watch []Watcher

	// El, when set, is mounted by New.
	El any

	Hooks Hooks
}

// Method is an instance method. Arguments come from the calling
// expression.
type Method func(in *Instance, args ...any) (any, error)

// Computed defines a derived field by a Go getter or by an expression
// evaluated against the instance. Set is optional.
type Computed struct {
	Get  func(in *Instance) any
	Expr string
	Set  func(in *Instance, v any)
}

// Watcher calls its handlers whenever the value of the Source expression
// changes. Methods names instance methods called with (next, prev).
type Watcher struct {
	Source    string
	Handlers  []func(in *Instance, next, prev any)
	Methods   []string
	Immediate bool
}

// Hooks are lifecycle callbacks. Any of them may be nil.
type Hooks struct {
	BeforeCreate  func(in *Instance)
	Created       func(in *Instance)
	BeforeMount   func(in *Instance)
	Mounted       func(in *Instance)
	BeforeUpdate  func(in *Instance, field string, next, prev any)
	Updated       func(in *Instance)
	BeforeDestroy func(in *Instance)
	Destroyed     func(in *Instance)
}

// Option configures an Instance.
type Option func(*config)

type config struct {
	logger         *slog.Logger
	parent         *Instance
	observers      []Observer
	tracer         trace.Tracer
	deferred       bool
	compileOpts    []compiler.Option
	reconcileOpts  []reconcile.Option
	tracerProvider trace.TracerProvider
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithParent sets the instance exposed as $parent.
func WithParent(p *Instance) Option {
	return func(c *config) { c.parent = p }
}

// WithObserver adds an observer notified about every pass.
func WithObserver(o Observer) Option {
	return func(c *config) {
		if o != nil {
			c.observers = append(c.observers, o)
		}
	}
}

// WithTracerProvider sets the provider of the tracer used for pass spans.
// The default is the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *config) { c.tracerProvider = tp }
}

// DeferredPasses makes triggered passes wait for Flush.
func DeferredPasses() Option {
	return func(c *config) { c.deferred = true }
}

// SyncPasses runs triggered passes immediately. This is the default.
func SyncPasses() Option {
	return func(c *config) { c.deferred = false }
}

// WithCompileOptions passes opts to the template compiler.
func WithCompileOptions(opts ...compiler.Option) Option {
	return func(c *config) { c.compileOpts = append(c.compileOpts, opts...) }
}

// WithReconcileOptions passes opts to the reconciler.
func WithReconcileOptions(opts ...reconcile.Option) Option {
	return func(c *config) { c.reconcileOpts = append(c.reconcileOpts, opts...) }
}
