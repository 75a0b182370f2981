package app

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"reflect"
	"slices"

	"github.com/vango-dev/stencil/internal/errors"
	"github.com/vango-dev/stencil/pkg/compiler"
	"github.com/vango-dev/stencil/pkg/expr"
	"github.com/vango-dev/stencil/pkg/reactive"
	"github.com/vango-dev/stencil/pkg/reconcile"
	"github.com/vango-dev/stencil/pkg/vdom"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/vango-dev/stencil/pkg/app"

// Instance is a mounted or mountable component.
//
// An Instance is not safe for concurrent use. Callers that touch it from
// several goroutines must serialize access.
type Instance struct {
	name   string
	cfg    config
	hooks  Hooks
	logger *slog.Logger
	tracer trace.Tracer

	host reconcile.Host
	rec  *reconcile.Reconciler
	tmpl *compiler.Template

	fields   []string
	data     map[string]*reactive.Cell[any]
	computed map[string]*reactive.Computed[any]
	methods  map[string]expr.Func

	scope  *reactive.Scope
	effect *reactive.Effect
	render *reconcile.Render
	target any

	passSeq  uint64
	pending  *Pass
	current  *Pass
	running  bool
	trigger  string
	explicit string

	mounted   bool
	destroyed bool
	lastErr   error
}

// New creates an instance rendering into host. The template is compiled,
// the state is set up and the Created hook has run when New returns. If
// opts.El is set the instance is mounted as well; a mount failure is
// returned together with the unmounted instance.
func New(opts Options, host reconcile.Host, options ...Option) (*Instance, error) {
	cfg := config{logger: slog.Default()}
	for _, opt := range options {
		opt(&cfg)
	}
	tp := cfg.tracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}

	name := opts.Name
	if name == "" {
		name = "app"
	}

	in := &Instance{
		name:     name,
		cfg:      cfg,
		hooks:    opts.Hooks,
		logger:   cfg.logger,
		tracer:   tp.Tracer(tracerName),
		host:     host,
		data:     make(map[string]*reactive.Cell[any]),
		computed: make(map[string]*reactive.Computed[any]),
		methods:  make(map[string]expr.Func),
		scope:    reactive.NewScope(),
	}
	in.callHook(in.hooks.BeforeCreate)

	tmpl := opts.Compiled
	if tmpl == nil {
		copts := append([]compiler.Option{
			compiler.WithName(name),
			compiler.WithLogger(cfg.logger),
		}, cfg.compileOpts...)
		t, err := compiler.CompileString(opts.Template, copts...)
		if err != nil {
			return nil, err
		}
		tmpl = t
	}
	in.tmpl = tmpl

	ropts := append([]reconcile.Option{reconcile.WithLogger(cfg.logger)}, cfg.reconcileOpts...)
	in.rec = reconcile.New(host, ropts...)

	if err := in.initState(opts); err != nil {
		return nil, err
	}
	in.callHook(in.hooks.Created)

	if opts.El != nil {
		if err := in.Mount(opts.El); err != nil {
			return in, err
		}
	}
	return in, nil
}

func (in *Instance) initState(opts Options) error {
	taken := func(name string) error {
		_, d := in.data[name]
		_, c := in.computed[name]
		_, m := in.methods[name]
		if d || c || m {
			return errors.Newf(errors.CategoryCompile, "%q is defined more than once", name).
				WithSuggestion("Data fields, computed fields and methods share one namespace")
		}
		return nil
	}

	for _, name := range sortedKeys(opts.Data) {
		field := name
		cell := reactive.NewCell[any](opts.Data[name]).Named(field)
		cell.OnBeforeSet(func(next, prev any) {
			in.beforeUpdate(field, next, prev)
		})
		in.data[field] = cell
		in.fields = append(in.fields, field)
	}

	for _, name := range sortedKeys(opts.Methods) {
		if err := taken(name); err != nil {
			return err
		}
		m := opts.Methods[name]
		in.methods[name] = func(args ...any) (any, error) {
			return m(in, args...)
		}
	}

	for _, name := range sortedKeys(opts.Computed) {
		if err := taken(name); err != nil {
			return err
		}
		c, err := in.newComputed(name, opts.Computed[name])
		if err != nil {
			return err
		}
		in.computed[name] = c
	}

	for i, w := range opts.Watch {
		if err := in.startWatcher(i, w); err != nil {
			return err
		}
	}
	return nil
}

func (in *Instance) newComputed(name string, def Computed) (*reactive.Computed[any], error) {
	get := func() any { return def.Get(in) }
	if def.Get == nil {
		prog, err := expr.Parse(def.Expr)
		if err != nil {
			return nil, errors.New(errors.CodeExpressionSyntax).
				WithDetail("computed " + name).
				Wrap(err)
		}
		get = func() any {
			v, err := prog.Eval(in)
			if err != nil {
				in.logger.Warn("computed evaluation failed",
					"instance", in.name,
					"field", name,
					"error", err,
				)
				return nil
			}
			return v
		}
	}

	var set func(any)
	if def.Set != nil {
		set = func(v any) { def.Set(in, v) }
	}
	return reactive.NewComputed(get, set), nil
}

func (in *Instance) startWatcher(i int, w Watcher) error {
	prog, err := expr.Parse(w.Source)
	if err != nil {
		return errors.New(errors.CodeExpressionSyntax).
			WithDetail(fmt.Sprintf("watcher %d", i)).
			Wrap(err)
	}
	for _, m := range w.Methods {
		if _, ok := in.methods[m]; !ok {
			return errors.Newf(errors.CategoryCompile, "watcher %q calls unknown method %q", w.Source, m)
		}
	}

	source := func() any {
		v, err := prog.Eval(in)
		if err != nil {
			in.logger.Warn("watch source failed",
				"instance", in.name,
				"source", w.Source,
				"error", err,
			)
			return nil
		}
		return v
	}
	callback := func(next, prev any) {
		for _, h := range w.Handlers {
			h(in, next, prev)
		}
		for _, m := range w.Methods {
			if _, err := in.methods[m](next, prev); err != nil {
				in.logger.Warn("watch handler failed",
					"instance", in.name,
					"method", m,
					"error", err,
				)
			}
		}
	}

	var wopts []reactive.WatchOption
	if w.Immediate {
		wopts = append(wopts, reactive.Immediate())
	}
	in.scope.Run(func() {
		reactive.Watch(source, callback, wopts...)
	})
	return nil
}

func (in *Instance) beforeUpdate(field string, next, prev any) {
	if in.hooks.BeforeUpdate == nil {
		return
	}
	reactive.Untracked(func() {
		in.hooks.BeforeUpdate(in, field, next, prev)
	})
}

func (in *Instance) callHook(h func(*Instance)) {
	if h == nil {
		return
	}
	reactive.Untracked(func() { h(in) })
}

// Lookup implements expr.Env. Data and computed reads are tracked by the
// running effect.
func (in *Instance) Lookup(name string) (any, bool) {
	if c, ok := in.data[name]; ok {
		return c.Get(), true
	}
	if c, ok := in.computed[name]; ok {
		return c.Get(), true
	}
	if m, ok := in.methods[name]; ok {
		return m, true
	}
	switch name {
	case "$parent":
		if in.cfg.parent == nil {
			return nil, true
		}
		return in.cfg.parent, true
	case "$el":
		return in.target, true
	case "$name":
		return in.name, true
	}
	return nil, false
}

// Assign implements expr.Env. Only data fields and writable computed
// fields can be assigned.
func (in *Instance) Assign(name string, value any) error {
	if in.destroyed {
		return errors.New(errors.CodeInstanceDestroyed).WithDetail(in.name)
	}
	if c, ok := in.data[name]; ok {
		c.Set(value)
		return nil
	}
	if c, ok := in.computed[name]; ok {
		if !c.Writable() {
			return fmt.Errorf("computed field %s is read-only", name)
		}
		var prev any
		reactive.Untracked(func() { prev = c.Get() })
		in.beforeUpdate(name, value, prev)
		return c.Set(value)
	}
	if _, ok := in.methods[name]; ok {
		return fmt.Errorf("cannot assign to method %s", name)
	}
	return fmt.Errorf("%s is not defined", name)
}

// GetMember lets expressions reach into other instances, as in
// $parent.count.
func (in *Instance) GetMember(name string) (any, bool) { return in.Lookup(name) }

// SetMember lets expressions assign through $parent.
func (in *Instance) SetMember(name string, value any) error { return in.Assign(name, value) }

// Name returns the instance name.
func (in *Instance) Name() string { return in.name }

// Parent returns the instance set with WithParent.
func (in *Instance) Parent() *Instance { return in.cfg.parent }

// Host returns the host the instance renders into.
func (in *Instance) Host() reconcile.Host { return in.host }

// Template returns the compiled template.
func (in *Instance) Template() *compiler.Template { return in.tmpl }

// Target returns the host node the instance is mounted on, or nil.
func (in *Instance) Target() any { return in.target }

// Nodes returns the virtual nodes rendered by the last successful pass.
func (in *Instance) Nodes() []*vdom.Node {
	if in.render == nil {
		return nil
	}
	return in.render.Current()
}

// Stats returns the counters of the last reconciliation.
func (in *Instance) Stats() reconcile.Stats { return in.rec.Stats() }

// Fields returns the data field names in sorted order.
func (in *Instance) Fields() []string { return slices.Clone(in.fields) }

// Get returns the value of a data or computed field without tracking it.
func (in *Instance) Get(name string) (any, bool) {
	var (
		v  any
		ok bool
	)
	reactive.Untracked(func() {
		if _, isMethod := in.methods[name]; isMethod {
			return
		}
		v, ok = in.Lookup(name)
	})
	return v, ok
}

// Set assigns a field, as an expression assignment would.
func (in *Instance) Set(name string, value any) error {
	return in.Assign(name, value)
}

// SetData assigns several fields in one batch, so the render effect is
// scheduled once.
func (in *Instance) SetData(values map[string]any) error {
	var errs []error
	reactive.Batch(func() {
		for _, name := range sortedKeys(values) {
			if err := in.Assign(name, values[name]); err != nil {
				errs = append(errs, err)
			}
		}
	})
	return stderrors.Join(errs...)
}

// Data returns a snapshot of the data fields.
func (in *Instance) Data() map[string]any {
	out := make(map[string]any, len(in.data))
	for name, c := range in.data {
		out[name] = c.Peek()
	}
	return out
}

// Eval evaluates src against the instance. Assignments in src go through
// the data cells and may schedule a pass.
func (in *Instance) Eval(src string) (any, error) {
	prog, err := expr.Parse(src)
	if err != nil {
		return nil, errors.New(errors.CodeExpressionSyntax).Wrap(err)
	}
	var v any
	reactive.Untracked(func() { v, err = prog.Eval(in) })
	if err != nil {
		return nil, errors.New(errors.CodeExpressionEval).Wrap(err)
	}
	return v, nil
}

// Call invokes a method by name.
func (in *Instance) Call(method string, args ...any) (any, error) {
	m, ok := in.methods[method]
	if !ok {
		return nil, fmt.Errorf("%s is not a method", method)
	}
	return m(args...)
}

// Mounted reports whether a pass has rendered into the current target.
func (in *Instance) Mounted() bool { return in.mounted }

// Destroyed reports whether Destroy has been called.
func (in *Instance) Destroyed() bool { return in.destroyed }

// LastError returns the error of the last pass, if it failed.
func (in *Instance) LastError() error { return in.lastErr }

// Mount renders the instance into target, which is a host node or a
// selector resolved through the host. Mounting on a new target removes
// what was rendered into the previous one. The error of the first pass is
// returned; the instance stays mounted either way.
func (in *Instance) Mount(target any) error {
	if in.destroyed {
		return errors.New(errors.CodeInstanceDestroyed).WithDetail(in.name)
	}
	node, err := in.resolve(target)
	if err != nil {
		in.logger.Error("mount failed",
			"instance", in.name,
			"target", fmt.Sprint(target),
			"error", err,
		)
		return err
	}
	if in.render != nil && in.render.Parent() == node {
		return nil
	}
	if in.render != nil {
		if _, err := in.render.Render([]*vdom.Node{}); err != nil {
			return err
		}
	}

	in.target = node
	in.render = reconcile.NewRender(in.rec, node)
	in.mounted = false
	in.callHook(in.hooks.BeforeMount)

	in.cancelPending()
	in.explicit = "mount"
	if in.effect == nil {
		in.scope.Run(func() {
			in.effect = reactive.WatchEffect(in.pass,
				reactive.WithScheduler(in.schedule),
				reactive.OnTrigger(in.onTrigger),
			)
		})
	} else {
		in.effect.Run()
	}
	in.drain()
	return in.lastErr
}

func (in *Instance) resolve(target any) (any, error) {
	switch t := target.(type) {
	case nil:
		return nil, errors.New(errors.CodeMountTarget).WithDetail("nil")
	case string:
		q, ok := in.host.(reconcile.Querier)
		if !ok {
			return nil, errors.New(errors.CodeMountTarget).
				WithDetail(t).
				WithSuggestion("This host cannot resolve selectors, pass a host node instead")
		}
		n, ok := q.Query(t)
		if !ok {
			return nil, errors.New(errors.CodeMountTarget).WithDetail(t)
		}
		return n, nil
	}
	if v := reflect.ValueOf(target); v.Kind() == reflect.Pointer && v.IsNil() {
		return nil, errors.New(errors.CodeMountTarget).WithDetail(fmt.Sprintf("%T(nil)", target))
	}
	return target, nil
}

// Destroy stops the render loop and every watcher and removes the rendered
// nodes from the host. Calling it again does nothing.
func (in *Instance) Destroy() error {
	if in.destroyed {
		return nil
	}
	in.callHook(in.hooks.BeforeDestroy)

	in.cancelPending()
	in.scope.Stop()
	in.effect = nil

	var err error
	if in.render != nil {
		_, err = in.render.Render([]*vdom.Node{})
	}
	in.destroyed = true
	in.mounted = false
	in.callHook(in.hooks.Destroyed)
	return err
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
