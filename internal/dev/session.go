package dev

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/vango-dev/stencil/internal/config"
	"github.com/vango-dev/stencil/pkg/app"
	"github.com/vango-dev/stencil/pkg/compiler"
	"github.com/vango-dev/stencil/pkg/dom"
	"github.com/vango-dev/stencil/pkg/metrics"
	"github.com/vango-dev/stencil/pkg/reconcile"
	"github.com/vango-dev/stencil/pkg/render"
)

// SessionOptions configures a Session.
type SessionOptions struct {
	// Name names the instance in logs, traces and metrics.
	Name string

	// Template is the template source.
	Template string

	// Data is the initial instance data.
	Data map[string]any

	// Config supplies compiler, reconciler and render settings.
	// Defaults to config.New().
	Config *config.Config

	// Metrics, when set, observes passes and counts host mutations.
	Metrics *metrics.Metrics

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Session owns an in-memory document with one mounted instance. All
// methods are safe for concurrent use; passes run under the session lock.
type Session struct {
	mu     sync.Mutex
	opts   SessionOptions
	doc    *dom.Document
	target *dom.Node
	inst   *app.Instance
	log    []dom.Mutation
}

// NewSession compiles the template and mounts it into a fresh document.
func NewSession(opts SessionOptions) (*Session, error) {
	if opts.Config == nil {
		opts.Config = config.New()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Name == "" {
		opts.Name = opts.Config.Name
	}

	s := &Session{opts: opts, doc: dom.NewDocument()}
	s.target = s.doc.NewElement("div", "id", "app")
	s.doc.AppendChild(s.doc.Body(), s.target)
	s.doc.OnMutation(func(m dom.Mutation) { s.log = append(s.log, m) })

	inst, err := s.create(opts.Template, opts.Data)
	if err != nil {
		return nil, err
	}
	if err := inst.Mount(s.target); err != nil {
		inst.Destroy()
		return nil, err
	}
	s.inst = inst
	s.log = nil
	return s, nil
}

func (s *Session) create(template string, data map[string]any) (*app.Instance, error) {
	cfg := s.opts.Config
	var host reconcile.Host = s.doc
	options := []app.Option{
		app.WithLogger(s.opts.Logger),
		app.WithCompileOptions(s.compileOptions()...),
		app.WithReconcileOptions(reconcile.WithProfile(cfg.Profile())),
	}
	if s.opts.Metrics != nil {
		host = s.opts.Metrics.InstrumentHost(s.doc)
		options = append(options, app.WithObserver(s.opts.Metrics))
	}
	if cfg.Serve.Deferred {
		options = append(options, app.DeferredPasses())
	}

	return app.New(app.Options{
		Name:     s.opts.Name,
		Template: template,
		Data:     data,
	}, host, options...)
}

func (s *Session) compileOptions() []compiler.Option {
	c := s.opts.Config.Compiler
	opts := []compiler.Option{
		compiler.WithEventPrefix(c.EventPrefix),
		compiler.WithDynamicPrefix(c.DynamicPrefix),
	}
	if len(c.Delims) == 2 {
		opts = append(opts, compiler.WithDelims(c.Delims[0], c.Delims[1]))
	}
	return opts
}

// Do runs fn with the session locked and returns the mutations the
// document saw while fn ran.
func (s *Session) Do(fn func(in *app.Instance) error) ([]dom.Mutation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log = nil
	err := fn(s.inst)
	out := s.log
	s.log = nil
	return out, err
}

// Set assigns several fields in one batch.
func (s *Session) Set(values map[string]any) ([]dom.Mutation, error) {
	return s.Do(func(in *app.Instance) error { return in.SetData(values) })
}

// Eval evaluates src against the instance and returns its value.
func (s *Session) Eval(src string) (any, []dom.Mutation, error) {
	var v any
	muts, err := s.Do(func(in *app.Instance) error {
		var err error
		v, err = in.Eval(src)
		return err
	})
	return v, muts, err
}

// Dispatch fires an event at the first element matching selector.
func (s *Session) Dispatch(selector, event string, detail any) ([]dom.Mutation, error) {
	return s.Do(func(*app.Instance) error {
		return s.doc.DispatchSelector(selector, event, detail)
	})
}

// Flush runs a deferred pass.
func (s *Session) Flush() ([]dom.Mutation, error) {
	return s.Do(func(in *app.Instance) error { return in.Flush() })
}

// Reload recompiles the instance from template, carrying the current data
// over. On a compile error the running instance is kept.
func (s *Session) Reload(template string) ([]dom.Mutation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log = nil

	inst, err := s.create(template, s.inst.Data())
	if err != nil {
		return nil, err
	}
	if err := s.inst.Destroy(); err != nil {
		inst.Destroy()
		return nil, err
	}
	s.inst = inst
	if err := inst.Mount(s.target); err != nil {
		return s.log, err
	}
	s.opts.Template = template
	s.opts.Logger.Info("template reloaded", "instance", inst.Name())

	out := s.log
	s.log = nil
	return out, nil
}

// HTML serializes the mounted content.
func (s *Session) HTML(pretty bool) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := render.NewRenderer(render.RendererConfig{Pretty: pretty, Indent: s.opts.Config.Render.Indent})
	return r.RenderChildrenToString(s.target)
}

// Page writes a complete HTML document around the mounted content.
func (s *Session) Page(title string, scripts ...string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var b strings.Builder
	r := render.NewRenderer(render.RendererConfig{Pretty: s.opts.Config.Render.Pretty, Indent: s.opts.Config.Render.Indent})
	err := r.RenderPage(&b, render.PageData{Body: s.doc.Body(), Title: title, Scripts: scripts})
	return b.String(), err
}

// Data returns a snapshot of the instance data.
func (s *Session) Data() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inst.Data()
}

// LastError returns the error of the last pass.
func (s *Session) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inst.LastError()
}

// Instance returns the mounted instance. Callers must not use it
// concurrently with the session; use Do instead.
func (s *Session) Instance() *app.Instance { return s.inst }

// Document returns the host document.
func (s *Session) Document() *dom.Document { return s.doc }

// Close destroys the instance.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inst.Destroy()
}
