package dev

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vango-dev/stencil/internal/config"
	"github.com/vango-dev/stencil/internal/errors"
	"github.com/vango-dev/stencil/pkg/dom"
	"github.com/vango-dev/stencil/pkg/metrics"
)

// ServerOptions configures the development server.
type ServerOptions struct {
	// Config is the project configuration.
	Config *config.Config

	// Session is the session the server exposes.
	Session *Session

	// Metrics, when set, counts stream clients.
	Metrics *metrics.Metrics

	// Gatherer backs /metrics. The route is only mounted when
	// Config.Serve.Metrics is set. Defaults to prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer

	// TemplatePath and DataPath are watched for changes when set.
	TemplatePath string
	DataPath     string

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Server serves a session over HTTP and streams its mutations to
// WebSocket clients.
type Server struct {
	config     *config.Config
	options    ServerOptions
	session    *Session
	hub        *Hub
	watcher    *Watcher
	logger     *slog.Logger
	httpServer *http.Server
	mu         sync.Mutex
	running    bool
}

// NewServer creates a new development server.
func NewServer(options ServerOptions) *Server {
	if options.Config == nil {
		options.Config = config.New()
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	if options.Gatherer == nil {
		options.Gatherer = prometheus.DefaultGatherer
	}

	hub := NewHub()
	if m := options.Metrics; m != nil {
		hub.OnConnect = m.ClientConnected
		hub.OnDisconnect = m.ClientDisconnected
	}

	var files []string
	for _, p := range []string{options.TemplatePath, options.DataPath} {
		if p != "" {
			files = append(files, p)
		}
	}

	return &Server{
		config:  options.Config,
		options: options,
		session: options.Session,
		hub:     hub,
		watcher: NewWatcher(WatcherConfig{Files: files}),
		logger:  options.Logger,
	}
}

// Hub returns the stream hub.
func (s *Server) Hub() *Hub { return s.hub }

// Handler returns the HTTP routes of the server.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/", s.handlePage)
	r.Get("/fragment", s.handleFragment)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, "ok")
	})
	r.Get("/state", s.handleGetState)
	r.Post("/state", s.handleSetState)
	r.Post("/eval", s.handleEval)
	r.Post("/flush", s.handleFlush)
	r.Post("/events/{event}", s.handleEvent)
	r.Handle("/_stencil/stream", s.hub)
	if s.config.Serve.Metrics {
		r.Handle("/metrics", promhttp.HandlerFor(s.options.Gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// requestLogger logs every request at debug level.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	page, err := s.session.Page(s.config.Name, clientScript)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	io.WriteString(w, page)
}

func (s *Server) handleFragment(w http.ResponseWriter, r *http.Request) {
	html, err := s.session.HTML(r.URL.Query().Has("pretty"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	io.WriteString(w, html)
}

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.session.Data())
}

func (s *Server) handleSetState(w http.ResponseWriter, r *http.Request) {
	var values map[string]any
	if err := json.NewDecoder(r.Body).Decode(&values); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	muts, err := s.session.Set(values)
	s.respond(w, "state", nil, muts, err)
}

func (s *Server) handleEval(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Expr string `json:"expr"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	v, muts, err := s.session.Eval(req.Expr)
	s.respond(w, "eval", v, muts, err)
}

func (s *Server) handleFlush(w http.ResponseWriter, r *http.Request) {
	muts, err := s.session.Flush()
	s.respond(w, "flush", nil, muts, err)
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	event := chi.URLParam(r, "event")
	target := r.URL.Query().Get("target")
	if target == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("missing target selector"))
		return
	}

	var req struct {
		Detail any `json:"detail"`
	}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}

	muts, err := s.session.Dispatch(target, event, req.Detail)
	var selErr *dom.SelectorError
	if stderrors.As(err, &selErr) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	s.respond(w, event, nil, muts, err)
}

// respond broadcasts the mutations of a request and writes them back.
func (s *Server) respond(w http.ResponseWriter, trigger string, value any, muts []dom.Mutation, err error) {
	if err != nil {
		status := http.StatusInternalServerError
		if errors.HasCode(err, errors.CodeExpressionSyntax) || errors.HasCode(err, errors.CodeExpressionEval) {
			status = http.StatusBadRequest
		}
		s.hub.Error(err)
		writeError(w, status, err)
		return
	}
	s.broadcast(trigger, muts)
	writeJSON(w, http.StatusOK, struct {
		Value     any            `json:"value,omitempty"`
		Mutations []dom.Mutation `json:"mutations"`
	}{value, nonNil(muts)})
}

func (s *Server) broadcast(trigger string, muts []dom.Mutation) {
	if len(muts) == 0 || s.hub.ClientCount() == 0 {
		return
	}
	html, err := s.session.HTML(false)
	if err != nil {
		s.logger.Warn("fragment render failed", "error", err)
		return
	}
	s.hub.Mutations(trigger, muts, html)
}

func nonNil(muts []dom.Mutation) []dom.Mutation {
	if muts == nil {
		return []dom.Mutation{}
	}
	return muts
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	body := map[string]string{"error": err.Error()}
	var se *errors.StencilError
	if stderrors.As(err, &se) && se.Code != "" {
		body["code"] = se.Code
	}
	writeJSON(w, status, body)
}

// Start serves on the configured address and watches the template and data
// files until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.httpServer = &http.Server{
		Addr:    s.config.ServeAddress(),
		Handler: s.Handler(),
	}
	s.mu.Unlock()

	s.watcher.OnChange(func(c Change) { s.HandleChange(c) })
	go s.watcher.Start(ctx)

	s.logger.Info("server running", "addr", "http://"+s.config.ServeAddress())

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		s.Stop()
		return nil
	case err := <-errCh:
		s.Stop()
		return err
	}
}

// Stop stops the development server.
func (s *Server) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	s.running = false
	s.watcher.Stop()
	s.hub.Close()

	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.httpServer.Shutdown(ctx)
	}
}

// HandleChange applies a watched file change to the session and tells
// stream clients about it.
func (s *Server) HandleChange(c Change) {
	switch c.Type {
	case ChangeTemplate:
		src, err := os.ReadFile(c.Path)
		if err != nil {
			s.logger.Error("template read failed", "path", c.Path, "error", err)
			return
		}
		if _, err := s.session.Reload(string(src)); err != nil {
			s.logger.Error("template reload failed", "path", c.Path, "error", err)
			s.hub.Error(err)
			return
		}
		html, _ := s.session.HTML(false)
		s.hub.Reload(html)
	case ChangeData:
		data, err := config.LoadData(c.Path)
		if err != nil {
			s.logger.Error("data reload failed", "path", c.Path, "error", err)
			s.hub.Error(err)
			return
		}
		muts, err := s.session.Set(data)
		if err != nil {
			s.logger.Error("data reload failed", "path", c.Path, "error", err)
			s.hub.Error(err)
			return
		}
		s.logger.Info("data reloaded", "path", c.Path, "mutations", len(muts))
		s.broadcast("data", muts)
	default:
		s.logger.Debug("change ignored", "path", c.Path, "type", c.Type.String())
	}
}
