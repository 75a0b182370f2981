package dev

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/vango-dev/stencil/internal/config"
	"github.com/vango-dev/stencil/internal/errors"
	"github.com/vango-dev/stencil/pkg/dom"
	"github.com/vango-dev/stencil/pkg/metrics"
)

const counter = `<p>{{count}}</p><button @click="count++">+</button>`

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newSession(t *testing.T, m *metrics.Metrics) *Session {
	t.Helper()
	s, err := NewSession(SessionOptions{
		Name:     "counter",
		Template: counter,
		Data:     map[string]any{"count": 0},
		Metrics:  m,
		Logger:   quietLogger(),
	})
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func html(t *testing.T, s *Session) string {
	t.Helper()
	out, err := s.HTML(false)
	if err != nil {
		t.Fatal(err)
	}
	return out
}

func TestSession(t *testing.T) {
	s := newSession(t, nil)

	if got, want := html(t, s), `<p>0</p><button>+</button>`; got != want {
		t.Fatalf("HTML() = %q, want %q", got, want)
	}

	muts, err := s.Dispatch("button", "click", nil)
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if len(muts) != 1 || muts[0].Op != dom.OpSetText || muts[0].Value != "1" {
		t.Errorf("Dispatch() mutations = %v, want a single text update", muts)
	}

	v, _, err := s.Eval("count * 10")
	if err != nil {
		t.Fatalf("Eval() error = %v", err)
	}
	if v != float64(10) && v != 10 {
		t.Errorf("Eval() = %v (%T), want 10", v, v)
	}

	if _, err := s.Dispatch("#missing", "click", nil); err == nil {
		t.Error("Dispatch() to a missing element should fail")
	}

	if _, err := s.Set(map[string]any{"count": 5}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if got, want := html(t, s), `<p>5</p><button>+</button>`; got != want {
		t.Errorf("HTML() after Set = %q, want %q", got, want)
	}

	page, err := s.Page("Counter", "console.log(1)")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"<title>Counter</title>", `<div id="app"><p>5</p>`, "<script>console.log(1)</script>"} {
		if !strings.Contains(page, want) {
			t.Errorf("Page() missing %q in:\n%s", want, page)
		}
	}
}

func TestSessionReload(t *testing.T) {
	s := newSession(t, nil)
	if _, err := s.Dispatch("button", "click", nil); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Reload(`<span>{{count}}</span>`); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if got, want := html(t, s), `<span>1</span>`; got != want {
		t.Errorf("HTML() after Reload = %q, want %q", got, want)
	}

	_, err := s.Reload(`<span>{{count +}}</span>`)
	if !errors.HasCode(err, errors.CodeExpressionSyntax) {
		t.Errorf("Reload() error = %v, want %s", err, errors.CodeExpressionSyntax)
	}
	if got, want := html(t, s), `<span>1</span>`; got != want {
		t.Errorf("failed Reload changed the document: %q", got)
	}
}

func TestSessionCompileError(t *testing.T) {
	_, err := NewSession(SessionOptions{Template: `<p>{{ a ( }}</p>`, Logger: quietLogger()})
	if !errors.HasCode(err, errors.CodeExpressionSyntax) {
		t.Errorf("NewSession() error = %v, want %s", err, errors.CodeExpressionSyntax)
	}
}

func newServer(t *testing.T) (*Server, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	m := metrics.New(metrics.WithRegistry(reg))
	srv := NewServer(ServerOptions{
		Session:  newSession(t, m),
		Metrics:  m,
		Gatherer: reg,
		Logger:   quietLogger(),
	})
	return srv, reg
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestServerRoutes(t *testing.T) {
	srv, _ := newServer(t)
	h := srv.Handler()

	rec := do(t, h, "GET", "/fragment", "")
	if rec.Code != http.StatusOK || rec.Body.String() != `<p>0</p><button>+</button>` {
		t.Fatalf("GET /fragment = %d %q", rec.Code, rec.Body.String())
	}

	rec = do(t, h, "POST", "/events/click?target=button", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /events/click = %d %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Mutations []dom.Mutation `json:"mutations"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Mutations) != 1 {
		t.Fatalf("mutations = %v, want one", resp.Mutations)
	}
	want := []dom.Mutation{{Op: dom.OpSetText, Node: resp.Mutations[0].Node, Value: "1"}}
	if diff := cmp.Diff(want, resp.Mutations); diff != "" {
		t.Errorf("mutations mismatch (-want +got):\n%s", diff)
	}

	rec = do(t, h, "POST", "/state", `{"count": 7}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /state = %d %s", rec.Code, rec.Body.String())
	}
	rec = do(t, h, "GET", "/state", "")
	var state map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
		t.Fatal(err)
	}
	if state["count"] != float64(7) {
		t.Errorf("GET /state = %v, want count 7", state)
	}

	rec = do(t, h, "POST", "/eval", `{"expr": "count +"}`)
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), `"code":"E102"`) {
		t.Errorf("POST /eval = %d %s, want 400 E102", rec.Code, rec.Body.String())
	}

	rec = do(t, h, "POST", "/events/click?target=%23nope", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("POST /events/click to missing target = %d, want 404", rec.Code)
	}

	rec = do(t, h, "POST", "/events/click", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("POST /events/click without target = %d, want 400", rec.Code)
	}

	rec = do(t, h, "GET", "/", "")
	if !strings.Contains(rec.Body.String(), "/_stencil/stream") {
		t.Errorf("GET / should include the stream client")
	}
}

func TestServerMetrics(t *testing.T) {
	srv, _ := newServer(t)
	h := srv.Handler()

	do(t, h, "POST", "/events/click?target=button", "")
	rec := do(t, h, "GET", "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /metrics = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`stencil_passes_total{instance="counter",status="ok"} 2`,
		`stencil_host_mutations_total{op="set_text"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q", want)
		}
	}

	cfg := config.New()
	cfg.Serve.Metrics = false
	srv = NewServer(ServerOptions{Config: cfg, Session: srv.session, Logger: quietLogger()})
	if rec := do(t, srv.Handler(), "GET", "/metrics", ""); rec.Code != http.StatusNotFound {
		t.Errorf("GET /metrics with metrics disabled = %d, want 404", rec.Code)
	}
}

func TestServerStream(t *testing.T) {
	srv, _ := newServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/_stencil/stream"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(time.Second)
	for srv.Hub().ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if srv.Hub().ClientCount() != 1 {
		t.Fatalf("ClientCount() = %d, want 1", srv.Hub().ClientCount())
	}

	resp, err := http.Post(ts.URL+"/events/click?target=button", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	if msg.Type != MessageMutations || msg.Trigger != "click" {
		t.Errorf("message = %+v, want click mutations", msg)
	}
	if msg.HTML != `<p>1</p><button>+</button>` {
		t.Errorf("message HTML = %q", msg.HTML)
	}
}

func TestHandleChange(t *testing.T) {
	srv, _ := newServer(t)
	dir := t.TempDir()

	tmpl := filepath.Join(dir, "view.html")
	if err := os.WriteFile(tmpl, []byte(`<em>{{count}}</em>`), 0644); err != nil {
		t.Fatal(err)
	}
	srv.HandleChange(Change{Path: tmpl, Type: ChangeTemplate})
	if got := html(t, srv.session); got != `<em>0</em>` {
		t.Errorf("after template change HTML = %q", got)
	}

	data := filepath.Join(dir, "data.yaml")
	if err := os.WriteFile(data, []byte("count: 3\n"), 0644); err != nil {
		t.Fatal(err)
	}
	srv.HandleChange(Change{Path: data, Type: ChangeData})
	if got := html(t, srv.session); got != `<em>3</em>` {
		t.Errorf("after data change HTML = %q", got)
	}

	if err := os.WriteFile(tmpl, []byte(`<em>{{count +}}</em>`), 0644); err != nil {
		t.Fatal(err)
	}
	srv.HandleChange(Change{Path: tmpl, Type: ChangeTemplate})
	if got := html(t, srv.session); got != `<em>3</em>` {
		t.Errorf("broken template replaced the document: %q", got)
	}
}

func TestWatcher(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "view.html")
	if err := os.WriteFile(file, []byte("<p></p>"), 0644); err != nil {
		t.Fatal(err)
	}

	w := NewWatcher(WatcherConfig{Files: []string{file}, Interval: 10 * time.Millisecond})
	changes := make(chan Change, 10)
	w.OnChange(func(c Change) { changes <- c })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	deadline := time.Now().Add(time.Second)
	for !w.IsRunning() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(30 * time.Millisecond)

	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(file, future, future); err != nil {
		t.Fatal(err)
	}

	select {
	case c := <-changes:
		if c.Path != file || c.Type != ChangeTemplate {
			t.Errorf("change = %+v", c)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for change")
	}

	w.Stop()
	if w.IsRunning() {
		t.Error("watcher still running after Stop")
	}
}

func TestClassifyChange(t *testing.T) {
	tests := []struct {
		path string
		want ChangeType
	}{
		{"views/counter.html", ChangeTemplate},
		{"data.json", ChangeData},
		{"data.YML", ChangeData},
		{"stencil.yaml", ChangeConfig},
		{"stencil.json", ChangeConfig},
		{"notes.txt", ChangeOther},
	}
	for _, tt := range tests {
		if got := classifyChange(tt.path); got != tt.want {
			t.Errorf("classifyChange(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}
