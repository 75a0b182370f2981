package reconcile

import (
	"io"
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/vango-dev/stencil/internal/errors"
	"github.com/vango-dev/stencil/pkg/compiler"
	"github.com/vango-dev/stencil/pkg/expr"
	"github.com/vango-dev/stencil/pkg/vdom"
)

func quiet() Option {
	return WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func li(class string, children ...*vdom.Node) *vdom.Node {
	return vdom.Element("li", vdom.Attrs{"class": class}, children...)
}

func hostOf(n *vdom.Node) *fakeNode { return n.HostRef.(*fakeNode) }

func TestEmptyToNonEmptyAndBack(t *testing.T) {
	h := newFakeHost()
	rd := NewRender(New(h, quiet()), h.root)

	if _, err := rd.Render([]*vdom.Node{}); err != nil {
		t.Fatal(err)
	}
	if len(h.ops) != 0 {
		t.Fatalf("rendering [] over [] mutated the host: %v", h.ops)
	}

	out, err := rd.Render([]*vdom.Node{vdom.Text("hi")})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{`create #1 "hi"`, "append #1 to #0"}
	if diff := cmp.Diff(want, h.ops); diff != "" {
		t.Errorf("mount ops mismatch (-want +got):\n%s", diff)
	}
	if hostOf(out[0]).id != 1 {
		t.Errorf("HostRef not set on mounted node")
	}

	h.reset()
	out, err = rd.Render([]*vdom.Node{})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"remove #1"}, h.ops); diff != "" {
		t.Errorf("unmount ops mismatch (-want +got):\n%s", diff)
	}
	if len(out) != 0 || len(h.root.children) != 0 {
		t.Errorf("result = %v, host children = %d, want both empty", out, len(h.root.children))
	}
}

func TestIdempotence(t *testing.T) {
	tree := func() []*vdom.Node {
		return []*vdom.Node{
			vdom.Element("ul", vdom.Attrs{"id": "list"},
				li("a", vdom.Text("one")).WithKey(1),
				li("b", vdom.Text("two")).WithKey(2),
			),
			vdom.Comment("c"),
			vdom.Element("p", nil, vdom.Text("x"), vdom.Element("b", nil)),
		}
	}

	h := newFakeHost()
	r := New(h, quiet())
	first, err := r.Reconcile(h.root, nil, tree())
	if err != nil {
		t.Fatal(err)
	}
	rendered := h.html()

	t.Run("same list", func(t *testing.T) {
		h.reset()
		again, err := r.Reconcile(h.root, first, first)
		if err != nil {
			t.Fatal(err)
		}
		if len(h.ops) != 0 {
			t.Errorf("second pass mutated the host: %v", h.ops)
		}
		if r.Stats().Mutations() != 0 {
			t.Errorf("Stats().Mutations() = %d, want 0", r.Stats().Mutations())
		}
		first = again
	})

	t.Run("equal rebuilt list", func(t *testing.T) {
		h.reset()
		if _, err := r.Reconcile(h.root, first, tree()); err != nil {
			t.Fatal(err)
		}
		if len(h.ops) != 0 {
			t.Errorf("equal tree mutated the host: %v", h.ops)
		}
	})

	if got := h.html(); got != rendered {
		t.Errorf("html = %s, want %s", got, rendered)
	}
}

func TestDynamicTextRoundTrip(t *testing.T) {
	tmpl := compiler.MustCompile(`{{x}}`)
	env := expr.MapEnv{"x": 1.0}

	h := newFakeHost()
	rd := NewRender(New(h, quiet()), h.root)

	first := tmpl.Build(env)
	if first[0].Content != "1" {
		t.Fatalf("content = %q, want %q", first[0].Content, "1")
	}
	out, err := rd.Render(first)
	if err != nil {
		t.Fatal(err)
	}
	textNode := hostOf(out[0])

	h.reset()
	env["x"] = 2.0
	out, err = rd.Render(tmpl.Build(env))
	if err != nil {
		t.Fatal(err)
	}
	if hostOf(out[0]) != textNode {
		t.Error("text node was replaced, want it reused")
	}
	if diff := cmp.Diff([]string{`text #1 "2"`}, h.ops); diff != "" {
		t.Errorf("ops mismatch (-want +got):\n%s", diff)
	}
	if textNode.text != "2" {
		t.Errorf("host text = %q, want %q", textNode.text, "2")
	}
}

func TestKindMismatchReplace(t *testing.T) {
	h := newFakeHost()
	rd := NewRender(New(h, quiet()), h.root)
	if _, err := rd.Render([]*vdom.Node{vdom.Text("a")}); err != nil {
		t.Fatal(err)
	}

	h.reset()
	out, err := rd.Render([]*vdom.Node{vdom.Element("div", nil)})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"remove #1", "create #2 div", "append #2 to #0"}
	if diff := cmp.Diff(want, h.ops); diff != "" {
		t.Errorf("ops mismatch (-want +got):\n%s", diff)
	}
	if hostOf(out[0]).tag != "div" {
		t.Errorf("host node = %s, want div", hostOf(out[0]).tag)
	}
}

func TestKeyedReorder(t *testing.T) {
	item := func(key int, text string) *vdom.Node {
		return li("item", vdom.Text(text)).WithKey(key)
	}

	h := newFakeHost()
	rd := NewRender(New(h, quiet()), h.root)
	before, err := rd.Render([]*vdom.Node{item(1, "A"), item(2, "B"), item(3, "C")})
	if err != nil {
		t.Fatal(err)
	}
	refs := map[any]*fakeNode{}
	for _, n := range before {
		refs[n.Key] = hostOf(n)
	}

	h.reset()
	after, err := rd.Render([]*vdom.Node{item(3, "C"), item(1, "A"), item(2, "B")})
	if err != nil {
		t.Fatal(err)
	}
	for _, n := range after {
		if hostOf(n) != refs[n.Key] {
			t.Errorf("key %v: host node not reused", n.Key)
		}
	}
	st := rd.Reconciler().Stats()
	if st.Created != 0 || st.Removed != 0 {
		t.Errorf("Stats() = %+v, want no creates or removals", st)
	}
	if diff := cmp.Diff([]string{"insert #5 into #0 before #1"}, h.ops); diff != "" {
		t.Errorf("ops mismatch (-want +got):\n%s", diff)
	}
	want := `<li class="item">C</li><li class="item">A</li><li class="item">B</li>`
	if got := h.html(); got != want {
		t.Errorf("html = %s, want %s", got, want)
	}
	for i, n := range after {
		if n.Index != i {
			t.Errorf("after[%d].Index = %d", i, n.Index)
		}
	}
}

func TestKeyedInsertAndRemove(t *testing.T) {
	item := func(key string) *vdom.Node { return li(key).WithKey(key) }

	h := newFakeHost()
	rd := NewRender(New(h, quiet()), h.root)
	before, _ := rd.Render([]*vdom.Node{item("a"), item("b"), item("c")})
	kept := hostOf(before[2])

	h.reset()
	after, err := rd.Render([]*vdom.Node{item("c"), item("d")})
	if err != nil {
		t.Fatal(err)
	}
	if hostOf(after[0]) != kept {
		t.Error("keyed node c was not reused")
	}
	st := rd.Reconciler().Stats()
	if st.Removed != 2 || st.Created != 1 {
		t.Errorf("Stats() = %+v, want 2 removed and 1 created", st)
	}
	if got, want := h.html(), `<li class="c"></li><li class="d"></li>`; got != want {
		t.Errorf("html = %s, want %s", got, want)
	}
}

func TestReassignment(t *testing.T) {
	h := newFakeHost()
	rd := NewRender(New(h, quiet()), h.root)
	before, _ := rd.Render([]*vdom.Node{
		vdom.Text("t"),
		vdom.Element("div", vdom.Attrs{"class": "a"}),
		vdom.Element("span", nil),
	})
	refs := []*fakeNode{hostOf(before[0]), hostOf(before[1]), hostOf(before[2])}

	h.reset()
	after, err := rd.Render([]*vdom.Node{
		vdom.Element("div", vdom.Attrs{"class": "a"}),
		vdom.Element("span", nil),
		vdom.Text("t"),
	})
	if err != nil {
		t.Fatal(err)
	}
	wantRefs := []*fakeNode{refs[1], refs[2], refs[0]}
	for i, n := range after {
		if hostOf(n) != wantRefs[i] {
			t.Errorf("after[%d] host = #%d, want #%d", i, hostOf(n).id, wantRefs[i].id)
		}
	}
	st := rd.Reconciler().Stats()
	if st.Created != 0 || st.Removed != 0 || st.Updated != 0 || st.Reused != 3 {
		t.Errorf("Stats() = %+v, want 3 reused and nothing else but moves", st)
	}
	if got, want := h.html(), `<div class="a"></div><span></span>t`; got != want {
		t.Errorf("html = %s, want %s", got, want)
	}
}

func TestReassignmentDisplacesWeakerMatch(t *testing.T) {
	h := newFakeHost()
	rd := NewRender(New(h, quiet()), h.root)
	before, _ := rd.Render([]*vdom.Node{li("b"), vdom.Element("div", nil)})
	liB := hostOf(before[0])

	h.reset()
	after, err := rd.Render([]*vdom.Node{li("a"), li("b")})
	if err != nil {
		t.Fatal(err)
	}
	if hostOf(after[1]) != liB {
		t.Error("li.b should move to the node with the exact match")
	}
	if hostOf(after[0]) == liB {
		t.Error("li.a should have been displaced")
	}
	st := rd.Reconciler().Stats()
	if st.Created != 1 || st.Removed != 1 || st.Updated != 0 {
		t.Errorf("Stats() = %+v, want 1 created, 1 removed, 0 updated", st)
	}
	if got, want := h.html(), `<li class="a"></li><li class="b"></li>`; got != want {
		t.Errorf("html = %s, want %s", got, want)
	}
}

func TestReassignmentTieGoesToLowestIndex(t *testing.T) {
	h := newFakeHost()
	rd := NewRender(New(h, quiet()), h.root)
	before, _ := rd.Render([]*vdom.Node{vdom.Element("p", nil), li("x"), li("x")})
	first, second := hostOf(before[1]), hostOf(before[2])

	h.reset()
	after, err := rd.Render([]*vdom.Node{li("x")})
	if err != nil {
		t.Fatal(err)
	}
	if hostOf(after[0]) != first {
		t.Errorf("reused #%d, want #%d", hostOf(after[0]).id, first.id)
	}
	if second.parent != nil {
		t.Error("the second candidate should have been removed")
	}
}

func TestPoolPullIn(t *testing.T) {
	h := newFakeHost()
	rd := NewRender(New(h, quiet()), h.root)
	before, _ := rd.Render([]*vdom.Node{li("a"), li("b")})
	liB := hostOf(before[1])

	h.reset()
	after, err := rd.Render([]*vdom.Node{li("b")})
	if err != nil {
		t.Fatal(err)
	}
	if hostOf(after[0]) != liB {
		t.Error("the exact match should be pulled in from the pool")
	}
	if diff := cmp.Diff([]string{"remove #1"}, h.ops); diff != "" {
		t.Errorf("ops mismatch (-want +got):\n%s", diff)
	}
}

func TestNestedChildren(t *testing.T) {
	h := newFakeHost()
	rd := NewRender(New(h, quiet()), h.root)
	_, err := rd.Render([]*vdom.Node{
		vdom.Element("div", vdom.Attrs{"id": "x", "title": "t"}, vdom.Text("a"), vdom.Element("b", nil)),
	})
	if err != nil {
		t.Fatal(err)
	}

	h.reset()
	_, err = rd.Render([]*vdom.Node{
		vdom.Element("div", vdom.Attrs{"id": "y"}, vdom.Text("a2")),
	})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		`set #1 id="y"`,
		"unset #1 title",
		"remove #3",
		`text #2 "a2"`,
	}
	if diff := cmp.Diff(want, h.ops); diff != "" {
		t.Errorf("ops mismatch (-want +got):\n%s", diff)
	}
	if got, want := h.html(), `<div id="y">a2</div>`; got != want {
		t.Errorf("html = %s, want %s", got, want)
	}
}

func TestEventsAreBound(t *testing.T) {
	h := newFakeHost()
	rd := NewRender(New(h, quiet()), h.root)

	var calls []string
	handler := func(name string) vdom.Handler {
		return func(any) error {
			calls = append(calls, name)
			return nil
		}
	}

	out, _ := rd.Render([]*vdom.Node{vdom.Element("button", nil).On("click", handler("first"))})
	btn := hostOf(out[0])
	_ = btn.events["click"](nil)

	if _, err := rd.Render([]*vdom.Node{vdom.Element("button", nil).On("click", handler("second"))}); err != nil {
		t.Fatal(err)
	}
	_ = btn.events["click"](nil)

	if diff := cmp.Diff([]string{"first", "second"}, calls); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestStructuralErrors(t *testing.T) {
	t.Run("missing host ref", func(t *testing.T) {
		h := newFakeHost()
		r := New(h, quiet())
		_, err := r.Reconcile(h.root, []*vdom.Node{vdom.Text("never mounted")}, []*vdom.Node{})
		if !errors.HasCode(err, errors.CodeMissingHostRef) {
			t.Errorf("error = %v, want %s", err, errors.CodeMissingHostRef)
		}
	})

	t.Run("already mounted", func(t *testing.T) {
		h := newFakeHost()
		r := New(h, quiet())
		mounted, err := r.Reconcile(h.root, nil, []*vdom.Node{vdom.Text("x")})
		if err != nil {
			t.Fatal(err)
		}
		other := newFakeHost()
		_, err = New(other, quiet()).Reconcile(other.root, nil, mounted)
		if !errors.HasCode(err, errors.CodeAlreadyMounted) {
			t.Errorf("error = %v, want %s", err, errors.CodeAlreadyMounted)
		}
	})

	t.Run("checked before mutating", func(t *testing.T) {
		h := newFakeHost()
		r := New(h, quiet())
		prev, _ := r.Reconcile(h.root, nil, []*vdom.Node{vdom.Text("a"), vdom.Text("b")})
		prev[1].HostRef = nil
		h.reset()
		_, err := r.Reconcile(h.root, prev, []*vdom.Node{vdom.Element("p", nil)})
		if !errors.HasCode(err, errors.CodeMissingHostRef) {
			t.Errorf("error = %v, want %s", err, errors.CodeMissingHostRef)
		}
		if len(h.ops) != 0 {
			t.Errorf("host mutated before the error: %v", h.ops)
		}
	})
}

func TestRenderNilIsNoop(t *testing.T) {
	h := newFakeHost()
	rd := NewRender(New(h, quiet()), h.root)
	cur, _ := rd.Render([]*vdom.Node{vdom.Text("keep")})

	h.reset()
	got, err := rd.Render(nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(h.ops) != 0 || len(got) != 1 || got[0] != cur[0] {
		t.Errorf("Render(nil) changed state: ops=%v got=%v", h.ops, got)
	}
}

func TestRenderKeepsListOnError(t *testing.T) {
	h := newFakeHost()
	rd := NewRender(New(h, quiet()), h.root)
	cur, _ := rd.Render([]*vdom.Node{vdom.Text("keep")})

	other := newFakeHost()
	mounted, err := New(other, quiet()).Reconcile(other.root, nil, []*vdom.Node{vdom.Element("p", nil)})
	if err != nil {
		t.Fatal(err)
	}
	got, err := rd.Render(mounted)
	if !errors.HasCode(err, errors.CodeAlreadyMounted) {
		t.Fatalf("error = %v, want %s", err, errors.CodeAlreadyMounted)
	}
	if len(got) != 1 || got[0] != cur[0] {
		t.Errorf("Render() after error = %v, want the previous list", got)
	}
}

func TestTemplateListUpdate(t *testing.T) {
	tmpl := compiler.MustCompile(
		`<ul><li :key="items[0]">{{ items[0] }}</li><li :key="items[1]">{{ items[1] }}</li></ul>`)
	env := expr.MapEnv{"items": []any{"x", "y"}}

	h := newFakeHost()
	rd := NewRender(New(h, quiet()), h.root)
	first, _ := rd.Render(tmpl.Build(env))
	x := hostOf(first[0].Children[0])

	env["items"] = []any{"y", "x"}
	second, err := rd.Render(tmpl.Build(env))
	if err != nil {
		t.Fatal(err)
	}
	if hostOf(second[0].Children[1]) != x {
		t.Error("keyed item x should keep its host node after the swap")
	}
	if got, want := h.html(), `<ul><li>y</li><li>x</li></ul>`; got != want {
		t.Errorf("html = %s, want %s", got, want)
	}
}
