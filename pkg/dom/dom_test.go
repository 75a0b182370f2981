package dom

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/vango-dev/stencil/pkg/reconcile"
	"github.com/vango-dev/stencil/pkg/vdom"
)

var (
	_ reconcile.Host        = (*Document)(nil)
	_ reconcile.EventBinder = (*Document)(nil)
	_ reconcile.Querier     = (*Document)(nil)
)

func TestMutationLog(t *testing.T) {
	d := NewDocument()
	var log []string
	cancel := d.OnMutation(func(m Mutation) { log = append(log, m.String()) })

	app := d.NewElement("div", "id", "app")
	d.AppendChild(d.Body(), app)
	txt := d.CreateText("hi")
	d.InsertBefore(app, txt, nil)
	span := d.CreateElement("span")
	d.InsertBefore(app, span, txt)
	d.SetText(txt, "bye")
	d.RemoveAttribute(app, "id")
	d.Remove(span)

	cancel()
	d.SetText(txt, "ignored")

	want := []string{
		"create #2 <div>",
		`set #2 id="app"`,
		"append #2 to #1",
		`create #3 #text "hi"`,
		"append #3 to #2",
		"create #4 <span>",
		"insert #4 into #2 before #3",
		`text #3 "bye"`,
		"unset #2 id",
		"remove #4",
	}
	if diff := cmp.Diff(want, log); diff != "" {
		t.Errorf("mutation log mismatch (-want +got):\n%s", diff)
	}
	if _, ok := d.NodeByID(4); ok {
		t.Error("removed node should be forgotten")
	}
	if got := app.TextContent(); got != "ignored" {
		t.Errorf("TextContent() = %q, want %q", got, "ignored")
	}
}

func TestInsertMovesAttachedNode(t *testing.T) {
	d := NewDocument()
	a, b := d.NewElement("a"), d.NewElement("b")
	d.AppendChild(d.Body(), a)
	d.AppendChild(d.Body(), b)
	d.InsertBefore(d.Body(), b, a)

	kids := d.Body().Children()
	if len(kids) != 2 || kids[0] != b || kids[1] != a {
		t.Errorf("children = %v, want [b a]", kids)
	}
}

func TestQuerySelector(t *testing.T) {
	d := NewDocument()
	main := d.NewElement("main", "id", "app")
	list := d.NewElement("ul", "class", "list dense")
	first := d.NewElement("li", "class", "item", "data-k", "1")
	second := d.NewElement("li", "class", "item active", "data-k", "2")
	d.AppendChild(d.Body(), main)
	d.AppendChild(main, list)
	d.AppendChild(list, first)
	d.AppendChild(list, second)

	tests := []struct {
		sel  string
		want []*Node
	}{
		{"#app", []*Node{main}},
		{"li", []*Node{first, second}},
		{".item.active", []*Node{second}},
		{"ul.dense li", []*Node{first, second}},
		{"#app .active", []*Node{second}},
		{"[data-k=1]", []*Node{first}},
		{"li[data-k]", []*Node{first, second}},
		{"*#app", []*Node{main}},
		{"section li", nil},
		{"#", nil},
		{"", nil},
	}
	for _, tt := range tests {
		t.Run(tt.sel, func(t *testing.T) {
			got := d.QuerySelectorAll(tt.sel)
			if len(got) != len(tt.want) {
				t.Fatalf("QuerySelectorAll(%q) = %d nodes, want %d", tt.sel, len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("result[%d] = #%d, want #%d", i, got[i].ID, tt.want[i].ID)
				}
			}
		})
	}

	if n, ok := d.Query("#missing"); ok || n != nil {
		t.Errorf("Query(#missing) = %v, %v", n, ok)
	}
	if ValidSelector("a[") == nil {
		t.Error("ValidSelector should reject an unterminated attribute test")
	}
}

func TestDispatchBubbles(t *testing.T) {
	d := NewDocument()
	outer, inner := d.NewElement("div"), d.NewElement("button", "value", "42")
	d.AppendChild(d.Body(), outer)
	d.AppendChild(outer, inner)

	var seen []string
	d.BindEvents(inner, map[string]vdom.Handler{
		"click": func(e any) error {
			ev := e.(*Event)
			v, _ := ev.GetMember("value")
			seen = append(seen, "inner:"+v.(string))
			return errors.New("inner failed")
		},
	})
	d.BindEvents(outer, map[string]vdom.Handler{
		"click": func(e any) error {
			ev := e.(*Event)
			seen = append(seen, "outer:"+ev.CurrentTarget.Tag)
			ev.StopPropagation()
			return nil
		},
	})
	d.BindEvents(d.Body(), map[string]vdom.Handler{
		"click": func(any) error {
			seen = append(seen, "body")
			return nil
		},
	})

	err := d.DispatchSelector("button", "click", nil)
	if err == nil || err.Error() != "inner failed" {
		t.Errorf("Dispatch() error = %v, want inner failed", err)
	}
	if diff := cmp.Diff([]string{"inner:42", "outer:div"}, seen); diff != "" {
		t.Errorf("handlers mismatch (-want +got):\n%s", diff)
	}

	var se *SelectorError
	if err := d.DispatchSelector("#nope", "click", nil); !errors.As(err, &se) {
		t.Errorf("DispatchSelector(#nope) error = %v, want *SelectorError", err)
	}
}

func TestReconcileIntoDocument(t *testing.T) {
	d := NewDocument()
	app := d.NewElement("div", "id", "app")
	d.AppendChild(d.Body(), app)

	r := reconcile.New(d)
	tree := []*vdom.Node{
		vdom.Element("p", vdom.Attrs{"class": "greeting"}, vdom.Text("hello")),
	}
	out, err := r.Reconcile(app, nil, tree)
	if err != nil {
		t.Fatal(err)
	}
	p := d.QuerySelector("#app p.greeting")
	if p == nil || out[0].HostRef != p {
		t.Fatalf("reconciled node not found in document")
	}
	if p.TextContent() != "hello" {
		t.Errorf("TextContent() = %q", p.TextContent())
	}
}
