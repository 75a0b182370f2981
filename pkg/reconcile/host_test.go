package reconcile

import (
	"fmt"
	"slices"
	"strings"

	"github.com/vango-dev/stencil/pkg/vdom"
)

// fakeNode is a host node of fakeHost.
type fakeNode struct {
	id       int
	tag      string
	text     string
	attrs    map[string]string
	parent   *fakeNode
	children []*fakeNode
	events   map[string]vdom.Handler
}

// fakeHost records every mutation it receives.
type fakeHost struct {
	seq  int
	ops  []string
	root *fakeNode
}

func newFakeHost() *fakeHost {
	return &fakeHost{root: &fakeNode{tag: "root"}}
}

func (h *fakeHost) newNode(tag, text string) *fakeNode {
	h.seq++
	return &fakeNode{id: h.seq, tag: tag, text: text, attrs: map[string]string{}}
}

func (h *fakeHost) CreateElement(tag string) any {
	n := h.newNode(tag, "")
	h.ops = append(h.ops, fmt.Sprintf("create #%d %s", n.id, tag))
	return n
}

func (h *fakeHost) CreateText(content string) any {
	n := h.newNode(vdom.TextTag, content)
	h.ops = append(h.ops, fmt.Sprintf("create #%d %q", n.id, content))
	return n
}

func (h *fakeHost) CreateComment(content string) any {
	n := h.newNode(vdom.CommentTag, content)
	h.ops = append(h.ops, fmt.Sprintf("create #%d <!--%s-->", n.id, content))
	return n
}

func (h *fakeHost) SetAttribute(node any, name, value string) {
	n := node.(*fakeNode)
	n.attrs[name] = value
	h.ops = append(h.ops, fmt.Sprintf("set #%d %s=%q", n.id, name, value))
}

func (h *fakeHost) RemoveAttribute(node any, name string) {
	n := node.(*fakeNode)
	delete(n.attrs, name)
	h.ops = append(h.ops, fmt.Sprintf("unset #%d %s", n.id, name))
}

func (h *fakeHost) InsertBefore(parent, child, ref any) {
	p, c := parent.(*fakeNode), child.(*fakeNode)
	detach(c)
	idx := len(p.children)
	if r, ok := ref.(*fakeNode); ok && r != nil {
		idx = slices.Index(p.children, r)
		h.ops = append(h.ops, fmt.Sprintf("insert #%d into #%d before #%d", c.id, p.id, r.id))
	} else {
		h.ops = append(h.ops, fmt.Sprintf("append #%d to #%d", c.id, p.id))
	}
	p.children = slices.Insert(p.children, idx, c)
	c.parent = p
}

func (h *fakeHost) Remove(node any) {
	n := node.(*fakeNode)
	detach(n)
	h.ops = append(h.ops, fmt.Sprintf("remove #%d", n.id))
}

func (h *fakeHost) SetText(node any, content string) {
	n := node.(*fakeNode)
	n.text = content
	h.ops = append(h.ops, fmt.Sprintf("text #%d %q", n.id, content))
}

func (h *fakeHost) BindEvents(node any, handlers map[string]vdom.Handler) {
	node.(*fakeNode).events = handlers
}

func (h *fakeHost) reset() { h.ops = nil }

func detach(n *fakeNode) {
	if n.parent == nil {
		return
	}
	p := n.parent
	if i := slices.Index(p.children, n); i >= 0 {
		p.children = slices.Delete(p.children, i, i+1)
	}
	n.parent = nil
}

// html serializes the children of the root.
func (h *fakeHost) html() string {
	var b strings.Builder
	for _, c := range h.root.children {
		writeFake(&b, c)
	}
	return b.String()
}

func writeFake(b *strings.Builder, n *fakeNode) {
	switch n.tag {
	case vdom.TextTag:
		b.WriteString(n.text)
		return
	case vdom.CommentTag:
		b.WriteString("<!--" + n.text + "-->")
		return
	}
	b.WriteString("<" + n.tag)
	for _, k := range vdom.SortedAttrNames(n.attrs) {
		fmt.Fprintf(b, " %s=%q", k, n.attrs[k])
	}
	b.WriteString(">")
	for _, c := range n.children {
		writeFake(b, c)
	}
	b.WriteString("</" + n.tag + ">")
}
