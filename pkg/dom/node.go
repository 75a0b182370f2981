package dom

import (
	"sort"
	"strings"

	"github.com/vango-dev/stencil/pkg/vdom"
)

// NodeType identifies the kind of a host node.
type NodeType uint8

const (
	ElementNode NodeType = iota
	TextNode
	CommentNode
)

func (t NodeType) String() string {
	switch t {
	case ElementNode:
		return "element"
	case TextNode:
		return "text"
	case CommentNode:
		return "comment"
	}
	return "unknown"
}

// Node is a host node.
type Node struct {
	ID   int
	Type NodeType
	Tag  string
	// Data is the content of text and comment nodes.
	Data string

	attrs    map[string]string
	parent   *Node
	children []*Node
	handlers map[string]vdom.Handler
}

// Parent returns the parent node, or nil when detached.
func (n *Node) Parent() *Node { return n.parent }

// Children returns the child nodes. The slice must not be modified.
func (n *Node) Children() []*Node { return n.children }

// Attr returns the value of an attribute.
func (n *Node) Attr(name string) (string, bool) {
	v, ok := n.attrs[name]
	return v, ok
}

// AttrNames returns the attribute names in lexical order.
func (n *Node) AttrNames() []string {
	names := make([]string, 0, len(n.attrs))
	for k := range n.attrs {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// HasClass reports whether the class attribute lists c.
func (n *Node) HasClass(c string) bool {
	for _, f := range strings.Fields(n.attrs["class"]) {
		if f == c {
			return true
		}
	}
	return false
}

// Handler returns the bound handler for an event type.
func (n *Node) Handler(event string) (vdom.Handler, bool) {
	h, ok := n.handlers[event]
	return h, ok
}

// TextContent returns the concatenated text of the subtree.
func (n *Node) TextContent() string {
	if n.Type != ElementNode {
		return n.Data
	}
	var b strings.Builder
	var walk func(*Node)
	walk = func(c *Node) {
		if c.Type == TextNode {
			b.WriteString(c.Data)
		}
		for _, gc := range c.children {
			walk(gc)
		}
	}
	walk(n)
	return b.String()
}

// GetMember exposes the node to template expressions, as in
// $event.target.value.
func (n *Node) GetMember(name string) (any, bool) {
	switch name {
	case "id":
		v, ok := n.attrs["id"]
		return v, ok
	case "tag", "tagName":
		return n.Tag, true
	case "textContent":
		return n.TextContent(), true
	case "parent":
		if n.parent == nil {
			return nil, false
		}
		return n.parent, true
	}
	v, ok := n.attrs[name]
	return v, ok
}

func (n *Node) indexOf(c *Node) int {
	for i, x := range n.children {
		if x == c {
			return i
		}
	}
	return -1
}

func (n *Node) detach() {
	p := n.parent
	if p == nil {
		return
	}
	if i := p.indexOf(n); i >= 0 {
		p.children = append(p.children[:i], p.children[i+1:]...)
	}
	n.parent = nil
}

// Walk visits n and its descendants in document order until fn returns
// false.
func (n *Node) Walk(fn func(*Node) bool) bool {
	if !fn(n) {
		return false
	}
	for _, c := range n.children {
		if !c.Walk(fn) {
			return false
		}
	}
	return true
}
