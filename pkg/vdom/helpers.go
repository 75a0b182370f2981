package vdom

import (
	"sort"
	"strconv"
	"strings"
)

// Walk calls fn for every node in the forest in depth-first pre-order.
// Returning false from fn skips the node's children.
func Walk(nodes []*Node, fn func(n *Node) bool) {
	for _, n := range nodes {
		if n == nil {
			continue
		}
		if fn(n) {
			Walk(n.Children, fn)
		}
	}
}

// Count returns the number of nodes in the forest.
func Count(nodes []*Node) int {
	total := 0
	Walk(nodes, func(*Node) bool {
		total++
		return true
	})
	return total
}

// SortedAttrNames returns the attribute names in lexical order.
func SortedAttrNames(attrs Attrs) []string {
	names := make([]string, 0, len(attrs))
	for k := range attrs {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// String returns a compact debug rendering of the node, e.g.
// <li key=1 class="a">"one"</li>.
func (n *Node) String() string {
	var b strings.Builder
	n.write(&b)
	return b.String()
}

// Dump renders a forest with String, one root per line.
func Dump(nodes []*Node) string {
	parts := make([]string, 0, len(nodes))
	for _, n := range nodes {
		parts = append(parts, n.String())
	}
	return strings.Join(parts, "\n")
}

func (n *Node) write(b *strings.Builder) {
	if n == nil {
		b.WriteString("<nil>")
		return
	}
	switch n.Kind {
	case KindText:
		b.WriteString(strconv.Quote(n.Content))
	case KindComment:
		b.WriteString("<!--")
		b.WriteString(n.Content)
		b.WriteString("-->")
	case KindElement:
		b.WriteByte('<')
		b.WriteString(n.Tag)
		if n.HasKey() {
			b.WriteString(" key=")
			b.WriteString(KeyString(n.Key))
		}
		for _, name := range SortedAttrNames(n.Attrs) {
			b.WriteByte(' ')
			b.WriteString(name)
			b.WriteString("=")
			b.WriteString(strconv.Quote(n.Attrs[name]))
		}
		b.WriteByte('>')
		for _, c := range n.Children {
			c.write(b)
		}
		b.WriteString("</")
		b.WriteString(n.Tag)
		b.WriteByte('>')
	default:
		b.WriteString("<?>")
	}
}
