package dom

import (
	"fmt"
	"strings"
)

// selector is a descendant chain of compound selectors, outermost first.
type selector []compound

// compound is a tag, an id, classes and attribute tests that must all hold.
type compound struct {
	tag     string
	id      string
	classes []string
	attrs   []attrTest
}

type attrTest struct {
	name     string
	value    string
	hasValue bool
}

// parseSelector supports tag, #id, .class, [attr], [attr=value] and the
// descendant combinator.
func parseSelector(s string) (selector, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty selector")
	}
	sel := make(selector, 0, len(fields))
	for _, f := range fields {
		c, err := parseCompound(f)
		if err != nil {
			return nil, fmt.Errorf("selector %q: %w", s, err)
		}
		sel = append(sel, c)
	}
	return sel, nil
}

func parseCompound(s string) (compound, error) {
	var c compound
	i := 0
	readName := func() string {
		start := i
		for i < len(s) && !strings.ContainsRune("#.[]=", rune(s[i])) {
			i++
		}
		return s[start:i]
	}

	if s[0] == '*' {
		i++
	} else {
		c.tag = strings.ToLower(readName())
	}
	for i < len(s) {
		switch s[i] {
		case '#':
			i++
			if c.id = readName(); c.id == "" {
				return c, fmt.Errorf("empty id")
			}
		case '.':
			i++
			name := readName()
			if name == "" {
				return c, fmt.Errorf("empty class")
			}
			c.classes = append(c.classes, name)
		case '[':
			i++
			t := attrTest{name: readName()}
			if t.name == "" {
				return c, fmt.Errorf("empty attribute name")
			}
			if i < len(s) && s[i] == '=' {
				i++
				end := strings.IndexByte(s[i:], ']')
				if end < 0 {
					return c, fmt.Errorf("unterminated attribute test")
				}
				t.value, t.hasValue = strings.Trim(s[i:i+end], `"'`), true
				i += end
			}
			if i >= len(s) || s[i] != ']' {
				return c, fmt.Errorf("unterminated attribute test")
			}
			i++
			c.attrs = append(c.attrs, t)
		default:
			return c, fmt.Errorf("unexpected %q", s[i])
		}
	}
	return c, nil
}

func (c compound) matches(n *Node) bool {
	if n.Type != ElementNode {
		return false
	}
	if c.tag != "" && c.tag != n.Tag {
		return false
	}
	if c.id != "" && n.attrs["id"] != c.id {
		return false
	}
	for _, cl := range c.classes {
		if !n.HasClass(cl) {
			return false
		}
	}
	for _, t := range c.attrs {
		v, ok := n.attrs[t.name]
		if !ok || (t.hasValue && v != t.value) {
			return false
		}
	}
	return true
}

func (s selector) matches(n *Node) bool {
	last := len(s) - 1
	if !s[last].matches(n) {
		return false
	}
	i := last - 1
	for p := n.parent; p != nil && i >= 0; p = p.parent {
		if s[i].matches(p) {
			i--
		}
	}
	return i < 0
}

// QuerySelectorAll returns the elements below the body matching sel in
// document order. An invalid selector matches nothing.
func (d *Document) QuerySelectorAll(sel string) []*Node {
	s, err := parseSelector(sel)
	if err != nil {
		return nil
	}
	var out []*Node
	d.body.Walk(func(n *Node) bool {
		if s.matches(n) {
			out = append(out, n)
		}
		return true
	})
	return out
}

// QuerySelector returns the first element matching sel, or nil.
func (d *Document) QuerySelector(sel string) *Node {
	s, err := parseSelector(sel)
	if err != nil {
		return nil
	}
	var found *Node
	d.body.Walk(func(n *Node) bool {
		if s.matches(n) {
			found = n
			return false
		}
		return true
	})
	return found
}

// Query implements reconcile.Querier.
func (d *Document) Query(sel string) (any, bool) {
	n := d.QuerySelector(sel)
	if n == nil {
		return nil, false
	}
	return n, true
}

// ValidSelector reports whether sel is supported.
func ValidSelector(sel string) error {
	_, err := parseSelector(sel)
	return err
}
