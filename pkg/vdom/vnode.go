package vdom

import (
	"fmt"
	"reflect"
	"strconv"
)

// Kind is the node type discriminator.
type Kind uint8

const (
	KindElement Kind = iota // <div>, <button>, etc.
	KindText                // Plain text node
	KindComment             // <!-- comment -->
)

// Sentinel tags for the leaf kinds.
const (
	TextTag    = "#text"
	CommentTag = "#comment"
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindElement:
		return "Element"
	case KindText:
		return "Text"
	case KindComment:
		return "Comment"
	default:
		return "Unknown"
	}
}

// Attrs maps attribute names to values.
type Attrs map[string]string

// Handler handles a host event. The event value is whatever the host
// dispatches (for the in-memory document, a *dom.Event).
type Handler func(event any) error

// Node is the virtual tree node.
type Node struct {
	Kind     Kind
	Tag      string              // element tag, or TextTag / CommentTag
	Attrs    Attrs               // Element only
	Dynamic  map[string]struct{} // attribute names bound to expressions
	Children []*Node             // Element only
	Key      any                 // nil when the node has no key
	Events   map[string]Handler  // event name -> handler
	Content  string              // Text / Comment only

	// HostRef is the host node this virtual node is realized into. It is
	// set when the node is mounted, moved to the replacing node when the
	// node is reused, and cleared when the node is removed.
	HostRef any

	// Index is the node's position among its siblings at the last
	// reconciliation.
	Index int
}

// HasKey reports whether the node carries an identity key.
func (n *Node) HasKey() bool {
	return n != nil && n.Key != nil
}

// SameType reports whether n and o agree on both kind and tag, i.e. whether
// o can be patched into n in place.
func (n *Node) SameType(o *Node) bool {
	if n == nil || o == nil {
		return false
	}
	return n.Kind == o.Kind && n.Tag == o.Tag
}

// IsDynamic reports whether attribute name is bound to an expression.
func (n *Node) IsDynamic(name string) bool {
	if n == nil || n.Dynamic == nil {
		return false
	}
	_, ok := n.Dynamic[name]
	return ok
}

// KeysEqual compares two keys. Numeric keys compare by value regardless of
// their Go type, so a key evaluated to float64(1) matches int(1).
func KeysEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if af, ok := toFloat(a); ok {
		if bf, ok := toFloat(b); ok {
			return af == bf
		}
		return false
	}
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	}
	return reflect.DeepEqual(a, b)
}

// KeyString renders a key for maps and debug output.
func KeyString(k any) string {
	switch v := k.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	default:
		if f, ok := toFloat(k); ok {
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
		return fmt.Sprintf("%v", v)
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
