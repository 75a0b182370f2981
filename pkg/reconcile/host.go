package reconcile

import "github.com/vango-dev/stencil/pkg/vdom"

// Host is the set of mutation primitives of a host tree. Host nodes are
// opaque to the reconciler.
type Host interface {
	CreateElement(tag string) any
	CreateText(content string) any
	CreateComment(content string) any

	SetAttribute(node any, name, value string)
	RemoveAttribute(node any, name string)

	// InsertBefore attaches child to parent before ref, or at the end when
	// ref is nil. A child that is already attached is moved.
	InsertBefore(parent, child, ref any)

	// Remove detaches node from its parent.
	Remove(node any)

	// SetText replaces the content of a text or comment node.
	SetText(node any, content string)
}

// EventBinder is implemented by hosts that dispatch events to virtual node
// handlers. BindEvents replaces all handlers of node.
type EventBinder interface {
	BindEvents(node any, handlers map[string]vdom.Handler)
}

// Querier is implemented by hosts that can resolve a selector to a node.
type Querier interface {
	Query(selector string) (any, bool)
}
