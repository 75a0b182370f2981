// Package vdom provides the virtual tree shared by the template compiler and
// the reconciler.
//
// # Core Types
//
// Node is a tagged union over three kinds: elements, text and comments.
// Elements carry attributes, the set of attribute names that are bound to
// expressions, ordered children, an optional key and event handlers. Text and
// comment nodes carry only content.
//
// Every node also records the host node it was realized into (HostRef) and
// its position among its siblings at the last reconciliation (Index). Both
// are owned by the reconciler.
//
// # Building Trees
//
//	vdom.Element("ul", vdom.Attrs{"class": "list"},
//	    vdom.Element("li", nil, vdom.Text("one")).WithKey(1),
//	    vdom.Element("li", nil, vdom.Text("two")).WithKey(2),
//	)
//
// # Keys
//
// A key identifies "the same logical item" across renders. The reconciler
// matches keyed nodes by key before it considers structural similarity.
package vdom
