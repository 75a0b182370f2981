package vdom

// voidElements are elements that cannot have children.
var voidElements = map[string]bool{
	"area":   true,
	"base":   true,
	"br":     true,
	"col":    true,
	"embed":  true,
	"hr":     true,
	"img":    true,
	"input":  true,
	"link":   true,
	"meta":   true,
	"param":  true,
	"source": true,
	"track":  true,
	"wbr":    true,
}

// IsVoidElement returns true if the tag is a void element.
func IsVoidElement(tag string) bool {
	return voidElements[tag]
}

// Element creates an element node. A nil attrs map is allowed; children
// that are nil are skipped. Element panics on an empty tag, which is a
// programming error.
func Element(tag string, attrs Attrs, children ...*Node) *Node {
	if tag == "" {
		panic("vdom: element tag must not be empty")
	}
	if attrs == nil {
		attrs = Attrs{}
	}
	node := &Node{
		Kind:     KindElement,
		Tag:      tag,
		Attrs:    attrs,
		Children: make([]*Node, 0, len(children)),
	}
	for _, c := range children {
		if c != nil {
			node.Children = append(node.Children, c)
		}
	}
	return node
}

// Text creates a text node.
func Text(content string) *Node {
	return &Node{
		Kind:    KindText,
		Tag:     TextTag,
		Content: content,
	}
}

// Comment creates a comment node.
func Comment(content string) *Node {
	return &Node{
		Kind:    KindComment,
		Tag:     CommentTag,
		Content: content,
	}
}

// WithKey sets the node's identity key and returns the node.
func (n *Node) WithKey(key any) *Node {
	n.Key = key
	return n
}

// On registers an event handler and returns the node.
func (n *Node) On(event string, h Handler) *Node {
	if n.Events == nil {
		n.Events = make(map[string]Handler)
	}
	n.Events[event] = h
	return n
}

// MarkDynamic records that the named attributes are bound to expressions.
func (n *Node) MarkDynamic(names ...string) *Node {
	if n.Dynamic == nil {
		n.Dynamic = make(map[string]struct{}, len(names))
	}
	for _, name := range names {
		n.Dynamic[name] = struct{}{}
	}
	return n
}
