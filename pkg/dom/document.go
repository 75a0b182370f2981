package dom

import (
	"fmt"
	"slices"

	"github.com/vango-dev/stencil/pkg/vdom"
)

// Op names a mutation.
type Op string

const (
	OpCreate     Op = "create"
	OpSetAttr    Op = "set"
	OpRemoveAttr Op = "unset"
	OpInsert     Op = "insert"
	OpRemove     Op = "remove"
	OpSetText    Op = "text"
)

// Mutation describes one change to the document.
type Mutation struct {
	Op     Op     `json:"op"`
	Node   int    `json:"node"`
	Parent int    `json:"parent,omitempty"`
	Ref    int    `json:"ref,omitempty"`
	Tag    string `json:"tag,omitempty"`
	Name   string `json:"name,omitempty"`
	Value  string `json:"value,omitempty"`
}

func (m Mutation) String() string {
	switch m.Op {
	case OpCreate:
		if m.Tag == vdom.TextTag || m.Tag == vdom.CommentTag {
			return fmt.Sprintf("create #%d %s %q", m.Node, m.Tag, m.Value)
		}
		return fmt.Sprintf("create #%d <%s>", m.Node, m.Tag)
	case OpSetAttr:
		return fmt.Sprintf("set #%d %s=%q", m.Node, m.Name, m.Value)
	case OpRemoveAttr:
		return fmt.Sprintf("unset #%d %s", m.Node, m.Name)
	case OpInsert:
		if m.Ref != 0 {
			return fmt.Sprintf("insert #%d into #%d before #%d", m.Node, m.Parent, m.Ref)
		}
		return fmt.Sprintf("append #%d to #%d", m.Node, m.Parent)
	case OpRemove:
		return fmt.Sprintf("remove #%d", m.Node)
	case OpSetText:
		return fmt.Sprintf("text #%d %q", m.Node, m.Value)
	}
	return string(m.Op)
}

// Document is an in-memory host tree rooted at a <body> element.
type Document struct {
	seq       int
	body      *Node
	byID      map[int]*Node
	observers map[int]func(Mutation)
	obsSeq    int
}

// NewDocument creates an empty document.
func NewDocument() *Document {
	d := &Document{
		byID:      make(map[int]*Node),
		observers: make(map[int]func(Mutation)),
	}
	d.body = d.newNode(ElementNode, "body", "")
	return d
}

// Body returns the root element.
func (d *Document) Body() *Node { return d.body }

// NodeByID returns a node created by this document.
func (d *Document) NodeByID(id int) (*Node, bool) {
	n, ok := d.byID[id]
	return n, ok
}

// OnMutation registers fn to be called after every mutation. The returned
// function unregisters it.
func (d *Document) OnMutation(fn func(Mutation)) (cancel func()) {
	d.obsSeq++
	id := d.obsSeq
	d.observers[id] = fn
	return func() { delete(d.observers, id) }
}

func (d *Document) emit(m Mutation) {
	ids := make([]int, 0, len(d.observers))
	for id := range d.observers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		d.observers[id](m)
	}
}

func (d *Document) newNode(t NodeType, tag, data string) *Node {
	d.seq++
	n := &Node{ID: d.seq, Type: t, Tag: tag, Data: data}
	if t == ElementNode {
		n.attrs = make(map[string]string)
	}
	d.byID[n.ID] = n
	return n
}

// NewElement creates a detached element with attributes given as name,
// value pairs. It is meant for setting up mount targets.
func (d *Document) NewElement(tag string, attrs ...string) *Node {
	n := d.CreateElement(tag).(*Node)
	for i := 0; i+1 < len(attrs); i += 2 {
		d.SetAttribute(n, attrs[i], attrs[i+1])
	}
	return n
}

// AppendChild attaches child at the end of parent.
func (d *Document) AppendChild(parent, child *Node) {
	d.InsertBefore(parent, child, nil)
}

// CreateElement implements reconcile.Host.
func (d *Document) CreateElement(tag string) any {
	n := d.newNode(ElementNode, tag, "")
	d.emit(Mutation{Op: OpCreate, Node: n.ID, Tag: tag})
	return n
}

// CreateText implements reconcile.Host.
func (d *Document) CreateText(content string) any {
	n := d.newNode(TextNode, vdom.TextTag, content)
	d.emit(Mutation{Op: OpCreate, Node: n.ID, Tag: vdom.TextTag, Value: content})
	return n
}

// CreateComment implements reconcile.Host.
func (d *Document) CreateComment(content string) any {
	n := d.newNode(CommentNode, vdom.CommentTag, content)
	d.emit(Mutation{Op: OpCreate, Node: n.ID, Tag: vdom.CommentTag, Value: content})
	return n
}

// SetAttribute implements reconcile.Host.
func (d *Document) SetAttribute(node any, name, value string) {
	n := node.(*Node)
	n.attrs[name] = value
	d.emit(Mutation{Op: OpSetAttr, Node: n.ID, Name: name, Value: value})
}

// RemoveAttribute implements reconcile.Host.
func (d *Document) RemoveAttribute(node any, name string) {
	n := node.(*Node)
	delete(n.attrs, name)
	d.emit(Mutation{Op: OpRemoveAttr, Node: n.ID, Name: name})
}

// InsertBefore implements reconcile.Host. A nil ref appends.
func (d *Document) InsertBefore(parent, child, ref any) {
	p, c := parent.(*Node), child.(*Node)
	c.detach()

	idx := len(p.children)
	m := Mutation{Op: OpInsert, Node: c.ID, Parent: p.ID}
	if r, ok := ref.(*Node); ok && r != nil {
		if i := p.indexOf(r); i >= 0 {
			idx = i
			m.Ref = r.ID
		}
	}
	p.children = slices.Insert(p.children, idx, c)
	c.parent = p
	d.emit(m)
}

// Remove implements reconcile.Host. The subtree is forgotten by NodeByID.
func (d *Document) Remove(node any) {
	n := node.(*Node)
	n.detach()
	n.Walk(func(c *Node) bool {
		delete(d.byID, c.ID)
		return true
	})
	d.emit(Mutation{Op: OpRemove, Node: n.ID})
}

// SetText implements reconcile.Host.
func (d *Document) SetText(node any, content string) {
	n := node.(*Node)
	n.Data = content
	d.emit(Mutation{Op: OpSetText, Node: n.ID, Value: content})
}

// BindEvents implements reconcile.EventBinder.
func (d *Document) BindEvents(node any, handlers map[string]vdom.Handler) {
	node.(*Node).handlers = handlers
}

// Clear removes all children of n.
func (d *Document) Clear(n *Node) {
	for len(n.children) > 0 {
		d.Remove(n.children[len(n.children)-1])
	}
}
