// Package markup parses template markup into a plain parse tree.
//
// The tree keeps attributes in source order and unprocessed, so prefixed
// bindings such as @click and :class reach the compiler untouched. Parsing
// follows the HTML5 fragment algorithm of golang.org/x/net/html, which means
// the contents of script, style, textarea and title are kept as a single raw
// text child. Attribute names are lower-cased by the tokenizer, prefixes
// included: :dataOn binds the attribute "dataon" and @keyUp listens for the
// event "keyup".
package markup

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/vango-dev/stencil/internal/errors"
)

// Kind identifies the type of a parse tree node.
type Kind uint8

const (
	ElementNode Kind = iota
	TextNode
	CommentNode
)

func (k Kind) String() string {
	switch k {
	case ElementNode:
		return "element"
	case TextNode:
		return "text"
	case CommentNode:
		return "comment"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Attr is a single attribute as written in the source.
type Attr struct {
	Name  string
	Value string
}

// Node is a parse tree node.
type Node struct {
	Kind     Kind
	Tag      string
	Attrs    []Attr
	Children []*Node
	// Text holds the content of text and comment nodes.
	Text string
}

// Attr returns the value of the named attribute.
func (n *Node) Attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// Option configures Parse.
type Option func(*options)

type options struct {
	keepWhitespace bool
	context        string
}

// KeepWhitespace keeps text nodes that consist only of whitespace.
func KeepWhitespace() Option {
	return func(o *options) { o.keepWhitespace = true }
}

// WithContext parses the fragment as the content of the given element
// instead of <body>. Use "tbody" or "tr" for table fragments.
func WithContext(tag string) Option {
	return func(o *options) { o.context = tag }
}

// Parse parses src as a fragment and returns its top-level nodes.
func Parse(src string, opts ...Option) ([]*Node, error) {
	o := options{context: "body"}
	for _, opt := range opts {
		opt(&o)
	}

	ctx := &html.Node{
		Type:     html.ElementNode,
		Data:     o.context,
		DataAtom: atom.Lookup([]byte(o.context)),
	}
	parsed, err := html.ParseFragment(strings.NewReader(src), ctx)
	if err != nil {
		return nil, errors.New(errors.CodeTemplateParse).Wrap(err)
	}

	nodes := make([]*Node, 0, len(parsed))
	for _, p := range parsed {
		if n := convert(p, &o, false); n != nil {
			nodes = append(nodes, n)
		}
	}
	return nodes, nil
}

// MustParse is like Parse but panics on error.
func MustParse(src string, opts ...Option) []*Node {
	nodes, err := Parse(src, opts...)
	if err != nil {
		panic(err)
	}
	return nodes
}

func convert(h *html.Node, o *options, raw bool) *Node {
	switch h.Type {
	case html.ElementNode:
		n := &Node{Kind: ElementNode, Tag: h.Data}
		if len(h.Attr) > 0 {
			n.Attrs = make([]Attr, 0, len(h.Attr))
			for _, a := range h.Attr {
				name := a.Key
				if a.Namespace != "" {
					name = a.Namespace + ":" + a.Key
				}
				n.Attrs = append(n.Attrs, Attr{Name: name, Value: a.Val})
			}
		}
		childRaw := IsRawText(h.Data)
		for c := h.FirstChild; c != nil; c = c.NextSibling {
			if child := convert(c, o, childRaw); child != nil {
				n.Children = append(n.Children, child)
			}
		}
		return n

	case html.TextNode:
		if !raw && !o.keepWhitespace && strings.TrimSpace(h.Data) == "" {
			return nil
		}
		return &Node{Kind: TextNode, Tag: "#text", Text: h.Data}

	case html.CommentNode:
		return &Node{Kind: CommentNode, Tag: "#comment", Text: h.Data}
	}
	// Doctype and document nodes do not occur in fragments.
	return nil
}

var rawText = map[string]bool{
	"script":   true,
	"style":    true,
	"textarea": true,
	"title":    true,
}

// IsRawText reports whether the children of tag are parsed as a single text
// child, whitespace included.
func IsRawText(tag string) bool {
	return rawText[tag]
}

// IsScriptData reports whether the text inside tag is code for another
// language. Only script and style qualify, so title and textarea content is
// still interpolated.
func IsScriptData(tag string) bool {
	return tag == "script" || tag == "style"
}
