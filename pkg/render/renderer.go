package render

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/vango-dev/stencil/pkg/dom"
	"github.com/vango-dev/stencil/pkg/vdom"
)

// RendererConfig configures the HTML renderer.
type RendererConfig struct {
	// Pretty enables indented output. Text content is never reflowed, so
	// pretty output is for reading, not for round trips.
	Pretty bool

	// Indent is the string used for each indentation level in pretty mode.
	// Defaults to two spaces if not specified.
	Indent string
}

// Renderer serializes dom trees.
type Renderer struct {
	config RendererConfig
}

// NewRenderer creates a new Renderer with the given configuration.
func NewRenderer(config RendererConfig) *Renderer {
	if config.Indent == "" {
		config.Indent = "  "
	}
	return &Renderer{config: config}
}

// RenderToString renders n and its subtree.
func (r *Renderer) RenderToString(n *dom.Node) (string, error) {
	var buf bytes.Buffer
	if err := r.RenderToWriter(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderToWriter streams n and its subtree to w.
func (r *Renderer) RenderToWriter(w io.Writer, n *dom.Node) error {
	return r.renderNode(w, n, 0, false)
}

// RenderChildrenToString renders the children of n without n itself.
func (r *Renderer) RenderChildrenToString(n *dom.Node) (string, error) {
	var buf bytes.Buffer
	if err := r.RenderChildren(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderChildren streams the children of n to w.
func (r *Renderer) RenderChildren(w io.Writer, n *dom.Node) error {
	if n == nil {
		return nil
	}
	raw := isRawText(n.Tag)
	for _, c := range n.Children() {
		if err := r.renderNode(w, c, 0, raw); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) renderNode(w io.Writer, n *dom.Node, depth int, raw bool) error {
	if n == nil {
		return nil
	}
	switch n.Type {
	case dom.ElementNode:
		return r.renderElement(w, n, depth)
	case dom.TextNode:
		text := n.Data
		if !raw {
			text = escapeHTML(text)
		}
		_, err := io.WriteString(w, text)
		return err
	case dom.CommentNode:
		_, err := fmt.Fprintf(w, "<!--%s-->", n.Data)
		return err
	default:
		return fmt.Errorf("unknown node type: %s", n.Type)
	}
}

func (r *Renderer) renderElement(w io.Writer, n *dom.Node, depth int) error {
	if r.config.Pretty && depth > 0 {
		r.writeIndent(w, depth)
	}

	if _, err := io.WriteString(w, "<"+n.Tag); err != nil {
		return err
	}
	for _, name := range n.AttrNames() {
		v, _ := n.Attr(name)
		if v == "" && isBooleanAttr(name) {
			if _, err := io.WriteString(w, " "+name); err != nil {
				return err
			}
			continue
		}
		if _, err := fmt.Fprintf(w, ` %s="%s"`, name, escapeAttr(v)); err != nil {
			return err
		}
	}
	if _, err := io.WriteString(w, ">"); err != nil {
		return err
	}

	if vdom.IsVoidElement(n.Tag) {
		if r.config.Pretty {
			io.WriteString(w, "\n")
		}
		return nil
	}

	children := n.Children()
	block := r.config.Pretty && hasElementChild(children)
	if block {
		io.WriteString(w, "\n")
	}
	raw := isRawText(n.Tag)
	for _, c := range children {
		if block && c.Type != dom.ElementNode {
			r.writeIndent(w, depth+1)
		}
		if err := r.renderNode(w, c, depth+1, raw); err != nil {
			return err
		}
		if block && c.Type != dom.ElementNode {
			io.WriteString(w, "\n")
		}
	}
	if block {
		r.writeIndent(w, depth)
	}

	if _, err := fmt.Fprintf(w, "</%s>", n.Tag); err != nil {
		return err
	}
	if r.config.Pretty {
		io.WriteString(w, "\n")
	}
	return nil
}

func hasElementChild(children []*dom.Node) bool {
	for _, c := range children {
		if c.Type == dom.ElementNode {
			return true
		}
	}
	return false
}

// writeIndent writes indentation for pretty printing.
func (r *Renderer) writeIndent(w io.Writer, depth int) {
	io.WriteString(w, strings.Repeat(r.config.Indent, depth))
}

// isRawText reports elements whose text content is not escaped.
func isRawText(tag string) bool {
	return tag == "script" || tag == "style"
}

var booleanAttrs = map[string]bool{
	"allowfullscreen": true,
	"async":           true,
	"autofocus":       true,
	"autoplay":        true,
	"checked":         true,
	"controls":        true,
	"default":         true,
	"defer":           true,
	"disabled":        true,
	"hidden":          true,
	"loop":            true,
	"multiple":        true,
	"muted":           true,
	"novalidate":      true,
	"open":            true,
	"readonly":        true,
	"required":        true,
	"reversed":        true,
	"selected":        true,
}

// isBooleanAttr reports attributes rendered without a value when empty.
func isBooleanAttr(name string) bool {
	return booleanAttrs[name]
}
