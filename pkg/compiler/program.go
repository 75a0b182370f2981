package compiler

import (
	"maps"
	"strings"

	"github.com/vango-dev/stencil/pkg/expr"
	"github.com/vango-dev/stencil/pkg/vdom"
)

// builder carries the state of one Build call.
type builder struct {
	env      expr.Env
	eventVar string
	patches  []func() error
}

func (b *builder) deferPatch(fn func() error) {
	b.patches = append(b.patches, fn)
}

func (b *builder) handler(prog *expr.Program) vdom.Handler {
	env, name := b.env, b.eventVar
	return func(event any) error {
		_, err := prog.Eval(expr.Extend(env, map[string]any{name: event}))
		return err
	}
}

// program builds one virtual node.
type program interface {
	build(b *builder) *vdom.Node
}

type binding struct {
	name string
	prog *expr.Program
}

type elementProgram struct {
	tag      string
	static   vdom.Attrs
	dynamic  []binding
	events   []binding
	keyText  string
	keyProg  *expr.Program
	hasKey   bool
	children []program
}

func (p *elementProgram) build(b *builder) *vdom.Node {
	node := vdom.Element(p.tag, maps.Clone(p.static))
	if p.hasKey && p.keyProg == nil {
		node.Key = p.keyText
	}

	if len(p.events) > 0 {
		node.Events = make(map[string]vdom.Handler, len(p.events))
		for _, ev := range p.events {
			node.Events[ev.name] = b.handler(ev.prog)
		}
	}

	if len(p.dynamic) > 0 || p.keyProg != nil {
		for _, d := range p.dynamic {
			node.MarkDynamic(d.name)
		}
		env := b.env
		b.deferPatch(func() error { return p.patch(node, env) })
	}

	for i, c := range p.children {
		child := c.build(b)
		child.Index = i
		node.Children = append(node.Children, child)
	}
	return node
}

// patch recomputes the full attribute map and the key of node.
func (p *elementProgram) patch(node *vdom.Node, env expr.Env) error {
	attrs := make(vdom.Attrs, len(p.static)+len(p.dynamic))
	maps.Copy(attrs, p.static)
	for _, d := range p.dynamic {
		v, err := d.prog.Eval(env)
		if err != nil {
			return err
		}
		if s, ok := attrValue(v); ok {
			attrs[d.name] = s
		} else {
			delete(attrs, d.name)
		}
	}
	node.Attrs = attrs

	if p.keyProg != nil {
		k, err := p.keyProg.Eval(env)
		if err != nil {
			return err
		}
		node.Key = k
	}
	return nil
}

// attrValue converts an evaluated binding to an attribute value. nil and
// false remove the attribute; true sets it empty.
func attrValue(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case bool:
		return "", x
	}
	return expr.ToString(v), true
}

type textMode uint8

const (
	textStatic textMode = iota
	textWhole
	textJoined
)

type textProgram struct {
	mode    textMode
	content string
	segs    []segment
}

func (p *textProgram) build(b *builder) *vdom.Node {
	if p.mode == textStatic {
		return vdom.Text(p.content)
	}
	node := vdom.Text("")
	env := b.env
	b.deferPatch(func() error {
		if p.mode == textWhole {
			v, err := p.segs[0].prog.Eval(env)
			if err != nil {
				return err
			}
			node.Content = expr.ToString(v)
			return nil
		}
		var sb strings.Builder
		for _, s := range p.segs {
			if s.prog == nil {
				sb.WriteString(s.text)
				continue
			}
			v, err := s.prog.Eval(env)
			if err != nil {
				return err
			}
			sb.WriteString(expr.ToString(v))
		}
		node.Content = sb.String()
		return nil
	})
	return node
}

type commentProgram struct {
	content string
}

func (p *commentProgram) build(*builder) *vdom.Node {
	return vdom.Comment(p.content)
}
