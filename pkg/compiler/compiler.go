package compiler

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/vango-dev/stencil/internal/errors"
	"github.com/vango-dev/stencil/pkg/expr"
	"github.com/vango-dev/stencil/pkg/markup"
	"github.com/vango-dev/stencil/pkg/vdom"
)

// Template is a compiled build routine.
type Template struct {
	cfg   config
	roots []program
}

// CompileString parses src as markup and compiles it.
func CompileString(src string, opts ...Option) (*Template, error) {
	nodes, err := markup.Parse(src)
	if err != nil {
		return nil, err
	}
	return Compile(nodes, opts...)
}

// Compile compiles a parse tree. The shape of the result depends only on
// the parse tree; data is bound at Build time.
func Compile(nodes []*markup.Node, opts ...Option) (*Template, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}

	c := &compiler{cfg: &cfg}
	t := &Template{cfg: cfg, roots: make([]program, 0, len(nodes))}
	for _, n := range nodes {
		p, err := c.node(n, false)
		if err != nil {
			return nil, err
		}
		t.roots = append(t.roots, p)
	}
	return t, nil
}

// MustCompile is like CompileString but panics on error.
func MustCompile(src string, opts ...Option) *Template {
	t, err := CompileString(src, opts...)
	if err != nil {
		panic(err)
	}
	return t
}

// Name returns the name given with WithName.
func (t *Template) Name() string { return t.cfg.name }

// Build runs the build routine against env. On an evaluation failure the
// error is logged and Build returns nil.
func (t *Template) Build(env expr.Env) []*vdom.Node {
	nodes, err := t.BuildE(env)
	if err != nil {
		t.cfg.logger.Warn("template build failed",
			"template", t.cfg.name,
			"error", err,
		)
		return nil
	}
	return nodes
}

// BuildE is like Build but returns the evaluation error instead of logging
// it. The error carries code E103.
func (t *Template) BuildE(env expr.Env) (nodes []*vdom.Node, err error) {
	defer func() {
		if r := recover(); r != nil {
			nodes = nil
			err = errors.New(errors.CodeExpressionEval).Wrap(fmt.Errorf("panic: %v", r))
		}
	}()

	b := &builder{env: env, eventVar: t.cfg.eventVar}
	nodes = make([]*vdom.Node, 0, len(t.roots))
	for i, r := range t.roots {
		n := r.build(b)
		n.Index = i
		nodes = append(nodes, n)
	}
	for _, patch := range b.patches {
		if err := patch(); err != nil {
			return nil, errors.New(errors.CodeExpressionEval).Wrap(err)
		}
	}
	return nodes, nil
}

type compiler struct {
	cfg *config
}

func (c *compiler) node(n *markup.Node, raw bool) (program, error) {
	switch n.Kind {
	case markup.ElementNode:
		return c.element(n)
	case markup.TextNode:
		return c.text(n.Text, raw)
	case markup.CommentNode:
		return &commentProgram{content: n.Text}, nil
	}
	return nil, errors.New(errors.CodeUnknownKind).WithDetail(n.Kind.String())
}

func (c *compiler) element(n *markup.Node) (program, error) {
	p := &elementProgram{tag: n.Tag}
	dynKey := c.cfg.dynamicPrefix + c.cfg.keyAttr

	for _, a := range n.Attrs {
		switch {
		case a.Name == c.cfg.keyAttr:
			p.hasKey, p.keyText, p.keyProg = true, a.Value, nil

		case a.Name == dynKey:
			prog, err := c.parse(a.Value, a.Name)
			if err != nil {
				return nil, err
			}
			p.hasKey, p.keyProg = true, prog

		case strings.HasPrefix(a.Name, c.cfg.eventPrefix):
			event := strings.TrimPrefix(a.Name, c.cfg.eventPrefix)
			prog, err := c.parse(expr.HandlerSource(a.Value, c.cfg.eventVar), a.Name)
			if err != nil {
				return nil, err
			}
			p.events = append(p.events, binding{name: event, prog: prog})

		case strings.HasPrefix(a.Name, c.cfg.dynamicPrefix):
			name := strings.TrimPrefix(a.Name, c.cfg.dynamicPrefix)
			prog, err := c.parse(a.Value, a.Name)
			if err != nil {
				return nil, err
			}
			p.dynamic = append(p.dynamic, binding{name: name, prog: prog})

		default:
			if p.static == nil {
				p.static = make(vdom.Attrs, len(n.Attrs))
			}
			p.static[a.Name] = a.Value
		}
	}

	raw := markup.IsScriptData(n.Tag)
	for _, child := range n.Children {
		cp, err := c.node(child, raw)
		if err != nil {
			return nil, err
		}
		p.children = append(p.children, cp)
	}
	return p, nil
}

func (c *compiler) text(content string, raw bool) (program, error) {
	if raw {
		return &textProgram{mode: textStatic, content: content}, nil
	}
	segs, err := splitText(content, c.cfg.open, c.cfg.close)
	if err != nil {
		return nil, c.syntaxError(err, "text "+strings.TrimSpace(content))
	}
	switch {
	case !hasInterpolation(segs):
		return &textProgram{mode: textStatic, content: content}, nil
	case len(segs) == 1:
		return &textProgram{mode: textWhole, segs: segs}, nil
	default:
		return &textProgram{mode: textJoined, segs: segs}, nil
	}
}

func (c *compiler) parse(src, where string) (*expr.Program, error) {
	prog, err := expr.Parse(src)
	if err != nil {
		return nil, c.syntaxError(err, where)
	}
	return prog, nil
}

func (c *compiler) syntaxError(err error, where string) error {
	e := errors.New(errors.CodeExpressionSyntax).WithDetail(where).Wrap(err)
	var se *expr.SyntaxError
	if stderrors.As(err, &se) {
		e.WithSource(c.cfg.name, se.Source, se.Pos)
	}
	return e
}
