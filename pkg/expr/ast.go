package expr

import (
	"strconv"
	"strings"
)

// Node is an expression AST node.
type Node interface {
	// Pos returns the byte offset of the node in its source.
	Pos() int
	String() string
}

type (
	// Ident is a reference to a name resolved through the Env.
	Ident struct {
		At   int
		Name string
	}

	// Literal is a constant: float64, string, bool or nil.
	Literal struct {
		At    int
		Value any
	}

	// Member is a property access x.name.
	Member struct {
		At   int
		X    Node
		Name string
	}

	// Index is a computed property access x[index].
	Index struct {
		At    int
		X     Node
		Index Node
	}

	// Call is a function call fn(args...).
	Call struct {
		At   int
		Fn   Node
		Args []Node
	}

	// Unary is a prefix operator: !x, -x, +x.
	Unary struct {
		At int
		Op string
		X  Node
	}

	// Binary is an arithmetic, comparison or logical operator.
	Binary struct {
		At   int
		Op   string
		L, R Node
	}

	// Cond is the ternary test ? then : else.
	Cond struct {
		At               int
		Test, Then, Else Node
	}

	// Assign is target = value, or a compound form such as target += value.
	Assign struct {
		At     int
		Op     string
		Target Node
		Value  Node
	}

	// Update is ++ or -- in prefix or postfix position.
	Update struct {
		At     int
		Op     string
		Prefix bool
		Target Node
	}

	// Seq is a list of expressions separated by ';' or ','. Its value is
	// the value of the last expression.
	Seq struct {
		At   int
		List []Node
	}
)

func (n *Ident) Pos() int   { return n.At }
func (n *Literal) Pos() int { return n.At }
func (n *Member) Pos() int  { return n.At }
func (n *Index) Pos() int   { return n.At }
func (n *Call) Pos() int    { return n.At }
func (n *Unary) Pos() int   { return n.At }
func (n *Binary) Pos() int  { return n.At }
func (n *Cond) Pos() int    { return n.At }
func (n *Assign) Pos() int  { return n.At }
func (n *Update) Pos() int  { return n.At }
func (n *Seq) Pos() int     { return n.At }

func (n *Ident) String() string { return n.Name }

func (n *Literal) String() string {
	switch v := n.Value.(type) {
	case nil:
		return "null"
	case string:
		return strconv.Quote(v)
	default:
		return ToString(v)
	}
}

func (n *Member) String() string { return n.X.String() + "." + n.Name }
func (n *Index) String() string  { return n.X.String() + "[" + n.Index.String() + "]" }

func (n *Call) String() string {
	args := make([]string, len(n.Args))
	for i, a := range n.Args {
		args[i] = a.String()
	}
	return n.Fn.String() + "(" + strings.Join(args, ", ") + ")"
}

func (n *Unary) String() string  { return "(" + n.Op + n.X.String() + ")" }
func (n *Binary) String() string { return "(" + n.L.String() + " " + n.Op + " " + n.R.String() + ")" }

func (n *Cond) String() string {
	return "(" + n.Test.String() + " ? " + n.Then.String() + " : " + n.Else.String() + ")"
}

func (n *Assign) String() string { return n.Target.String() + " " + n.Op + " " + n.Value.String() }

func (n *Update) String() string {
	if n.Prefix {
		return n.Op + n.Target.String()
	}
	return n.Target.String() + n.Op
}

func (n *Seq) String() string {
	parts := make([]string, len(n.List))
	for i, e := range n.List {
		parts[i] = e.String()
	}
	return strings.Join(parts, "; ")
}
