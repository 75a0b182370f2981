package expr

import "fmt"

// Binding powers, lowest first.
const (
	precLowest = iota
	precAssign
	precCond
	precNullish
	precOr
	precAnd
	precEquality
	precRelational
	precAdditive
	precMultiplicative
	precUnary
	precPostfix
)

var binaryPrec = map[string]int{
	"??":  precNullish,
	"||":  precOr,
	"&&":  precAnd,
	"==":  precEquality,
	"!=":  precEquality,
	"===": precEquality,
	"!==": precEquality,
	"<":   precRelational,
	">":   precRelational,
	"<=":  precRelational,
	">=":  precRelational,
	"+":   precAdditive,
	"-":   precAdditive,
	"*":   precMultiplicative,
	"/":   precMultiplicative,
	"%":   precMultiplicative,
}

var assignOps = map[string]bool{
	"=": true, "+=": true, "-=": true, "*=": true, "/=": true, "%=": true,
}

// Program is a parsed expression ready for repeated evaluation.
type Program struct {
	Source string
	Root   Node
}

// Parse parses src into a Program. Statements may be separated by ';' or
// ','; the program evaluates to the value of the last one.
func Parse(src string) (*Program, error) {
	toks, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &parser{src: src, toks: toks}
	root, err := p.parseSequence()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tokEOF {
		return nil, p.errorf(tok, "unexpected %s", describe(tok))
	}
	return &Program{Source: src, Root: root}, nil
}

// MustParse is like Parse but panics on error. It is intended for
// expressions fixed at compile time.
func MustParse(src string) *Program {
	p, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return p
}

type parser struct {
	src  string
	toks []token
	pos  int
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) advance() token {
	tok := p.toks[p.pos]
	if tok.kind != tokEOF {
		p.pos++
	}
	return tok
}

func (p *parser) isPunct(text string) bool {
	tok := p.peek()
	return tok.kind == tokPunct && tok.text == text
}

func (p *parser) expect(text string) (token, error) {
	tok := p.peek()
	if tok.kind != tokPunct || tok.text != text {
		return tok, p.errorf(tok, "expected %q, found %s", text, describe(tok))
	}
	return p.advance(), nil
}

func (p *parser) errorf(tok token, format string, args ...any) error {
	return &SyntaxError{Source: p.src, Pos: tok.pos, Msg: fmt.Sprintf(format, args...)}
}

func describe(tok token) string {
	switch tok.kind {
	case tokEOF:
		return "end of input"
	case tokPunct:
		return fmt.Sprintf("%q", tok.text)
	default:
		return fmt.Sprintf("%s %q", tok.kind, tok.text)
	}
}

func (p *parser) parseSequence() (Node, error) {
	start := p.peek()
	if start.kind == tokEOF {
		return nil, p.errorf(start, "empty expression")
	}
	var list []Node
	for {
		for p.isPunct(";") {
			p.advance()
		}
		if p.peek().kind == tokEOF {
			break
		}
		e, err := p.parseExpr(precLowest)
		if err != nil {
			return nil, err
		}
		list = append(list, e)
		if !p.isPunct(";") && !p.isPunct(",") {
			break
		}
		p.advance()
	}
	switch len(list) {
	case 0:
		return nil, p.errorf(start, "empty expression")
	case 1:
		return list[0], nil
	}
	return &Seq{At: start.pos, List: list}, nil
}

func (p *parser) parseExpr(minPrec int) (Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for {
		tok := p.peek()
		if tok.kind != tokPunct {
			return left, nil
		}

		switch {
		case assignOps[tok.text] && minPrec < precAssign:
			if !assignable(left) {
				return nil, p.errorf(tok, "invalid assignment target %s", left)
			}
			p.advance()
			// right associative
			value, err := p.parseExpr(precAssign - 1)
			if err != nil {
				return nil, err
			}
			left = &Assign{At: tok.pos, Op: tok.text, Target: left, Value: value}

		case tok.text == "?" && minPrec < precCond:
			p.advance()
			then, err := p.parseExpr(precAssign - 1)
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(":"); err != nil {
				return nil, err
			}
			els, err := p.parseExpr(precCond - 1)
			if err != nil {
				return nil, err
			}
			left = &Cond{At: tok.pos, Test: left, Then: then, Else: els}

		default:
			prec, ok := binaryPrec[tok.text]
			if !ok || prec <= minPrec {
				return left, nil
			}
			p.advance()
			right, err := p.parseExpr(prec)
			if err != nil {
				return nil, err
			}
			left = &Binary{At: tok.pos, Op: tok.text, L: left, R: right}
		}
	}
}

func (p *parser) parseUnary() (Node, error) {
	tok := p.peek()
	if tok.kind == tokPunct {
		switch tok.text {
		case "!", "-", "+":
			p.advance()
			x, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			return &Unary{At: tok.pos, Op: tok.text, X: x}, nil
		case "++", "--":
			p.advance()
			x, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			if !assignable(x) {
				return nil, p.errorf(tok, "invalid %s operand %s", tok.text, x)
			}
			return &Update{At: tok.pos, Op: tok.text, Prefix: true, Target: x}, nil
		}
	}
	return p.parsePostfix()
}

func (p *parser) parsePostfix() (Node, error) {
	x, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		if tok.kind != tokPunct {
			return x, nil
		}
		switch tok.text {
		case ".":
			p.advance()
			name := p.advance()
			if name.kind != tokIdent {
				return nil, p.errorf(name, "expected property name, found %s", describe(name))
			}
			x = &Member{At: tok.pos, X: x, Name: name.text}
		case "[":
			p.advance()
			idx, err := p.parseExpr(precLowest)
			if err != nil {
				return nil, err
			}
			if _, err := p.expect("]"); err != nil {
				return nil, err
			}
			x = &Index{At: tok.pos, X: x, Index: idx}
		case "(":
			p.advance()
			args, err := p.parseArgs()
			if err != nil {
				return nil, err
			}
			x = &Call{At: tok.pos, Fn: x, Args: args}
		case "++", "--":
			if !assignable(x) {
				return x, nil
			}
			p.advance()
			x = &Update{At: tok.pos, Op: tok.text, Target: x}
		default:
			return x, nil
		}
	}
}

func (p *parser) parseArgs() ([]Node, error) {
	var args []Node
	if p.isPunct(")") {
		p.advance()
		return args, nil
	}
	for {
		arg, err := p.parseExpr(precLowest)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.isPunct(",") {
			p.advance()
			continue
		}
		if _, err := p.expect(")"); err != nil {
			return nil, err
		}
		return args, nil
	}
}

func (p *parser) parsePrimary() (Node, error) {
	tok := p.advance()
	switch tok.kind {
	case tokNumber:
		return &Literal{At: tok.pos, Value: tok.num}, nil
	case tokString:
		return &Literal{At: tok.pos, Value: tok.text}, nil
	case tokIdent:
		switch tok.text {
		case "true":
			return &Literal{At: tok.pos, Value: true}, nil
		case "false":
			return &Literal{At: tok.pos, Value: false}, nil
		case "null", "undefined":
			return &Literal{At: tok.pos, Value: nil}, nil
		}
		return &Ident{At: tok.pos, Name: tok.text}, nil
	case tokPunct:
		if tok.text == "(" {
			inner, err := p.parseExpr(precLowest)
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(")"); err != nil {
				return nil, err
			}
			return inner, nil
		}
	}
	return nil, p.errorf(tok, "unexpected %s", describe(tok))
}

func assignable(n Node) bool {
	switch n.(type) {
	case *Ident, *Member, *Index:
		return true
	}
	return false
}
