package compiler

import (
	"strings"

	"github.com/vango-dev/stencil/pkg/expr"
)

// segment is a piece of interpolated text: a literal or an expression.
type segment struct {
	text string
	prog *expr.Program
}

// splitText splits s on the delimiter pairs. An opening delimiter without a
// matching close is kept as literal text.
func splitText(s, open, close string) ([]segment, error) {
	var segs []segment
	for {
		i := strings.Index(s, open)
		if i < 0 {
			break
		}
		j := strings.Index(s[i+len(open):], close)
		if j < 0 {
			break
		}
		if i > 0 {
			segs = append(segs, segment{text: s[:i]})
		}
		src := strings.TrimSpace(s[i+len(open) : i+len(open)+j])
		prog, err := expr.Parse(src)
		if err != nil {
			return nil, err
		}
		segs = append(segs, segment{text: src, prog: prog})
		s = s[i+len(open)+j+len(close):]
	}
	if s != "" {
		segs = append(segs, segment{text: s})
	}
	return segs, nil
}

// hasInterpolation reports whether segs contains at least one expression.
func hasInterpolation(segs []segment) bool {
	for _, s := range segs {
		if s.prog != nil {
			return true
		}
	}
	return false
}
