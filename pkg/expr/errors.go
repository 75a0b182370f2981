package expr

import "fmt"

// SyntaxError reports a malformed expression.
type SyntaxError struct {
	Source string
	Pos    int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at offset %d in %q: %s", e.Pos, e.Source, e.Msg)
}

// EvalError reports a failure while evaluating an expression.
type EvalError struct {
	Source string
	Pos    int
	Msg    string
	Err    error
}

func (e *EvalError) Error() string {
	msg := e.Msg
	if e.Err != nil {
		if msg != "" {
			msg += ": "
		}
		msg += e.Err.Error()
	}
	return fmt.Sprintf("evaluating %q: %s", e.Source, msg)
}

func (e *EvalError) Unwrap() error { return e.Err }
