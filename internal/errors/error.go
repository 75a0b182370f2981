package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Category represents the type of error.
type Category string

const (
	CategoryCompile  Category = "compile"
	CategoryRuntime  Category = "runtime"
	CategoryMount    Category = "mount"
	CategoryInternal Category = "internal"
	CategoryConfig   Category = "config"
	CategoryCLI      Category = "cli"
)

// Location represents a position inside a template or expression source.
type Location struct {
	File   string
	Line   int
	Column int
}

// String returns the location as a formatted string.
func (l *Location) String() string {
	if l == nil {
		return ""
	}
	file := l.File
	if file == "" {
		file = "<template>"
	}
	if l.Column > 0 {
		return fmt.Sprintf("%s:%d:%d", file, l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d", file, l.Line)
}

// StencilError is a structured error with a registered code, an optional
// source location and a fix suggestion.
type StencilError struct {
	// Code is a unique error identifier (e.g., "E103").
	Code string

	// Category is the error type (compile, runtime, etc.).
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Location is the source position where the error occurred.
	Location *Location

	// Context contains the source lines around Location.
	Context []string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *StencilError) Error() string {
	var b strings.Builder
	if e.Code != "" {
		b.WriteString(e.Code)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Wrapped != nil {
		b.WriteString(": ")
		b.WriteString(e.Wrapped.Error())
	}
	return b.String()
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *StencilError) Unwrap() error {
	return e.Wrapped
}

// Is reports whether target is a StencilError carrying the same code.
// This lets callers write errors.Is(err, errors.New("E103")).
func (e *StencilError) Is(target error) bool {
	t, ok := target.(*StencilError)
	if !ok {
		return false
	}
	return t.Code != "" && t.Code == e.Code
}

// WithSource records a position inside src (a byte offset) and keeps the
// surrounding lines for Format.
func (e *StencilError) WithSource(file, src string, offset int) *StencilError {
	if offset < 0 {
		offset = 0
	}
	if offset > len(src) {
		offset = len(src)
	}
	line := 1 + strings.Count(src[:offset], "\n")
	col := offset - strings.LastIndex(src[:offset], "\n")
	e.Location = &Location{File: file, Line: line, Column: col}
	e.Context = contextLines(src, line, 3)
	return e
}

// WithLocation adds a source location without context lines.
func (e *StencilError) WithLocation(file string, line, column int) *StencilError {
	e.Location = &Location{File: file, Line: line, Column: column}
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *StencilError) WithSuggestion(s string) *StencilError {
	e.Suggestion = s
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *StencilError) WithDetail(d string) *StencilError {
	e.Detail = d
	return e
}

// Wrap wraps another error.
func (e *StencilError) Wrap(err error) *StencilError {
	e.Wrapped = err
	return e
}

// contextLines returns up to size lines centred on target (1-based).
func contextLines(src string, target, size int) []string {
	lines := strings.Split(src, "\n")
	start := target - 1 - size/2
	if start < 0 {
		start = 0
	}
	end := start + size
	if end > len(lines) {
		end = len(lines)
	}
	return lines[start:end]
}

// New creates a StencilError from a registered error code.
func New(code string) *StencilError {
	template, ok := registry[code]
	if !ok {
		return &StencilError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &StencilError{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
		Detail:   template.Detail,
	}
}

// Newf creates a new StencilError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *StencilError {
	return &StencilError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in a StencilError. Errors that already
// are StencilErrors are returned unchanged.
func FromError(err error, code string) *StencilError {
	if err == nil {
		return nil
	}
	var se *StencilError
	if stderrors.As(err, &se) {
		return se
	}
	return New(code).Wrap(err)
}

// HasCode reports whether any error in err's chain carries code.
func HasCode(err error, code string) bool {
	for err != nil {
		if se, ok := err.(*StencilError); ok && se.Code == code {
			return true
		}
		err = stderrors.Unwrap(err)
	}
	return false
}
