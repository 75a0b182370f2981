// Package errors provides structured, actionable error messages for stencil.
//
// Every error carries a registered code that maps to a category and a short
// message. Compile errors may additionally point into the template or
// expression source they came from.
//
// # Error Categories
//
//   - compile: template and expression errors (E1xx)
//   - mount, runtime: lifecycle errors (E2xx)
//   - internal: violated reconciler invariants (E3xx), never recovered
//   - config: configuration file errors (E4xx)
//   - cli: command line errors (E5xx)
//
// # Usage
//
//	err := errors.New(errors.CodeExpressionSyntax).
//	    WithSource("", "count +", 7).
//	    WithSuggestion("Complete the binary expression")
//
//	fmt.Println(err.Format())
//
// errors.Is matches on codes, so callers can test for a class of failure
// without depending on the message:
//
//	if errors.Is(err, stencilerrors.New(stencilerrors.CodeMountTarget)) { ... }
package errors
