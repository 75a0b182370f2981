// Package expr implements the small expression language used by template
// bindings.
//
// Sources are parsed once into an AST (Parse) and evaluated many times
// against an Env that resolves identifiers (Program.Eval). The language is
// a JavaScript-flavoured subset sufficient for templates:
//
//	count + 1
//	isOpen ? 'close' : 'open'
//	user.name ?? 'anonymous'
//	items[0].title
//	onSwitch($event)
//	count++; dirty = true
//
// Numbers evaluate to float64. Truthiness and string conversion follow the
// JavaScript rules closely enough for display code; nil renders as the empty
// string.
package expr
