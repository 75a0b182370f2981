// Package dom is an in-memory host tree.
//
// A Document implements the reconcile.Host mutation primitives, binds
// virtual node event handlers and resolves simple CSS selectors. Every
// mutation is reported to the observers registered with OnMutation, which
// is how the CLI prints and streams changes.
//
// Documents are not safe for concurrent use.
package dom
