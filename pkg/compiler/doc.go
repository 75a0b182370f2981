// Package compiler turns parsed template markup into a reusable build
// routine.
//
// A Template is compiled once and built many times. Every Build call
// returns a fresh virtual tree: static parts are constructed directly,
// while expression bindings are recorded as deferred patches that run once
// the whole tree for the call exists.
//
// # Bindings
//
//	<button class="btn" :title="label" @click="toggle" key="main">
//	  {{ open ? 'close' : 'open' }}
//	</button>
//
// Attributes prefixed with '@' are event bindings, attributes prefixed with
// ':' are expressions, and key / :key set the node identity used by the
// reconciler. Text may interpolate expressions between {{ and }}. Both
// prefixes and the delimiters are configurable.
//
// Expression syntax errors are reported by Compile. Evaluation errors are
// reported by BuildE; Build logs them and returns nil so that a render loop
// keeps the tree it already has.
package compiler
