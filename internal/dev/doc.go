// Package dev runs a template against an in-memory document and exposes it
// to the command line tools.
//
// A Session owns the document and the mounted instance and serializes all
// access to them. The Server puts a session behind HTTP routes and streams
// the mutations of every pass to WebSocket clients. A polling Watcher feeds
// template and data file changes back into the session.
//
// # Routes
//
//	GET  /                  full page with the stream client
//	GET  /fragment          mounted markup only (?pretty for indented)
//	GET  /state             instance data as JSON
//	POST /state             assign fields from a JSON object
//	POST /eval              evaluate {"expr": "..."} against the instance
//	POST /events/{event}    dispatch to ?target=<selector>, body {"detail": ...}
//	POST /flush             run a deferred pass
//	GET  /_stencil/stream   WebSocket mutation stream
//	GET  /metrics           Prometheus metrics, when enabled
//
// # Stream Protocol
//
// Messages are JSON-encoded:
//
//	{"type": "mutations", "trigger": "click", "mutations": [...], "html": "..."}
//	{"type": "reload", "html": "..."}
//	{"type": "error", "error": "..."}
package dev
