// Package metrics exports Prometheus metrics for render passes and host
// mutations.
//
// Metrics implements app.Observer:
//
//	m := metrics.New(metrics.WithRegistry(reg))
//	in, err := app.New(opts, m.InstrumentHost(doc), app.WithObserver(m))
//
// Metrics collected (namespace "stencil" by default):
//   - stencil_passes_total: passes by instance and status (ok, error, build_failed)
//   - stencil_pass_duration_seconds: pass duration by instance
//   - stencil_build_failures_total: failed template builds by instance
//   - stencil_reconciled_nodes_total: reconciler outcomes by kind
//   - stencil_host_mutations_total: host mutations by operation
//   - stencil_stream_clients: connected mutation stream clients
package metrics
