package reconcile

import "log/slog"

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithLogger sets the logger used for per-call debug records.
func WithLogger(l *slog.Logger) Option {
	return func(r *Reconciler) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithProfile sets the scoring profile used for sibling comparisons.
func WithProfile(p Profile) Option {
	return func(r *Reconciler) { r.profile = p }
}
