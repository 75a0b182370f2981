package reactive

// WatchOption configures Watch.
type WatchOption func(*watchConfig)

type watchConfig struct {
	immediate bool
	effect    []EffectOption
}

// Immediate calls the callback once with the initial value, with prev set
// to the zero value.
func Immediate() WatchOption {
	return func(c *watchConfig) { c.immediate = true }
}

// WithEffectOptions passes opts to the underlying effect.
func WithEffectOptions(opts ...EffectOption) WatchOption {
	return func(c *watchConfig) { c.effect = append(c.effect, opts...) }
}

// Watch calls cb whenever the value returned by src changes. Only src is
// tracked; cb runs untracked.
func Watch[T any](src func() T, cb func(next, prev T), opts ...WatchOption) *Effect {
	var cfg watchConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	var (
		prev  T
		first = true
	)
	return WatchEffect(func() {
		next := src()
		if first {
			first = false
			prev = next
			if cfg.immediate {
				var zero T
				Untracked(func() { cb(next, zero) })
			}
			return
		}
		if defaultEquals(prev, next) {
			return
		}
		old := prev
		prev = next
		Untracked(func() { cb(next, old) })
	}, cfg.effect...)
}
