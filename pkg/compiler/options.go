package compiler

import "log/slog"

// Option configures Compile.
type Option func(*config)

type config struct {
	name          string
	open, close   string
	eventPrefix   string
	dynamicPrefix string
	keyAttr       string
	eventVar      string
	logger        *slog.Logger
}

func defaultConfig() config {
	return config{
		open:          "{{",
		close:         "}}",
		eventPrefix:   "@",
		dynamicPrefix: ":",
		keyAttr:       "key",
		eventVar:      "$event",
	}
}

// WithName names the template in errors and log records.
func WithName(name string) Option {
	return func(c *config) { c.name = name }
}

// WithDelims sets the interpolation delimiters. Empty values are ignored.
func WithDelims(open, close string) Option {
	return func(c *config) {
		if open != "" && close != "" {
			c.open, c.close = open, close
		}
	}
}

// WithEventPrefix sets the attribute prefix marking event bindings.
func WithEventPrefix(p string) Option {
	return func(c *config) {
		if p != "" {
			c.eventPrefix = p
		}
	}
}

// WithDynamicPrefix sets the attribute prefix marking expression bindings.
func WithDynamicPrefix(p string) Option {
	return func(c *config) {
		if p != "" {
			c.dynamicPrefix = p
		}
	}
}

// WithLogger sets the logger Build reports evaluation failures to.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}
