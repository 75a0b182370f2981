package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/vango-dev/stencil/pkg/app"
)

// Config configures the metrics.
type Config struct {
	// Namespace is the metrics namespace (default: "stencil").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for pass duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures the metrics.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "stencil",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Status label values of passes_total.
const (
	StatusOK          = "ok"
	StatusError       = "error"
	StatusBuildFailed = "build_failed"
)

// Metrics holds the collectors. It is safe for concurrent use.
type Metrics struct {
	passesTotal     *prometheus.CounterVec
	passDuration    *prometheus.HistogramVec
	buildFailures   *prometheus.CounterVec
	reconciledNodes *prometheus.CounterVec
	hostMutations   *prometheus.CounterVec
	streamClients   prometheus.Gauge
}

var _ app.Observer = (*Metrics)(nil)

// New registers the collectors. Registering twice on the same registry
// panics, as promauto does.
func New(opts ...Option) *Metrics {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		passesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "passes_total",
			Help:        "Total number of render passes",
			ConstLabels: config.ConstLabels,
		}, []string{"instance", "status"}),

		passDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "pass_duration_seconds",
			Help:        "Render pass duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"instance"}),

		buildFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "build_failures_total",
			Help:        "Total number of template builds that failed",
			ConstLabels: config.ConstLabels,
		}, []string{"instance"}),

		reconciledNodes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "reconciled_nodes_total",
			Help:        "Reconciler outcomes by kind",
			ConstLabels: config.ConstLabels,
		}, []string{"outcome"}),

		hostMutations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "host_mutations_total",
			Help:        "Total number of host tree mutations by operation",
			ConstLabels: config.ConstLabels,
		}, []string{"op"}),

		streamClients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "stream_clients",
			Help:        "Number of connected mutation stream clients",
			ConstLabels: config.ConstLabels,
		}),
	}
}

// PassStarted implements app.Observer.
func (m *Metrics) PassStarted(app.PassInfo) {}

// PassFinished implements app.Observer.
func (m *Metrics) PassFinished(res app.PassResult) {
	m.passDuration.WithLabelValues(res.Instance).Observe(res.Duration.Seconds())

	status := StatusOK
	switch {
	case res.BuildFailed:
		status = StatusBuildFailed
	case res.Err != nil:
		status = StatusError
	}
	m.passesTotal.WithLabelValues(res.Instance, status).Inc()
	if res.BuildFailed {
		return
	}

	s := res.Stats
	m.reconciledNodes.WithLabelValues("created").Add(float64(s.Created))
	m.reconciledNodes.WithLabelValues("removed").Add(float64(s.Removed))
	m.reconciledNodes.WithLabelValues("moved").Add(float64(s.Moved))
	m.reconciledNodes.WithLabelValues("updated").Add(float64(s.Updated))
	m.reconciledNodes.WithLabelValues("reused").Add(float64(s.Reused))
}

// BuildFailed implements app.Observer.
func (m *Metrics) BuildFailed(info app.PassInfo, _ error) {
	m.buildFailures.WithLabelValues(info.Instance).Inc()
}

// ClientConnected records a new mutation stream client.
func (m *Metrics) ClientConnected() { m.streamClients.Inc() }

// ClientDisconnected records a mutation stream client going away.
func (m *Metrics) ClientDisconnected() { m.streamClients.Dec() }
