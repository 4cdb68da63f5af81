package telemetry

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Default tracer name for gousse applications.
const defaultTracerName = "gousse"

// Config configures metric names and the tracer.
type Config struct {
	// Namespace is the metrics namespace (default: "gousse").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for render and dispatch durations.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry receives the metrics. Default: a fresh registry per
	// Telemetry, so several apps can live in one process.
	Registry prometheus.Registerer

	// TracerName is the name of the tracer (default: "gousse").
	TracerName string
}

// Option configures a Telemetry.
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

// WithTracerName sets the tracer name.
func WithTracerName(name string) Option {
	return func(c *Config) {
		c.TracerName = name
	}
}

func defaultConfig() Config {
	return Config{
		Namespace:  "gousse",
		Buckets:    prometheus.DefBuckets,
		TracerName: defaultTracerName,
	}
}

// Telemetry holds the metrics and tracer of one application.
type Telemetry struct {
	registry prometheus.Registerer
	gatherer prometheus.Gatherer
	tracer   trace.Tracer

	published      *prometheus.CounterVec
	subscriptions  prometheus.Gauge
	renders        *prometheus.HistogramVec
	renderErrors   *prometheus.CounterVec
	navigations    *prometheus.CounterVec
	activeSessions prometheus.Gauge
	frames         *prometheus.CounterVec
}

// New creates a Telemetry and registers its collectors.
func New(opts ...Option) *Telemetry {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	if config.Registry == nil {
		config.Registry = prometheus.NewRegistry()
	}
	if config.TracerName == "" {
		config.TracerName = defaultTracerName
	}

	factory := promauto.With(config.Registry)
	t := &Telemetry{
		registry: config.Registry,
		tracer:   otel.Tracer(config.TracerName),

		published: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "bus_published_total",
			Help:        "Total number of events published on the bus",
			ConstLabels: config.ConstLabels,
		}, []string{"event"}),

		subscriptions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "bus_subscriptions",
			Help:        "Number of live bus subscriptions",
			ConstLabels: config.ConstLabels,
		}),

		renders: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "component_render_duration_seconds",
			Help:        "Component render duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"component"}),

		renderErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "component_render_errors_total",
			Help:        "Total number of failed component renders",
			ConstLabels: config.ConstLabels,
		}, []string{"component"}),

		navigations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "router_navigations_total",
			Help:        "Total number of route dispatches by outcome",
			ConstLabels: config.ConstLabels,
		}, []string{"outcome"}),

		activeSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "active_sessions",
			Help:        "Number of open live sessions",
			ConstLabels: config.ConstLabels,
		}),

		frames: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "live_frames_total",
			Help:        "Total number of live frames by direction and type",
			ConstLabels: config.ConstLabels,
		}, []string{"direction", "type"}),
	}
	if g, ok := config.Registry.(prometheus.Gatherer); ok {
		t.gatherer = g
	}
	return t
}

// Gatherer returns the registry as a Gatherer, or nil when the configured
// registerer cannot gather.
func (t *Telemetry) Gatherer() prometheus.Gatherer {
	if t == nil {
		return nil
	}
	return t.gatherer
}

// Tracer returns the tracer used for spans.
func (t *Telemetry) Tracer() trace.Tracer {
	if t == nil {
		return otel.Tracer(defaultTracerName)
	}
	return t.tracer
}

// Published counts a bus publication.
func (t *Telemetry) Published(event string) {
	if t == nil {
		return
	}
	t.published.WithLabelValues(event).Inc()
}

// Subscribed adjusts the live subscription gauge by delta.
func (t *Telemetry) Subscribed(delta int) {
	if t == nil {
		return
	}
	t.subscriptions.Add(float64(delta))
}

// StartRender opens a span for a component render. The returned func ends
// the span and records the duration, and the error when non-nil.
func (t *Telemetry) StartRender(ctx context.Context, component string) (context.Context, func(err error)) {
	if t == nil {
		return ctx, func(error) {}
	}
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()
	spanCtx, span := t.tracer.Start(ctx, "gousse.render",
		trace.WithAttributes(attribute.String("gousse.component", component)),
	)
	return spanCtx, func(err error) {
		t.renders.WithLabelValues(component).Observe(time.Since(start).Seconds())
		if err != nil {
			t.renderErrors.WithLabelValues(component).Inc()
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}
}

// Navigation outcomes.
const (
	OutcomeMatched    = "matched"
	OutcomeNotFound   = "not_found"
	OutcomeSuppressed = "suppressed"
	OutcomeCleared    = "cleared"
)

// StartNavigation opens a span for a route dispatch. The returned func
// ends it with the outcome.
func (t *Telemetry) StartNavigation(ctx context.Context, url string) (context.Context, func(outcome string)) {
	if t == nil {
		return ctx, func(string) {}
	}
	if ctx == nil {
		ctx = context.Background()
	}
	spanCtx, span := t.tracer.Start(ctx, "gousse.navigate",
		trace.WithAttributes(attribute.String("gousse.url", url)),
	)
	return spanCtx, func(outcome string) {
		t.navigations.WithLabelValues(outcome).Inc()
		span.SetAttributes(attribute.String("gousse.outcome", outcome))
		span.End()
	}
}

// SessionOpened increments the live session gauge.
func (t *Telemetry) SessionOpened() {
	if t == nil {
		return
	}
	t.activeSessions.Inc()
}

// SessionClosed decrements the live session gauge.
func (t *Telemetry) SessionClosed() {
	if t == nil {
		return
	}
	t.activeSessions.Dec()
}

// Frame counts a live frame. direction is "in" or "out".
func (t *Telemetry) Frame(direction, typ string) {
	if t == nil {
		return
	}
	t.frames.WithLabelValues(direction, typ).Inc()
}
