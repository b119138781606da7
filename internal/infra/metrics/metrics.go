package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"kebbi/internal/application"
	"kebbi/internal/domain"
)

const namespace = "kebbi"

// Metrics holds every collector of the process. It is registered against its
// own registry so tests can build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	RequestCount      *prometheus.CounterVec
	RequestDuration   *prometheus.HistogramVec
	GenerationCount   *prometheus.CounterVec
	GenerationLatency *prometheus.HistogramVec
	IntentCount       *prometheus.CounterVec
	RecordsStored     *prometheus.CounterVec
	RecordsDropped    *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		RequestCount: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
		GenerationCount: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "generation_requests_total",
				Help:      "Calls to the generation service by outcome",
			},
			[]string{"provider", "outcome"},
		),
		GenerationLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "generation_latency_seconds",
				Help:      "Generation latency in seconds",
				Buckets:   []float64{.25, .5, 1, 2, 4, 8, 16, 32},
			},
			[]string{"provider"},
		),
		IntentCount: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "intents_total",
				Help:      "Classified utterances by intent",
			},
			[]string{"intent"},
		),
		RecordsStored: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "records_stored_total",
				Help:      "Records appended per collection",
			},
			[]string{"collection"},
		),
		RecordsDropped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "records_dropped_total",
				Help:      "Records not stored per collection and reason",
			},
			[]string{"collection", "reason"},
		),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) IntentClassified(kind domain.IntentKind) {
	m.IntentCount.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) RecordStored(collection string) {
	m.RecordsStored.WithLabelValues(collection).Inc()
}

func (m *Metrics) RecordDropped(collection, reason string) {
	m.RecordsDropped.WithLabelValues(collection, reason).Inc()
}

type instrumentedGenerator struct {
	next     application.Generator
	provider string
	m        *Metrics
}

// InstrumentGenerator counts and times every call made through gen.
func (m *Metrics) InstrumentGenerator(gen application.Generator, provider string) application.Generator {
	return &instrumentedGenerator{next: gen, provider: provider, m: m}
}

func (g *instrumentedGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	text, err := g.next.Generate(ctx, prompt)
	g.m.GenerationLatency.WithLabelValues(g.provider).Observe(time.Since(start).Seconds())

	outcome := "ok"
	switch {
	case err != nil:
		outcome = "error"
	case text == "":
		outcome = "empty"
	}
	g.m.GenerationCount.WithLabelValues(g.provider, outcome).Inc()
	return text, err
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware records count and duration of requests under endpoint.
func (m *Metrics) Middleware(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)

		m.RequestDuration.WithLabelValues(r.Method, endpoint).Observe(time.Since(start).Seconds())
		m.RequestCount.WithLabelValues(r.Method, endpoint, strconv.Itoa(rec.status)).Inc()
	}
}
