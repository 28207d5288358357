package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTPServerMetrics registers the api-side metric families: generic HTTP
// surface counters plus retrieval and generation observations.
type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	askTotal               *prometheus.CounterVec
	askDuration            *prometheus.HistogramVec
	subQueriesExpanded     *prometheus.HistogramVec
	referencesRetrieved    *prometheus.HistogramVec
	gateDecisionsTotal     *prometheus.CounterVec
	memoryWriteFailuresTot *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mrag",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mrag",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "mrag",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	askTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mrag",
			Subsystem: "ask",
			Name:      "requests_total",
			Help:      "Total completed ask requests by outcome.",
		},
		[]string{"service", "outcome"},
	)
	askDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mrag",
			Subsystem: "ask",
			Name:      "duration_seconds",
			Help:      "End-to-end ask duration in seconds.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
		[]string{"service"},
	)
	subQueriesExpanded := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mrag",
			Subsystem: "retrieval",
			Name:      "sub_queries",
			Help:      "Distribution of sub-queries fanned out per ask.",
			Buckets:   []float64{1, 2, 3, 4, 5, 6, 8},
		},
		[]string{"service"},
	)
	referencesRetrieved := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mrag",
			Subsystem: "retrieval",
			Name:      "references",
			Help:      "Distribution of ranked references surviving dedup and truncation.",
			Buckets:   []float64{0, 1, 2, 3, 4, 5, 6, 8},
		},
		[]string{"service"},
	)
	gateDecisionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mrag",
			Subsystem: "gate",
			Name:      "decisions_total",
			Help:      "Total answer-gate decisions by status.",
		},
		[]string{"service", "status"},
	)
	memoryWriteFailuresTot := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mrag",
			Subsystem: "memory",
			Name:      "write_failures_total",
			Help:      "Total conversation writes that failed after an answer was produced.",
		},
		[]string{"service"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		askTotal,
		askDuration,
		subQueriesExpanded,
		referencesRetrieved,
		gateDecisionsTotal,
		memoryWriteFailuresTot,
	)

	return &HTTPServerMetrics{
		registry:               registry,
		requestTotal:           requestTotal,
		requestDuration:        requestDuration,
		requestInFlight:        requestInFlight,
		askTotal:               askTotal,
		askDuration:            askDuration,
		subQueriesExpanded:     subQueriesExpanded,
		referencesRetrieved:    referencesRetrieved,
		gateDecisionsTotal:     gateDecisionsTotal,
		memoryWriteFailuresTot: memoryWriteFailuresTot,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/documents/"):
		return "/v1/documents/{document_id}"
	default:
		return path
	}
}

func (m *HTTPServerMetrics) RecordAsk(service, outcome string, duration time.Duration) {
	if outcome == "" {
		outcome = "unknown"
	}
	m.askTotal.WithLabelValues(service, outcome).Inc()
	m.askDuration.WithLabelValues(service).Observe(duration.Seconds())
}

func (m *HTTPServerMetrics) RecordRetrieval(service string, subQueries, references int) {
	m.subQueriesExpanded.WithLabelValues(service).Observe(float64(subQueries))
	m.referencesRetrieved.WithLabelValues(service).Observe(float64(references))
}

func (m *HTTPServerMetrics) RecordGateDecision(service, status string) {
	if status == "" {
		status = "unknown"
	}
	m.gateDecisionsTotal.WithLabelValues(service, status).Inc()
}

func (m *HTTPServerMetrics) RecordMemoryWriteFailure(service string) {
	m.memoryWriteFailuresTot.WithLabelValues(service).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
