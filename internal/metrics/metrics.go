// Package metrics implements the telemetry contract on top of structured
// logging and Prometheus counters.
package metrics

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder counts dispatch events and exceptions. It satisfies the engine's
// Telemetry interface; both methods are fire-and-forget and never return an
// error into dispatch.
type Recorder struct {
	logger     *slog.Logger
	registry   *prometheus.Registry
	events     *prometheus.CounterVec
	exceptions prometheus.Counter
}

// New creates a Recorder with its own Prometheus registry.
func New(logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}

	registry := prometheus.NewRegistry()

	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cliobot",
		Name:      "events_total",
		Help:      "Telemetry events emitted by the dispatch engine.",
	}, []string{"event"})

	exceptions := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "cliobot",
		Name:      "exceptions_total",
		Help:      "Exceptions captured during dispatch.",
	})

	registry.MustRegister(events, exceptions)

	return &Recorder{
		logger:     logger.With("component", "telemetry"),
		registry:   registry,
		events:     events,
		exceptions: exceptions,
	}
}

// CaptureException records a dispatch-level failure.
func (r *Recorder) CaptureException(err error, userID string) {
	if err == nil {
		return
	}
	r.exceptions.Inc()
	r.logger.Error("Captured exception", "error", err, "user_id", userID)
}

// SendEvent records a usage event with its parameters.
func (r *Recorder) SendEvent(name, userID string, params map[string]string) {
	r.events.WithLabelValues(name).Inc()

	args := make([]any, 0, 2*len(params)+2)
	args = append(args, "user_id", userID)
	for k, v := range params {
		args = append(args, k, v)
	}
	r.logger.Info("EVENT: "+name, args...)
}

// Handler exposes the recorder's registry for scraping.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
