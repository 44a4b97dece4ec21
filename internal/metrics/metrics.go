package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Metrics holds the bot's Prometheus collectors.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	commands       *prometheus.CounterVec
	completion     *prometheus.HistogramVec
	imagesAnalyzed *prometheus.CounterVec
	gatherer       prometheus.Gatherer
}

// New creates the collectors and registers them with reg
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		commands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chatbot_commands_total",
				Help: "Handled slash commands by command and outcome.",
			},
			[]string{"command", "outcome"},
		),
		completion: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "chatbot_completion_duration_seconds",
				Help:    "Latency of completion service calls.",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			},
			[]string{"kind", "result"},
		),
		imagesAnalyzed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chatbot_images_analyzed_total",
				Help: "Images sent to the vision model by result.",
			},
			[]string{"result"},
		),
		gatherer: reg,
	}

	reg.MustRegister(m.commands, m.completion, m.imagesAnalyzed)
	return m
}

// CommandHandled counts one handled command
func (m *Metrics) CommandHandled(command, outcome string) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(command, outcome).Inc()
}

// CompletionObserved records the duration of one completion call.
// kind is "text" or "vision".
func (m *Metrics) CompletionObserved(kind string, d time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.completion.WithLabelValues(kind, result).Observe(d.Seconds())
}

// ImageAnalyzed counts one vision attempt
func (m *Metrics) ImageAnalyzed(ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "failed"
	}
	m.imagesAnalyzed.WithLabelValues(result).Inc()
}

// Serve exposes /metrics on addr until ctx is cancelled
func (m *Metrics) Serve(ctx context.Context, addr string, logger zerolog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info().Str("addr", addr).Msg("Metrics server listening")

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
