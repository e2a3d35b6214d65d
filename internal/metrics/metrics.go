package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const namespace = "roomload"

// Metrics exposes the run's progress to Prometheus. Each run owns its own
// registry so tests and repeated runs do not collide.
type Metrics struct {
	registry *prometheus.Registry

	Requests *prometheus.CounterVec
	Latency  *prometheus.HistogramVec
	Inflight prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "move_requests_total",
			Help:      "Move requests sent, by room, player and outcome",
		}, []string{"room", "player", "outcome"}),
		Latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "move_latency_seconds",
			Help:      "Elapsed time of move requests by room",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}, []string{"room"}),
		Inflight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "inflight_requests",
			Help:      "Move requests currently waiting on the backend",
		}),
	}
}

func (m *Metrics) Observe(room, player string, success bool, latency time.Duration) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	m.Requests.WithLabelValues(room, player, outcome).Inc()
	m.Latency.WithLabelValues(room).Observe(latency.Seconds())
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Serve exposes /metrics on addr until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string, log *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Info("metrics endpoint listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
