package observability

import (
	"context"
	"net/http"
	"time"

	grpcprom "github.com/grpc-ecosystem/go-grpc-middleware/providers/prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// MetricsCollector owns the registry behind /metrics: gRPC server metrics
// plus the ingest pipeline metrics.
type MetricsCollector struct {
	registry      *prometheus.Registry
	serverMetrics *grpcprom.ServerMetrics
	pipeline      *PipelineMetrics
	handler       http.Handler
}

// InitMetrics builds a fresh registry with process, Go runtime, gRPC and
// pipeline collectors registered.
func InitMetrics() (*MetricsCollector, error) {
	reg := prometheus.NewRegistry()

	serverMetrics := grpcprom.NewServerMetrics(
		grpcprom.WithServerHandlingTimeHistogram(
			grpcprom.WithHistogramBuckets([]float64{0.001, 0.01, 0.1, 0.5, 1, 2.5, 5, 10}),
		),
	)

	for _, c := range []prometheus.Collector{
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		serverMetrics,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	pipeline, err := NewPipelineMetrics(reg)
	if err != nil {
		return nil, err
	}

	return &MetricsCollector{
		registry:      reg,
		serverMetrics: serverMetrics,
		pipeline:      pipeline,
		handler:       promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
	}, nil
}

// GetServerMetrics returns the gRPC server metrics
func (mc *MetricsCollector) GetServerMetrics() *grpcprom.ServerMetrics {
	return mc.serverMetrics
}

// Pipeline returns the ingest pipeline metrics
func (mc *MetricsCollector) Pipeline() *PipelineMetrics {
	return mc.pipeline
}

// GetHandler returns the HTTP handler for /metrics endpoint
func (mc *MetricsCollector) GetHandler() http.Handler {
	return mc.handler
}

// PipelineMetrics counts pipeline outcomes. A nil *PipelineMetrics is valid
// and records nothing.
type PipelineMetrics struct {
	processed     *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	downloadBytes prometheus.Histogram
	mimeMismatch  prometheus.Counter
}

func NewPipelineMetrics(reg prometheus.Registerer) (*PipelineMetrics, error) {
	m := &PipelineMetrics{
		processed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fileingest_files_processed_total",
			Help: "Messages run through the ingest pipeline, by record kind and outcome.",
		}, []string{"kind", "outcome"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fileingest_stage_duration_seconds",
			Help:    "Time spent in each pipeline stage.",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 2.5, 5, 10},
		}, []string{"stage"}),
		downloadBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "fileingest_download_bytes",
			Help:    "Size of downloaded files.",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 10),
		}),
		mimeMismatch: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fileingest_mime_mismatch_total",
			Help: "Documents whose declared MIME type disagrees with the sniffed one.",
		}),
	}

	for _, c := range []prometheus.Collector{m.processed, m.stageDuration, m.downloadBytes, m.mimeMismatch} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *PipelineMetrics) ObserveOutcome(kind, outcome string) {
	if m == nil {
		return
	}
	m.processed.WithLabelValues(kind, outcome).Inc()
}

func (m *PipelineMetrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (m *PipelineMetrics) ObserveDownload(n int) {
	if m == nil {
		return
	}
	m.downloadBytes.Observe(float64(n))
}

func (m *PipelineMetrics) MimeMismatch() {
	if m == nil {
		return
	}
	m.mimeMismatch.Inc()
}

// HealthFunc reports whether a dependency is usable.
type HealthFunc func(ctx context.Context) error

// NewAdminServer returns the HTTP server for /health and /metrics. The
// caller runs ListenAndServe and Shutdown.
func NewAdminServer(addr string, metrics http.Handler, logger *zap.Logger, checks ...HealthFunc) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		for _, check := range checks {
			if err := check(ctx); err != nil {
				logger.Warn("health check failed", zap.Error(err))
				http.Error(w, "UNAVAILABLE", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.Handle("/metrics", metrics)

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
