package telemetry

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// MetricsClient is the metrics surface used by the worker and the API.
type MetricsClient interface {
	IncrementQueuePushCounter(status string)
	IncrementServerRequestCounter(status string)
	IncrementJobCounter(status string)
	IncrementRenditionCounter(quality, outcome string)
	ObserveJobDuration(status string, d time.Duration)
	ObserveRenditionDuration(quality string, d time.Duration)
	SetActiveEncodes(n int)
}

// DefaultMetricsClient holds all the Prometheus metrics for the application
type DefaultMetricsClient struct {
	QueuePushCounter     *prometheus.CounterVec
	ServerRequestCounter *prometheus.CounterVec
	JobCounter           *prometheus.CounterVec
	RenditionCounter     *prometheus.CounterVec
	JobDuration          *prometheus.HistogramVec
	RenditionDuration    *prometheus.HistogramVec
	ActiveEncodes        prometheus.Gauge
}

// NewDefaultMetricsClient registers metrics with the default registry.
func NewDefaultMetricsClient() (*DefaultMetricsClient, error) {
	return NewMetricsClient(prometheus.DefaultRegisterer)
}

// NewMetricsClient initializes and registers Prometheus metrics
func NewMetricsClient(reg prometheus.Registerer) (*DefaultMetricsClient, error) {
	m := &DefaultMetricsClient{
		QueuePushCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "transcoding_jobs_submitted_total",
				Help: "Total number of jobs pushed onto the queue",
			},
			[]string{"submitted"},
		),
		ServerRequestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "server_request_total",
				Help: "Total number of server requests",
			},
			[]string{"status"},
		),
		JobCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "transcoding_jobs_total",
				Help: "Jobs finished by terminal status",
			},
			[]string{"status"},
		),
		RenditionCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "transcoding_renditions_total",
				Help: "Rendition encodes by quality and outcome",
			},
			[]string{"quality", "outcome"},
		),
		JobDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "transcoding_job_duration_seconds",
				Help:    "Wall time from dequeue to terminal status",
				Buckets: prometheus.ExponentialBuckets(5, 2, 10),
			},
			[]string{"status"},
		),
		RenditionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "transcoding_rendition_duration_seconds",
				Help:    "Wall time of one rendition encode",
				Buckets: prometheus.ExponentialBuckets(5, 2, 10),
			},
			[]string{"quality"},
		),
		ActiveEncodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "transcoding_active_encodes",
			Help: "Rendition encodes currently running",
		}),
	}

	for name, c := range map[string]prometheus.Collector{
		"QueuePushCounter":     m.QueuePushCounter,
		"ServerRequestCounter": m.ServerRequestCounter,
		"JobCounter":           m.JobCounter,
		"RenditionCounter":     m.RenditionCounter,
		"JobDuration":          m.JobDuration,
		"RenditionDuration":    m.RenditionDuration,
		"ActiveEncodes":        m.ActiveEncodes,
	} {
		if err := reg.Register(c); err != nil {
			Logger.Error("Failed to register "+name, zap.Error(err))
			return nil, err
		}
	}
	return m, nil
}

func (m *DefaultMetricsClient) IncrementQueuePushCounter(status string) {
	m.QueuePushCounter.WithLabelValues(status).Inc()
}

func (m *DefaultMetricsClient) IncrementServerRequestCounter(status string) {
	m.ServerRequestCounter.WithLabelValues(status).Inc()
}

func (m *DefaultMetricsClient) IncrementJobCounter(status string) {
	m.JobCounter.WithLabelValues(status).Inc()
}

func (m *DefaultMetricsClient) IncrementRenditionCounter(quality, outcome string) {
	m.RenditionCounter.WithLabelValues(quality, outcome).Inc()
}

func (m *DefaultMetricsClient) ObserveJobDuration(status string, d time.Duration) {
	m.JobDuration.WithLabelValues(status).Observe(d.Seconds())
}

func (m *DefaultMetricsClient) ObserveRenditionDuration(quality string, d time.Duration) {
	m.RenditionDuration.WithLabelValues(quality).Observe(d.Seconds())
}

func (m *DefaultMetricsClient) SetActiveEncodes(n int) {
	m.ActiveEncodes.Set(float64(n))
}

// ServeMetrics exposes the default registry on :port/metrics until ctx is
// done.
func ServeMetrics(ctx context.Context, port string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: ":" + port, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	Logger.Info("Starting metrics server", zap.String("port", port))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
