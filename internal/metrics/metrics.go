package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ytbili/internal/queue"
)

const namespace = "ytbili"

// Upload results recorded by ObserveUpload.
const (
	UploadSucceeded = "succeeded"
	UploadFailed    = "failed"
	UploadSkipped   = "skipped"
)

// StatsFunc reports current queue counts by status.
type StatsFunc func(ctx context.Context) (map[queue.Status]int, error)

// Metrics owns a private registry so tests and multiple daemons never collide
// on the global default registry.
type Metrics struct {
	registry      *prometheus.Registry
	jobsSubmitted prometheus.Counter
	stageDuration *prometheus.HistogramVec
	stageFailures *prometheus.CounterVec
	uploads       *prometheus.CounterVec
}

// New builds the metric set. stats may be nil when no queue is attached.
func New(stats StatsFunc) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		jobsSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_submitted_total",
			Help:      "Jobs accepted into the queue.",
		}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Wall time of each stage execution.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200, 3600, 7200},
		}, []string{"stage"}),
		stageFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_failures_total",
			Help:      "Stage executions that failed the job.",
		}, []string{"stage"}),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Bilibili upload outcomes.",
		}, []string{"result"}),
	}
	m.registry.MustRegister(m.jobsSubmitted, m.stageDuration, m.stageFailures, m.uploads)
	if stats != nil {
		m.registry.MustRegister(&queueCollector{stats: stats, desc: queueItemsDesc})
	}
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// JobSubmitted counts an accepted submission.
func (m *Metrics) JobSubmitted() {
	if m == nil {
		return
	}
	m.jobsSubmitted.Inc()
}

// ObserveStage records one stage run.
func (m *Metrics) ObserveStage(stage string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
	if err != nil {
		m.stageFailures.WithLabelValues(stage).Inc()
	}
}

// ObserveUpload records an upload outcome.
func (m *Metrics) ObserveUpload(result string) {
	if m == nil {
		return
	}
	m.uploads.WithLabelValues(result).Inc()
}

var queueItemsDesc = prometheus.NewDesc(
	prometheus.BuildFQName(namespace, "", "queue_items"),
	"Jobs in the queue by status.",
	[]string{"status"}, nil,
)

// queueCollector reads queue stats at scrape time.
type queueCollector struct {
	stats StatsFunc
	desc  *prometheus.Desc
}

func (c *queueCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
}

func (c *queueCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	stats, err := c.stats(ctx)
	if err != nil {
		ch <- prometheus.NewInvalidMetric(c.desc, err)
		return
	}
	for _, status := range queue.AllStatuses() {
		ch <- prometheus.MustNewConstMetric(c.desc, prometheus.GaugeValue, float64(stats[status]), string(status))
	}
}
