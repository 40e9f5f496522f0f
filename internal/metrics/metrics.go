// Package metrics exposes harvest telemetry as Prometheus metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/domain"
	"github.com/Jaysooner/gratefulgpt-scraper-dataset/internal/harvest"
)

// Namespace prefixes every metric.
const Namespace = "harvester"

// Metrics implements the fetcher, attachment, and orchestrator observers.
type Metrics struct {
	// Fetch metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RetriesTotal    *prometheus.CounterVec
	RetryDelay      *prometheus.HistogramVec

	// Attachment metrics
	AttachmentsTotal     *prometheus.CounterVec
	AttachmentBytesTotal prometheus.Counter

	// Run metrics
	PagesCommittedTotal *prometheus.CounterVec
	RecordsTotal        *prometheus.CounterVec
	RunsTotal           *prometheus.CounterVec
	RunDuration         *prometheus.HistogramVec
	LastSuccess         *prometheus.GaugeVec
}

// NewMetrics creates and registers all metrics on reg, or on the default
// registerer when reg is nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	factory := promauto.With(reg)
	m := &Metrics{}

	m.initFetchMetrics(factory)
	m.initAttachmentMetrics(factory)
	m.initRunMetrics(factory)

	return m
}

func (m *Metrics) initFetchMetrics(factory promauto.Factory) {
	m.RequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "fetch",
			Name:      "requests_total",
			Help:      "HTTP attempts by request kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	m.RequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "fetch",
			Name:      "request_duration_seconds",
			Help:      "Duration of one HTTP attempt",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
		},
		[]string{"kind"},
	)

	m.RetriesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "fetch",
			Name:      "retries_total",
			Help:      "Retries scheduled after a retryable failure",
		},
		[]string{"kind"},
	)

	m.RetryDelay = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "fetch",
			Name:      "retry_delay_seconds",
			Help:      "Backoff delay before a retry",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 9),
		},
		[]string{"kind"},
	)
}

func (m *Metrics) initAttachmentMetrics(factory promauto.Factory) {
	m.AttachmentsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "attachments",
			Name:      "total",
			Help:      "Resolved attachments by outcome",
		},
		[]string{"outcome"},
	)

	m.AttachmentBytesTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "attachments",
			Name:      "bytes_total",
			Help:      "Bytes written for downloaded attachments",
		},
	)
}

func (m *Metrics) initRunMetrics(factory promauto.Factory) {
	m.PagesCommittedTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "sink",
			Name:      "pages_committed_total",
			Help:      "Listing pages committed to the sink",
		},
		[]string{"source"},
	)

	m.RecordsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "sink",
			Name:      "records_total",
			Help:      "Records seen at commit by result (written, skipped, degraded)",
		},
		[]string{"source", "result"},
	)

	m.RunsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "run",
			Name:      "total",
			Help:      "Finished runs by terminal state",
		},
		[]string{"source", "state"},
	)

	m.RunDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "run",
			Name:      "duration_seconds",
			Help:      "Wall time of a run",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 16), // 1s to ~9h
		},
		[]string{"source"},
	)

	m.LastSuccess = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "run",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run",
		},
		[]string{"source"},
	)
}

// ObserveAttempt records one HTTP attempt.
func (m *Metrics) ObserveAttempt(kind, outcome string, elapsed time.Duration) {
	m.RequestsTotal.WithLabelValues(kind, outcome).Inc()
	m.RequestDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// ObserveRetry records a scheduled retry.
func (m *Metrics) ObserveRetry(kind string, delay time.Duration) {
	m.RetriesTotal.WithLabelValues(kind).Inc()
	m.RetryDelay.WithLabelValues(kind).Observe(delay.Seconds())
}

// ObserveDownload records a resolved attachment.
func (m *Metrics) ObserveDownload(outcome domain.Outcome, bytes int64) {
	m.AttachmentsTotal.WithLabelValues(string(outcome)).Inc()
	if bytes > 0 {
		m.AttachmentBytesTotal.Add(float64(bytes))
	}
}

// PageCommitted records a committed page.
func (m *Metrics) PageCommitted(source string, written, skipped, degraded int) {
	m.PagesCommittedTotal.WithLabelValues(source).Inc()
	m.RecordsTotal.WithLabelValues(source, "written").Add(float64(written))
	m.RecordsTotal.WithLabelValues(source, "skipped").Add(float64(skipped))
	m.RecordsTotal.WithLabelValues(source, "degraded").Add(float64(degraded))
}

// RunFinished records a finished run.
func (m *Metrics) RunFinished(source string, state harvest.State, elapsed time.Duration) {
	m.RunsTotal.WithLabelValues(source, state.String()).Inc()
	m.RunDuration.WithLabelValues(source).Observe(elapsed.Seconds())
	if state == harvest.StateDone {
		m.LastSuccess.WithLabelValues(source).SetToCurrentTime()
	}
}
