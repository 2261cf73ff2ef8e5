package binlog

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	opWrite = "write"
	opRead  = "read"
)

// Metrics holds the Prometheus metrics of the binlog. A nil *Metrics records
// nothing.
type Metrics struct {
	commitsTotal       *prometheus.CounterVec
	bytesTotal         *prometheus.CounterVec
	verifyFailureTotal *prometheus.CounterVec
	seeksTotal         prometheus.Counter
	appendDuration     prometheus.Histogram
	indexEntries       prometheus.Gauge
}

// NewMetrics creates the binlog metrics and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		commitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zeon_binlog_commits_total",
				Help: "Total number of commits written or read",
			},
			[]string{"operation"},
		),

		bytesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zeon_binlog_bytes_total",
				Help: "Total number of bytes written or read per file",
			},
			[]string{"operation", "stream"},
		),

		verifyFailureTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zeon_binlog_verify_failures_total",
				Help: "Total number of records that failed verification",
			},
			[]string{"reason"},
		),

		seeksTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "zeon_binlog_content_seeks_total",
				Help: "Total number of seeks issued on the content file",
			},
		),

		appendDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "zeon_binlog_append_duration_seconds",
				Help:    "Time taken to append one commit including flushes",
				Buckets: prometheus.DefBuckets,
			},
		),

		indexEntries: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "zeon_binlog_index_entries",
				Help: "Number of records held by the in-memory index",
			},
		),
	}
}

func (m *Metrics) recordWrite(indexBytes, contentBytes int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.commitsTotal.WithLabelValues(opWrite).Inc()
	m.bytesTotal.WithLabelValues(opWrite, StreamIndex.String()).Add(float64(indexBytes))
	m.bytesTotal.WithLabelValues(opWrite, StreamContent.String()).Add(float64(contentBytes))
	m.appendDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) recordRead(indexBytes, contentBytes int) {
	if m == nil {
		return
	}
	m.commitsTotal.WithLabelValues(opRead).Inc()
	m.bytesTotal.WithLabelValues(opRead, StreamIndex.String()).Add(float64(indexBytes))
	m.bytesTotal.WithLabelValues(opRead, StreamContent.String()).Add(float64(contentBytes))
}

func (m *Metrics) recordFailure(err error) {
	if m == nil {
		return
	}
	reason := "other"
	switch {
	case errors.Is(err, ErrHashMismatch):
		reason = "hash"
	case errors.Is(err, ErrPtrMismatch):
		reason = "ptr"
	case errors.Is(err, ErrIdent):
		reason = "ident"
	case errors.As(err, new(*IOError)):
		reason = "io"
	}
	m.verifyFailureTotal.WithLabelValues(reason).Inc()
}

func (m *Metrics) recordSeek() {
	if m == nil {
		return
	}
	m.seeksTotal.Inc()
}

func (m *Metrics) setIndexEntries(n int) {
	if m == nil {
		return
	}
	m.indexEntries.Set(float64(n))
}
