// Package metrics defines the Prometheus collectors of the roll flow engine.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "rollflow"

type Metrics struct {
	receiving     *prometheus.CounterVec
	receivedQty   prometheus.Counter
	stageRecords  *prometheus.CounterVec
	warnings      prometheus.Counter
	snapshotBuild prometheus.Histogram
	delivered     prometheus.Counter
	dropped       *prometheus.CounterVec
	subscribers   prometheus.Gauge
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		receiving: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "receiving_submissions_total",
			Help: "Receiving submissions by result.",
		}, []string{"result"}),
		receivedQty: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "received_quantity_total",
			Help: "Quantity accepted by the warehouse.",
		}),
		stageRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "stage_records_total",
			Help: "Stage quantity records by step and result.",
		}, []string{"step", "result"}),
		warnings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "data_quality_warnings_total",
			Help: "Negative derived waste findings recorded.",
		}),
		snapshotBuild: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "snapshot_build_seconds",
			Help:    "Time to load and aggregate a snapshot.",
			Buckets: prometheus.DefBuckets,
		}),
		delivered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "broadcast_delivered_total",
			Help: "Snapshot messages queued to subscribers.",
		}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "broadcast_dropped_total",
			Help: "Snapshot messages dropped by reason.",
		}, []string{"reason"}),
		subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "broadcast_subscribers",
			Help: "Active push subscribers.",
		}),
	}
	reg.MustRegister(m.receiving, m.receivedQty, m.stageRecords, m.warnings,
		m.snapshotBuild, m.delivered, m.dropped, m.subscribers)
	return m
}

func (m *Metrics) Receiving(result string, qty float64) {
	if m == nil {
		return
	}
	m.receiving.WithLabelValues(result).Inc()
	if result == "accepted" {
		m.receivedQty.Add(qty)
	}
}

func (m *Metrics) StageRecord(step, result string) {
	if m == nil {
		return
	}
	m.stageRecords.WithLabelValues(step, result).Inc()
}

func (m *Metrics) Warning() {
	if m == nil {
		return
	}
	m.warnings.Inc()
}

func (m *Metrics) SnapshotBuilt(d time.Duration) {
	if m == nil {
		return
	}
	m.snapshotBuild.Observe(d.Seconds())
}

func (m *Metrics) Delivered() {
	if m == nil {
		return
	}
	m.delivered.Inc()
}

func (m *Metrics) Dropped(reason string) {
	if m == nil {
		return
	}
	m.dropped.WithLabelValues(reason).Inc()
}

func (m *Metrics) Subscribers(n int) {
	if m == nil {
		return
	}
	m.subscribers.Set(float64(n))
}
