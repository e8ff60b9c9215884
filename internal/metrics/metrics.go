// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "vault"

// Metrics groups the collectors so tests can use a private registry.
type Metrics struct {
	Uploads         *prometheus.CounterVec
	UploadBytes     prometheus.Counter
	CaptionJobs     *prometheus.CounterVec
	CaptionDuration prometheus.Histogram
	Deletes         *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Uploaded files by result.",
		}, []string{"result"}),
		UploadBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upload_bytes_total",
			Help:      "Bytes written to object storage for uploaded videos.",
		}),
		CaptionJobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "caption_jobs_total",
			Help:      "Caption generation runs by result.",
		}, []string{"result"}),
		CaptionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "caption_duration_seconds",
			Help:      "Wall time of caption generation, including download and upload.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
		Deletes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deletes_total",
			Help:      "Deleted records by kind.",
		}, []string{"kind"}),
	}

	reg.MustRegister(m.Uploads, m.UploadBytes, m.CaptionJobs, m.CaptionDuration, m.Deletes)
	return m
}
