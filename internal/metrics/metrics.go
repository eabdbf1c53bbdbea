package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// JobMetrics counts print job activity. A nil *JobMetrics records nothing.
type JobMetrics struct {
	submitted   *prometheus.CounterVec
	transitions *prometheus.CounterVec
	uploadBytes prometheus.Histogram
	rejected    *prometheus.CounterVec
}

// NewJobMetrics creates the collectors and registers them with reg.
func NewJobMetrics(reg prometheus.Registerer) (*JobMetrics, error) {
	m := &JobMetrics{
		submitted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "print_jobs_submitted_total",
				Help: "Total number of print jobs submitted.",
			},
			[]string{"color"},
		),
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "print_job_status_transitions_total",
				Help: "Total number of print job status transitions applied.",
			},
			[]string{"from", "to"},
		),
		uploadBytes: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "print_job_upload_bytes",
				Help:    "Size of uploaded print files in bytes.",
				Buckets: prometheus.ExponentialBuckets(64*1024, 2, 8),
			},
		),
		rejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "print_job_rejections_total",
				Help: "Total number of rejected submissions and transitions, by reason.",
			},
			[]string{"reason"},
		),
	}

	for _, c := range []prometheus.Collector{m.submitted, m.transitions, m.uploadBytes, m.rejected} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *JobMetrics) Submitted(color bool, size int64) {
	if m == nil {
		return
	}
	label := "false"
	if color {
		label = "true"
	}
	m.submitted.WithLabelValues(label).Inc()
	m.uploadBytes.Observe(float64(size))
}

func (m *JobMetrics) Transitioned(from, to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(from, to).Inc()
}

func (m *JobMetrics) Rejected(reason string) {
	if m == nil {
		return
	}
	m.rejected.WithLabelValues(reason).Inc()
}
