package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/pscheid92/livepaste/internal/domain"
)

// PasteMetrics holds Prometheus metrics for the shared paste record.
type PasteMetrics struct {
	Updates     *prometheus.CounterVec
	Expirations *prometheus.CounterVec
	ContentSize *prometheus.GaugeVec
}

var _ domain.PasteRecorder = (*PasteMetrics)(nil)

// NewPasteMetrics creates and registers paste metrics on the given registry.
func NewPasteMetrics(reg prometheus.Registerer) *PasteMetrics {
	m := &PasteMetrics{
		Updates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "paste",
			Name:      "updates_total",
			Help:      "Total number of paste updates, by blob and whether content was cleared.",
		}, []string{"blob", "cleared"}),
		Expirations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "paste",
			Name:      "expirations_total",
			Help:      "Total number of times expiring content was cleared, by trigger.",
		}, []string{"trigger"}),
		ContentSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "paste",
			Name:      "content_bytes",
			Help:      "Current size of each blob in bytes.",
		}, []string{"blob"}),
	}

	reg.MustRegister(m.Updates, m.Expirations, m.ContentSize)
	return m
}

// RecordUpdate counts an edit to blob. A size of zero is a clear.
func (m *PasteMetrics) RecordUpdate(blob string, size int) {
	cleared := "false"
	if size == 0 {
		cleared = "true"
	}
	m.Updates.WithLabelValues(blob, cleared).Inc()
	m.ContentSize.WithLabelValues(blob).Set(float64(size))
}

// RecordExpiration counts cleared expiring content. Only the expiring blob expires.
func (m *PasteMetrics) RecordExpiration(trigger string) {
	m.Expirations.WithLabelValues(trigger).Inc()
	m.ContentSize.WithLabelValues(domain.BlobExpiring).Set(0)
}
