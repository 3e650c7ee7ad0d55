package metrics

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics pipeline counters. A nil *Metrics is valid and records nothing.
type Metrics struct {
	messages       *prometheus.CounterVec
	classification *prometheus.HistogramVec
	ledgerWrites   *prometheus.CounterVec
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// Default registers on the global registry once
func Default(serviceName string) *Metrics {
	defaultOnce.Do(func() {
		defaultMetrics = New(prometheus.DefaultRegisterer, serviceName)
	})
	return defaultMetrics
}

func ResetDefaultForTest() {
	defaultOnce = sync.Once{}
	defaultMetrics = nil
}

func New(registerer prometheus.Registerer, serviceName string) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	serviceName = strings.TrimSpace(serviceName)
	if serviceName == "" {
		serviceName = "catat-worker"
	}
	constLabels := prometheus.Labels{"service": serviceName}

	m := &Metrics{
		messages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "catat_messages_total",
				Help:        "Inbound messages handled, by resolved domain and outcome.",
				ConstLabels: constLabels,
			},
			[]string{"domain", "outcome"}, // outcome: ok, panic, or the failure kind
		),
		classification: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:        "catat_classification_duration_seconds",
				Help:        "Latency of calls to the classification service.",
				Buckets:     []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30},
				ConstLabels: constLabels,
			},
			[]string{"domain", "modality"},
		),
		ledgerWrites: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "catat_ledger_writes_total",
				Help:        "Ledger rows appended or removed.",
				ConstLabels: constLabels,
			},
			[]string{"domain", "result"}, // appended | removed | failed
		),
	}
	registerer.MustRegister(m.messages, m.classification, m.ledgerWrites)
	return m
}

func (m *Metrics) Message(domain, outcome string) {
	if m == nil {
		return
	}
	if domain == "" {
		domain = "none"
	}
	m.messages.WithLabelValues(domain, outcome).Inc()
}

func (m *Metrics) ObserveClassification(domain, modality string, started time.Time) {
	if m == nil {
		return
	}
	m.classification.WithLabelValues(domain, modality).Observe(time.Since(started).Seconds())
}

func (m *Metrics) LedgerRows(domain, result string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.ledgerWrites.WithLabelValues(domain, result).Add(float64(n))
}
