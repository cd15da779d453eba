package evaluating

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vfg2006/traffic-advisor-api/internal/domain"
)

const metricsNamespace = "traffic_advisor"

// Metrics agrupa os coletores da avaliação. Um *Metrics nil não registra nada.
type Metrics struct {
	evaluations     *prometheus.CounterVec
	duration        prometheus.Histogram
	detectorRuns    *prometheus.CounterVec
	detectorLatency *prometheus.HistogramVec
	recommendations *prometheus.CounterVec
	dataQuality     prometheus.Histogram
}

func NewMetrics(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)

	return &Metrics{
		// Labels: status (ok, insufficient_data, error)
		evaluations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "evaluation",
			Name:      "runs_total",
			Help:      "Total de avaliações por desfecho",
		}, []string{"status"}),

		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "evaluation",
			Name:      "duration_seconds",
			Help:      "Duração de uma avaliação completa",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}),

		// Labels: detector, status (ok, no_data, failed, timed_out, skipped)
		detectorRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "detector",
			Name:      "runs_total",
			Help:      "Execuções de detectores por status",
		}, []string{"detector", "status"}),

		detectorLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "detector",
			Name:      "duration_seconds",
			Help:      "Duração de cada detector",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}, []string{"detector"}),

		// Labels: type, severity
		recommendations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "evaluation",
			Name:      "recommendations_total",
			Help:      "Recomendações emitidas por tipo e severidade",
		}, []string{"type", "severity"}),

		dataQuality: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "evaluation",
			Name:      "data_quality_score",
			Help:      "Distribuição do score de qualidade dos dados",
			Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		}),
	}
}

func (m *Metrics) observeEvaluation(status string, started time.Time) {
	if m == nil {
		return
	}
	m.evaluations.WithLabelValues(status).Inc()
	m.duration.Observe(time.Since(started).Seconds())
}

func (m *Metrics) observeReport(report *domain.EvaluationReport) {
	if m == nil || report == nil {
		return
	}

	m.dataQuality.Observe(report.DataQuality.Score)
	for _, detector := range report.Detectors {
		m.detectorRuns.WithLabelValues(detector.Name, string(detector.Status)).Inc()
		if detector.Status != domain.DetectorStatusSkipped {
			m.detectorLatency.WithLabelValues(detector.Name).Observe(float64(detector.DurationMs) / 1000)
		}
	}
	for _, recommendation := range report.Recommendations {
		m.recommendations.WithLabelValues(string(recommendation.Type), string(recommendation.Severity)).Inc()
	}
}
