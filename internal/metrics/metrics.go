// Package metrics provides Prometheus metrics for the dropout-risk tools.
// It defines the scoring, training and dashboard metrics exposed on the
// dashboard's /metrics endpoint and written to a textfile by the trainer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics.
type Metrics struct {
	// Scoring metrics
	RecordsScored    prometheus.Counter     // Total number of student records scored
	ScoringFailures  prometheus.Counter     // Total number of failed scoring calls
	SchemaErrors     prometheus.Counter     // Scoring calls rejected for schema mismatch
	ScoringLatency   prometheus.Histogram   // Duration of one scoring call
	RiskScores       prometheus.Histogram   // Distribution of dropout probabilities
	RiskTiers        *prometheus.CounterVec // Scored records per risk tier
	UnseenCategories prometheus.Counter     // Categorical values not seen during training
	ModelAge         prometheus.Gauge       // Seconds since the loaded model was trained

	// Training metrics
	TrainingDuration prometheus.Histogram // Duration of a full training run
	TrainingRows     prometheus.Gauge     // Rows used to fit the last model
	ModelAUC         prometheus.Gauge     // Held-out ROC AUC of the last model
	ModelAccuracy    prometheus.Gauge     // Held-out accuracy of the last model

	// Dashboard metrics
	Uploads        *prometheus.CounterVec // Uploaded files by outcome
	ActiveSessions prometheus.Gauge       // Sessions currently holding a scored upload
}

// New creates and registers all metrics using the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics with a custom registry (useful for testing).
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		RecordsScored: factory.NewCounter(prometheus.CounterOpts{
			Name: "dropout_records_scored_total",
			Help: "Total number of student records scored",
		}),
		ScoringFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "dropout_scoring_failures_total",
			Help: "Total number of failed scoring calls",
		}),
		SchemaErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "dropout_schema_errors_total",
			Help: "Total number of scoring calls rejected for schema mismatch",
		}),
		ScoringLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "dropout_scoring_latency_seconds",
			Help:    "Scoring latency in seconds for one table",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}),
		RiskScores: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "dropout_risk_scores",
			Help:    "Distribution of predicted dropout probabilities",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		}),
		RiskTiers: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dropout_risk_tier_total",
			Help: "Total number of scored records per risk tier",
		}, []string{"tier"}),
		UnseenCategories: factory.NewCounter(prometheus.CounterOpts{
			Name: "dropout_unseen_categories_total",
			Help: "Categorical values scored that were not seen during training",
		}),
		ModelAge: factory.NewGauge(prometheus.GaugeOpts{
			Name: "dropout_model_age_seconds",
			Help: "Age of the loaded model in seconds",
		}),
		TrainingDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "dropout_training_duration_seconds",
			Help:    "Duration of a training run in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		TrainingRows: factory.NewGauge(prometheus.GaugeOpts{
			Name: "dropout_training_rows",
			Help: "Number of rows used to fit the last model",
		}),
		ModelAUC: factory.NewGauge(prometheus.GaugeOpts{
			Name: "dropout_model_auc",
			Help: "Held-out ROC AUC of the last trained model",
		}),
		ModelAccuracy: factory.NewGauge(prometheus.GaugeOpts{
			Name: "dropout_model_accuracy",
			Help: "Held-out accuracy of the last trained model",
		}),
		Uploads: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dropout_uploads_total",
			Help: "Total number of dashboard uploads by outcome",
		}, []string{"status"}),
		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "dropout_active_sessions",
			Help: "Dashboard sessions currently holding a scored upload",
		}),
	}
}

// FailureRate returns failed scoring calls divided by all scoring calls, or
// 0 if nothing has been scored yet.
func (m *Metrics) FailureRate() float64 {
	var latency, failures dto.Metric
	if err := m.ScoringLatency.Write(&latency); err != nil {
		return 0
	}
	if err := m.ScoringFailures.Write(&failures); err != nil {
		return 0
	}

	calls := float64(latency.GetHistogram().GetSampleCount())
	if calls == 0 {
		return 0
	}
	return failures.GetCounter().GetValue() / calls
}
