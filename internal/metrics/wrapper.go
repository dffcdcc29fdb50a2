package metrics

// MetricsWrapper adapts Metrics to the narrow interfaces the scorer,
// trainer and dashboard depend on.
type MetricsWrapper struct {
	m *Metrics
}

func NewWrapper(m *Metrics) *MetricsWrapper {
	return &MetricsWrapper{m: m}
}

// Metrics returns the wrapped collectors.
func (w *MetricsWrapper) Metrics() *Metrics {
	return w.m
}

func (w *MetricsWrapper) RecordsScoredAdd(v float64) {
	w.m.RecordsScored.Add(v)
}

func (w *MetricsWrapper) ScoringFailuresInc() {
	w.m.ScoringFailures.Inc()
}

func (w *MetricsWrapper) SchemaErrorsInc() {
	w.m.SchemaErrors.Inc()
}

func (w *MetricsWrapper) ScoringLatencyObserve(v float64) {
	w.m.ScoringLatency.Observe(v)
}

func (w *MetricsWrapper) RiskScoresObserve(v float64) {
	w.m.RiskScores.Observe(v)
}

func (w *MetricsWrapper) RiskTierInc(tier string) {
	w.m.RiskTiers.WithLabelValues(tier).Inc()
}

func (w *MetricsWrapper) UnseenCategoriesAdd(v float64) {
	w.m.UnseenCategories.Add(v)
}

func (w *MetricsWrapper) ModelAgeSet(v float64) {
	w.m.ModelAge.Set(v)
}

func (w *MetricsWrapper) TrainingDurationObserve(v float64) {
	w.m.TrainingDuration.Observe(v)
}

func (w *MetricsWrapper) TrainingRowsSet(v float64) {
	w.m.TrainingRows.Set(v)
}

func (w *MetricsWrapper) ModelAUCSet(v float64) {
	w.m.ModelAUC.Set(v)
}

func (w *MetricsWrapper) ModelAccuracySet(v float64) {
	w.m.ModelAccuracy.Set(v)
}

// UploadInc counts one dashboard upload; status is "accepted" or "rejected".
func (w *MetricsWrapper) UploadInc(status string) {
	w.m.Uploads.WithLabelValues(status).Inc()
}

func (w *MetricsWrapper) ActiveSessionsSet(v float64) {
	w.m.ActiveSessions.Set(v)
}
