package ml

import "sync"

// MockMetrics implements MetricsInterface for testing
type MockMetrics struct {
	mu           sync.Mutex
	scored       float64
	failures     int
	schemaErrors int
	latencySum   float64
	riskScores   []float64
	tiers        map[string]int
	unseen       float64
	modelAge     float64
}

func (m *MockMetrics) RecordsScoredAdd(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scored += v
}

func (m *MockMetrics) ScoringFailuresInc() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures++
}

func (m *MockMetrics) SchemaErrorsInc() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.schemaErrors++
}

func (m *MockMetrics) ScoringLatencyObserve(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latencySum += v
}

func (m *MockMetrics) RiskScoresObserve(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.riskScores = append(m.riskScores, v)
}

func (m *MockMetrics) RiskTierInc(tier string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tiers == nil {
		m.tiers = make(map[string]int)
	}
	m.tiers[tier]++
}

func (m *MockMetrics) UnseenCategoriesAdd(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unseen += v
}

func (m *MockMetrics) ModelAgeSet(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.modelAge = v
}
