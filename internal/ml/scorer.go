package ml

import (
	"context"
	"time"

	"dropout-risk/internal/dataset"

	"github.com/rs/zerolog/log"
)

// MetricsInterface defines metrics methods needed by the scorer
type MetricsInterface interface {
	RecordsScoredAdd(float64)
	ScoringFailuresInc()
	SchemaErrorsInc()
	ScoringLatencyObserve(float64)
	RiskScoresObserve(float64)
	RiskTierInc(string)
	UnseenCategoriesAdd(float64)
	ModelAgeSet(float64)
}

// Summary counts scored records per tier.
type Summary struct {
	Total             int `json:"total"`
	High              int `json:"high"`
	Medium            int `json:"medium"`
	Low               int `json:"low"`
	PredictedDropouts int `json:"predicted_dropouts"`
}

// ScoreResult is the outcome of scoring one table.
type ScoreResult struct {
	Records []ScoredRecord `json:"records"`
	Summary Summary        `json:"summary"`
	Shift   *ShiftReport   `json:"shift,omitempty"`
}

// Summarize counts records per tier and positive predictions.
func Summarize(records []ScoredRecord) Summary {
	s := Summary{Total: len(records)}
	for _, r := range records {
		switch r.Tier {
		case TierHigh:
			s.High++
		case TierMedium:
			s.Medium++
		default:
			s.Low++
		}
		s.PredictedDropouts += r.Predicted
	}
	return s
}

// Scorer runs a loaded pipeline and records scoring metrics.
type Scorer struct {
	pipeline *Pipeline
	metrics  MetricsInterface
}

// NewScorer wraps a pipeline. metrics may be nil.
func NewScorer(p *Pipeline, metrics MetricsInterface) *Scorer {
	s := &Scorer{pipeline: p, metrics: metrics}
	if metrics != nil && !p.Metadata.TrainedAt.IsZero() {
		metrics.ModelAgeSet(time.Since(p.Metadata.TrainedAt).Seconds())
	}
	return s
}

// Pipeline returns the wrapped pipeline.
func (s *Scorer) Pipeline() *Pipeline {
	return s.pipeline
}

// Score implements RiskScorer.
func (s *Scorer) Score(ctx context.Context, table *dataset.Table) (*ScoreResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	records, shift, err := s.pipeline.Score(table)
	if s.metrics != nil {
		s.metrics.ScoringLatencyObserve(time.Since(start).Seconds())
	}
	if err != nil {
		if s.metrics != nil {
			s.metrics.ScoringFailuresInc()
			if IsSchemaError(err) {
				s.metrics.SchemaErrorsInc()
			}
		}
		return nil, err
	}

	result := &ScoreResult{
		Records: records,
		Summary: Summarize(records),
		Shift:   shift,
	}

	if s.metrics != nil {
		s.metrics.RecordsScoredAdd(float64(len(records)))
		for _, r := range records {
			s.metrics.RiskScoresObserve(r.Probability)
			s.metrics.RiskTierInc(string(r.Tier))
		}
		s.metrics.UnseenCategoriesAdd(float64(shift.UnseenTotal()))
	}

	log.Debug().
		Int("rows", len(records)).
		Int("unseen_categories", shift.UnseenTotal()).
		Int("high", result.Summary.High).
		Dur("elapsed", time.Since(start)).
		Msg("Scored table")

	return result, nil
}
