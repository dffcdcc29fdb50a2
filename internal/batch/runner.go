// Package batch scores a whole input file with a RiskScorer and writes the
// predictions table plus optional summary reports.
package batch

import (
	"context"
	"fmt"
	"time"

	"dropout-risk/internal/dataset"
	"dropout-risk/internal/ml"

	"github.com/rs/zerolog/log"
)

// Results holds the outcome of one batch run.
type Results struct {
	Input     string
	Records   []ml.ScoredRecord
	Summary   ml.Summary
	Shift     *ml.ShiftReport
	StartTime time.Time
	EndTime   time.Time
}

// Runner scores input files.
type Runner struct {
	scorer ml.RiskScorer
}

// NewRunner creates a runner over a local or remote scorer.
func NewRunner(scorer ml.RiskScorer) *Runner {
	return &Runner{scorer: scorer}
}

// Run loads the file at path and scores every row. The label column may be
// present; it is ignored.
func (r *Runner) Run(ctx context.Context, path string) (*Results, error) {
	table, err := dataset.Load(path)
	if err != nil {
		return nil, err
	}
	return r.RunTable(ctx, path, table)
}

// RunTable scores an already loaded table; name is used for reporting only.
func (r *Runner) RunTable(ctx context.Context, name string, table *dataset.Table) (*Results, error) {
	start := time.Now()

	result, err := r.scorer.Score(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("failed to score %s: %w", name, err)
	}
	if len(result.Records) != table.Len() {
		return nil, fmt.Errorf("scorer returned %d records for %d rows", len(result.Records), table.Len())
	}

	if result.Shift != nil {
		for _, w := range result.Shift.Warnings() {
			log.Warn().Str("input", name).Msg(w)
		}
	}

	res := &Results{
		Input:     name,
		Records:   result.Records,
		Summary:   result.Summary,
		Shift:     result.Shift,
		StartTime: start,
		EndTime:   time.Now(),
	}

	log.Info().
		Str("input", name).
		Int("rows", res.Summary.Total).
		Int("high", res.Summary.High).
		Int("medium", res.Summary.Medium).
		Int("low", res.Summary.Low).
		Msg("Batch scored")

	return res, nil
}
