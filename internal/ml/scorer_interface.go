// Package ml provides the dropout-risk model: preprocessing (standard
// scaling and one-hot encoding), a random forest classifier, risk tiering,
// feature importance, input shift reporting and evaluation.
//
// A fitted Pipeline is immutable once loaded and safe for concurrent
// scoring from any number of goroutines.
package ml

import (
	"context"

	"dropout-risk/internal/dataset"
)

// RiskScorer scores a table of student records. The local Scorer and the
// remote dashboard client both implement it.
type RiskScorer interface {
	// Score returns one scored record per table row, in row order.
	Score(ctx context.Context, table *dataset.Table) (*ScoreResult, error)
}
