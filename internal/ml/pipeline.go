package ml

import (
	"errors"
	"fmt"
	"time"

	"dropout-risk/internal/dataset"
)

// Metadata describes how and when a pipeline was trained.
type Metadata struct {
	TrainedAt    time.Time `json:"trained_at"`
	TrainingRows int       `json:"training_rows"`
	TestRows     int       `json:"test_rows"`
	PositiveRate float64   `json:"positive_rate"`
	Report       *Report   `json:"report,omitempty"`
}

// Pipeline bundles the fitted preprocessing state, the forest and the
// target rule used for training.
type Pipeline struct {
	Preprocessor *Preprocessor `json:"preprocessor"`
	Forest       *Forest       `json:"forest"`
	Target       TargetRule    `json:"target"`
	Metadata     Metadata      `json:"metadata"`
}

// ScoredRecord is one scored input row. StudentID is the row's position in
// the input table.
type ScoredRecord struct {
	StudentID   int     `json:"student_id"`
	Probability float64 `json:"risk_score"`
	Tier        Tier    `json:"risk_level"`
	Predicted   int     `json:"predicted_dropout"`
}

// FitPipeline derives the target, fits preprocessing on every non-label
// column and trains the forest on the transformed rows.
func FitPipeline(table *dataset.Table, rule TargetRule, params ForestParams) (*Pipeline, error) {
	y, err := rule.Derive(table)
	if err != nil {
		return nil, err
	}

	pre, err := FitPreprocessor(table, rule.LabelColumn)
	if err != nil {
		return nil, err
	}

	X, err := pre.Transform(table)
	if err != nil {
		return nil, fmt.Errorf("failed to transform training data: %w", err)
	}

	forest, err := FitForest(X, y, params)
	if err != nil {
		return nil, err
	}

	positives := 0
	for _, v := range y {
		positives += v
	}

	return &Pipeline{
		Preprocessor: pre,
		Forest:       forest,
		Target:       rule,
		Metadata: Metadata{
			TrainedAt:    time.Now().UTC(),
			TrainingRows: len(y),
			PositiveRate: float64(positives) / float64(len(y)),
		},
	}, nil
}

// PredictProba returns the positive-class probability for every row.
func (p *Pipeline) PredictProba(table *dataset.Table) ([]float64, error) {
	X, err := p.Preprocessor.Transform(table)
	if err != nil {
		return nil, err
	}
	return p.predictMatrix(X), nil
}

func (p *Pipeline) predictMatrix(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i, x := range X {
		out[i] = p.Forest.PredictProba(x)
	}
	return out
}

// Score transforms and scores a table, returning one record per row along
// with the input shift report.
func (p *Pipeline) Score(table *dataset.Table) ([]ScoredRecord, *ShiftReport, error) {
	X, report, err := p.Preprocessor.transform(table)
	if err != nil {
		return nil, nil, err
	}

	records := make([]ScoredRecord, len(X))
	for i, prob := range p.predictMatrix(X) {
		records[i] = ScoredRecord{
			StudentID:   i,
			Probability: prob,
			Tier:        TierFor(prob),
			Predicted:   PredictedLabel(prob),
		}
	}
	return records, report, nil
}

// FeatureNames lists the expanded feature names in model column order.
func (p *Pipeline) FeatureNames() []string {
	return p.Preprocessor.FeatureNames()
}

// FeatureImportances pairs every expanded feature name with the forest's
// importance score.
func (p *Pipeline) FeatureImportances() ([]FeatureImportance, error) {
	return PairImportances(p.FeatureNames(), p.Forest.Importances)
}

// Validate checks that a decoded pipeline is internally consistent.
func (p *Pipeline) Validate() error {
	if p.Preprocessor == nil || p.Preprocessor.Numeric == nil || p.Preprocessor.Categorical == nil {
		return errors.New("pipeline has no preprocessing state")
	}
	if p.Forest == nil {
		return errors.New("pipeline has no forest")
	}

	num := p.Preprocessor.Numeric
	if len(num.Mean) != len(num.Columns) || len(num.Scale) != len(num.Columns) {
		return errors.New("scaler parameters do not match its columns")
	}
	if len(p.Preprocessor.Categorical.Categories) != len(p.Preprocessor.Categorical.Columns) {
		return errors.New("encoder vocabularies do not match its columns")
	}
	if w := p.Preprocessor.Width(); w != p.Forest.NumFeatures {
		return fmt.Errorf("preprocessing produces %d features but forest expects %d", w, p.Forest.NumFeatures)
	}
	if p.Target.LabelColumn == "" || len(p.Target.PositiveLabels) == 0 {
		return errors.New("pipeline has no target rule")
	}
	return p.Forest.Validate()
}
