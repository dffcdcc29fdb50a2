// Package training fits the dropout-risk pipeline on a labeled table,
// evaluates it on a stratified hold-out split and writes the artifact.
package training

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dropout-risk/internal/dataset"
	"dropout-risk/internal/ml"
	"dropout-risk/internal/storage"

	"github.com/rs/zerolog/log"
)

// MetricsInterface defines metrics methods needed by the trainer
type MetricsInterface interface {
	TrainingDurationObserve(float64)
	TrainingRowsSet(float64)
	ModelAUCSet(float64)
	ModelAccuracySet(float64)
}

// Options configures one training run.
type Options struct {
	Rule      ml.TargetRule
	Params    ml.ForestParams
	TestRatio float64
}

// Result holds the fitted pipeline and its hold-out evaluation.
type Result struct {
	Pipeline    *ml.Pipeline
	Report      ml.Report
	Importances []ml.FeatureImportance
	TrainRows   int
	TestRows    int
	Duration    time.Duration
}

// Trainer runs training with fixed options.
type Trainer struct {
	opts    Options
	metrics MetricsInterface
}

// New creates a trainer. metrics may be nil.
func New(opts Options, metrics MetricsInterface) *Trainer {
	return &Trainer{opts: opts, metrics: metrics}
}

// Train splits the table, fits the pipeline on the training part and
// evaluates it on the held-out part.
func (t *Trainer) Train(ctx context.Context, table *dataset.Table) (*Result, error) {
	if table == nil || table.Len() == 0 {
		return nil, errors.New("training table is empty")
	}
	start := time.Now()

	y, err := t.opts.Rule.Derive(table)
	if err != nil {
		return nil, err
	}

	trainIdx, testIdx, err := ml.StratifiedSplit(y, t.opts.TestRatio, t.opts.Params.Seed)
	if err != nil {
		return nil, fmt.Errorf("failed to split training data: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	log.Info().
		Int("rows", table.Len()).
		Int("train", len(trainIdx)).
		Int("test", len(testIdx)).
		Str("label", t.opts.Rule.LabelColumn).
		Strs("positive", t.opts.Rule.PositiveLabels).
		Msg("Fitting pipeline")

	pipeline, err := ml.FitPipeline(table.Subset(trainIdx), t.opts.Rule, t.opts.Params)
	if err != nil {
		return nil, fmt.Errorf("failed to fit pipeline: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	proba, err := pipeline.PredictProba(table.Subset(testIdx))
	if err != nil {
		return nil, fmt.Errorf("failed to score hold-out rows: %w", err)
	}
	yTest := make([]int, len(testIdx))
	for i, row := range testIdx {
		yTest[i] = y[row]
	}

	report, err := ml.Evaluate(yTest, proba)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate pipeline: %w", err)
	}
	pipeline.Metadata.TestRows = len(testIdx)
	pipeline.Metadata.Report = &report

	importances, err := pipeline.FeatureImportances()
	if err != nil {
		return nil, err
	}

	result := &Result{
		Pipeline:    pipeline,
		Report:      report,
		Importances: importances,
		TrainRows:   len(trainIdx),
		TestRows:    len(testIdx),
		Duration:    time.Since(start),
	}

	if t.metrics != nil {
		t.metrics.TrainingDurationObserve(result.Duration.Seconds())
		t.metrics.TrainingRowsSet(float64(result.TrainRows))
		t.metrics.ModelAccuracySet(report.Accuracy)
		if report.AUCDefined {
			t.metrics.ModelAUCSet(report.AUC)
		}
	}

	event := log.Info().
		Float64("accuracy", report.Accuracy).
		Int("features", len(importances)).
		Dur("elapsed", result.Duration)
	if report.AUCDefined {
		event = event.Float64("auc", report.AUC)
	} else {
		log.Warn().Msg("Hold-out split has a single class, ROC AUC is undefined")
	}
	event.Msg("Training complete")

	return result, nil
}

// TrainAndSave trains and writes the artifact to path.
func (t *Trainer) TrainAndSave(ctx context.Context, table *dataset.Table, path string) (*Result, error) {
	result, err := t.Train(ctx, table)
	if err != nil {
		return nil, err
	}
	if err := storage.Save(path, result.Pipeline); err != nil {
		return nil, fmt.Errorf("failed to save artifact: %w", err)
	}
	log.Info().Str("path", path).Msg("Artifact saved")
	return result, nil
}
