package training

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"dropout-risk/internal/dataset"
	"dropout-risk/internal/ml"
	"dropout-risk/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockMetrics struct {
	duration float64
	rows     float64
	auc      float64
	accuracy float64
}

func (m *mockMetrics) TrainingDurationObserve(v float64) { m.duration = v }
func (m *mockMetrics) TrainingRowsSet(v float64)         { m.rows = v }
func (m *mockMetrics) ModelAUCSet(v float64)             { m.auc = v }
func (m *mockMetrics) ModelAccuracySet(v float64)        { m.accuracy = v }

func testOptions() Options {
	params := ml.DefaultForestParams()
	params.Trees = 25
	return Options{
		Rule:      ml.TargetRule{LabelColumn: "Class", PositiveLabels: []string{"L"}},
		Params:    params,
		TestRatio: 0.2,
	}
}

func TestTrainer_Train(t *testing.T) {
	metrics := &mockMetrics{}
	table := dataset.GenerateStudents(200, 0.3, 7)

	result, err := New(testOptions(), metrics).Train(context.Background(), table)
	require.NoError(t, err)

	assert.Equal(t, 200, result.TrainRows+result.TestRows)
	assert.Equal(t, 40, result.TestRows)
	assert.Equal(t, result.TrainRows, result.Pipeline.Metadata.TrainingRows)
	assert.Equal(t, result.TestRows, result.Pipeline.Metadata.TestRows)
	require.NotNil(t, result.Pipeline.Metadata.Report)
	assert.Equal(t, result.TestRows, result.Report.Support)

	// synthetic low performers are clearly separated
	require.True(t, result.Report.AUCDefined)
	assert.Greater(t, result.Report.AUC, 0.8)

	assert.Len(t, result.Importances, result.Pipeline.Preprocessor.Width())
	assert.Equal(t, float64(result.TrainRows), metrics.rows)
	assert.Equal(t, result.Report.AUC, metrics.auc)
	assert.Equal(t, result.Report.Accuracy, metrics.accuracy)
}

func TestTrainer_Deterministic(t *testing.T) {
	table := dataset.GenerateStudents(150, 0.3, 21)

	a, err := New(testOptions(), nil).Train(context.Background(), table)
	require.NoError(t, err)
	b, err := New(testOptions(), nil).Train(context.Background(), table)
	require.NoError(t, err)

	assert.Equal(t, a.Pipeline.Forest, b.Pipeline.Forest)
	assert.Equal(t, a.Report, b.Report)
}

func TestTrainer_Errors(t *testing.T) {
	ctx := context.Background()
	table := dataset.GenerateStudents(60, 0.3, 1)

	t.Run("missing label column", func(t *testing.T) {
		opts := testOptions()
		opts.Rule.LabelColumn = "Outcome"
		_, err := New(opts, nil).Train(ctx, table)
		assert.True(t, ml.IsSchemaError(err))
	})

	t.Run("single class", func(t *testing.T) {
		opts := testOptions()
		opts.Rule.PositiveLabels = []string{"nobody"}
		_, err := New(opts, nil).Train(ctx, table)
		assert.True(t, errors.Is(err, ml.ErrSingleClass))
	})

	t.Run("empty table", func(t *testing.T) {
		_, err := New(testOptions(), nil).Train(ctx, &dataset.Table{})
		assert.Error(t, err)
	})

	t.Run("cancelled", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := New(testOptions(), nil).Train(cancelled, table)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestTrainer_TrainAndSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.db")
	table := dataset.GenerateStudents(120, 0.3, 5)

	result, err := New(testOptions(), nil).TrainAndSave(context.Background(), table, path)
	require.NoError(t, err)

	loaded, err := storage.Load(path)
	require.NoError(t, err)
	require.NotNil(t, loaded.Metadata.Report)
	assert.Equal(t, result.Report.Accuracy, loaded.Metadata.Report.Accuracy)

	want, err := result.Pipeline.PredictProba(table)
	require.NoError(t, err)
	got, err := loaded.PredictProba(table)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestWriteSummary(t *testing.T) {
	result, err := New(testOptions(), nil).Train(context.Background(), dataset.GenerateStudents(100, 0.3, 2))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteSummary(&buf, result, 8))

	out := buf.String()
	assert.Contains(t, out, "weighted avg")
	assert.Contains(t, out, "ROC AUC Score:")
	assert.Contains(t, out, "Top 8 features:")
	assert.Contains(t, out, "\n8.")
	assert.NotContains(t, out, "\n9.")
}
