package batch

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"dropout-risk/internal/dataset"
	"dropout-risk/internal/ml"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubScorer struct {
	result *ml.ScoreResult
	err    error
}

func (s *stubScorer) Score(ctx context.Context, table *dataset.Table) (*ml.ScoreResult, error) {
	return s.result, s.err
}

func writeCSV(t *testing.T, table *dataset.Table) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "students.csv")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, dataset.WriteCSV(f, table))
	require.NoError(t, f.Close())
	return path
}

func TestRunner_EndToEndHundredRows(t *testing.T) {
	table := dataset.GenerateStudents(100, 0.3, 42)
	params := ml.DefaultForestParams()
	params.Trees = 40

	pipeline, err := ml.FitPipeline(table, ml.TargetRule{LabelColumn: "Class", PositiveLabels: []string{"L"}}, params)
	require.NoError(t, err)

	results, err := NewRunner(ml.NewScorer(pipeline, nil)).Run(context.Background(), writeCSV(t, table))
	require.NoError(t, err)
	require.Len(t, results.Records, 100)

	var buf bytes.Buffer
	require.NoError(t, WritePredictions(&buf, results.Records))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 101)
	assert.Equal(t, []string{"student_id", "risk_score", "risk_label", "predicted_dropout"}, rows[0])

	for i, row := range rows[1:] {
		assert.Equal(t, strconv.Itoa(i), row[0])

		p, err := strconv.ParseFloat(row[1], 64)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, p, 0.0)
		assert.LessOrEqual(t, p, 1.0)

		assert.Contains(t, []string{"High", "Medium", "Low"}, row[2])
		assert.Equal(t, string(ml.TierFor(p)), row[2])

		assert.Contains(t, []string{"0", "1"}, row[3])
		assert.Equal(t, strconv.Itoa(ml.PredictedLabel(p)), row[3])
	}
}

func TestRunner_LabelColumnOptional(t *testing.T) {
	train := dataset.GenerateStudents(80, 0.3, 4)
	params := ml.DefaultForestParams()
	params.Trees = 10
	pipeline, err := ml.FitPipeline(train, ml.TargetRule{LabelColumn: "Class", PositiveLabels: []string{"L"}}, params)
	require.NoError(t, err)

	labelIdx, _ := train.ColumnIndex("Class")
	header := append(append([]string{}, train.Header[:labelIdx]...), train.Header[labelIdx+1:]...)
	rows := make([][]string, train.Len())
	for i, row := range train.Rows {
		rows[i] = append(append([]string{}, row[:labelIdx]...), row[labelIdx+1:]...)
	}
	unlabeled, err := dataset.NewTable(header, rows)
	require.NoError(t, err)

	results, err := NewRunner(ml.NewScorer(pipeline, nil)).RunTable(context.Background(), "unlabeled", unlabeled)
	require.NoError(t, err)
	assert.Equal(t, 80, results.Summary.Total)
}

func TestRunner_LogsShiftWarningsOnce(t *testing.T) {
	train := dataset.GenerateStudents(80, 0.3, 5)
	params := ml.DefaultForestParams()
	params.Trees = 10
	pipeline, err := ml.FitPipeline(train, ml.TargetRule{LabelColumn: "Class", PositiveLabels: []string{"L"}}, params)
	require.NoError(t, err)

	col, _ := train.ColumnIndex("Topic")
	rows := make([][]string, train.Len())
	for i, row := range train.Rows {
		rows[i] = append([]string(nil), row...)
	}
	rows[0][col] = "Astrology"
	shifted, err := dataset.NewTable(train.Header, rows)
	require.NoError(t, err)

	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })

	results, err := NewRunner(ml.NewScorer(pipeline, nil)).RunTable(context.Background(), "shifted", shifted)
	require.NoError(t, err)
	require.NotNil(t, results.Shift)
	assert.Equal(t, 1, results.Shift.UnseenTotal())

	assert.Equal(t, 1, strings.Count(buf.String(), "Astrology"))
}

func TestRunner_Errors(t *testing.T) {
	table := dataset.GenerateStudents(10, 0.3, 1)

	t.Run("scorer error is wrapped", func(t *testing.T) {
		schemaErr := &ml.SchemaError{Column: "raisedhands"}
		_, err := NewRunner(&stubScorer{err: schemaErr}).RunTable(context.Background(), "in.csv", table)

		var target *ml.SchemaError
		require.True(t, errors.As(err, &target))
		assert.Equal(t, "raisedhands", target.Column)
	})

	t.Run("record count mismatch", func(t *testing.T) {
		stub := &stubScorer{result: &ml.ScoreResult{Records: make([]ml.ScoredRecord, 3)}}
		_, err := NewRunner(stub).RunTable(context.Background(), "in.csv", table)
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := NewRunner(&stubScorer{}).Run(context.Background(), filepath.Join(t.TempDir(), "absent.csv"))
		assert.Error(t, err)
	})
}

func sampleResults() *Results {
	records := []ml.ScoredRecord{
		{StudentID: 0, Probability: 0.9, Tier: ml.TierHigh, Predicted: 1},
		{StudentID: 1, Probability: 0.45, Tier: ml.TierMedium, Predicted: 0},
		{StudentID: 2, Probability: 0.1, Tier: ml.TierLow, Predicted: 0},
	}
	return &Results{
		Input:   "students.csv",
		Records: records,
		Summary: ml.Summarize(records),
		Shift: &ml.ShiftReport{
			Rows:        3,
			Categorical: []ml.CategoryShift{{Column: "Topic", UnseenCount: 1, Unseen: map[string]int{"Art": 1}}},
		},
	}
}

func TestReporter_WritePredictionsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "predictions.csv")
	require.NoError(t, NewReporter(sampleResults()).WritePredictionsFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t,
		"student_id,risk_score,risk_label,predicted_dropout\n0,0.9,High,1\n1,0.45,Medium,0\n2,0.1,Low,0\n",
		string(data))
}

func TestReporter_GenerateReport(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, NewReporter(sampleResults()).GenerateReport(dir))

	summary, err := os.ReadFile(filepath.Join(dir, "prediction_summary.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(summary), "High Risk: 1 (33.3%)")
	assert.Contains(t, string(summary), "Predicted Dropouts: 1")
	assert.Contains(t, string(summary), `column "Topic" has 1 value(s) not seen in training`)

	raw, err := os.ReadFile(filepath.Join(dir, "prediction_results.json"))
	require.NoError(t, err)
	var report map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &report))
	assert.Equal(t, "students.csv", report["input"])
	assert.Equal(t, float64(3), report["summary"].(map[string]interface{})["total"])
}

func TestReporter_PrintSummary(t *testing.T) {
	var buf bytes.Buffer
	NewReporter(sampleResults()).PrintSummary(&buf)
	assert.Contains(t, buf.String(), "High: 1  Medium: 1  Low: 1")
}

func TestPrintFeatures(t *testing.T) {
	var buf bytes.Buffer
	PrintFeatures(&buf, []ml.FeatureImportance{
		{Name: "StudentAbsenceDays_Under-7", Importance: 0.21},
		{Name: "raisedhands", Importance: 0.125},
	})

	out := buf.String()
	assert.Contains(t, out, "TOP FEATURES")
	assert.Contains(t, out, " 1. StudentAbsenceDays_Under-7")
	assert.Contains(t, out, "0.2100")
	assert.Contains(t, out, " 2. raisedhands")
	assert.Contains(t, out, "0.1250")
}
