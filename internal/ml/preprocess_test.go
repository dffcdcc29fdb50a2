package ml

import (
	"math"
	"testing"

	"dropout-risk/internal/dataset"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustTable(t *testing.T, header []string, rows [][]string) *dataset.Table {
	t.Helper()
	table, err := dataset.NewTable(header, rows)
	require.NoError(t, err)
	return table
}

func TestFitPreprocessor_InfersRoles(t *testing.T) {
	table := mustTable(t,
		[]string{"hands", "topic", "absent", "grade", "Class"},
		[][]string{
			{"10", "Math", "2.5", "G-02", "L"},
			{"20", "IT", "0", "G-04", "H"},
			{"30", "Math", "1e1", "7", "M"},
		})

	p, err := FitPreprocessor(table, "Class")
	require.NoError(t, err)

	assert.Equal(t, []string{"hands", "absent"}, p.Numeric.Columns)
	assert.Equal(t, []string{"topic", "grade"}, p.Categorical.Columns)
	assert.Equal(t, []string{"IT", "Math"}, p.Categorical.Categories[0])
	assert.Equal(t, []string{"7", "G-02", "G-04"}, p.Categorical.Categories[1])
	assert.Equal(t, 2+2+3, p.Width())
	assert.Equal(t,
		[]string{"hands", "absent", "topic_IT", "topic_Math", "grade_7", "grade_G-02", "grade_G-04"},
		p.FeatureNames())
}

func TestFitPreprocessor_NonFiniteColumnIsCategorical(t *testing.T) {
	table := mustTable(t,
		[]string{"a", "b", "Class"},
		[][]string{
			{"1", "5", "L"},
			{"NaN", "6", "H"},
			{"3", "+Inf", "M"},
			{"4", "7", "L"},
		})

	p, err := FitPreprocessor(table, "Class")
	require.NoError(t, err)

	assert.Empty(t, p.Numeric.Columns)
	assert.Equal(t, []string{"a", "b"}, p.Categorical.Columns)

	X, err := p.Transform(table)
	require.NoError(t, err)
	for _, x := range X {
		for _, v := range x {
			assert.False(t, math.IsNaN(v) || math.IsInf(v, 0))
		}
	}
}

func TestParseNumber_RejectsNonFinite(t *testing.T) {
	tests := []struct {
		in string
		ok bool
	}{
		{"2.5", true},
		{" 1e3 ", true},
		{"-0", true},
		{"NaN", false},
		{"nan", false},
		{"Inf", false},
		{"-Infinity", false},
		{"1e400", false},
		{"abc", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			_, err := parseNumber(tt.in)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestStandardScaler_PopulationVariance(t *testing.T) {
	s := FitStandardScaler([]string{"x", "const"}, [][]float64{{1, 2, 3, 4}, {5, 5, 5, 5}})

	assert.InDelta(t, 2.5, s.Mean[0], 1e-12)
	assert.InDelta(t, math.Sqrt(1.25), s.Scale[0], 1e-12)
	assert.Equal(t, 1.0, s.Scale[1])
	assert.Equal(t, 0.0, s.Transform(1, 5))
	assert.InDelta(t, (4-2.5)/math.Sqrt(1.25), s.Transform(0, 4), 1e-12)
}

func TestOneHotEncoder_Lookup(t *testing.T) {
	e := FitOneHotEncoder([]string{"c"}, [][]string{{"b", "a", "b", "c"}})

	assert.Equal(t, []string{"a", "b", "c"}, e.Categories[0])
	assert.Equal(t, 1, e.Lookup(0, "b"))
	assert.Equal(t, -1, e.Lookup(0, "z"))
	assert.Equal(t, -1, e.Lookup(0, ""))
}

func TestPreprocessor_TransformRow(t *testing.T) {
	train := mustTable(t, []string{"n", "c"}, [][]string{{"0", "x"}, {"2", "y"}})
	p, err := FitPreprocessor(train)
	require.NoError(t, err)

	X, err := p.Transform(mustTable(t, []string{"c", "n"}, [][]string{{"y", "2"}, {"q", "1"}}))
	require.NoError(t, err)

	assert.Equal(t, []float64{1, 0, 1}, X[0])
	assert.Equal(t, []float64{0, 0, 0}, X[1])
}

func TestPreprocessor_Inspect(t *testing.T) {
	train := dataset.GenerateStudents(200, 0.3, 11)
	p, err := FitPreprocessor(train, "Class")
	require.NoError(t, err)

	same, err := p.Inspect(train)
	require.NoError(t, err)
	assert.Equal(t, 200, same.Rows)
	assert.Zero(t, same.UnseenTotal())
	for _, n := range same.Numeric {
		assert.InDelta(t, 0, n.MeanStandardized, 1e-9)
		assert.InDelta(t, 1, n.StdStandardized, 1e-9)
		assert.Empty(t, n.Severity)
	}

	// every student raises hands far more than in training
	rows := make([][]string, train.Len())
	col, _ := train.ColumnIndex("raisedhands")
	for i, row := range train.Rows {
		rows[i] = append([]string(nil), row...)
		rows[i][col] = "400"
	}
	shifted, err := p.Inspect(mustTable(t, train.Header, rows))
	require.NoError(t, err)

	var found bool
	for _, n := range shifted.Numeric {
		if n.Column == "raisedhands" {
			found = true
			assert.Equal(t, "critical", n.Severity)
		}
	}
	assert.True(t, found)
	assert.NotEmpty(t, shifted.Warnings())
}

func TestTargetRule_Derive(t *testing.T) {
	table := mustTable(t, []string{"Class"}, [][]string{{"L"}, {"M"}, {" L "}, {"H"}, {"VL"}})

	y, err := TargetRule{LabelColumn: "Class", PositiveLabels: []string{"L", "VL"}}.Derive(table)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0, 1, 0, 1}, y)

	_, err = TargetRule{LabelColumn: "label", PositiveLabels: []string{"L"}}.Derive(table)
	assert.True(t, IsSchemaError(err))
}
