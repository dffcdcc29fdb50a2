package ml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func separableData() ([][]float64, []int) {
	X := make([][]float64, 0, 40)
	y := make([]int, 0, 40)
	for i := 0; i < 40; i++ {
		x := float64(i)
		X = append(X, []float64{x, float64(i % 3)})
		if i >= 28 {
			y = append(y, 1)
		} else {
			y = append(y, 0)
		}
	}
	return X, y
}

func TestFitForest_LearnsSeparableData(t *testing.T) {
	X, y := separableData()
	params := DefaultForestParams()
	params.Trees = 30
	params.MaxFeatures = 2

	f, err := FitForest(X, y, params)
	require.NoError(t, err)
	require.NoError(t, f.Validate())

	assert.Len(t, f.Trees, 30)
	assert.Greater(t, f.PredictProba([]float64{39, 0}), 0.9)
	assert.Less(t, f.PredictProba([]float64{0, 0}), 0.1)

	// the first column carries all the signal
	assert.Greater(t, f.Importances[0], f.Importances[1])
}

func TestFitForest_ProbabilityIsVoteFraction(t *testing.T) {
	X, y := separableData()
	params := DefaultForestParams()
	params.Trees = 7

	f, err := FitForest(X, y, params)
	require.NoError(t, err)

	for _, x := range X {
		p := f.PredictProba(x)
		votes := p * 7
		assert.InDelta(t, float64(int(votes+0.5)), votes, 1e-9)
	}
}

func TestFitForest_Deterministic(t *testing.T) {
	X, y := separableData()
	params := DefaultForestParams()
	params.Trees = 12

	a, err := FitForest(X, y, params)
	require.NoError(t, err)
	b, err := FitForest(X, y, params)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	params.Seed++
	c, err := FitForest(X, y, params)
	require.NoError(t, err)
	assert.NotEqual(t, a.Trees, c.Trees)
}

func TestFitForest_MaxDepth(t *testing.T) {
	X, y := separableData()
	params := DefaultForestParams()
	params.Trees = 5
	params.MaxDepth = 1

	f, err := FitForest(X, y, params)
	require.NoError(t, err)
	for _, tree := range f.Trees {
		assert.LessOrEqual(t, len(tree.Nodes), 3)
	}
}

func TestFitForest_InvalidInput(t *testing.T) {
	params := DefaultForestParams()

	_, err := FitForest(nil, nil, params)
	assert.Error(t, err)

	_, err = FitForest([][]float64{{1}, {2}}, []int{0}, params)
	assert.Error(t, err)

	_, err = FitForest([][]float64{{1}, {2}}, []int{0, 2}, params)
	assert.Error(t, err)

	_, err = FitForest([][]float64{{1}, {2}}, []int{1, 1}, params)
	assert.ErrorIs(t, err, ErrSingleClass)

	params.Trees = 0
	_, err = FitForest([][]float64{{1}, {2}}, []int{0, 1}, params)
	assert.Error(t, err)
}

func TestForest_ValidateRejectsBrokenTrees(t *testing.T) {
	f := &Forest{
		NumFeatures: 1,
		Importances: []float64{1},
		Trees: []*Tree{{Nodes: []TreeNode{
			{Feature: 0, Threshold: 1, Left: 1, Right: 5},
			{Feature: -1},
		}}},
	}
	assert.Error(t, f.Validate())

	f.Trees = nil
	assert.Error(t, f.Validate())
}

func TestStratifiedSplit(t *testing.T) {
	y := make([]int, 100)
	for i := 0; i < 30; i++ {
		y[i*3] = 1
	}

	train, test, err := StratifiedSplit(y, 0.2, 42)
	require.NoError(t, err)
	assert.Len(t, test, 20)
	assert.Len(t, train, 80)

	pos := 0
	for _, i := range test {
		pos += y[i]
	}
	assert.Equal(t, 6, pos)

	seen := map[int]bool{}
	for _, i := range append(append([]int{}, train...), test...) {
		assert.False(t, seen[i], "row %d assigned twice", i)
		seen[i] = true
	}
	assert.Len(t, seen, 100)

	again, _, err := StratifiedSplit(y, 0.2, 42)
	require.NoError(t, err)
	assert.Equal(t, train, again)

	_, _, err = StratifiedSplit(y, 1.5, 42)
	assert.Error(t, err)
}
