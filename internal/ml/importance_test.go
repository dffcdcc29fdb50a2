package ml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopFeatures_StableDescending(t *testing.T) {
	features := []FeatureImportance{
		{"raisedhands", 0.10},
		{"Discussion", 0.30},
		{"gender_F", 0.10},
		{"gender_M", 0.30},
		{"Topic_IT", 0.05},
	}

	top := TopFeatures(features, 4)

	names := make([]string, len(top))
	for i, f := range top {
		names[i] = f.Name
	}
	assert.Equal(t, []string{"Discussion", "gender_M", "raisedhands", "gender_F"}, names)

	// input is left untouched
	assert.Equal(t, "raisedhands", features[0].Name)
}

func TestTopFeatures_FewerThanK(t *testing.T) {
	features := []FeatureImportance{{"a", 0.2}, {"b", 0.8}}
	top := TopFeatures(features, DefaultTopFeatures)
	assert.Len(t, top, 2)
	assert.Equal(t, "b", top[0].Name)
}

func TestPairImportances(t *testing.T) {
	pairs, err := PairImportances([]string{"a", "b"}, []float64{0.25, 0.75})
	require.NoError(t, err)
	assert.Equal(t, FeatureImportance{"b", 0.75}, pairs[1])

	_, err = PairImportances([]string{"a", "b", "c"}, []float64{0.25, 0.75})
	assert.Error(t, err)
}
