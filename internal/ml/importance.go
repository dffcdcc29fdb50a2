package ml

import (
	"fmt"
	"sort"
)

// DefaultTopFeatures is how many features the importance chart shows.
const DefaultTopFeatures = 8

// FeatureImportance pairs an expanded feature name with its score.
type FeatureImportance struct {
	Name       string  `json:"name"`
	Importance float64 `json:"importance"`
}

// PairImportances zips names and scores positionally. A length mismatch
// means the labels would not describe the scores, so it is an error.
func PairImportances(names []string, scores []float64) ([]FeatureImportance, error) {
	if len(names) != len(scores) {
		return nil, fmt.Errorf("feature name count %d does not match importance count %d", len(names), len(scores))
	}
	out := make([]FeatureImportance, len(names))
	for i := range names {
		out[i] = FeatureImportance{Name: names[i], Importance: scores[i]}
	}
	return out, nil
}

// TopFeatures returns the k highest scores in descending order. Equal
// scores keep their input order.
func TopFeatures(features []FeatureImportance, k int) []FeatureImportance {
	sorted := make([]FeatureImportance, len(features))
	copy(sorted, features)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Importance > sorted[j].Importance
	})
	if k >= 0 && k < len(sorted) {
		sorted = sorted[:k]
	}
	return sorted
}
