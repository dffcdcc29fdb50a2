package ml

// Tier is the display bucket for a risk probability.
type Tier string

const (
	TierHigh   Tier = "High"
	TierMedium Tier = "Medium"
	TierLow    Tier = "Low"
)

// Tier thresholds are inclusive lower bounds.
const (
	HighRiskThreshold   = 0.70
	MediumRiskThreshold = 0.40
)

// DecisionThreshold is the vote fraction above which a student is predicted
// to drop out. It is independent of the tier thresholds, so a Medium student
// can carry a positive prediction.
const DecisionThreshold = 0.5

// Tiers lists every tier from highest to lowest risk.
var Tiers = []Tier{TierHigh, TierMedium, TierLow}

// TierFor buckets a probability. Both the batch and dashboard paths use it.
func TierFor(p float64) Tier {
	switch {
	case p >= HighRiskThreshold:
		return TierHigh
	case p >= MediumRiskThreshold:
		return TierMedium
	default:
		return TierLow
	}
}

// PredictedLabel is the majority-vote decision for a probability.
func PredictedLabel(p float64) int {
	if p > DecisionThreshold {
		return 1
	}
	return 0
}
