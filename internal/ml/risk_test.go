package ml

import "testing"

func TestTierFor_Boundaries(t *testing.T) {
	tests := []struct {
		p    float64
		want Tier
	}{
		{1.0, TierHigh},
		{0.70, TierHigh},
		{0.699999, TierMedium},
		{0.55, TierMedium},
		{0.40, TierMedium},
		{0.399999, TierLow},
		{0.0, TierLow},
	}

	for _, tt := range tests {
		if got := TierFor(tt.p); got != tt.want {
			t.Errorf("TierFor(%v) = %s, want %s", tt.p, got, tt.want)
		}
	}
}

func TestPredictedLabel_IndependentOfTiers(t *testing.T) {
	tests := []struct {
		p        float64
		want     int
		wantTier Tier
	}{
		{0.5, 0, TierMedium},
		{0.51, 1, TierMedium},
		{0.45, 0, TierMedium},
		{0.69, 1, TierMedium},
		{0.7, 1, TierHigh},
		{0.1, 0, TierLow},
	}

	for _, tt := range tests {
		if got := PredictedLabel(tt.p); got != tt.want {
			t.Errorf("PredictedLabel(%v) = %d, want %d", tt.p, got, tt.want)
		}
		if got := TierFor(tt.p); got != tt.wantTier {
			t.Errorf("TierFor(%v) = %s, want %s", tt.p, got, tt.wantTier)
		}
	}
}

func TestSummarize(t *testing.T) {
	records := []ScoredRecord{
		{Probability: 0.9, Tier: TierHigh, Predicted: 1},
		{Probability: 0.6, Tier: TierMedium, Predicted: 1},
		{Probability: 0.45, Tier: TierMedium, Predicted: 0},
		{Probability: 0.1, Tier: TierLow, Predicted: 0},
	}

	s := Summarize(records)
	if s.Total != 4 || s.High != 1 || s.Medium != 2 || s.Low != 1 || s.PredictedDropouts != 2 {
		t.Errorf("unexpected summary: %+v", s)
	}
}
