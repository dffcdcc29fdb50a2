package ml

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"
)

// ClassMetrics holds precision, recall and F1 for one class or average.
type ClassMetrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// Report is a binary classification report over a held-out set.
type Report struct {
	Classes     [2]ClassMetrics `json:"classes"`
	Accuracy    float64         `json:"accuracy"`
	MacroAvg    ClassMetrics    `json:"macro_avg"`
	WeightedAvg ClassMetrics    `json:"weighted_avg"`
	AUC         float64         `json:"auc"`
	AUCDefined  bool            `json:"auc_defined"`
	Support     int             `json:"support"`
}

// Evaluate scores predicted probabilities against 0/1 truth. Predictions
// use the majority-vote decision; AUC uses the probabilities directly.
func Evaluate(yTrue []int, proba []float64) (Report, error) {
	if len(yTrue) != len(proba) {
		return Report{}, fmt.Errorf("evaluate: %d labels but %d probabilities", len(yTrue), len(proba))
	}
	if len(yTrue) == 0 {
		return Report{}, fmt.Errorf("evaluate: no samples")
	}

	// confusion[actual][predicted]
	var confusion [2][2]int
	for i, actual := range yTrue {
		confusion[actual][PredictedLabel(proba[i])]++
	}

	var r Report
	n := len(yTrue)
	r.Support = n
	correct := confusion[0][0] + confusion[1][1]
	r.Accuracy = float64(correct) / float64(n)

	for c := 0; c < 2; c++ {
		tp := confusion[c][c]
		fp := confusion[1-c][c]
		fn := confusion[c][1-c]
		m := ClassMetrics{Support: tp + fn}
		m.Precision = safeDiv(float64(tp), float64(tp+fp))
		m.Recall = safeDiv(float64(tp), float64(tp+fn))
		m.F1 = safeDiv(2*m.Precision*m.Recall, m.Precision+m.Recall)
		r.Classes[c] = m

		r.MacroAvg.Precision += m.Precision / 2
		r.MacroAvg.Recall += m.Recall / 2
		r.MacroAvg.F1 += m.F1 / 2

		w := float64(m.Support) / float64(n)
		r.WeightedAvg.Precision += m.Precision * w
		r.WeightedAvg.Recall += m.Recall * w
		r.WeightedAvg.F1 += m.F1 * w
	}
	r.MacroAvg.Support = n
	r.WeightedAvg.Support = n

	// JSON has no NaN, so an undefined AUC is stored as 0 with a flag
	if auc := AUC(yTrue, proba); !math.IsNaN(auc) {
		r.AUC = auc
		r.AUCDefined = true
	}
	return r, nil
}

// AUC is the area under the ROC curve, or NaN when only one class is
// present.
func AUC(yTrue []int, proba []float64) float64 {
	y := make([]float64, len(proba))
	copy(y, proba)
	classes := make([]bool, len(yTrue))
	var pos, neg int
	for i, v := range yTrue {
		classes[i] = v == 1
		if classes[i] {
			pos++
		} else {
			neg++
		}
	}
	if pos == 0 || neg == 0 {
		return math.NaN()
	}

	stat.SortWeightedLabeled(y, classes, nil)
	tpr, fpr, _ := stat.ROC(nil, y, classes, nil)
	return integrate.Trapezoidal(fpr, tpr)
}

func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

// String renders the report in the familiar precision/recall/f1/support
// layout followed by the ROC AUC line.
func (r Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%14s %9s %9s %9s %9s\n\n", "", "precision", "recall", "f1-score", "support")
	for c, m := range r.Classes {
		fmt.Fprintf(&b, "%14d %9.2f %9.2f %9.2f %9d\n", c, m.Precision, m.Recall, m.F1, m.Support)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "%14s %9s %9s %9.2f %9d\n", "accuracy", "", "", r.Accuracy, r.Support)
	fmt.Fprintf(&b, "%14s %9.2f %9.2f %9.2f %9d\n", "macro avg", r.MacroAvg.Precision, r.MacroAvg.Recall, r.MacroAvg.F1, r.MacroAvg.Support)
	fmt.Fprintf(&b, "%14s %9.2f %9.2f %9.2f %9d\n", "weighted avg", r.WeightedAvg.Precision, r.WeightedAvg.Recall, r.WeightedAvg.F1, r.WeightedAvg.Support)
	if r.AUCDefined {
		fmt.Fprintf(&b, "\nROC AUC Score: %.4f\n", r.AUC)
	} else {
		b.WriteString("\nROC AUC Score: undefined (single class in evaluation set)\n")
	}
	return b.String()
}
