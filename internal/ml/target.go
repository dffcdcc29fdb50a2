package ml

import (
	"strings"

	"dropout-risk/internal/dataset"
)

// TargetRule maps the raw label column onto the binary dropout target.
// Rows whose label is one of PositiveLabels are positive (1).
type TargetRule struct {
	LabelColumn    string   `json:"label_column"`
	PositiveLabels []string `json:"positive_labels"`
}

// IsPositive reports whether a raw label value maps to the positive class.
func (r TargetRule) IsPositive(label string) bool {
	label = strings.TrimSpace(label)
	for _, l := range r.PositiveLabels {
		if l == label {
			return true
		}
	}
	return false
}

// Derive returns the 0/1 target for every row of the table.
func (r TargetRule) Derive(table *dataset.Table) ([]int, error) {
	labels, ok := table.Column(r.LabelColumn)
	if !ok {
		return nil, &SchemaError{Column: r.LabelColumn}
	}

	y := make([]int, len(labels))
	for i, label := range labels {
		if r.IsPositive(label) {
			y[i] = 1
		}
	}
	return y, nil
}
