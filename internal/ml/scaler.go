package ml

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// StandardScaler centers numeric columns to zero mean and unit population
// variance.
type StandardScaler struct {
	Columns []string  `json:"columns"`
	Mean    []float64 `json:"mean"`
	Scale   []float64 `json:"scale"`
}

// FitStandardScaler learns one mean and scale per column. values[i] holds
// every training value of columns[i].
func FitStandardScaler(columns []string, values [][]float64) *StandardScaler {
	s := &StandardScaler{
		Columns: columns,
		Mean:    make([]float64, len(columns)),
		Scale:   make([]float64, len(columns)),
	}

	for i := range columns {
		if len(values[i]) == 0 {
			s.Scale[i] = 1
			continue
		}
		mean, variance := stat.PopMeanVariance(values[i], nil)
		s.Mean[i] = mean
		s.Scale[i] = safeScale(math.Sqrt(variance))
	}

	return s
}

// safeScale keeps constant columns at their centered value instead of
// dividing by zero.
func safeScale(scale float64) float64 {
	if scale < 10*epsilon || math.IsNaN(scale) {
		return 1
	}
	return scale
}

const epsilon = 2.220446049250313e-16

// Transform standardizes one value of column i.
func (s *StandardScaler) Transform(i int, v float64) float64 {
	return (v - s.Mean[i]) / s.Scale[i]
}
