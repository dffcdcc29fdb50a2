package ml

import (
	"fmt"
	"math"
	"sort"

	"dropout-risk/internal/dataset"
)

// ShiftAlertThreshold is the moments score above which a numeric column is
// flagged as shifted away from its training distribution.
const ShiftAlertThreshold = 0.25

// minShiftSamples is the smallest table for which numeric shift is scored.
const minShiftSamples = 30

// ShiftReport describes how an input table differs from the training data.
// It is informational; scoring never fails because of it.
type ShiftReport struct {
	Rows        int             `json:"rows"`
	Numeric     []NumericShift  `json:"numeric"`
	Categorical []CategoryShift `json:"categorical"`
}

// NumericShift summarizes one numeric column in standardized units. A table
// drawn from the training distribution has mean near 0 and spread near 1.
type NumericShift struct {
	Column           string  `json:"column"`
	MeanStandardized float64 `json:"mean_standardized"`
	StdStandardized  float64 `json:"std_standardized"`
	Score            float64 `json:"score"`
	Severity         string  `json:"severity,omitempty"`

	sumSquares float64
}

// CategoryShift counts values of a categorical column that were never seen
// during training. They encode as all zeros.
type CategoryShift struct {
	Column      string         `json:"column"`
	UnseenCount int            `json:"unseen_count"`
	Unseen      map[string]int `json:"unseen,omitempty"`
}

func newShiftReport(p *Preprocessor) *ShiftReport {
	r := &ShiftReport{
		Numeric:     make([]NumericShift, len(p.Numeric.Columns)),
		Categorical: make([]CategoryShift, len(p.Categorical.Columns)),
	}
	for i, name := range p.Numeric.Columns {
		r.Numeric[i].Column = name
	}
	for i, name := range p.Categorical.Columns {
		r.Categorical[i].Column = name
	}
	return r
}

func (r *ShiftReport) addUnseen(i int, value string) {
	c := &r.Categorical[i]
	if c.Unseen == nil {
		c.Unseen = make(map[string]int)
	}
	c.Unseen[value]++
	c.UnseenCount++
}

// finish turns accumulated sums into means and scores. MeanStandardized
// holds the running sum of z values until then.
func (r *ShiftReport) finish(rows int) {
	r.Rows = rows
	if rows == 0 {
		return
	}
	n := float64(rows)
	for i := range r.Numeric {
		s := &r.Numeric[i]
		mean := s.MeanStandardized / n
		variance := s.sumSquares/n - mean*mean
		s.MeanStandardized = mean
		s.StdStandardized = math.Sqrt(math.Max(variance, 0))

		if rows < minShiftSamples {
			continue
		}
		// training baseline is mean 0, std 1 after scaling
		s.Score = (math.Abs(mean) + math.Abs(s.StdStandardized-1)/2) / 2
		s.Severity = severityFor(s.Score, ShiftAlertThreshold)
	}
}

func severityFor(score, threshold float64) string {
	switch {
	case score > threshold*3:
		return "critical"
	case score > threshold*2:
		return "high"
	case score > threshold:
		return "medium"
	default:
		return ""
	}
}

// UnseenTotal is the number of categorical cells that matched no category.
func (r *ShiftReport) UnseenTotal() int {
	total := 0
	for _, c := range r.Categorical {
		total += c.UnseenCount
	}
	return total
}

// Warnings renders one human readable line per unseen-category column and
// per shifted numeric column.
func (r *ShiftReport) Warnings() []string {
	var out []string
	for _, c := range r.Categorical {
		if c.UnseenCount == 0 {
			continue
		}
		values := make([]string, 0, len(c.Unseen))
		for v := range c.Unseen {
			values = append(values, v)
		}
		sort.Strings(values)
		out = append(out, fmt.Sprintf("column %q has %d value(s) not seen in training: %q", c.Column, c.UnseenCount, values))
	}
	for _, s := range r.Numeric {
		if s.Severity == "" {
			continue
		}
		out = append(out, fmt.Sprintf("column %q is shifted from training data (%s, mean %.2f sd, spread %.2f sd)",
			s.Column, s.Severity, s.MeanStandardized, s.StdStandardized))
	}
	return out
}

// Inspect compares a table with the training distribution without scoring
// it. It fails only when the table does not match the fitted schema.
func (p *Preprocessor) Inspect(table *dataset.Table) (*ShiftReport, error) {
	_, report, err := p.transform(table)
	return report, err
}
