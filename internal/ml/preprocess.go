package ml

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"dropout-risk/internal/dataset"
)

// Preprocessor turns raw table cells into the model's feature matrix:
// standardized numeric columns first, then one-hot categorical indicators.
type Preprocessor struct {
	Numeric     *StandardScaler `json:"numeric"`
	Categorical *OneHotEncoder  `json:"categorical"`
}

// FitPreprocessor infers column roles from the table and learns scaling and
// vocabularies. Columns named in exclude (the label, for instance) are not
// features. A column is numeric when every cell parses as a float.
func FitPreprocessor(table *dataset.Table, exclude ...string) (*Preprocessor, error) {
	skip := make(map[string]bool, len(exclude))
	for _, name := range exclude {
		skip[name] = true
	}

	var (
		numCols []string
		numVals [][]float64
		catCols []string
		catVals [][]string
		seen    = make(map[string]bool)
	)

	for _, name := range table.Header {
		if skip[name] || seen[name] {
			continue
		}
		seen[name] = true

		cells, _ := table.Column(name)
		if parsed, ok := parseColumn(cells); ok {
			numCols = append(numCols, name)
			numVals = append(numVals, parsed)
			continue
		}
		catCols = append(catCols, name)
		catVals = append(catVals, cells)
	}

	if len(numCols)+len(catCols) == 0 {
		return nil, ErrNoFeatures
	}

	return &Preprocessor{
		Numeric:     FitStandardScaler(numCols, numVals),
		Categorical: FitOneHotEncoder(catCols, catVals),
	}, nil
}

func parseColumn(cells []string) ([]float64, bool) {
	out := make([]float64, len(cells))
	for i, c := range cells {
		v, err := parseNumber(c)
		if err != nil {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

var errNotFinite = errors.New("value is not finite")

// parseNumber accepts finite floats only; NaN and Inf would poison the
// scaler at fit time and every tree split at inference.
func parseNumber(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errNotFinite
	}
	return v, nil
}

// Width is the length of every transformed row.
func (p *Preprocessor) Width() int {
	return len(p.Numeric.Columns) + p.Categorical.Width()
}

// FeatureNames lists the transformed columns in output order.
func (p *Preprocessor) FeatureNames() []string {
	names := make([]string, 0, p.Width())
	names = append(names, p.Numeric.Columns...)
	return append(names, p.Categorical.FeatureNames()...)
}

// Columns lists the raw input columns the preprocessor reads.
func (p *Preprocessor) Columns() []string {
	cols := make([]string, 0, len(p.Numeric.Columns)+len(p.Categorical.Columns))
	cols = append(cols, p.Numeric.Columns...)
	return append(cols, p.Categorical.Columns...)
}

// Transform builds the feature matrix for a table. Columns are resolved by
// name; extra columns are ignored.
func (p *Preprocessor) Transform(table *dataset.Table) ([][]float64, error) {
	X, _, err := p.transform(table)
	return X, err
}

func (p *Preprocessor) transform(table *dataset.Table) ([][]float64, *ShiftReport, error) {
	numIdx, catIdx, err := p.resolve(table)
	if err != nil {
		return nil, nil, err
	}

	report := newShiftReport(p)
	nNum := len(numIdx)
	X := make([][]float64, table.Len())

	for r, row := range table.Rows {
		x := make([]float64, p.Width())

		for i, col := range numIdx {
			v, err := parseNumber(row[col])
			if err != nil {
				return nil, nil, &SchemaError{Column: p.Numeric.Columns[i], Row: r + 1, Value: row[col]}
			}
			z := p.Numeric.Transform(i, v)
			x[i] = z
			report.Numeric[i].MeanStandardized += z
			report.Numeric[i].sumSquares += z * z
		}

		offset := nNum
		for i, col := range catIdx {
			if pos := p.Categorical.Lookup(i, row[col]); pos >= 0 {
				x[offset+pos] = 1
			} else {
				report.addUnseen(i, row[col])
			}
			offset += len(p.Categorical.Categories[i])
		}

		X[r] = x
	}

	report.finish(table.Len())
	return X, report, nil
}

func (p *Preprocessor) resolve(table *dataset.Table) ([]int, []int, error) {
	numIdx := make([]int, len(p.Numeric.Columns))
	for i, name := range p.Numeric.Columns {
		idx, ok := table.ColumnIndex(name)
		if !ok {
			return nil, nil, &SchemaError{Column: name}
		}
		numIdx[i] = idx
	}

	catIdx := make([]int, len(p.Categorical.Columns))
	for i, name := range p.Categorical.Columns {
		idx, ok := table.ColumnIndex(name)
		if !ok {
			return nil, nil, &SchemaError{Column: name}
		}
		catIdx[i] = idx
	}

	return numIdx, catIdx, nil
}
