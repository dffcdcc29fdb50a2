package ml

import (
	"sort"
)

// OneHotEncoder expands categorical columns into one indicator per category
// observed at fit time. Unseen values encode as all zeros.
type OneHotEncoder struct {
	Columns    []string   `json:"columns"`
	Categories [][]string `json:"categories"`
}

// FitOneHotEncoder learns a sorted vocabulary per column.
func FitOneHotEncoder(columns []string, values [][]string) *OneHotEncoder {
	e := &OneHotEncoder{
		Columns:    columns,
		Categories: make([][]string, len(columns)),
	}

	for i := range columns {
		seen := make(map[string]struct{})
		vocab := make([]string, 0)
		for _, v := range values[i] {
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			vocab = append(vocab, v)
		}
		sort.Strings(vocab)
		e.Categories[i] = vocab
	}

	return e
}

// Width is the number of indicator columns produced.
func (e *OneHotEncoder) Width() int {
	w := 0
	for _, vocab := range e.Categories {
		w += len(vocab)
	}
	return w
}

// Lookup returns the position of v inside column i's vocabulary, or -1 for
// a category not seen during fit.
func (e *OneHotEncoder) Lookup(i int, v string) int {
	vocab := e.Categories[i]
	pos := sort.SearchStrings(vocab, v)
	if pos < len(vocab) && vocab[pos] == v {
		return pos
	}
	return -1
}

// FeatureNames returns "<column>_<category>" for every indicator in output
// order.
func (e *OneHotEncoder) FeatureNames() []string {
	names := make([]string, 0, e.Width())
	for i, col := range e.Columns {
		for _, cat := range e.Categories[i] {
			names = append(names, col+"_"+cat)
		}
	}
	return names
}
