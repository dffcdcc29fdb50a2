package dashboard

import (
	"sort"

	"dropout-risk/internal/ml"
)

const chartWidth = 420.0

// Field is one column of a raw student record.
type Field struct {
	Name  string
	Value string
}

// StudentRow is a scored record together with its raw input values.
type StudentRow struct {
	ml.ScoredRecord
	Fields []Field
}

// Bar is one row of the importance chart.
type Bar struct {
	ml.FeatureImportance
	Width float64
	Y     int
}

// PageData feeds the dashboard template.
type PageData struct {
	Error       string
	FileName    string
	HasUpload   bool
	Summary     ml.Summary
	Columns     []string
	Top         []StudentRow
	TopN        int
	StudentIDs  []int
	Selected    *StudentRow
	Bars        []Bar
	ChartHeight int
	Warnings    []string
	Thresholds  [3]float64
}

// topRecords returns the n highest-risk records. Equal scores keep row order.
func topRecords(records []ml.ScoredRecord, n int) []ml.ScoredRecord {
	sorted := make([]ml.ScoredRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Probability > sorted[j].Probability
	})
	if n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}

func studentRow(u *Upload, rec ml.ScoredRecord) StudentRow {
	row := u.Table.Rows[rec.StudentID]
	fields := make([]Field, len(u.Table.Header))
	for i, name := range u.Table.Header {
		fields[i] = Field{Name: name, Value: row[i]}
	}
	return StudentRow{ScoredRecord: rec, Fields: fields}
}

// buildBars lays out the horizontal bar chart, longest bar first.
func buildBars(features []ml.FeatureImportance) ([]Bar, int) {
	const rowHeight = 28

	bars := make([]Bar, len(features))
	longest := 0.0
	for _, f := range features {
		if f.Importance > longest {
			longest = f.Importance
		}
	}
	for i, f := range features {
		width := 0.0
		if longest > 0 {
			width = f.Importance / longest * chartWidth
		}
		bars[i] = Bar{FeatureImportance: f, Width: width, Y: i * rowHeight}
	}
	return bars, len(features)*rowHeight + 4
}
