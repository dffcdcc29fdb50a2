package training

import (
	"fmt"
	"io"
	"text/tabwriter"

	"dropout-risk/internal/ml"
)

// WriteSummary prints the evaluation report followed by the top features.
func WriteSummary(w io.Writer, r *Result, topK int) error {
	fmt.Fprintf(w, "Training rows: %d, hold-out rows: %d, positive rate: %.2f%%\n\n",
		r.TrainRows, r.TestRows, r.Pipeline.Metadata.PositiveRate*100)
	fmt.Fprintln(w, r.Report.String())
	fmt.Fprintf(w, "\nTop %d features:\n", topK)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for i, f := range ml.TopFeatures(r.Importances, topK) {
		fmt.Fprintf(tw, "%d.\t%s\t%.4f\n", i+1, f.Name, f.Importance)
	}
	return tw.Flush()
}
