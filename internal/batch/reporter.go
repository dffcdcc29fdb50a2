package batch

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"dropout-risk/internal/common"
	"dropout-risk/internal/ml"

	"github.com/rs/zerolog/log"
)

// PredictionHeader is the column layout of the predictions file.
var PredictionHeader = []string{
	common.ColStudentID, common.ColRiskScore, common.ColRiskLabel, common.ColPredictedDropout,
}

// WritePredictions writes one CSV row per scored record.
func WritePredictions(w io.Writer, records []ml.ScoredRecord) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(PredictionHeader); err != nil {
		return err
	}
	for _, rec := range records {
		row := []string{
			strconv.Itoa(rec.StudentID),
			strconv.FormatFloat(rec.Probability, 'f', -1, 64),
			string(rec.Tier),
			strconv.Itoa(rec.Predicted),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// Reporter writes batch reports
type Reporter struct {
	results *Results
}

// NewReporter creates a new reporter
func NewReporter(results *Results) *Reporter {
	return &Reporter{results: results}
}

// WritePredictionsFile writes the predictions CSV to path.
func (r *Reporter) WritePredictionsFile(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create predictions file: %w", err)
	}
	defer file.Close()

	if err := WritePredictions(file, r.results.Records); err != nil {
		return fmt.Errorf("failed to write predictions: %w", err)
	}

	log.Info().Str("file", path).Int("rows", len(r.results.Records)).Msg("Predictions saved")
	return file.Close()
}

// GenerateReport writes the human readable summary and the JSON report into
// outputPath.
func (r *Reporter) GenerateReport(outputPath string) error {
	if err := os.MkdirAll(outputPath, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := r.generateSummary(filepath.Join(outputPath, "prediction_summary.txt")); err != nil {
		return err
	}
	return r.generateJSONReport(filepath.Join(outputPath, "prediction_results.json"))
}

func (r *Reporter) generateSummary(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	r.writeSummary(file)

	log.Info().Str("file", path).Msg("Summary report generated")
	return nil
}

func (r *Reporter) writeSummary(w io.Writer) {
	s := r.results.Summary

	fmt.Fprintf(w, "DROPOUT RISK SUMMARY\n")
	fmt.Fprintf(w, "====================\n\n")
	fmt.Fprintf(w, "Input: %s\n", r.results.Input)
	fmt.Fprintf(w, "Scored at: %s\n", r.results.EndTime.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "Duration: %s\n\n", r.results.EndTime.Sub(r.results.StartTime).Round(time.Millisecond))

	fmt.Fprintf(w, "RISK TIERS\n")
	fmt.Fprintf(w, "----------\n")
	fmt.Fprintf(w, "Total Students: %d\n", s.Total)
	fmt.Fprintf(w, "High Risk: %d (%.1f%%)\n", s.High, percent(s.High, s.Total))
	fmt.Fprintf(w, "Medium Risk: %d (%.1f%%)\n", s.Medium, percent(s.Medium, s.Total))
	fmt.Fprintf(w, "Low Risk: %d (%.1f%%)\n", s.Low, percent(s.Low, s.Total))
	fmt.Fprintf(w, "Predicted Dropouts: %d\n", s.PredictedDropouts)

	if r.results.Shift != nil {
		if warnings := r.results.Shift.Warnings(); len(warnings) > 0 {
			fmt.Fprintf(w, "\nINPUT WARNINGS\n")
			fmt.Fprintf(w, "--------------\n")
			for _, warning := range warnings {
				fmt.Fprintf(w, "- %s\n", warning)
			}
		}
	}
}

func (r *Reporter) generateJSONReport(path string) error {
	report := map[string]interface{}{
		"input":        r.results.Input,
		"summary":      r.results.Summary,
		"shift":        r.results.Shift,
		"start_time":   r.results.StartTime,
		"end_time":     r.results.EndTime,
		"generated_at": time.Now(),
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write JSON report: %w", err)
	}

	log.Info().Str("file", path).Msg("JSON report generated")
	return nil
}

// PrintSummary prints the tier counts to w.
func (r *Reporter) PrintSummary(w io.Writer) {
	s := r.results.Summary
	fmt.Fprintln(w, "\n=== DROPOUT RISK ===")
	fmt.Fprintf(w, "Students: %d\n", s.Total)
	fmt.Fprintf(w, "High: %d  Medium: %d  Low: %d\n", s.High, s.Medium, s.Low)
	fmt.Fprintf(w, "Predicted dropouts: %d\n", s.PredictedDropouts)
	fmt.Fprintln(w, "====================")
}

// PrintFeatures lists the model's most influential features.
func PrintFeatures(w io.Writer, features []ml.FeatureImportance) {
	fmt.Fprintln(w, "\n=== TOP FEATURES ===")
	for i, f := range features {
		fmt.Fprintf(w, "%2d. %-40s %.4f\n", i+1, f.Name, f.Importance)
	}
	fmt.Fprintln(w, "====================")
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}
