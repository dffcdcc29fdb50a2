package main

import (
	"flag"
	"fmt"
	"log"

	"dropout-risk/internal/ml"
	"dropout-risk/internal/storage"
)

func main() {
	var (
		modelPath = flag.String("model", "dropout_model.db", "Artifact path")
		top       = flag.Int("top", ml.DefaultTopFeatures, "Number of features to list")
	)
	flag.Parse()

	fmt.Printf("Inspecting artifact: %s\n", *modelPath)

	store, err := storage.Open(*modelPath, true)
	if err != nil {
		log.Fatalf("Failed to open artifact: %v", err)
	}
	savedAt, err := store.SavedAt()
	if err != nil {
		log.Fatalf("Failed to read save time: %v", err)
	}
	trees, err := store.TreeCount()
	if err != nil {
		log.Fatalf("Failed to count trees: %v", err)
	}
	store.Close()

	pipeline, err := storage.Load(*modelPath)
	if err != nil {
		log.Fatalf("Failed to load pipeline: %v", err)
	}

	fmt.Printf("\nSaved at: %s\n", savedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Trees: %d\n", trees)
	fmt.Printf("Label: %s in %v\n", pipeline.Target.LabelColumn, pipeline.Target.PositiveLabels)
	fmt.Printf("Numeric columns: %v\n", pipeline.Preprocessor.Numeric.Columns)
	fmt.Printf("Categorical columns: %v\n", pipeline.Preprocessor.Categorical.Columns)
	fmt.Printf("Expanded features: %d\n", pipeline.Preprocessor.Width())

	if r := pipeline.Metadata.Report; r != nil {
		fmt.Printf("\nHold-out evaluation (%d rows):\n%s", pipeline.Metadata.TestRows, r.String())
	}

	features, err := pipeline.FeatureImportances()
	if err != nil {
		log.Fatalf("Failed to pair importances: %v", err)
	}
	fmt.Printf("\nTop %d features:\n", *top)
	for i, f := range ml.TopFeatures(features, *top) {
		fmt.Printf("%2d. %-40s %.4f\n", i+1, f.Name, f.Importance)
	}
}
