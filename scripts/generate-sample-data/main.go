package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"dropout-risk/internal/dataset"
)

func main() {
	var (
		output   = flag.String("output", "xAPI-Edu-Data.csv", "Output CSV path")
		rows     = flag.Int("rows", 480, "Number of students to generate")
		lowShare = flag.Float64("low-share", 0.265, "Share of students labeled L")
		seed     = flag.Int64("seed", 42, "Random seed")
	)
	flag.Parse()

	fmt.Printf("Generating %d students...\n", *rows)
	fmt.Printf("  Low share: %.3f\n", *lowShare)
	fmt.Printf("  Output: %s\n", *output)

	table := dataset.GenerateStudents(*rows, *lowShare, *seed)

	file, err := os.Create(*output)
	if err != nil {
		log.Fatalf("Failed to create output: %v", err)
	}
	defer file.Close()

	if err := dataset.WriteCSV(file, table); err != nil {
		log.Fatalf("Failed to write data: %v", err)
	}

	fmt.Printf("Generated %d rows with %d columns\n", table.Len(), len(table.Header))
}
