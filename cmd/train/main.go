package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"dropout-risk/internal/cfg"
	"dropout-risk/internal/dataset"
	"dropout-risk/internal/metrics"
	"dropout-risk/internal/training"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	var (
		dataPath    = flag.String("data", "", "Labeled training CSV or XLSX (overrides config)")
		outputPath  = flag.String("output", "", "Artifact path (overrides config)")
		labels      = flag.String("positive", "", "Comma-separated positive labels (overrides config)")
		trees       = flag.Int("trees", 0, "Number of trees (overrides config)")
		metricsFile = flag.String("metrics-file", "", "Write training metrics in Prometheus text format to this file")
		logLevel    = flag.String("log-level", "", "Log level: debug, info, warn, error")
	)
	flag.Parse()

	config, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	if *logLevel != "" {
		config.LogLevel = *logLevel
	}
	setupLogging(config.LogLevel)

	if *dataPath != "" {
		config.TrainingDataPath = *dataPath
	}
	if *outputPath != "" {
		config.ArtifactPath = *outputPath
	}
	if *labels != "" {
		config.PositiveLabels = parseList(*labels)
	}
	if *trees > 0 {
		config.Trees = *trees
	}
	if err := cfg.Validate(&config); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	table, err := dataset.Load(config.TrainingDataPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load training data")
	}

	registry := prometheus.NewRegistry()
	mw := metrics.NewWrapper(metrics.NewWithRegistry(registry))

	trainer := training.New(training.Options{
		Rule:      config.TargetRule(),
		Params:    config.ForestParams(),
		TestRatio: config.TestRatio,
	}, mw)

	result, err := trainer.TrainAndSave(ctx, table, config.ArtifactPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Training failed")
	}

	fmt.Println("\n=== MODEL EVALUATION ===")
	if err := training.WriteSummary(os.Stdout, result, config.TopFeatures); err != nil {
		log.Error().Err(err).Msg("Failed to print summary")
	}
	fmt.Println("========================")

	if *metricsFile != "" {
		if err := prometheus.WriteToTextfile(*metricsFile, registry); err != nil {
			log.Error().Err(err).Msg("Failed to write metrics file")
		}
	}

	log.Info().
		Str("artifact", config.ArtifactPath).
		Msg("Model trained and saved")
}

func setupLogging(levelName string) {
	level, err := zerolog.ParseLevel(levelName)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
}

// parseList parses comma-separated values
func parseList(s string) []string {
	var result []string
	for _, v := range strings.Split(s, ",") {
		v = strings.TrimSpace(v)
		if v != "" {
			result = append(result, v)
		}
	}
	return result
}
