package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dropout-risk/internal/batch"
	"dropout-risk/internal/cfg"
	"dropout-risk/internal/client"
	"dropout-risk/internal/ml"
	"dropout-risk/internal/storage"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	var (
		inputPath  = flag.String("input", "", "CSV or XLSX file to score (defaults to the training data path)")
		outputPath = flag.String("output", "predictions.csv", "Predictions CSV path")
		reportDir  = flag.String("report-dir", "", "Also write a summary and JSON report into this directory")
		modelPath  = flag.String("model", "", "Artifact path (overrides config)")
		remote     = flag.String("remote", "", "Score through a running dashboard at this base URL instead of a local artifact")
		timeout    = flag.Duration("timeout", 30*time.Second, "Remote scoring timeout")
		logLevel   = flag.String("log-level", "", "Log level: debug, info, warn, error")
	)
	flag.Parse()

	config, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	if *logLevel != "" {
		config.LogLevel = *logLevel
	}

	level, err := zerolog.ParseLevel(config.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if *modelPath != "" {
		config.ArtifactPath = *modelPath
	}
	if *inputPath == "" {
		*inputPath = config.TrainingDataPath
	}
	if err := cfg.Validate(&config); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		scorer   ml.RiskScorer
		features func(context.Context) ([]ml.FeatureImportance, error)
	)
	if *remote != "" {
		remoteClient := client.New(*remote, *timeout)
		health, err := remoteClient.Health(ctx)
		if err != nil {
			log.Fatal().Err(err).Str("url", *remote).Msg("Remote dashboard is not available")
		}
		log.Info().
			Str("url", *remote).
			Str("trained_at", health.TrainedAt).
			Int("trees", health.Trees).
			Msg("Scoring through remote dashboard")
		scorer = remoteClient
		features = remoteClient.Importance
	} else {
		pipeline, err := storage.Load(config.ArtifactPath)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load model artifact")
		}
		scorer = ml.NewScorer(pipeline, nil)
		features = func(context.Context) ([]ml.FeatureImportance, error) {
			all, err := pipeline.FeatureImportances()
			if err != nil {
				return nil, err
			}
			return ml.TopFeatures(all, config.TopFeatures), nil
		}
	}

	results, err := batch.NewRunner(scorer).Run(ctx, *inputPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Batch scoring failed")
	}

	reporter := batch.NewReporter(results)
	if err := reporter.WritePredictionsFile(*outputPath); err != nil {
		log.Fatal().Err(err).Msg("Failed to write predictions")
	}
	if *reportDir != "" {
		if err := reporter.GenerateReport(*reportDir); err != nil {
			log.Error().Err(err).Msg("Failed to generate reports")
		}
	}

	reporter.PrintSummary(os.Stdout)
	if top, err := features(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to fetch feature importances")
	} else {
		batch.PrintFeatures(os.Stdout, top)
	}
	log.Info().Str("output", *outputPath).Msg("Predictions saved")
}
