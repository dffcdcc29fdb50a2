package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"dropout-risk/internal/cfg"
	"dropout-risk/internal/dashboard"
	"dropout-risk/internal/metrics"
	"dropout-risk/internal/storage"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	var (
		modelPath = flag.String("model", "", "Artifact path (overrides config)")
		port      = flag.Int("port", 0, "Listen port (overrides config)")
		logLevel  = flag.String("log-level", "", "Log level: debug, info, warn, error")
	)
	flag.Parse()

	config, err := loadSettings(*modelPath, *port, *logLevel)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	setupLogging(config.LogLevel)

	pipeline, err := storage.Load(config.ArtifactPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load model artifact")
	}
	log.Info().
		Str("artifact", config.ArtifactPath).
		Time("trained_at", pipeline.Metadata.TrainedAt).
		Int("features", pipeline.Preprocessor.Width()).
		Msg("Model loaded")

	m := metrics.New()
	server, err := dashboard.NewServer(pipeline, metrics.NewWrapper(m), dashboard.Options{
		Port:           config.DashboardPort,
		SessionTTL:     config.SessionTTL,
		MaxUploadBytes: config.MaxUploadBytes,
		TopStudents:    config.TopStudents,
		TopFeatures:    config.TopFeatures,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create dashboard")
	}

	if err := server.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start dashboard")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	log.Info().Msg("shutdown signal received")

	if err := server.Stop(); err != nil {
		log.Error().Err(err).Msg("Dashboard shutdown failed")
	}
}

// loadSettings applies the command line overrides to the loaded config and
// validates the result.
func loadSettings(modelPath string, port int, logLevel string) (cfg.Settings, error) {
	config, err := cfg.Load()
	if err != nil {
		return cfg.Settings{}, err
	}
	if logLevel != "" {
		config.LogLevel = logLevel
	}
	if modelPath != "" {
		config.ArtifactPath = modelPath
	}
	if port != 0 {
		config.DashboardPort = port
	}
	if err := cfg.Validate(&config); err != nil {
		return cfg.Settings{}, err
	}
	return config, nil
}

func setupLogging(levelName string) {
	level, err := zerolog.ParseLevel(levelName)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
}
