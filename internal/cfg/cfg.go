package cfg

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"dropout-risk/internal/common"
	"dropout-risk/internal/ml"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultSessionTTL is how long an idle dashboard session keeps its scored upload.
const DefaultSessionTTL = 30 * time.Minute

type Settings struct {
	ArtifactPath     string        `validate:"required"`
	TrainingDataPath string        `validate:"required"`
	LabelColumn      string        `validate:"required"`
	PositiveLabels   []string      `validate:"required,min=1,dive,required"`
	Trees            int           `validate:"min=1,max=5000"`
	MaxDepth         int           `validate:"min=0,max=64"`
	Seed             int64         `validate:"min=0"`
	TestRatio        float64       `validate:"gt=0,lt=1"`
	DashboardPort    int           `validate:"min=1024,max=65535"`
	SessionTTL       time.Duration `validate:"gte=1m,lte=24h"`
	MaxUploadBytes   int64         `validate:"min=1024"`
	TopStudents      int           `validate:"min=1,max=1000"`
	TopFeatures      int           `validate:"min=1,max=100"`
	LogLevel         string        `validate:"oneof=trace debug info warn error"`
}

type ConfigFile struct {
	Data struct {
		ArtifactPath     string `yaml:"artifactPath"`
		TrainingDataPath string `yaml:"trainingDataPath"`
	} `yaml:"data"`

	Target struct {
		LabelColumn    string   `yaml:"labelColumn"`
		PositiveLabels []string `yaml:"positiveLabels"`
	} `yaml:"target"`

	// MaxDepth and Seed are pointers because 0 is a meaningful value for both.
	Forest struct {
		Trees     int     `yaml:"trees"`
		MaxDepth  *int    `yaml:"maxDepth"`
		Seed      *int64  `yaml:"seed"`
		TestRatio float64 `yaml:"testRatio"`
	} `yaml:"forest"`

	Dashboard struct {
		Port           int    `yaml:"port"`
		SessionTTL     string `yaml:"sessionTTL"`
		MaxUploadBytes int64  `yaml:"maxUploadBytes"`
		TopStudents    int    `yaml:"topStudents"`
		TopFeatures    int    `yaml:"topFeatures"`
	} `yaml:"dashboard"`

	System struct {
		LogLevel string `yaml:"logLevel"`
	} `yaml:"system"`
}

// Load reads a .env file when one exists, then builds settings from the YAML
// file named by CONFIG_FILE or, failing that, from environment variables.
func Load() (Settings, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Settings{}, fmt.Errorf("failed to load .env file: %w", err)
	}

	if configPath := os.Getenv(common.EnvConfigFile); configPath != "" {
		return loadFromYAML(configPath)
	}

	return loadFromEnv()
}

func loadFromYAML(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Settings{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	sessionTTL, err := time.ParseDuration(config.Dashboard.SessionTTL)
	if err != nil {
		sessionTTL = DefaultSessionTTL
	}

	settings := Settings{
		ArtifactPath:     getEnvOrDefault(common.EnvArtifactPath, orString(config.Data.ArtifactPath, common.DefaultArtifactPath)),
		TrainingDataPath: getEnvOrDefault(common.EnvTrainingDataPath, orString(config.Data.TrainingDataPath, common.DefaultTrainingDataPath)),
		LabelColumn:      getEnvOrDefault(common.EnvLabelColumn, orString(config.Target.LabelColumn, common.DefaultLabelColumn)),
		PositiveLabels:   getLabelsFromEnvOrConfig(config.Target.PositiveLabels),
		Trees:            getIntFromEnvOrConfig(common.EnvTrees, config.Forest.Trees, common.DefaultTrees),
		MaxDepth:         getOptionalFromEnvOrConfig(common.EnvMaxDepth, config.Forest.MaxDepth, common.DefaultMaxDepth),
		Seed:             getOptionalFromEnvOrConfig(common.EnvSeed, config.Forest.Seed, common.DefaultSeed),
		TestRatio:        getFloatFromEnvOrConfig(common.EnvTestRatio, config.Forest.TestRatio, common.DefaultTestRatio),
		DashboardPort:    getIntFromEnvOrConfig(common.EnvDashboardPort, config.Dashboard.Port, common.DefaultDashboardPort),
		SessionTTL:       getDurationOrDefault(common.EnvSessionTTL, sessionTTL),
		MaxUploadBytes:   int64(getIntFromEnvOrConfig(common.EnvMaxUploadBytes, int(config.Dashboard.MaxUploadBytes), common.DefaultMaxUploadBytes)),
		TopStudents:      getIntFromEnvOrConfig(common.EnvTopStudents, config.Dashboard.TopStudents, common.DefaultTopStudents),
		TopFeatures:      getIntFromEnvOrConfig(common.EnvTopFeatures, config.Dashboard.TopFeatures, common.DefaultTopFeatures),
		LogLevel:         getEnvOrDefault(common.EnvLogLevel, orString(config.System.LogLevel, common.DefaultLogLevel)),
	}

	if err := Validate(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

func loadFromEnv() (Settings, error) {
	settings := Settings{
		ArtifactPath:     getEnvOrDefault(common.EnvArtifactPath, common.DefaultArtifactPath),
		TrainingDataPath: getEnvOrDefault(common.EnvTrainingDataPath, common.DefaultTrainingDataPath),
		LabelColumn:      getEnvOrDefault(common.EnvLabelColumn, common.DefaultLabelColumn),
		PositiveLabels:   splitOrDefault(os.Getenv(common.EnvPositiveLabels), []string{common.DefaultPositiveLabel}),
		Trees:            getIntOrDefault(common.EnvTrees, common.DefaultTrees),
		MaxDepth:         getIntOrDefault(common.EnvMaxDepth, common.DefaultMaxDepth),
		Seed:             int64(getIntOrDefault(common.EnvSeed, common.DefaultSeed)),
		TestRatio:        getFloatOrDefault(common.EnvTestRatio, common.DefaultTestRatio),
		DashboardPort:    getIntOrDefault(common.EnvDashboardPort, common.DefaultDashboardPort),
		SessionTTL:       getDurationOrDefault(common.EnvSessionTTL, DefaultSessionTTL),
		MaxUploadBytes:   int64(getIntOrDefault(common.EnvMaxUploadBytes, common.DefaultMaxUploadBytes)),
		TopStudents:      getIntOrDefault(common.EnvTopStudents, common.DefaultTopStudents),
		TopFeatures:      getIntOrDefault(common.EnvTopFeatures, common.DefaultTopFeatures),
		LogLevel:         getEnvOrDefault(common.EnvLogLevel, common.DefaultLogLevel),
	}

	if err := Validate(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

// Validate checks every settings field against its struct tag rules and
// reports the failures as one error.
func Validate(settings *Settings) error {
	err := validator.New(validator.WithRequiredStructEnabled()).Struct(settings)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	messages := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			messages = append(messages, fmt.Sprintf("%s failed %s=%s (got %v)", fe.Field(), fe.Tag(), fe.Param(), fe.Value()))
		} else {
			messages = append(messages, fmt.Sprintf("%s failed %s (got %v)", fe.Field(), fe.Tag(), fe.Value()))
		}
	}
	return errors.New(strings.Join(messages, "; "))
}

// TargetRule is the label rule training derives its 0/1 target from.
func (s *Settings) TargetRule() ml.TargetRule {
	return ml.TargetRule{
		LabelColumn:    s.LabelColumn,
		PositiveLabels: s.PositiveLabels,
	}
}

// ForestParams applies the configured forest settings over the defaults.
func (s *Settings) ForestParams() ml.ForestParams {
	params := ml.DefaultForestParams()
	params.Trees = s.Trees
	params.MaxDepth = s.MaxDepth
	params.Seed = s.Seed
	return params
}

func orString(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func splitOrDefault(v string, def []string) []string {
	if v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getLabelsFromEnvOrConfig(configLabels []string) []string {
	if env := os.Getenv(common.EnvPositiveLabels); env != "" {
		return splitOrDefault(env, nil)
	}
	if len(configLabels) > 0 {
		return configLabels
	}
	return []string{common.DefaultPositiveLabel}
}

func getIntFromEnvOrConfig(key string, configValue, defaultValue int) int {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.Atoi(env); err == nil {
			return val
		}
	}
	if configValue != 0 {
		return configValue
	}
	return defaultValue
}

// getOptionalFromEnvOrConfig treats a nil config value as unset, so an
// explicit zero in the file is kept.
func getOptionalFromEnvOrConfig[T int | int64](key string, configValue *T, defaultValue T) T {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.ParseInt(env, 10, 64); err == nil {
			return T(val)
		}
	}
	if configValue != nil {
		return *configValue
	}
	return defaultValue
}

func getFloatFromEnvOrConfig(key string, configValue, defaultValue float64) float64 {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.ParseFloat(env, 64); err == nil {
			return val
		}
	}
	if configValue != 0 {
		return configValue
	}
	return defaultValue
}
