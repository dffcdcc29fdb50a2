package common

// Environment variable keys
const (
	EnvConfigFile       = "CONFIG_FILE"
	EnvArtifactPath     = "ARTIFACT_PATH"
	EnvTrainingDataPath = "TRAINING_DATA_PATH"
	EnvLabelColumn      = "LABEL_COLUMN"
	EnvPositiveLabels   = "POSITIVE_LABELS"
	EnvTrees            = "FOREST_TREES"
	EnvMaxDepth         = "FOREST_MAX_DEPTH"
	EnvSeed             = "FOREST_SEED"
	EnvTestRatio        = "TEST_RATIO"
	EnvDashboardPort    = "DASHBOARD_PORT"
	EnvSessionTTL       = "SESSION_TTL"
	EnvMaxUploadBytes   = "MAX_UPLOAD_BYTES"
	EnvTopStudents      = "TOP_STUDENTS"
	EnvTopFeatures      = "TOP_FEATURES"
	EnvLogLevel         = "LOG_LEVEL"
)

// Configuration defaults
const (
	DefaultArtifactPath     = "dropout_model.db"
	DefaultTrainingDataPath = "xAPI-Edu-Data.csv"
	DefaultLabelColumn      = "Class"
	DefaultPositiveLabel    = "L"
	DefaultTrees            = 200
	DefaultMaxDepth         = 10
	DefaultSeed             = 42
	DefaultTestRatio        = 0.2
	DefaultDashboardPort    = 8501
	DefaultMaxUploadBytes   = 32 << 20 // 32 MiB
	DefaultTopStudents      = 20
	DefaultTopFeatures      = 8
	DefaultLogLevel         = "info"
)

// Column names written by the batch and dashboard outputs
const (
	ColStudentID        = "student_id"
	ColRiskScore        = "risk_score"
	ColRiskLabel        = "risk_label"
	ColPredictedDropout = "predicted_dropout"
)

