package common

// Dashboard JSON API routes
const (
	RouteScore      = "/api/score"
	RouteImportance = "/api/importance"
	RouteHealth     = "/health"
	RouteMetrics    = "/metrics"
)

// ErrorResponse is the JSON body of a failed API call. Column, Row and
// Value are set when the failure is a schema mismatch.
type ErrorResponse struct {
	Error  string `json:"error"`
	Schema bool   `json:"schema,omitempty"`
	Column string `json:"column,omitempty"`
	Row    int    `json:"row,omitempty"`
	Value  string `json:"value,omitempty"`
}

// HealthResponse is the JSON body of the health endpoint.
type HealthResponse struct {
	Status       string  `json:"status"`
	TrainedAt    string  `json:"trained_at"`
	Features     int     `json:"features"`
	Trees        int     `json:"trees"`
	Sessions     int     `json:"sessions"`
	FailureRate  float64 `json:"failure_rate"`
	UptimeSecond float64 `json:"uptime_seconds"`
}
