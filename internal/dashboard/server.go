// Package dashboard serves the interactive dropout-risk page and its JSON
// API. The fitted pipeline is loaded once and shared read-only; every
// browser session keeps its own uploaded and scored table.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"dropout-risk/internal/cfg"
	"dropout-risk/internal/common"
	"dropout-risk/internal/metrics"
	"dropout-risk/internal/ml"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const sessionCookie = "dropout_session"

// Options configures the dashboard server.
type Options struct {
	Port           int
	SessionTTL     time.Duration
	MaxUploadBytes int64
	TopStudents    int
	TopFeatures    int
	// Gatherer backs /metrics; nil means the default registry.
	Gatherer prometheus.Gatherer
}

// Server is the dashboard HTTP server.
type Server struct {
	scorer         *ml.Scorer
	importances    []ml.FeatureImportance
	metricsWrapper *metrics.MetricsWrapper
	sessions       *SessionStore
	opts           Options
	router         *mux.Router
	server         *http.Server
	started        time.Time
	stopChannel    chan struct{}
	isRunning      bool
	mu             sync.Mutex
}

// NewServer builds the routes around a loaded pipeline. metricsWrapper may
// be nil.
func NewServer(pipeline *ml.Pipeline, metricsWrapper *metrics.MetricsWrapper, opts Options) (*Server, error) {
	importances, err := pipeline.FeatureImportances()
	if err != nil {
		return nil, err
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	if opts.TopStudents <= 0 {
		opts.TopStudents = common.DefaultTopStudents
	}
	if opts.TopFeatures <= 0 {
		opts.TopFeatures = ml.DefaultTopFeatures
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = cfg.DefaultSessionTTL
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = common.DefaultMaxUploadBytes
	}

	var scorerMetrics ml.MetricsInterface
	if metricsWrapper != nil {
		scorerMetrics = metricsWrapper
	}

	s := &Server{
		scorer:         ml.NewScorer(pipeline, scorerMetrics),
		importances:    importances,
		metricsWrapper: metricsWrapper,
		sessions:       NewSessionStore(opts.SessionTTL),
		opts:           opts,
		started:        time.Now(),
		stopChannel:    make(chan struct{}),
	}

	r := mux.NewRouter()
	r.HandleFunc("/", s.handleDashboard).Methods("GET")
	r.HandleFunc("/upload", s.handleUpload).Methods("POST")
	r.HandleFunc(common.RouteScore, s.handleScoreAPI).Methods("POST")
	r.HandleFunc(common.RouteImportance, s.handleImportanceAPI).Methods("GET")
	r.HandleFunc(common.RouteHealth, s.handleHealth).Methods("GET")
	r.Handle(common.RouteMetrics, promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})).Methods("GET")
	s.router = r

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", opts.Port),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves in the background and begins expiring idle sessions.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("dashboard is already running")
	}

	go s.sessionSweeper()

	go func() {
		log.Info().
			Str("address", s.server.Addr).
			Msg("Starting dashboard server")

		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Dashboard server failed")
		}
	}()

	s.isRunning = true
	log.Info().Msg("Dashboard started successfully")
	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	close(s.stopChannel)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to shutdown dashboard server")
		return err
	}

	s.isRunning = false
	log.Info().Msg("Dashboard stopped")
	return nil
}

func (s *Server) sessionSweeper() {
	interval := s.opts.SessionTTL / 4
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := s.sessions.Expire(); n > 0 {
				log.Debug().Int("expired", n).Msg("Expired idle sessions")
			}
			s.updateSessionGauge()
		case <-s.stopChannel:
			return
		}
	}
}

func (s *Server) updateSessionGauge() {
	if s.metricsWrapper != nil {
		s.metricsWrapper.ActiveSessionsSet(float64(s.sessions.Uploads()))
	}
}

func (s *Server) recordUpload(status string) {
	if s.metricsWrapper != nil {
		s.metricsWrapper.UploadInc(status)
	}
}

// sessionID returns the caller's session, issuing a cookie for a new one.
func (s *Server) sessionID(w http.ResponseWriter, r *http.Request) string {
	var current string
	if c, err := r.Cookie(sessionCookie); err == nil {
		current = c.Value
	}

	id := s.sessions.Touch(current)
	if id != current {
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookie,
			Value:    id,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return id
}
