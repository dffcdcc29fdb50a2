package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"dropout-risk/internal/dashboard"
	"dropout-risk/internal/dataset"
	"dropout-risk/internal/ml"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// the batch runner accepts either scorer
var _ ml.RiskScorer = (*Client)(nil)

func newDashboard(t *testing.T) (*httptest.Server, *ml.Pipeline) {
	t.Helper()
	params := ml.DefaultForestParams()
	params.Trees = 15
	p, err := ml.FitPipeline(dataset.GenerateStudents(120, 0.3, 6),
		ml.TargetRule{LabelColumn: "Class", PositiveLabels: []string{"L"}}, params)
	require.NoError(t, err)

	s, err := dashboard.NewServer(p, nil, dashboard.Options{Gatherer: prometheus.NewRegistry()})
	require.NoError(t, err)

	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv, p
}

func TestClient_ScoreMatchesLocalScorer(t *testing.T) {
	srv, p := newDashboard(t)
	table := dataset.GenerateStudents(50, 0.4, 12)

	remote, err := New(srv.URL+"/", 5*time.Second).Score(context.Background(), table)
	require.NoError(t, err)

	local, err := ml.NewScorer(p, nil).Score(context.Background(), table)
	require.NoError(t, err)

	assert.Equal(t, local.Records, remote.Records)
	assert.Equal(t, local.Summary, remote.Summary)
}

func TestClient_SchemaError(t *testing.T) {
	srv, _ := newDashboard(t)
	table, err := dataset.NewTable([]string{"gender"}, [][]string{{"M"}})
	require.NoError(t, err)

	_, err = New(srv.URL, 0).Score(context.Background(), table)

	var schemaErr *ml.SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.NotEmpty(t, schemaErr.Column)
	assert.Zero(t, schemaErr.Row)
}

func TestClient_ImportanceAndHealth(t *testing.T) {
	srv, p := newDashboard(t)
	c := New(srv.URL, time.Second)

	features, err := c.Importance(context.Background())
	require.NoError(t, err)
	assert.Len(t, features, ml.DefaultTopFeatures)

	all, err := p.FeatureImportances()
	require.NoError(t, err)
	assert.Equal(t, ml.TopFeatures(all, ml.DefaultTopFeatures), features)

	health, err := c.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, 15, health.Trees)
}

func TestClient_ServerErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	table := dataset.GenerateStudents(5, 0.2, 1)
	_, err := New(srv.URL, time.Second).Score(context.Background(), table)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")

	_, err = New(srv.URL, time.Second).Health(context.Background())
	assert.Error(t, err)
}

func TestClient_HealthNotReady(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"starting","trees":0}`))
	}))
	defer srv.Close()

	health, err := New(srv.URL, time.Second).Health(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "starting")
	require.NotNil(t, health)
	assert.Equal(t, "starting", health.Status)
}

func TestClient_CancelledContext(t *testing.T) {
	srv, _ := newDashboard(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(srv.URL, time.Second).Score(ctx, dataset.GenerateStudents(5, 0.2, 1))
	assert.Error(t, err)
}
