// Package client scores student tables through a running dashboard's JSON
// API. Client implements ml.RiskScorer, so batch runs can use it in place
// of a locally loaded artifact.
package client

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"dropout-risk/internal/common"
	"dropout-risk/internal/dataset"
	"dropout-risk/internal/ml"

	"github.com/go-resty/resty/v2"
)

type Client struct {
	base string
	rest *resty.Client
}

func New(base string, timeout time.Duration) *Client {
	r := resty.New()
	if timeout > 0 {
		r.SetTimeout(timeout)
	} else {
		r.SetTimeout(30 * time.Second) // default fallback
	}
	return &Client{base: strings.TrimRight(base, "/"), rest: r}
}

// Score uploads the table as CSV and decodes the scored rows.
func (c *Client) Score(ctx context.Context, table *dataset.Table) (*ml.ScoreResult, error) {
	var body bytes.Buffer
	if err := dataset.WriteCSV(&body, table); err != nil {
		return nil, fmt.Errorf("encode table: %w", err)
	}

	result := &ml.ScoreResult{}
	apiErr := &common.ErrorResponse{}
	resp, err := c.rest.R().
		SetContext(ctx).
		SetHeader("Content-Type", "text/csv").
		SetBody(body.Bytes()).
		SetResult(result).
		SetError(apiErr).
		Post(c.base + common.RouteScore)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, decodeError(resp.StatusCode(), apiErr, resp.String())
	}
	return result, nil
}

// Importance fetches the top features of the served model.
func (c *Client) Importance(ctx context.Context) ([]ml.FeatureImportance, error) {
	var features []ml.FeatureImportance
	apiErr := &common.ErrorResponse{}
	resp, err := c.rest.R().
		SetContext(ctx).
		SetResult(&features).
		SetError(apiErr).
		Get(c.base + common.RouteImportance)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, decodeError(resp.StatusCode(), apiErr, resp.String())
	}
	return features, nil
}

// Health returns the server's health report, or an error when the server
// does not report itself ready.
func (c *Client) Health(ctx context.Context) (*common.HealthResponse, error) {
	health := &common.HealthResponse{}
	resp, err := c.rest.R().
		SetContext(ctx).
		SetResult(health).
		Get(c.base + common.RouteHealth)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("API error: status %d", resp.StatusCode())
	}
	if health.Status != "ok" {
		return health, fmt.Errorf("server not ready: status %q", health.Status)
	}
	return health, nil
}

// decodeError restores a *ml.SchemaError so callers can inspect it with
// errors.As just as with a local scorer.
func decodeError(status int, apiErr *common.ErrorResponse, body string) error {
	if apiErr.Schema {
		return &ml.SchemaError{Column: apiErr.Column, Row: apiErr.Row, Value: apiErr.Value}
	}
	if apiErr.Error != "" {
		return fmt.Errorf("API error: status %d: %s", status, apiErr.Error)
	}
	return fmt.Errorf("API error: status %d, body: %s", status, body)
}
