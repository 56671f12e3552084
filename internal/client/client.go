// Package client talks to the rockfall prediction backend.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"rockwatch/internal/config"
	"rockwatch/internal/metrics"
	"rockwatch/internal/model"
)

const (
	OpStatus     = "get api status"
	OpHealth     = "health check"
	OpPredict    = "prediction"
	OpMockData   = "get mock data"
	OpHistorical = "get historical data"
)

// Error is returned by every Client call. Message carries the backend's
// own error text when the response body had one.
type Error struct {
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	cause := e.Message
	if cause == "" && e.Err != nil {
		cause = e.Err.Error()
	}
	if cause == "" && e.Status != 0 {
		cause = fmt.Sprintf("status %d", e.Status)
	}
	return e.Op + " failed: " + cause
}

func (e *Error) Unwrap() error {
	return e.Err
}

type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

func New(cfg config.BackendConfig, logger *slog.Logger) *Client {
	rc := retryablehttp.NewClient()
	rc.Logger = nil
	rc.RetryMax = cfg.RetryMax
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	hc := rc.StandardClient()
	hc.Timeout = cfg.Timeout
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    hc,
		logger:  logger,
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) Status(ctx context.Context) (*model.APIStatus, error) {
	var out model.APIStatus
	if err := c.do(ctx, OpStatus, http.MethodGet, "/", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health succeeds on any 2xx answer; the body is decoded when it is JSON.
func (c *Client) Health(ctx context.Context) (*model.HealthStatus, error) {
	var out model.HealthStatus
	if err := c.do(ctx, OpHealth, http.MethodGet, "/health", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) MockData(ctx context.Context) (*model.MockData, error) {
	var out model.MockData
	if err := c.do(ctx, OpMockData, http.MethodGet, "/mock-data", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Predict posts input as JSON without altering it.
func (c *Client) Predict(ctx context.Context, input any) (*model.PredictionResult, error) {
	body, err := json.Marshal(input)
	if err != nil {
		return nil, &Error{Op: OpPredict, Err: err}
	}
	var out model.PredictionResult
	if err := c.do(ctx, OpPredict, http.MethodPost, "/predict", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) HistoricalData(ctx context.Context) (*model.HistoricalData, error) {
	var out model.HistoricalData
	if err := c.do(ctx, OpHistorical, http.MethodGet, "/historical-data", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, body []byte, out any) error {
	start := time.Now()
	err := c.roundTrip(ctx, op, method, path, body, out)
	metrics.BackendLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
	outcome := "ok"
	if err != nil {
		outcome = "error"
		if c.logger != nil {
			c.logger.Debug("backend request failed", "op", op, "path", path, "err", err)
		}
	}
	metrics.BackendRequests.WithLabelValues(op, outcome).Inc()
	return err
}

func (c *Client) roundTrip(ctx context.Context, op, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &Error{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Op: op, Err: err}
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return &Error{Op: op, Status: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{Op: op, Status: resp.StatusCode, Message: errorMessage(data)}
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		if op == OpHealth {
			return nil
		}
		return &Error{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func errorMessage(data []byte) string {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err == nil && body.Error != "" {
		return body.Error
	}
	return ""
}
