package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rockwatch/internal/config"
	"rockwatch/internal/model"
	"rockwatch/internal/validate"
)

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(config.BackendConfig{BaseURL: srv.URL, Timeout: 2 * time.Second}, nil)
}

func TestPredictSendsPresetUnmodified(t *testing.T) {
	preset, ok := validate.Preset("low_risk")
	require.True(t, ok)

	var got map[string]float64
	calls := 0
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/predict", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		_, _ = w.Write([]byte(`{"risk_category":"Low","risk_probability":18.2,"confidence":88.1,
			"category_probabilities":{"Low":25.1,"Medium":20,"High":5,"Critical":0},
			"prediction_time":"2026-01-01T00:00:00","api_version":"1.0.0"}`))
	}))

	res, err := c.Predict(context.Background(), preset)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, preset.Fields(), got)
	assert.Equal(t, model.RiskLow, res.RiskCategory)
	assert.Equal(t, 18.2, res.RiskProbability)
	assert.Equal(t, "1.0.0", res.APIVersion)
}

func TestPredictUsesBackendErrorMessage(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"Missing required fields: rock_strength"}`))
	}))

	_, err := c.Predict(context.Background(), map[string]float64{"slope_angle": 10})
	require.Error(t, err)
	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "prediction failed: Missing required fields: rock_strength", err.Error())
}

func TestServerErrorIsNotRetriedByDefault(t *testing.T) {
	calls := 0
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))

	_, err := c.MockData(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "get mock data failed: status 500", err.Error())
}

func TestTransportErrorCarriesCause(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	c := New(config.BackendConfig{BaseURL: url, Timeout: time.Second}, nil)

	_, err := c.Health(context.Background())
	require.Error(t, err)
	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, OpHealth, apiErr.Op)
	assert.NotNil(t, apiErr.Unwrap())
	assert.Contains(t, err.Error(), "health check failed: ")
}

func TestHealthAcceptsArbitraryBody(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("pong"))
	}))
	_, err := c.Health(context.Background())
	assert.NoError(t, err)
}

func TestMockDataDecodes(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/mock-data", r.URL.Path)
		_, _ = w.Write([]byte(`{"sensor_data":{"slope_angle":45.2,"rainfall_24h":2.1,"vibration_intensity":2.05,
			"sensor_id":"RS_1003","location":"Sector-North"},
			"prediction":{"risk_category":"Medium","risk_probability":35.5,"confidence":87,
			"category_probabilities":{"Low":20,"Medium":40}},
			"system_status":{"sensors_online":true,"alert_level":"medium"}}`))
	}))

	data, err := c.MockData(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "RS_1003", data.SensorData.SensorID)
	assert.Equal(t, 45.2, data.SensorData.SlopeAngle)
	assert.Equal(t, model.RiskMedium, data.Prediction.RiskCategory)
	assert.Equal(t, 0.0, data.Prediction.Probability(model.RiskCritical))
	assert.True(t, data.SystemStatus.SensorsOnline)
}

func TestDecodeFailureIsAnError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	_, err := c.HistoricalData(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "get historical data failed: decode response")
}

func TestContextCancelStopsRequest(t *testing.T) {
	block := make(chan struct{})
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	defer close(block)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.Status(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
