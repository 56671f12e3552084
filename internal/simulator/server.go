// Package simulator is a stand-in prediction backend for local runs and
// tests. It serves the same endpoints as the real model service.
package simulator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"mime"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"rockwatch/internal/model"
)

var RequiredFields = []string{"slope_angle", "joint_spacing", "rock_strength"}

type Simulator struct {
	mu     sync.Mutex
	rng    *rand.Rand
	now    func() time.Time
	drift  *drift
	logger *slog.Logger
}

// New seeds the simulator; a zero seed uses the clock.
func New(seed int64, logger *slog.Logger) *Simulator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	now := func() time.Time { return time.Now() }
	return &Simulator{
		rng:    rand.New(rand.NewSource(seed)),
		now:    now,
		drift:  newDrift(now()),
		logger: logger,
	}
}

func (s *Simulator) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/", s.handleStatus)
	r.Get("/health", s.handleHealth)
	r.Post("/predict", s.handlePredict)
	r.Get("/mock-data", s.handleMockData)
	r.Get("/historical-data", s.handleHistorical)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Endpoint not found"})
	})
	return r
}

// MockData produces one live snapshot.
func (s *Simulator) MockData() model.MockData {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	reading := s.drift.reading(now, s.rng)
	pred := Predict(inputOf(reading), s.rng, now)
	online := s.rng.Float64() > 0.1
	quality := "good"
	if online {
		quality = "excellent"
	}
	maintenance := now.Add(-time.Duration(7+s.rng.Intn(4)) * 24 * time.Hour)
	return model.MockData{
		SensorData: reading,
		Prediction: pred,
		SystemStatus: model.SystemStatus{
			SensorsOnline:   online,
			LastMaintenance: maintenance.Format("2006-01-02T15:04:05.000000"),
			AlertLevel:      strings.ToLower(string(pred.RiskCategory)),
			DataQuality:     quality,
			NetworkStatus:   "stable",
		},
	}
}

func (s *Simulator) Predict(in Input) model.PredictionResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := Predict(in, s.rng, s.now())
	res.InputSummary = summary(in)
	res.APIVersion = APIVersion
	return res
}

func summary(in Input) map[string]float64 {
	return map[string]float64{
		"slope_angle":         in["slope_angle"],
		"rock_strength":       in["rock_strength"],
		"rainfall_24h":        in.get("rainfall_24h", 0),
		"vibration_intensity": in.get("vibration_intensity", 0),
	}
}

// Fallback answers with the fixed medium-risk result used when the input
// cannot be scored.
func (s *Simulator) Fallback(in Input) model.PredictionResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := SafeDefault(s.now())
	res.InputSummary = summary(in)
	res.APIVersion = APIVersion
	return res
}

func (s *Simulator) Historical() model.HistoricalData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Historical(s.now(), s.rng)
}

func (s *Simulator) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.APIStatus{
		Message:     "Rockfall Prediction API",
		Status:      "online",
		Version:     APIVersion,
		ModelLoaded: true,
		Endpoints: map[string]string{
			"/predict":         "POST - Predict rockfall risk",
			"/mock-data":       "GET - Get mock sensor data",
			"/historical-data": "GET - Get historical trend data",
			"/health":          "GET - API health check",
		},
	})
}

func (s *Simulator) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.HealthStatus{
		Status:      "healthy",
		Timestamp:   s.now().Format("2006-01-02T15:04:05.000000"),
		ModelStatus: "loaded",
	})
}

func (s *Simulator) handlePredict(w http.ResponseWriter, r *http.Request) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "application/json" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Request must contain JSON data"})
		return
	}
	var raw map[string]any
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil || len(raw) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No input data provided"})
		return
	}
	var missing []string
	for _, f := range RequiredFields {
		if _, ok := raw[f]; !ok {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":           "Missing required fields: " + strings.Join(missing, ", "),
			"required_fields": RequiredFields,
		})
		return
	}
	in, err := decodeInput(raw)
	var res model.PredictionResult
	if err != nil {
		if s.logger != nil {
			s.logger.Error("prediction simulation error", "err", err)
		}
		res = s.Fallback(in)
	} else {
		res = s.Predict(in)
	}
	if s.logger != nil {
		s.logger.Info("prediction made", "category", res.RiskCategory, "probability", res.RiskProbability)
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Simulator) handleMockData(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.MockData())
}

func (s *Simulator) handleHistorical(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Historical())
}

var scoringFields = map[string]bool{
	"slope_angle":         true,
	"joint_spacing":       true,
	"rainfall_24h":        true,
	"weathering_index":    true,
	"vibration_intensity": true,
}

// decodeInput keeps numeric fields. A scoring field that is not a number
// is reported, but the rest of the input is still returned.
func decodeInput(raw map[string]any) (Input, error) {
	in := make(Input, len(raw))
	var bad error
	for k, v := range raw {
		n, ok := v.(json.Number)
		if ok {
			f, err := n.Float64()
			if err == nil {
				in[k] = f
				continue
			}
		}
		if scoringFields[k] && bad == nil {
			bad = fmt.Errorf("%s: expected a number, got %v", k, v)
		}
	}
	return in, bad
}

// ListenAndServe runs the simulator until ctx is cancelled.
func (s *Simulator) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if s.logger != nil {
		s.logger.Info("simulator listening", "addr", addr)
	}
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
