package api

import (
	"context"
	"encoding/json"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rockwatch/internal/alerts"
	"rockwatch/internal/api/web"
	"rockwatch/internal/config"
	"rockwatch/internal/metrics"
	"rockwatch/internal/model"
	"rockwatch/internal/poller"
	"rockwatch/internal/zones"
)

// Backend is the part of the prediction service the dashboard proxies.
type Backend interface {
	Predict(ctx context.Context, input any) (*model.PredictionResult, error)
	HistoricalData(ctx context.Context) (*model.HistoricalData, error)
}

type LiveView interface {
	State() poller.State
	History(n int) []model.HistoryEntry
	Clear()
}

type HealthView interface {
	State() poller.HealthState
}

// Resetter forgets per-sensor alert cooldowns.
type Resetter interface {
	Reset()
}

type Deps struct {
	Config     *config.Manager
	Backend    Backend
	Live       LiveView
	Health     HealthView
	Sensors    *metrics.Store
	Alerts     *alerts.Store
	MockAlerts *alerts.Generator
	Zones      *zones.Generator
	Recorder   Resetter
	Logger     *slog.Logger
	Version    string

	// OnConfigChange runs after an admin update was stored.
	OnConfigChange func(*config.Config)
}

type Server struct {
	cfg        *config.Manager
	backend    Backend
	live       LiveView
	health     HealthView
	sensors    *metrics.Store
	alerts     *alerts.Store
	mockAlerts *alerts.Generator
	zones      *zones.Generator
	recorder   Resetter
	logger     *slog.Logger
	version    string
	onConfig   func(*config.Config)
	mockLoaded atomic.Bool
}

type statusResponse struct {
	Status     string          `json:"status"`
	Time       string          `json:"time"`
	Version    string          `json:"version"`
	ConfigPath string          `json:"config_path"`
	Backend    backendStatus   `json:"backend"`
	Poller     pollerStatus    `json:"poller"`
	API        apiStatus       `json:"api"`
	Storage    storageStatus   `json:"storage"`
	Broadcast  broadcastStatus `json:"broadcast"`
	Notify     notifyStatus    `json:"notify"`
	Validation validateStatus  `json:"validation"`
}

type backendStatus struct {
	BaseURL string `json:"base_url"`
	Online  bool   `json:"online"`
}

type pollerStatus struct {
	Interval    string `json:"interval"`
	HistorySize int    `json:"history_size"`
	Loading     bool   `json:"loading"`
	LastUpdate  string `json:"last_update,omitempty"`
}

type apiStatus struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr"`
	Metrics bool   `json:"metrics"`
}

type storageStatus struct {
	Enabled bool   `json:"enabled"`
	Driver  string `json:"driver"`
}

type broadcastStatus struct {
	Kafka bool `json:"kafka"`
	MQTT  bool `json:"mqtt"`
	NATS  bool `json:"nats"`
}

type notifyStatus struct {
	Email bool `json:"email"`
}

type validateStatus struct {
	Strict bool `json:"strict"`
}

func NewServer(d Deps) *Server {
	if d.Config == nil {
		d.Config = config.NewStaticManager(config.DefaultConfig())
	}
	if d.Sensors == nil {
		d.Sensors = metrics.NewStore(0)
	}
	if d.Alerts == nil {
		d.Alerts = alerts.NewStore(0)
	}
	if d.MockAlerts == nil {
		d.MockAlerts = alerts.NewGenerator(0)
	}
	if d.Zones == nil {
		d.Zones = zones.NewGenerator(0)
	}
	return &Server{
		cfg:        d.Config,
		backend:    d.Backend,
		live:       d.Live,
		health:     d.Health,
		sensors:    d.Sensors,
		alerts:     d.Alerts,
		mockAlerts: d.MockAlerts,
		zones:      d.Zones,
		recorder:   d.Recorder,
		logger:     d.Logger,
		version:    d.Version,
		onConfig:   d.OnConfigChange,
	}
}

// Start serves the dashboard until ctx is cancelled. It returns nil when
// the API is disabled.
func Start(ctx context.Context, d Deps) *http.Server {
	if d.Config == nil {
		return nil
	}
	logger := d.Logger
	current := d.Config.Get().API
	if !current.Enabled {
		if logger != nil {
			logger.Info("api disabled")
		}
		return nil
	}
	if logger != nil {
		logger.Info("api enabled", "addr", current.Addr)
	}
	server := NewServer(d)

	httpServer := &http.Server{Addr: current.Addr, Handler: server.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(ctxShutdown)
	}()
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if logger != nil {
				logger.Error("api server error", "err", err)
			}
		}
	}()
	return httpServer
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.logger))

	r.Get("/status", s.handleStatus)
	r.Route("/api", func(r chi.Router) {
		r.Get("/live", s.handleLive)
		r.Get("/health", s.handleHealth)
		r.Get("/history", s.handleHistory)
		r.Get("/historical", s.handleHistorical)
		r.Get("/sensors", s.handleSensors)
		r.Get("/sensors/{id}", s.handleSensor)
		r.Get("/zones", s.handleZones)
		r.Get("/alerts", s.handleAlerts)
		r.Get("/charts/trend", s.handleTrend)
		r.Get("/charts/trend.png", s.handleTrendPNG)
		r.Get("/charts/distribution", s.handleDistribution)
		r.Get("/charts/distribution.png", s.handleDistributionPNG)
		r.Get("/charts/zones", s.handleZoneChart)
		r.Get("/charts/zones.png", s.handleZoneChartPNG)
		r.Get("/form", s.handleForm)
		r.Get("/presets", s.handlePresets)
		r.Post("/validate", s.handleValidate)
		r.Post("/predict", s.handlePredict)
		r.Get("/languages", s.handleLanguages)
		r.Post("/language", s.handleLanguage)
	})
	r.Post("/admin/clear", s.handleClear)
	r.Put("/admin/config", s.handleConfigUpdate)
	if s.cfg.Get().API.Metrics {
		r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	}

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/ui/", http.StatusFound)
	})
	r.Get("/ui", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/ui/", http.StatusMovedPermanently)
	})
	uiFS, err := fs.Sub(web.FS, ".")
	if err == nil {
		r.Handle("/ui/*", http.StripPrefix("/ui/", http.FileServer(http.FS(uiFS))))
	}
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	return r
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	cfg := s.cfg.Get()
	bc := broadcastStatus{
		Kafka: cfg.Broadcast.Kafka.Enabled,
		MQTT:  cfg.Broadcast.MQTT.Enabled,
		NATS:  cfg.Broadcast.NATS.Enabled,
	}
	resp := statusResponse{
		Status:     "ok",
		Time:       time.Now().UTC().Format(time.RFC3339Nano),
		Version:    s.version,
		ConfigPath: s.cfg.Path(),
		Backend:    backendStatus{BaseURL: cfg.Backend.BaseURL},
		Poller:     pollerStatus{Interval: cfg.Poller.Interval.String(), HistorySize: cfg.Poller.HistorySize},
		API:        apiStatus{Enabled: cfg.API.Enabled, Addr: cfg.API.Addr, Metrics: cfg.API.Metrics},
		Storage:    storageStatus{Enabled: cfg.Storage.Enabled, Driver: cfg.Storage.Driver},
		Broadcast:  bc,
		Notify:     notifyStatus{Email: cfg.Notify.Email.Enabled},
		Validation: validateStatus{Strict: cfg.Validation.Strict},
	}
	if s.health != nil {
		resp.Backend.Online = s.health.State().Online
	}
	if s.live != nil {
		st := s.live.State()
		resp.Poller.Loading = st.Loading
		if st.Capacity > 0 {
			resp.Poller.HistorySize = st.Capacity
		}
		if !st.LastUpdate.IsZero() {
			resp.Poller.LastUpdate = st.LastUpdate.UTC().Format(time.RFC3339Nano)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	var req struct {
		Target string `json:"target"`
	}
	_ = json.Unmarshal(body, &req)
	target := strings.ToLower(strings.TrimSpace(req.Target))
	if target == "" {
		target = "all"
	}
	switch target {
	case "all":
		s.clearHistory()
		s.clearAlerts()
		s.sensors.Clear()
	case "history":
		s.clearHistory()
	case "alerts":
		s.clearAlerts()
	case "sensors", "metrics":
		s.sensors.Clear()
	default:
		writeError(w, http.StatusBadRequest, "unknown target: "+target)
		return
	}
	if s.logger != nil {
		s.logger.Info("cleared", "target", target)
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "target": target})
}

type configUpdate struct {
	Strict        *bool   `json:"strict"`
	RaiseCategory *string `json:"raise_category"`
}

// handleConfigUpdate changes the runtime policy and persists it to the
// config file when there is one. Absent fields keep their value.
func (s *Server) handleConfigUpdate(w http.ResponseWriter, r *http.Request) {
	var req configUpdate
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	next := *s.cfg.Get()
	if req.Strict != nil {
		next.Validation.Strict = *req.Strict
	}
	if req.RaiseCategory != nil {
		c, ok := model.ParseRiskCategory(*req.RaiseCategory)
		if !ok {
			writeError(w, http.StatusBadRequest, "unknown risk category: "+*req.RaiseCategory)
			return
		}
		next.Alerts.RaiseCategory = c
	}
	if err := config.Validate(&next); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.cfg.Update(&next); err != nil {
		if s.logger != nil {
			s.logger.Error("config update failed", "err", err)
		}
		writeError(w, http.StatusInternalServerError, "config update failed")
		return
	}
	if s.onConfig != nil {
		s.onConfig(&next)
	}
	if s.logger != nil {
		s.logger.Info("config updated", "strict", next.Validation.Strict, "raise_category", next.Alerts.RaiseCategory)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"strict":         next.Validation.Strict,
		"raise_category": next.Alerts.RaiseCategory,
	})
}

func (s *Server) clearHistory() {
	if s.live != nil {
		s.live.Clear()
	}
}

func (s *Server) clearAlerts() {
	s.alerts.Clear()
	s.mockLoaded.Store(false)
	if s.recorder != nil {
		s.recorder.Reset()
	}
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if logger == nil {
				next.ServeHTTP(w, r)
				return
			}
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
