package api

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"rockwatch/internal/alerts"
	"rockwatch/internal/chart"
	"rockwatch/internal/model"
)

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	if s.live == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"loading": true})
		return
	}
	st := s.live.State()
	switch {
	case st.Loading:
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"loading": true})
	case st.Current == nil && st.Error != "":
		writeJSON(w, http.StatusBadGateway, map[string]any{"loading": false, "error": st.Error})
	default:
		writeJSON(w, http.StatusOK, st)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"loading": true})
		return
	}
	st := s.health.State()
	if st.Loading {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"loading": true})
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) history() []model.HistoryEntry {
	if s.live == nil {
		return nil
	}
	return s.live.State().History
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	var entries []model.HistoryEntry
	if s.live != nil {
		entries = s.live.History(limit)
	}
	if entries == nil {
		entries = []model.HistoryEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"history": entries,
		"count":   len(entries),
	})
}

func (s *Server) handleHistorical(w http.ResponseWriter, r *http.Request) {
	if s.backend == nil {
		writeError(w, http.StatusBadGateway, "backend unavailable")
		return
	}
	data, err := s.backend.HistoricalData(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, data)
}

func (s *Server) handleSensors(w http.ResponseWriter, r *http.Request) {
	all := s.sensors.GetAll()
	writeJSON(w, http.StatusOK, map[string]any{
		"sensors": all,
		"count":   len(all),
	})
}

func (s *Server) handleSensor(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	st, ok := s.sensors.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown sensor: "+id)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleZones(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"zones": s.zones.Generate()})
}

// handleAlerts serves the alert log. Mock alerts are generated on first
// use and regenerated on refresh=1; live alerts are kept across refreshes.
func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	var since time.Time
	if v := q.Get("since"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid since")
			return
		}
		since = ts
	}
	if truthy(q.Get("refresh")) || !s.mockLoaded.Load() {
		s.alerts.ReplaceSource(model.AlertSourceMock, s.mockAlerts.Generate(s.cfg.Get().Alerts.MockCount))
		s.mockLoaded.Store(true)
	}

	list := s.alerts.Query(alerts.Query{
		Since:      since,
		ActiveOnly: truthy(q.Get("active")),
		Limit:      limit,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"alerts": list,
		"count":  len(list),
	})
}

// parseLimit reads the optional limit query parameter. 0 means no limit.
func parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return 0, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		writeError(w, http.StatusBadRequest, "invalid limit")
		return 0, false
	}
	return n, true
}

func (s *Server) currentPrediction() *model.PredictionResult {
	if s.live == nil {
		return nil
	}
	st := s.live.State()
	if st.Current == nil {
		return nil
	}
	p := st.Current.Prediction
	return &p
}

func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, chart.TrendFrom(s.history()))
}

func (s *Server) handleTrendPNG(w http.ResponseWriter, r *http.Request) {
	trend := chart.TrendFrom(s.history())
	s.writePNG(w, func(out io.Writer) error { return chart.RenderTrend(out, trend) })
}

func (s *Server) handleDistribution(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, chart.DistributionFrom(s.currentPrediction()))
}

func (s *Server) handleDistributionPNG(w http.ResponseWriter, r *http.Request) {
	dist := chart.DistributionFrom(s.currentPrediction())
	s.writePNG(w, func(out io.Writer) error { return chart.RenderDistribution(out, dist) })
}

func (s *Server) handleZoneChart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, chart.ZonesFrom(s.zones.Generate()))
}

func (s *Server) handleZoneChartPNG(w http.ResponseWriter, r *http.Request) {
	bars := chart.ZonesFrom(s.zones.Generate())
	s.writePNG(w, func(out io.Writer) error { return chart.RenderZones(out, bars) })
}

// writePNG renders into memory first so a failed render can still
// produce a proper status.
func (s *Server) writePNG(w http.ResponseWriter, render func(io.Writer) error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		if errors.Is(err, chart.ErrNoData) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		if s.logger != nil {
			s.logger.Error("chart render failed", "err", err)
		}
		writeError(w, http.StatusInternalServerError, "chart render failed")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
