package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/multierr"

	"rockwatch/internal/chart"
	"rockwatch/internal/i18n"
	"rockwatch/internal/metrics"
	"rockwatch/internal/model"
	"rockwatch/internal/validate"
)

const maxBody = 1 << 20

type predictResponse struct {
	Prediction   *model.PredictionResult `json:"prediction"`
	Distribution chart.Distribution      `json:"distribution"`
}

func (s *Server) validator() *validate.Validator {
	return validate.ForMode(s.cfg.Get().Validation.Strict)
}

func (s *Server) handleForm(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"fields":   validate.FormFields(),
		"defaults": validate.DefaultForm(),
		"required": validate.RequiredFields,
		"ranges":   s.validator().Ranges(),
		"strict":   s.cfg.Get().Validation.Strict,
	})
}

func (s *Server) handlePresets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"names":   validate.PresetNames(),
		"presets": validate.Presets(),
	})
}

// decodeValues reads a JSON object keeping numbers in their literal form,
// so they are forwarded to the backend exactly as submitted.
func decodeValues(w http.ResponseWriter, r *http.Request) (validate.Values, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
	if err != nil {
		return nil, err
	}
	values := validate.Values{}
	if len(bytes.TrimSpace(body)) == 0 {
		return values, nil
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&values); err != nil {
		return nil, err
	}
	return values, nil
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	values, err := decodeValues(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.validator().ValidateAll(values); err != nil {
		countValidation(err)
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"valid":  false,
			"errors": validate.Messages(err),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"valid": true})
}

// handlePredict validates the form and forwards it unchanged. A preset
// query parameter replaces the body with the named preset.
func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var values validate.Values
	if name := r.URL.Query().Get("preset"); name != "" {
		p, ok := validate.Preset(name)
		if !ok {
			writeError(w, http.StatusNotFound, "unknown preset: "+name)
			return
		}
		values = validate.ValuesOf(p)
	} else {
		v, err := decodeValues(w, r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		values = v
	}

	if err := s.validator().Validate(values); err != nil {
		countValidation(err)
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":  err.Error(),
			"errors": validate.Messages(err),
		})
		return
	}
	if s.backend == nil {
		writeError(w, http.StatusBadGateway, "backend unavailable")
		return
	}
	res, err := s.backend.Predict(r.Context(), values)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("prediction failed", "err", err)
		}
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	metrics.Predictions.WithLabelValues(string(res.RiskCategory)).Inc()
	writeJSON(w, http.StatusOK, predictResponse{
		Prediction:   res,
		Distribution: chart.DistributionFrom(res),
	})
}

func countValidation(err error) {
	for _, e := range multierr.Errors(err) {
		kind := "other"
		var missing *validate.MissingError
		var rng *validate.RangeError
		var num *validate.NumberError
		switch {
		case errors.As(e, &missing):
			kind = "missing"
		case errors.As(e, &rng):
			kind = "range"
		case errors.As(e, &num):
			kind = "number"
		}
		metrics.ValidationFailures.WithLabelValues(kind).Inc()
	}
}

func (s *Server) handleLanguages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"languages": i18n.Languages,
		"current":   i18n.Negotiate(r),
	})
}

func (s *Server) handleLanguage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	l, ok := i18n.Lookup(req.Code)
	if !ok {
		writeError(w, http.StatusBadRequest, "unsupported language: "+req.Code)
		return
	}
	i18n.SetCookie(w, l)
	writeJSON(w, http.StatusOK, map[string]any{"current": l})
}
