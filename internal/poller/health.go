package poller

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"rockwatch/internal/metrics"
	"rockwatch/internal/model"
)

const DefaultHealthInterval = 30 * time.Second

type HealthChecker interface {
	Health(ctx context.Context) (*model.HealthStatus, error)
}

type HealthState struct {
	Online    bool                `json:"online"`
	Loading   bool                `json:"loading"`
	Status    *model.HealthStatus `json:"status,omitempty"`
	LastCheck time.Time           `json:"last_check"`
	Error     string              `json:"error,omitempty"`
}

// HealthMonitor tracks whether the backend answers its health endpoint.
type HealthMonitor struct {
	checker  HealthChecker
	interval time.Duration
	logger   *slog.Logger

	mu    sync.RWMutex
	state HealthState

	runMu  sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewHealthMonitor(checker HealthChecker, interval time.Duration, logger *slog.Logger) *HealthMonitor {
	if interval <= 0 {
		interval = DefaultHealthInterval
	}
	return &HealthMonitor{
		checker:  checker,
		interval: interval,
		logger:   logger,
		state:    HealthState{Loading: true},
	}
}

func (h *HealthMonitor) Start(ctx context.Context) {
	h.runMu.Lock()
	defer h.runMu.Unlock()
	if h.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	h.cancel = cancel
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		_ = h.Check(ctx)
		ticker := time.NewTicker(h.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				_ = h.Check(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (h *HealthMonitor) Stop() {
	h.runMu.Lock()
	cancel := h.cancel
	h.cancel = nil
	h.runMu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	h.wg.Wait()
}

// Check runs one health probe and records the outcome.
func (h *HealthMonitor) Check(ctx context.Context) error {
	status, err := h.checker.Health(ctx)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	next := HealthState{LastCheck: time.Now().UTC()}
	if err != nil {
		next.Error = err.Error()
	} else {
		next.Online = true
		next.Status = status
	}

	h.mu.Lock()
	changed := h.state.Loading || h.state.Online != next.Online
	h.state = next
	h.mu.Unlock()

	if next.Online {
		metrics.BackendOnline.Set(1)
	} else {
		metrics.BackendOnline.Set(0)
	}
	if changed && h.logger != nil {
		if next.Online {
			h.logger.Info("backend online")
		} else {
			h.logger.Warn("backend offline", "err", err)
		}
	}
	return err
}

func (h *HealthMonitor) State() HealthState {
	h.mu.RLock()
	defer h.mu.RUnlock()
	st := h.state
	if st.Status != nil {
		s := *st.Status
		st.Status = &s
	}
	return st
}
