package poller

import (
	"context"
	"errors"
	"testing"
	"time"

	"rockwatch/internal/model"
)

type fakeChecker struct {
	err error
}

func (c *fakeChecker) Health(ctx context.Context) (*model.HealthStatus, error) {
	if c.err != nil {
		return nil, c.err
	}
	return &model.HealthStatus{Status: "healthy"}, nil
}

func TestHealthMonitorTransitions(t *testing.T) {
	checker := &fakeChecker{}
	h := NewHealthMonitor(checker, time.Second, nil)
	if st := h.State(); !st.Loading || st.Online {
		t.Fatalf("expected loading before first check, got %+v", st)
	}

	if err := h.Check(context.Background()); err != nil {
		t.Fatalf("check: %v", err)
	}
	st := h.State()
	if !st.Online || st.Loading || st.Status == nil || st.Status.Status != "healthy" {
		t.Fatalf("expected online, got %+v", st)
	}

	checker.err = errors.New("health check failed: connection refused")
	_ = h.Check(context.Background())
	st = h.State()
	if st.Online || st.Status != nil || st.Error == "" {
		t.Fatalf("expected offline, got %+v", st)
	}
}

func TestHealthMonitorStartStop(t *testing.T) {
	h := NewHealthMonitor(&fakeChecker{}, 10*time.Millisecond, nil)
	h.Start(context.Background())
	deadline := time.Now().Add(2 * time.Second)
	for h.State().Loading && time.Now().Before(deadline) {
		time.Sleep(2 * time.Millisecond)
	}
	h.Stop()
	h.Stop()
	if !h.State().Online {
		t.Fatalf("expected online after start")
	}
}
