// Package poller keeps the live dashboard view model fresh by fetching
// snapshots from the backend on a fixed interval.
package poller

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"rockwatch/internal/history"
	"rockwatch/internal/metrics"
	"rockwatch/internal/model"
)

const DefaultInterval = 3 * time.Second

type Fetcher interface {
	MockData(ctx context.Context) (*model.MockData, error)
}

// Sink receives every snapshot that was applied to the view model.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, snap model.Snapshot) error
}

// State is a copy of the view model at one instant.
type State struct {
	Current    *model.MockData      `json:"current"`
	LastUpdate time.Time            `json:"last_update"`
	Loading    bool                 `json:"loading"`
	Error      string               `json:"error,omitempty"`
	History    []model.HistoryEntry `json:"history"`
	Capacity   int                  `json:"capacity"`
}

type Poller struct {
	fetcher  Fetcher
	history  *history.Window
	interval time.Duration
	logger   *slog.Logger
	sinks    []Sink
	now      func() time.Time

	mu         sync.RWMutex
	current    *model.MockData
	lastUpdate time.Time
	loaded     bool
	errMsg     string

	runMu  sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(fetcher Fetcher, window *history.Window, interval time.Duration, logger *slog.Logger, sinks ...Sink) *Poller {
	if window == nil {
		window = history.NewWindow(history.DefaultSize)
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{
		fetcher:  fetcher,
		history:  window,
		interval: interval,
		logger:   logger,
		sinks:    sinks,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Start fetches once immediately and then on every tick. Each tick fires
// its own fetch without waiting for earlier ones. Calling Start on a
// running poller is a no-op.
func (p *Poller) Start(ctx context.Context) {
	p.runMu.Lock()
	defer p.runMu.Unlock()
	if p.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.spawn(ctx)
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				p.spawn(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop cancels the timer and any fetch still in flight, then waits for
// them to return. Results that arrive after Stop are discarded.
func (p *Poller) Stop() {
	p.runMu.Lock()
	cancel := p.cancel
	p.cancel = nil
	p.runMu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	p.wg.Wait()
}

func (p *Poller) spawn(ctx context.Context) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		_ = p.Poll(ctx)
	}()
}

// Poll performs a single fetch and applies its outcome.
func (p *Poller) Poll(ctx context.Context) error {
	data, err := p.fetcher.MockData(ctx)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		p.fail(err)
		return err
	}
	snap := model.Snapshot{Data: *data, ReceivedAt: p.now()}
	p.apply(snap)
	p.deliver(ctx, snap)
	return nil
}

func (p *Poller) apply(snap model.Snapshot) {
	data := snap.Data
	p.mu.Lock()
	p.current = &data
	p.lastUpdate = snap.ReceivedAt
	p.loaded = true
	p.errMsg = ""
	p.history.Add(model.NewHistoryEntry(snap.ReceivedAt, data))
	p.mu.Unlock()

	metrics.PollFetches.WithLabelValues("ok").Inc()
	metrics.RiskProbability.Set(data.Prediction.RiskProbability)
	metrics.RiskLevel.Set(float64(data.Prediction.RiskCategory.Rank()))
	metrics.HistoryLength.Set(float64(p.history.Len()))
}

func (p *Poller) fail(err error) {
	p.mu.Lock()
	p.loaded = true
	p.errMsg = err.Error()
	p.mu.Unlock()

	metrics.PollFetches.WithLabelValues("error").Inc()
	if p.logger != nil {
		p.logger.Warn("live snapshot fetch failed", "err", err)
	}
}

func (p *Poller) deliver(ctx context.Context, snap model.Snapshot) {
	for _, sink := range p.sinks {
		if err := sink.Deliver(ctx, snap); err != nil {
			metrics.SinkErrors.WithLabelValues(sink.Name()).Inc()
			if p.logger != nil {
				p.logger.Warn("snapshot delivery failed", "sink", sink.Name(), "err", err)
			}
		}
	}
}

func (p *Poller) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	st := State{
		LastUpdate: p.lastUpdate,
		Loading:    !p.loaded,
		Error:      p.errMsg,
		History:    p.history.Entries(),
		Capacity:   p.history.Size(),
	}
	if p.current != nil {
		cur := *p.current
		st.Current = &cur
	}
	return st
}

// History returns up to n most recent entries, oldest first. n <= 0
// returns the whole window.
func (p *Poller) History(n int) []model.HistoryEntry {
	return p.history.Last(n)
}

// Seed preloads history entries, oldest first, without touching the
// current snapshot.
func (p *Poller) Seed(entries []model.HistoryEntry) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, e := range entries {
		p.history.Add(e)
	}
	metrics.HistoryLength.Set(float64(p.history.Len()))
}

// Clear drops the history window. The current snapshot stays.
func (p *Poller) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.history.Clear()
	metrics.HistoryLength.Set(0)
}
