package alerts

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"rockwatch/internal/model"
)

const LiveAlertType = "High Risk Warning"

type Saver interface {
	SaveAlert(ctx context.Context, alert model.AlertRecord) error
}

// Recorder turns risky live snapshots into alerts.
type Recorder struct {
	store    *Store
	saver    Saver
	logger   *slog.Logger
	cooldown *Cooldown

	mu     sync.RWMutex
	floor  model.RiskCategory
	period time.Duration
}

func NewRecorder(store *Store, saver Saver, logger *slog.Logger, floor model.RiskCategory, period time.Duration) *Recorder {
	r := &Recorder{store: store, saver: saver, logger: logger, cooldown: NewCooldown()}
	r.SetPolicy(floor, period)
	return r
}

func (r *Recorder) SetPolicy(floor model.RiskCategory, period time.Duration) {
	if !floor.Valid() {
		floor = model.RiskHigh
	}
	r.mu.Lock()
	r.floor = floor
	r.period = period
	r.mu.Unlock()
}

func (r *Recorder) Name() string { return "alerts" }

func (r *Recorder) Deliver(ctx context.Context, snap model.Snapshot) error {
	r.mu.RLock()
	floor, period := r.floor, r.period
	r.mu.RUnlock()

	pred := snap.Data.Prediction
	if !pred.RiskCategory.AtLeast(floor) {
		return nil
	}
	sensor := snap.Data.SensorData.SensorID
	if sensor == "" {
		sensor = "unknown"
	}
	if !r.cooldown.Allow(sensor, period) {
		return nil
	}
	zone := snap.Data.SensorData.Location
	if zone == "" {
		zone = "unknown"
	}
	alert := model.AlertRecord{
		ID:        uuid.NewString(),
		Type:      LiveAlertType,
		Zone:      zone,
		Severity:  pred.RiskCategory,
		Timestamp: snap.ReceivedAt,
		Message:   fmt.Sprintf("Sensor %s reports %.1f%% rockfall risk", sensor, pred.RiskProbability),
		Source:    model.AlertSourceLive,
	}
	r.store.Add(alert)
	if r.logger != nil {
		r.logger.Warn("live risk alert",
			"sensor_id", sensor,
			"zone", zone,
			"severity", alert.Severity,
			"risk", pred.RiskProbability,
		)
	}
	if r.saver != nil {
		if err := r.saver.SaveAlert(ctx, alert); err != nil {
			return errors.Wrap(err, "persist alert")
		}
	}
	return nil
}

// Reset forgets cooldown state.
func (r *Recorder) Reset() {
	r.cooldown.Reset()
}
