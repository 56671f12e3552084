// Package notify emails operators when live risk crosses a threshold.
package notify

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"rockwatch/internal/alerts"
	"rockwatch/internal/config"
	"rockwatch/internal/model"
)

type sender interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

type Email struct {
	client   sender
	from     *mail.Email
	to       []*mail.Email
	logger   *slog.Logger
	cooldown *alerts.Cooldown

	mu     sync.RWMutex
	floor  model.RiskCategory
	period time.Duration
}

func NewEmail(cfg config.EmailConfig, logger *slog.Logger) *Email {
	e := &Email{
		client:   sendgrid.NewSendClient(cfg.APIKey),
		from:     mail.NewEmail("rockwatch", cfg.From),
		logger:   logger,
		cooldown: alerts.NewCooldown(),
	}
	for _, addr := range cfg.To {
		e.to = append(e.to, mail.NewEmail("", addr))
	}
	e.SetPolicy(cfg.MinCategory, cfg.Cooldown)
	return e
}

// SetPolicy changes the triggering category and the per-sensor quiet period.
func (e *Email) SetPolicy(floor model.RiskCategory, period time.Duration) {
	if !floor.Valid() {
		floor = model.RiskCritical
	}
	e.mu.Lock()
	e.floor = floor
	e.period = period
	e.mu.Unlock()
}

func (e *Email) Name() string { return "email" }

func (e *Email) Deliver(ctx context.Context, snap model.Snapshot) error {
	e.mu.RLock()
	floor, period := e.floor, e.period
	e.mu.RUnlock()

	if !snap.Data.Prediction.RiskCategory.AtLeast(floor) {
		return nil
	}
	sensor := snap.Data.SensorData.SensorID
	if !e.cooldown.Ready(sensor, period) {
		return nil
	}
	resp, err := e.client.SendWithContext(ctx, buildMessage(e.from, e.to, snap))
	if err != nil {
		return errors.Wrap(err, "sendgrid send")
	}
	if resp.StatusCode >= 300 {
		return errors.Errorf("sendgrid send: status %d: %s", resp.StatusCode, strings.TrimSpace(resp.Body))
	}
	e.cooldown.Mark(sensor)
	if e.logger != nil {
		e.logger.Info("risk notification sent",
			"sensor_id", sensor,
			"category", snap.Data.Prediction.RiskCategory,
			"recipients", len(e.to),
		)
	}
	return nil
}

func subject(snap model.Snapshot) string {
	d := snap.Data
	where := d.SensorData.Location
	if where == "" {
		where = "unknown location"
	}
	return fmt.Sprintf("[rockwatch] %s rockfall risk at %s (%s)", d.Prediction.RiskCategory, where, d.SensorData.SensorID)
}

func plainBody(snap model.Snapshot) string {
	d := snap.Data
	var b strings.Builder
	fmt.Fprintf(&b, "Risk category: %s\n", d.Prediction.RiskCategory)
	fmt.Fprintf(&b, "Risk probability: %.1f%%\n", d.Prediction.RiskProbability)
	fmt.Fprintf(&b, "Confidence: %.1f%%\n", d.Prediction.Confidence)
	fmt.Fprintf(&b, "Sensor: %s (%s)\n", d.SensorData.SensorID, d.SensorData.Location)
	fmt.Fprintf(&b, "Slope angle: %.1f deg\n", d.SensorData.SlopeAngle)
	fmt.Fprintf(&b, "Rainfall 24h: %.1f mm\n", d.SensorData.Rainfall24h)
	fmt.Fprintf(&b, "Vibration: %.2f mm/s\n", d.SensorData.VibrationIntensity)
	fmt.Fprintf(&b, "Received: %s\n", snap.ReceivedAt.Format(time.RFC3339))
	return b.String()
}

func buildMessage(from *mail.Email, to []*mail.Email, snap model.Snapshot) *mail.SGMailV3 {
	text := plainBody(snap)
	m := mail.NewV3Mail()
	m.SetFrom(from)
	m.Subject = subject(snap)
	p := mail.NewPersonalization()
	p.AddTos(to...)
	m.AddPersonalizations(p)
	m.AddContent(
		mail.NewContent("text/plain", text),
		mail.NewContent("text/html", "<pre>"+html.EscapeString(text)+"</pre>"),
	)
	return m
}
