// Package broadcast republishes live snapshots to message brokers.
package broadcast

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"go.uber.org/multierr"

	"rockwatch/internal/config"
	"rockwatch/internal/model"
)

type Sink interface {
	Name() string
	Deliver(ctx context.Context, snap model.Snapshot) error
	Close() error
}

// Message is the wire form published on every broker.
type Message struct {
	SensorID        string              `json:"sensor_id"`
	Location        string              `json:"location"`
	ReceivedAt      time.Time           `json:"received_at"`
	RiskCategory    model.RiskCategory  `json:"risk_category"`
	RiskProbability float64             `json:"risk_probability"`
	Confidence      float64             `json:"confidence"`
	Sensor          model.SensorReading `json:"sensor"`
	SystemStatus    model.SystemStatus  `json:"system_status"`
}

func NewMessage(snap model.Snapshot) Message {
	d := snap.Data
	return Message{
		SensorID:        d.SensorData.SensorID,
		Location:        d.SensorData.Location,
		ReceivedAt:      snap.ReceivedAt,
		RiskCategory:    d.Prediction.RiskCategory,
		RiskProbability: d.Prediction.RiskProbability,
		Confidence:      d.Prediction.Confidence,
		Sensor:          d.SensorData,
		SystemStatus:    d.SystemStatus,
	}
}

func Encode(snap model.Snapshot) ([]byte, error) {
	return json.Marshal(NewMessage(snap))
}

// formatTopic fills the {sensor_id} placeholder.
func formatTopic(pattern, sensorID string) string {
	if sensorID == "" {
		sensorID = "unknown"
	}
	return strings.ReplaceAll(pattern, "{sensor_id}", sensorID)
}

// Open connects every enabled sink. On error the sinks opened so far are
// closed again.
func Open(cfg config.BroadcastConfig, logger *slog.Logger) ([]Sink, error) {
	var sinks []Sink
	if cfg.Kafka.Enabled {
		sinks = append(sinks, NewKafka(cfg.Kafka))
		if logger != nil {
			logger.Info("kafka broadcast enabled", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
		}
	}
	if cfg.MQTT.Enabled {
		s, err := NewMQTT(cfg.MQTT, logger)
		if err != nil {
			_ = CloseAll(sinks)
			return nil, err
		}
		sinks = append(sinks, s)
		if logger != nil {
			logger.Info("mqtt broadcast enabled", "broker", cfg.MQTT.Broker, "topic", cfg.MQTT.Topic)
		}
	}
	if cfg.NATS.Enabled {
		s, err := NewNATS(cfg.NATS)
		if err != nil {
			_ = CloseAll(sinks)
			return nil, err
		}
		sinks = append(sinks, s)
		if logger != nil {
			logger.Info("nats broadcast enabled", "url", cfg.NATS.URL, "subject", cfg.NATS.Subject)
		}
	}
	return sinks, nil
}

func CloseAll(sinks []Sink) error {
	var err error
	for _, s := range sinks {
		err = multierr.Append(err, s.Close())
	}
	return err
}
