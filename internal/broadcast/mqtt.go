package broadcast

import (
	"context"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"

	"rockwatch/internal/config"
	"rockwatch/internal/model"
)

const publishTimeout = 5 * time.Second

type mqttClient interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

type MQTTSink struct {
	client mqttClient
	topic  string
}

func NewMQTT(cfg config.MQTTConfig, logger *slog.Logger) (*MQTTSink, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetAutoReconnect(true)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		if logger != nil {
			logger.Warn("mqtt connection lost", "err", err)
		}
	})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, errors.Wrap(token.Error(), "connect mqtt broker")
	}
	return &MQTTSink{client: client, topic: cfg.Topic}, nil
}

func (m *MQTTSink) Name() string { return "mqtt" }

func (m *MQTTSink) Deliver(ctx context.Context, snap model.Snapshot) error {
	payload, err := Encode(snap)
	if err != nil {
		return errors.Wrap(err, "encode snapshot")
	}
	topic := formatTopic(m.topic, snap.Data.SensorData.SensorID)
	token := m.client.Publish(topic, 1, false, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(publishTimeout):
		return errors.Errorf("mqtt publish to %s timed out", topic)
	}
	return errors.Wrapf(token.Error(), "mqtt publish to %s", topic)
}

func (m *MQTTSink) Close() error {
	m.client.Disconnect(250)
	return nil
}
