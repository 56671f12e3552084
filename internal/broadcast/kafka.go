package broadcast

import (
	"context"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"

	"rockwatch/internal/config"
	"rockwatch/internal/model"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaSink struct {
	writer messageWriter
}

func NewKafka(cfg config.KafkaConfig) *KafkaSink {
	return &KafkaSink{writer: &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}}
}

func (k *KafkaSink) Name() string { return "kafka" }

func (k *KafkaSink) Deliver(ctx context.Context, snap model.Snapshot) error {
	msg, err := kafkaMessage(snap)
	if err != nil {
		return err
	}
	return errors.Wrap(k.writer.WriteMessages(ctx, msg), "kafka write")
}

func (k *KafkaSink) Close() error {
	return k.writer.Close()
}

// kafkaMessage keys by sensor so one sensor's snapshots stay ordered.
func kafkaMessage(snap model.Snapshot) (kafka.Message, error) {
	value, err := Encode(snap)
	if err != nil {
		return kafka.Message{}, errors.Wrap(err, "encode snapshot")
	}
	return kafka.Message{
		Key:   []byte(snap.Data.SensorData.SensorID),
		Value: value,
		Time:  snap.ReceivedAt,
	}, nil
}
