package broadcast

import (
	"context"

	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"

	"rockwatch/internal/config"
	"rockwatch/internal/model"
)

type natsConn interface {
	Publish(subj string, data []byte) error
	Drain() error
}

type NATSSink struct {
	conn    natsConn
	subject string
}

func NewNATS(cfg config.NATSConfig) (*NATSSink, error) {
	nc, err := nats.Connect(cfg.URL, nats.Name("rockwatch"), nats.MaxReconnects(-1))
	if err != nil {
		return nil, errors.Wrap(err, "connect nats")
	}
	return &NATSSink{conn: nc, subject: cfg.Subject}, nil
}

func (n *NATSSink) Name() string { return "nats" }

func (n *NATSSink) Deliver(_ context.Context, snap model.Snapshot) error {
	data, err := Encode(snap)
	if err != nil {
		return errors.Wrap(err, "encode snapshot")
	}
	return errors.Wrap(n.conn.Publish(n.subject, data), "nats publish")
}

func (n *NATSSink) Close() error {
	return n.conn.Drain()
}
