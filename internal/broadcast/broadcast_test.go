package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rockwatch/internal/config"
	"rockwatch/internal/model"
)

func testSnap() model.Snapshot {
	return model.Snapshot{
		Data: model.MockData{
			SensorData: model.SensorReading{SlopeAngle: 61, SensorID: "RS_1005", Location: "Sector-South"},
			Prediction: model.PredictionResult{RiskCategory: model.RiskHigh, RiskProbability: 64.2, Confidence: 88},
		},
		ReceivedAt: time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestEncode(t *testing.T) {
	data, err := Encode(testSnap())
	require.NoError(t, err)
	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, "RS_1005", msg.SensorID)
	assert.Equal(t, model.RiskHigh, msg.RiskCategory)
	assert.Equal(t, 64.2, msg.RiskProbability)
	assert.Equal(t, 61.0, msg.Sensor.SlopeAngle)
}

func TestFormatTopic(t *testing.T) {
	assert.Equal(t, "rockfall/RS_1/snapshot", formatTopic("rockfall/{sensor_id}/snapshot", "RS_1"))
	assert.Equal(t, "rockfall/unknown/snapshot", formatTopic("rockfall/{sensor_id}/snapshot", ""))
	assert.Equal(t, "fixed", formatTopic("fixed", "RS_1"))
}

type fakeWriter struct {
	msgs   []kafka.Message
	closed bool
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestKafkaKeysBySensor(t *testing.T) {
	w := &fakeWriter{}
	k := &KafkaSink{writer: w}
	require.NoError(t, k.Deliver(context.Background(), testSnap()))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, []byte("RS_1005"), w.msgs[0].Key)
	assert.True(t, w.msgs[0].Time.Equal(testSnap().ReceivedAt))
	require.NoError(t, k.Close())
	assert.True(t, w.closed)
}

type doneToken struct {
	err error
}

func (d doneToken) Wait() bool                     { return true }
func (d doneToken) WaitTimeout(time.Duration) bool { return true }
func (d doneToken) Error() error                   { return d.err }
func (d doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type fakeMQTT struct {
	topics       []string
	err          error
	disconnected bool
}

func (f *fakeMQTT) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	f.topics = append(f.topics, topic)
	return doneToken{err: f.err}
}

func (f *fakeMQTT) Disconnect(uint) { f.disconnected = true }

func TestMQTTPublishesPerSensorTopic(t *testing.T) {
	c := &fakeMQTT{}
	m := &MQTTSink{client: c, topic: "rockfall/{sensor_id}/snapshot"}
	require.NoError(t, m.Deliver(context.Background(), testSnap()))
	assert.Equal(t, []string{"rockfall/RS_1005/snapshot"}, c.topics)

	c.err = errors.New("not connected")
	assert.ErrorContains(t, m.Deliver(context.Background(), testSnap()), "not connected")
	require.NoError(t, m.Close())
	assert.True(t, c.disconnected)
}

type fakeNATS struct {
	subjects []string
	drained  bool
}

func (f *fakeNATS) Publish(subj string, data []byte) error {
	f.subjects = append(f.subjects, subj)
	return nil
}

func (f *fakeNATS) Drain() error {
	f.drained = true
	return nil
}

func TestNATSPublishesToSubject(t *testing.T) {
	c := &fakeNATS{}
	n := &NATSSink{conn: c, subject: "rockwatch.snapshots"}
	require.NoError(t, n.Deliver(context.Background(), testSnap()))
	assert.Equal(t, []string{"rockwatch.snapshots"}, c.subjects)

	assert.NoError(t, CloseAll([]Sink{n}))
	assert.True(t, c.drained)
}

func TestOpenWithNothingEnabled(t *testing.T) {
	sinks, err := Open(config.BroadcastConfig{}, nil)
	require.NoError(t, err)
	assert.Empty(t, sinks)
}
