package publish_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/mercato/event"
	"github.com/xraph/mercato/publish"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestPublisherWritesRecords(t *testing.T) {
	w := &fakeWriter{}
	p := publish.New(w)

	rec, err := event.NewRecord(42, event.OrderStatusUpdated{OrderID: 7, Status: "Shipped"}, time.Now())
	require.NoError(t, err)
	require.NoError(t, p.OnEvent(context.Background(), rec))

	require.Len(t, w.msgs, 1)
	assert.Equal(t, "mercato-order.status_updated-42", string(w.msgs[0].Key))

	var got event.Record
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	assert.Equal(t, uint64(42), got.Seq)

	e, err := got.Decode()
	require.NoError(t, err)
	assert.Equal(t, "Shipped", e.(*event.OrderStatusUpdated).Status)
}

func TestPublisherReportsWriteFailures(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker unavailable")}
	p := publish.New(w)

	rec, err := event.NewRecord(1, event.CompositeReleased{CompositeID: 1}, time.Now())
	require.NoError(t, err)
	assert.ErrorContains(t, p.OnEvent(context.Background(), rec), "broker unavailable")
}

func TestPublisherClosesOnShutdown(t *testing.T) {
	w := &fakeWriter{}
	require.NoError(t, publish.New(w).OnShutdown(context.Background()))
	assert.True(t, w.closed)
}

func TestNewKafkaWriter(t *testing.T) {
	w := publish.NewKafkaWriter([]string{"localhost:9092"}, "mercato.events")
	assert.Equal(t, "mercato.events", w.Topic)
	assert.True(t, w.AllowAutoTopicCreation)
}
