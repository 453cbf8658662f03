package audit

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"scanorder-backend/internal/models"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	msgs     []kafka.Message
	deadline bool
	err      error
	closed   bool
}

func (w *recordingWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	_, w.deadline = ctx.Deadline()
	w.msgs = append(w.msgs, msgs...)
	return w.err
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaPublisherWritesKeyedEvent(t *testing.T) {
	w := &recordingWriter{}
	p := &KafkaPublisher{writer: w}
	storeID := uint(4)

	l := &models.AuditLog{
		CreatedAt:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		StoreID:     &storeID,
		UserID:      9,
		EntityType:  "order",
		EntityID:    42,
		Action:      models.AuditActionUpdate,
		Description: "Order ORD-0042: pending -> confirmed",
		BeforeData:  `{"status":"pending"}`,
		AfterData:   `{"status":"confirmed"}`,
	}
	require.NoError(t, p.Publish(context.Background(), eventFromLog(l)))
	require.Len(t, w.msgs, 1)
	assert.True(t, w.deadline)

	msg := w.msgs[0]
	assert.Equal(t, "order:42", string(msg.Key))
	assert.Equal(t, []kafka.Header{
		{Key: "entity_type", Value: []byte("order")},
		{Key: "action", Value: []byte("update")},
	}, msg.Headers)

	var got map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.EqualValues(t, 4, got["store_id"])
	assert.Equal(t, map[string]any{"status": "confirmed"}, got["after"])
	assert.Equal(t, "2026-01-02T03:04:05Z", got["occurred_at"])

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestKafkaPublisherSurfacesWriteErrors(t *testing.T) {
	w := &recordingWriter{err: errors.New("broker unavailable")}
	p := &KafkaPublisher{writer: w}
	err := p.Publish(context.Background(), Event{EntityType: "store", EntityID: 1, Before: json.RawMessage("null"), After: json.RawMessage("null")})
	assert.EqualError(t, err, "broker unavailable")
}
