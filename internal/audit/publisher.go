package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"time"

	"scanorder-backend/internal/models"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// Event is the wire form of an audit log on the event stream.
type Event struct {
	EntityType  string             `json:"entity_type"`
	EntityID    uint               `json:"entity_id"`
	Action      models.AuditAction `json:"action"`
	StoreID     *uint              `json:"store_id"`
	UserID      uint               `json:"user_id"`
	Description string             `json:"description"`
	Before      json.RawMessage    `json:"before"`
	After       json.RawMessage    `json:"after"`
	OccurredAt  time.Time          `json:"occurred_at"`
}

func eventFromLog(l *models.AuditLog) Event {
	occurred := l.CreatedAt
	if occurred.IsZero() {
		occurred = time.Now()
	}
	return Event{
		EntityType:  l.EntityType,
		EntityID:    l.EntityID,
		Action:      l.Action,
		StoreID:     l.StoreID,
		UserID:      l.UserID,
		Description: l.Description,
		Before:      json.RawMessage(l.BeforeData),
		After:       json.RawMessage(l.AfterData),
		OccurredAt:  occurred,
	}
}

// Key groups events of one entity on the same partition.
func (e Event) Key() string {
	return e.EntityType + ":" + strconv.FormatUint(uint64(e.EntityID), 10)
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }
func (NoopPublisher) Close() error                         { return nil }

// messageWriter is the part of *kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer messageWriter
}

func NewKafkaPublisher(brokers []string, topic string, logger zerolog.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		MaxAttempts:  3,
		Transport: &kafka.Transport{
			Dial: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
		},
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			logger.Error().Msgf("kafka audit writer: "+msg, args...)
		}),
		AllowAutoTopicCreation: true,
	}
	return &KafkaPublisher{writer: writer}
}

func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.Key()),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "entity_type", Value: []byte(e.EntityType)},
			{Key: "action", Value: []byte(e.Action)},
		},
	})
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
