// Package publish forwards committed mercato events to a Kafka topic.
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/xraph/mercato/event"
	"github.com/xraph/mercato/plugin"
)

var (
	_ plugin.Plugin     = (*Publisher)(nil)
	_ plugin.OnEvent    = (*Publisher)(nil)
	_ plugin.OnShutdown = (*Publisher)(nil)
)

// Writer is the subset of *kafka.Writer the publisher needs.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NewKafkaWriter returns a writer for topic on the given brokers.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
}

// Publisher is a plugin that writes every journal record to Kafka.
type Publisher struct {
	w      Writer
	logger *slog.Logger
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithLogger sets the logger used to report write failures.
func WithLogger(l *slog.Logger) Option {
	return func(p *Publisher) { p.logger = l }
}

// New returns a Publisher writing through w.
func New(w Writer, opts ...Option) *Publisher {
	p := &Publisher{w: w, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name implements plugin.Plugin.
func (p *Publisher) Name() string { return "kafka-publisher" }

// Key returns the message key used for rec, e.g. "mercato-tokens.bought-42".
func Key(rec *event.Record) string {
	return fmt.Sprintf("mercato-%s-%d", rec.Type, rec.Seq)
}

// OnEvent implements plugin.OnEvent.
func (p *Publisher) OnEvent(ctx context.Context, rec *event.Record) error {
	value, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("publish: encode %s: %w", rec.Type, err)
	}

	msg := kafka.Message{
		Key:   []byte(Key(rec)),
		Value: value,
	}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("failed to publish event",
			"type", rec.Type,
			"seq", rec.Seq,
			"error", err,
		)
		return fmt.Errorf("publish: write %s: %w", rec.Type, err)
	}
	return nil
}

// OnShutdown implements plugin.OnShutdown.
func (p *Publisher) OnShutdown(_ context.Context) error {
	return p.w.Close()
}
