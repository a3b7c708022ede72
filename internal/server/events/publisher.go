// Package events publishes order events from the transactional outbox to
// the message broker. Rows are written in the same transaction as the order
// and drained here, so an order is never acknowledged without its event
// eventually going out.
package events

import (
	"context"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/rishabhkhetan/pharma-trade-connect/internal/server/domain"
)

const Topic = "pharmatrade.orders"

// Outbox is the slice of the storage layer the publisher needs.
type Outbox interface {
	UnpublishedEvents(ctx context.Context, limit int) ([]domain.OutboxEvent, error)
	MarkEventPublished(ctx context.Context, eventID int64) error
}

// Writer is satisfied by *kafka.Writer; tests plug in a fake.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Publisher struct {
	outbox  Outbox
	writer  Writer
	tick    time.Duration
	timeout time.Duration
	batch   int
	logger  *zap.Logger
}

func NewPublisher(outbox Outbox, logger *zap.Logger, brokers ...string) *Publisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  Topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return NewPublisherWithWriter(outbox, w, logger)
}

func NewPublisherWithWriter(outbox Outbox, writer Writer, logger *zap.Logger) *Publisher {
	return &Publisher{
		outbox:  outbox,
		writer:  writer,
		tick:    time.Second,
		timeout: 5 * time.Second,
		batch:   100,
		logger:  logger,
	}
}

// Close flushes and releases the broker connection. Call after Run has
// returned.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

// Run drains the outbox until the context is cancelled.
func (p *Publisher) Run(ctx context.Context) {
	ticker := time.NewTicker(p.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.processUnpublishedEvents(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (p *Publisher) processUnpublishedEvents(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	events, err := p.outbox.UnpublishedEvents(ctx, p.batch)
	if err != nil {
		p.logger.Error("failed to fetch outbox events", zap.Error(err))
		return
	}

	for _, event := range events {
		msg := kafka.Message{
			Key:   []byte(strconv.FormatInt(event.ID, 10)),
			Value: event.Payload,
			Headers: []kafka.Header{
				{Key: "event_type", Value: []byte(event.EventType)},
			},
		}
		if err := p.writer.WriteMessages(ctx, msg); err != nil {
			p.logger.Error("failed to publish event",
				zap.Int64("event_id", event.ID), zap.Error(err))
			continue
		}

		if err := p.outbox.MarkEventPublished(ctx, event.ID); err != nil {
			// the event stays pending and will be re-sent; consumers must
			// tolerate the duplicate
			p.logger.Error("failed to mark event published",
				zap.Int64("event_id", event.ID), zap.Error(err))
			continue
		}

		p.logger.Debug("event published",
			zap.Int64("event_id", event.ID),
			zap.String("event_type", event.EventType))
	}
}
