package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/parkbooking/internal/events"
	"github.com/Domenick1991/parkbooking/internal/logger"
	amqp "github.com/rabbitmq/amqp091-go"
)

type Handler func(context.Context, events.BookingEvent) error

type Consumer struct {
	url   string
	queue string
	log   *logger.Logger
}

func NewConsumer(url, queue string, log *logger.Logger) *Consumer {
	return &Consumer{url: url, queue: queue, log: log}
}

// Consume keeps a connection open and feeds decoded events to handler,
// redialing with exponential backoff until ctx is done.
func (c *Consumer) Consume(ctx context.Context, handler Handler) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.log.Warn("RabbitMQ dial failed", "error", err, "retry_in", backoff.String())
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(backoff):
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consumeLoop(ctx, conn, handler)
		_ = conn.Close()
		if ctx.Err() != nil {
			return nil
		}
		c.log.Warn("RabbitMQ consume loop ended, reconnecting", "error", err)
	}
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection, handler Handler) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.log.Warn("RabbitMQ set QoS failed", "error", err)
	}
	if _, err := ch.QueueDeclare(c.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.ConsumeWithContext(ctx, c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		c.handleDelivery(ctx, d, handler)
	}
	return errors.New("deliveries channel closed")
}

// handleDelivery acks handled messages and rejects the rest without
// requeueing, so a poison message cannot spin the loop.
func (c *Consumer) handleDelivery(ctx context.Context, d amqp.Delivery, handler Handler) {
	var event events.BookingEvent
	if err := json.Unmarshal(d.Body, &event); err != nil {
		c.log.Warn("Skipping undecodable booking event", "error", err)
		_ = d.Nack(false, false)
		return
	}
	if err := handler(ctx, event); err != nil {
		c.log.Error("Booking event handler failed", "booking_id", event.BookingID, "error", err)
		_ = d.Nack(false, false)
		return
	}
	_ = d.Ack(false)
}
