package observability

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// EventSink accepts stream events for delivery to the broker.
type EventSink interface {
	Emit(ctx context.Context, routingKey string, event StreamEvent, headers map[string]string) error
}

// AMQPEventSink publishes stream events to a durable topic exchange.
type AMQPEventSink struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

// NewAMQPEventSink connects, opens a channel and declares the exchange.
func NewAMQPEventSink(url, exchange string) (*AMQPEventSink, error) {
	if url == "" {
		return nil, errors.New("amqp url is empty")
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	return &AMQPEventSink{conn: conn, channel: ch, exchange: exchange}, nil
}

// Emit publishes the envelope as persistent JSON with correlation headers.
func (s *AMQPEventSink) Emit(ctx context.Context, routingKey string, event StreamEvent, headers map[string]string) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	amqpHeaders := amqp.Table{}
	for key, value := range headers {
		amqpHeaders[key] = value
	}

	return s.channel.PublishWithContext(ctx, s.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Headers:      amqpHeaders,
	})
}

// Close releases the channel and connection.
func (s *AMQPEventSink) Close() error {
	if s.channel != nil {
		_ = s.channel.Close()
	}
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

var defaultSink EventSink

// SetEventSink installs the process-wide sink. No sink means stream events
// are dropped, which is acceptable: they are best-effort diagnostics.
func SetEventSink(sink EventSink) {
	defaultSink = sink
}

// EmitStream publishes through the default sink and counts failures.
func EmitStream(ctx context.Context, routingKey string, event StreamEvent, headers map[string]string) error {
	if defaultSink == nil {
		return nil
	}

	err := defaultSink.Emit(ctx, routingKey, event, headers)
	if err != nil {
		IncAMQPPublishError()
	}
	return err
}
