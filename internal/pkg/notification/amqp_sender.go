package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

const amqpExchangeKind = "topic"

// AMQPSender publishes messages to a RabbitMQ topic exchange for an external
// mailer to consume. The routing key is "notification.<kind>".
type AMQPSender struct {
	exchange string

	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
}

// NewAMQPSender dials the broker and declares the exchange
func NewAMQPSender(url, exchange string) (*AMQPSender, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, amqpExchangeKind, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("rabbitmq exchange declare: %w", err)
	}

	return &AMQPSender{exchange: exchange, conn: conn, channel: ch}, nil
}

// Name implements Sender
func (s *AMQPSender) Name() string { return "amqp" }

// RoutingKey returns the routing key a message of kind is published under
func RoutingKey(kind Kind) string {
	return "notification." + string(kind)
}

// Publishing builds the AMQP payload for msg
func Publishing(msg Message) (amqp.Publishing, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal payload: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    msg.ID,
		Timestamp:    msg.CreatedAt,
		Type:         string(msg.Kind),
		Body:         body,
	}, nil
}

// Send implements Sender. amqp channels are not safe for concurrent
// publishing, so workers take turns.
func (s *AMQPSender) Send(ctx context.Context, msg Message) error {
	pub, err := Publishing(msg)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.channel.PublishWithContext(ctx, s.exchange, RoutingKey(msg.Kind), false, false, pub); err != nil {
		return fmt.Errorf("publish message: %w", err)
	}
	return nil
}

// Close closes the channel and connection
func (s *AMQPSender) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.channel != nil {
		s.channel.Close()
	}
	if s.conn != nil {
		s.conn.Close()
	}
}
