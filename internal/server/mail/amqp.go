package mail

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/tourbook/internal/clock"
	"github.com/dmitrijs2005/tourbook/internal/server/models"
	amqp "github.com/rabbitmq/amqp091-go"
)

const publishTimeout = 5 * time.Second

// Publisher is the part of *amqp.Channel the sender needs.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPSender publishes each Message as a persistent JSON job on a direct
// exchange, routed by "mail.<kind>". A mail worker consumes them.
type AMQPSender struct {
	pub      Publisher
	exchange string
	clock    clock.Clock
	close    func() error
}

func NewAMQPSender(pub Publisher, exchange string, c clock.Clock) *AMQPSender {
	return &AMQPSender{pub: pub, exchange: exchange, clock: c, close: func() error { return nil }}
}

// DialAMQP connects to the broker and declares the mail exchange.
func DialAMQP(url, exchange string, c clock.Clock) (*AMQPSender, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeDirect, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}

	s := NewAMQPSender(ch, exchange, c)
	s.close = func() error {
		_ = ch.Close()
		return conn.Close()
	}
	return s, nil
}

func (s *AMQPSender) SendWelcome(ctx context.Context, u *models.User, url string) error {
	return s.publish(ctx, newMessage(KindWelcome, WelcomeSubject, u, url))
}

func (s *AMQPSender) SendPasswordReset(ctx context.Context, u *models.User, url string) error {
	return s.publish(ctx, newMessage(KindPasswordReset, PasswordResetSubject, u, url))
}

func (s *AMQPSender) Close() error { return s.close() }

// RoutingKey is the key a message of the given kind is published under.
func RoutingKey(kind string) string { return "mail." + kind }

func (s *AMQPSender) publish(ctx context.Context, m Message) error {
	body, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode mail: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = s.pub.PublishWithContext(ctx, s.exchange, RoutingKey(m.Kind), false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    s.clock.Now(),
	})
	if err != nil {
		return fmt.Errorf("publish %s mail: %w", m.Kind, err)
	}
	return nil
}
