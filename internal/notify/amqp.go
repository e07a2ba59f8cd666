package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/theirongolddev/partsbin/internal/logging"
)

const publishTimeout = 5 * time.Second

// publisher is the subset of *amqp091.Channel the notifier uses.
type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
}

// AMQPConfig names the broker and routing for alert messages.
type AMQPConfig struct {
	URL        string
	Exchange   string
	Queue      string
	RoutingKey string
}

// AMQPNotifier publishes alerts as persistent JSON messages to a durable
// direct exchange.
type AMQPNotifier struct {
	conn       *amqp091.Connection
	channel    *amqp091.Channel
	pub        publisher
	exchange   string
	routingKey string
	log        *slog.Logger
}

// DialAMQP connects, declares the exchange and queue and binds them.
// Dial failures are retried with exponential backoff until attempts run out
// or ctx ends.
func DialAMQP(ctx context.Context, cfg AMQPConfig, attempts int) (*AMQPNotifier, error) {
	if cfg.RoutingKey == "" {
		cfg.RoutingKey = cfg.Queue
	}
	log := logging.For(logging.ComponentNotify)

	var conn *amqp091.Connection
	var err error
	for attempt := 0; attempt < max(attempts, 1); attempt++ {
		if attempt > 0 {
			wait := exponentialBackoff(attempt - 1)
			log.WarnContext(ctx, "AMQP dial failed, retrying", logging.FieldError, err, "wait", wait)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
		}
		conn, err = amqp091.Dial(cfg.URL)
		if err == nil {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	n := &AMQPNotifier{
		conn:       conn,
		channel:    channel,
		pub:        channel,
		exchange:   cfg.Exchange,
		routingKey: cfg.RoutingKey,
		log:        log,
	}
	if err := n.setup(cfg.Queue); err != nil {
		n.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}
	return n, nil
}

func (n *AMQPNotifier) setup(queue string) error {
	err := n.channel.ExchangeDeclare(
		n.exchange, // name
		"direct",   // type
		true,       // durable
		false,      // auto-deleted
		false,      // internal
		false,      // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	if _, err := n.channel.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	if err := n.channel.QueueBind(queue, n.routingKey, n.exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

// Notify publishes the alert.
func (n *AMQPNotifier) Notify(ctx context.Context, a Alert) error {
	body, err := a.JSON()
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = n.pub.PublishWithContext(ctx, n.exchange, n.routingKey, false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		Timestamp:    a.At,
		Type:         "budget_alert",
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish alert: %w", err)
	}

	n.log.InfoContext(ctx, "Published budget alert",
		logging.FieldAlertLevel, a.Level.String(),
		"exchange", n.exchange,
		"routing_key", n.routingKey)
	return nil
}

// Close closes the channel and connection.
func (n *AMQPNotifier) Close() error {
	if n.channel != nil {
		n.channel.Close()
	}
	if n.conn != nil {
		return n.conn.Close()
	}
	return nil
}

// exponentialBackoff returns 1s doubled per attempt, capped at 30s.
func exponentialBackoff(attempt int) time.Duration {
	if attempt > 5 {
		return 30 * time.Second
	}
	d := time.Second << attempt
	if d > 30*time.Second {
		return 30 * time.Second
	}
	return d
}
