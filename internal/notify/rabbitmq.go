// Package notify delivers staff notifications over RabbitMQ and SMTP.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/streadway/amqp"
	"go.uber.org/zap"

	"github.com/example/campmeeting/internal/core"
)

// channel is the subset of *amqp.Channel the publisher uses.
type channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// QueuePublisher publishes notifications as persistent JSON messages on a durable queue.
type QueuePublisher struct {
	conn   *amqp.Connection
	logger *zap.Logger
	queue  string

	mu       sync.Mutex
	ch       channel
	declared bool
}

// DialQueuePublisher connects to RabbitMQ at url.
func DialQueuePublisher(url, queue string, logger *zap.Logger) (*QueuePublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open a RabbitMQ channel: %w", err)
	}
	p := newQueuePublisher(ch, queue, logger)
	p.conn = conn
	p.logger.Info("Connected to RabbitMQ", zap.String("queue", queue))
	return p, nil
}

func newQueuePublisher(ch channel, queue string, logger *zap.Logger) *QueuePublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueuePublisher{ch: ch, queue: queue, logger: logger}
}

// Notify publishes n. The queue is declared on first use.
func (p *QueuePublisher) Notify(_ context.Context, n core.Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.declared {
		if _, err := p.ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
			return fmt.Errorf("failed to declare queue %s: %w", p.queue, err)
		}
		p.declared = true
	}
	err = p.ch.Publish("", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Type:         string(n.Kind),
		Body:         body,
		DeliveryMode: amqp.Persistent,
	})
	if err != nil {
		return fmt.Errorf("failed to publish to queue %s: %w", p.queue, err)
	}
	p.logger.Debug("Published staff notification", zap.String("queue", p.queue), zap.String("kind", string(n.Kind)))
	return nil
}

// Close closes the channel and connection.
func (p *QueuePublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var lastErr error
	if p.ch != nil {
		if err := p.ch.Close(); err != nil {
			lastErr = err
		}
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}
