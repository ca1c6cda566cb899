package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	apppositions "main/internal/application/service/positions"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// PositionPublisher emits position change events to a fanout exchange after
// the reconciliation service persists a transition. It satisfies the service's
// Notifier contract.
type PositionPublisher struct {
	channel  *amqp.Channel
	exchange string
	logger   *logrus.Logger
	mu       sync.Mutex
}

var _ apppositions.Notifier = (*PositionPublisher)(nil)

// NewPositionPublisher declares the exchange and readies the publisher.
func NewPositionPublisher(conn *amqp.Connection, exchange string, logger *logrus.Logger) (*PositionPublisher, error) {
	if exchange == "" {
		return nil, errors.New("exchange name cannot be empty")
	}
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("create channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "fanout", true, false, false, false, nil); err != nil {
		ch.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return &PositionPublisher{
		channel:  ch,
		exchange: exchange,
		logger:   logger,
	}, nil
}

func (p *PositionPublisher) Close() {
	if p == nil {
		return
	}
	if err := p.channel.Close(); err != nil {
		p.logger.Errorf("close rabbitmq channel: %v", err)
	}
}

// NotifyPositionChanged publishes the event as persistent JSON.
func (p *PositionPublisher) NotifyPositionChanged(ctx context.Context, event apppositions.Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	return p.channel.PublishWithContext(ctx, p.exchange, "", false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
}
