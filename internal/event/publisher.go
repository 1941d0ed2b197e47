// Package event publishes committed ledger mutations to RabbitMQ so other
// systems can follow balances without polling the database.
package event

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/vietanh2810/kids-ledger-api/internal/config"
	"github.com/vietanh2810/kids-ledger-api/internal/domain"
)

const publishTimeout = 5 * time.Second

type Publisher interface {
	Publish(ctx context.Context, event domain.LedgerEvent)
	Close() error
}

// NewPublisher returns an AMQP publisher when amqp.url is set, otherwise a
// publisher that drops every event.
func NewPublisher(conf *config.AMQPConfig) Publisher {
	if conf.URL == "" {
		return Nop{}
	}

	return NewAMQPPublisher(conf.URL, conf.Exchange)
}

type Nop struct{}

func (Nop) Publish(context.Context, domain.LedgerEvent) {}

func (Nop) Close() error { return nil }

// AMQPPublisher keeps one connection and channel open and redials lazily
// after a failure. Errors are logged, never returned: a ledger operation is
// already committed when its event is published.
type AMQPPublisher struct {
	url      string
	exchange string

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewAMQPPublisher(url, exchange string) *AMQPPublisher {
	return &AMQPPublisher{url: url, exchange: exchange}
}

func (p *AMQPPublisher) Publish(ctx context.Context, event domain.LedgerEvent) {
	key, msg, err := encode(event)
	if err != nil {
		zap.L().Error("event: encode failed", zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()

	if err = p.connect(); err != nil {
		zap.L().Error("event: connect failed", zap.Error(err), zap.String("routingKey", key))
		return
	}

	if err = p.ch.PublishWithContext(ctx, p.exchange, key, false, false, msg); err != nil {
		zap.L().Error("event: publish failed", zap.Error(err), zap.String("routingKey", key))
		p.reset()
	}
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn == nil {
		return nil
	}
	err := p.conn.Close()
	p.conn, p.ch = nil, nil

	return err
}

func (p *AMQPPublisher) connect() error {
	if p.ch != nil && !p.ch.IsClosed() {
		return nil
	}
	p.reset()

	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("amqp.Dial -> %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("conn.Channel -> %w", err)
	}
	if err = ch.ExchangeDeclare(p.exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return fmt.Errorf("ch.ExchangeDeclare -> %w", err)
	}

	p.conn, p.ch = conn, ch

	return nil
}

func (p *AMQPPublisher) reset() {
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.conn, p.ch = nil, nil
}

// RoutingKey is "ledger.<type>", e.g. ledger.credit.
func RoutingKey(t domain.TransactionType) string {
	return "ledger." + string(t)
}

func encode(event domain.LedgerEvent) (string, amqp.Publishing, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return "", amqp.Publishing{}, fmt.Errorf("json.Marshal -> %w", err)
	}

	return RoutingKey(event.Type), amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    event.OccurredAt.UTC(),
		Type:         string(event.Type),
		Body:         body,
	}, nil
}
