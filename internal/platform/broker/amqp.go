// Package broker publishes JSON events to a RabbitMQ topic exchange.
package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// ErrClosed is returned by Publish after Close.
var ErrClosed = errors.New("platform/broker: publisher closed")

type confirmation interface {
	WaitContext(ctx context.Context) (bool, error)
}

type channel interface {
	setup(exchange string) error
	publish(ctx context.Context, exchange, key string, msg amqp.Publishing) (confirmation, error)
	IsClosed() bool
	Close() error
}

type connection interface {
	channel() (channel, error)
	IsClosed() bool
	Close() error
}

type dialFunc func(url string) (connection, error)

type amqpConnection struct{ *amqp.Connection }

func dialAMQP(url string) (connection, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	return amqpConnection{conn}, nil
}

func (c amqpConnection) channel() (channel, error) {
	ch, err := c.Channel()
	if err != nil {
		return nil, err
	}
	return amqpChannel{ch}, nil
}

type amqpChannel struct{ *amqp.Channel }

// setup puts the channel in confirm mode and declares a durable topic exchange.
func (c amqpChannel) setup(exchange string) error {
	if err := c.Confirm(false); err != nil {
		return fmt.Errorf("confirm mode: %w", err)
	}
	return c.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil)
}

func (c amqpChannel) publish(ctx context.Context, exchange, key string, msg amqp.Publishing) (confirmation, error) {
	conf, err := c.PublishWithDeferredConfirmWithContext(ctx, exchange, key, false, false, msg)
	if err != nil {
		return nil, err
	}
	return conf, nil
}

// Publisher owns one AMQP connection and a confirm-mode channel. Both are
// reopened on the next Publish after the broker closes them.
type Publisher struct {
	url      string
	exchange string
	appID    string
	dial     dialFunc

	mu     sync.Mutex
	conn   connection
	ch     channel
	closed bool
}

// Dial connects to url and declares a durable topic exchange.
func Dial(url, exchange, appID string) (*Publisher, error) {
	return newPublisher(url, exchange, appID, dialAMQP)
}

func newPublisher(url, exchange, appID string, dial dialFunc) (*Publisher, error) {
	p := &Publisher{url: url, exchange: exchange, appID: appID, dial: dial}
	if err := p.ensureChannel(); err != nil {
		if p.conn != nil {
			_ = p.conn.Close()
		}
		return nil, err
	}
	return p, nil
}

// ensureChannel reopens whatever the broker has closed. Callers hold mu.
func (p *Publisher) ensureChannel() error {
	if p.ch != nil && !p.ch.IsClosed() {
		return nil
	}
	if p.conn == nil || p.conn.IsClosed() {
		conn, err := p.dial(p.url)
		if err != nil {
			return fmt.Errorf("platform/broker: dial: %w", err)
		}
		p.conn = conn
	}
	ch, err := p.conn.channel()
	if err != nil {
		return fmt.Errorf("platform/broker: channel: %w", err)
	}
	if err := ch.setup(p.exchange); err != nil {
		_ = ch.Close()
		return fmt.Errorf("platform/broker: setup channel: %w", err)
	}
	p.ch = ch
	return nil
}

// Publish marshals payload, publishes it as a persistent message and waits
// for the broker to confirm it.
func (p *Publisher) Publish(ctx context.Context, routingKey string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("platform/broker: marshal %s: %w", routingKey, err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	if err := p.ensureChannel(); err != nil {
		return err
	}
	conf, err := p.ch.publish(ctx, p.exchange, routingKey, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		AppId:        p.appID,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("platform/broker: publish %s: %w", routingKey, err)
	}
	acked, err := conf.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("platform/broker: confirm %s: %w", routingKey, err)
	}
	if !acked {
		return fmt.Errorf("platform/broker: %s rejected by broker", routingKey)
	}
	return nil
}

// Close shuts the channel and connection. Later publishes fail with ErrClosed.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	var errs []error
	if p.ch != nil && !p.ch.IsClosed() {
		errs = append(errs, p.ch.Close())
	}
	if p.conn != nil && !p.conn.IsClosed() {
		errs = append(errs, p.conn.Close())
	}
	return errors.Join(errs...)
}
