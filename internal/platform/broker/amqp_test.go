package broker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConfirmation struct {
	acked bool
	err   error
}

func (c fakeConfirmation) WaitContext(context.Context) (bool, error) { return c.acked, c.err }

type published struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type fakeChannel struct {
	exchange string
	closed   bool
	nack     bool
	sent     []published
}

func (c *fakeChannel) setup(exchange string) error {
	c.exchange = exchange
	return nil
}

func (c *fakeChannel) publish(_ context.Context, exchange, key string, msg amqp.Publishing) (confirmation, error) {
	if c.closed {
		return nil, amqp.ErrClosed
	}
	c.sent = append(c.sent, published{exchange: exchange, key: key, msg: msg})
	return fakeConfirmation{acked: !c.nack}, nil
}

func (c *fakeChannel) IsClosed() bool { return c.closed }

func (c *fakeChannel) Close() error {
	c.closed = true
	return nil
}

type fakeConnection struct {
	closed   bool
	channels []*fakeChannel
}

func (c *fakeConnection) channel() (channel, error) {
	if c.closed {
		return nil, amqp.ErrClosed
	}
	ch := &fakeChannel{}
	c.channels = append(c.channels, ch)
	return ch, nil
}

func (c *fakeConnection) IsClosed() bool { return c.closed }

func (c *fakeConnection) Close() error {
	c.closed = true
	return nil
}

type fakeDialer struct {
	conns []*fakeConnection
	err   error
}

func (d *fakeDialer) dial(string) (connection, error) {
	if d.err != nil {
		return nil, d.err
	}
	conn := &fakeConnection{}
	d.conns = append(d.conns, conn)
	return conn, nil
}

func TestPublishWaitsForConfirmation(t *testing.T) {
	d := &fakeDialer{}
	p, err := newPublisher("amqp://test", "storefront.events", "storefront", d.dial)
	require.NoError(t, err)

	require.NoError(t, p.Publish(context.Background(), "orders.placed", map[string]int{"orderId": 7}))

	require.Len(t, d.conns, 1)
	ch := d.conns[0].channels[0]
	assert.Equal(t, "storefront.events", ch.exchange)
	require.Len(t, ch.sent, 1)
	sent := ch.sent[0]
	assert.Equal(t, "orders.placed", sent.key)
	assert.Equal(t, "application/json", sent.msg.ContentType)
	assert.Equal(t, amqp.Persistent, sent.msg.DeliveryMode)
	assert.NotEmpty(t, sent.msg.MessageId)
	var body map[string]int
	require.NoError(t, json.Unmarshal(sent.msg.Body, &body))
	assert.Equal(t, 7, body["orderId"])

	ch.nack = true
	err = p.Publish(context.Background(), "orders.placed", map[string]int{"orderId": 8})
	assert.ErrorContains(t, err, "rejected")
}

func TestPublishReopensClosedChannelAndConnection(t *testing.T) {
	d := &fakeDialer{}
	p, err := newPublisher("amqp://test", "storefront.events", "storefront", d.dial)
	require.NoError(t, err)
	ctx := context.Background()

	d.conns[0].channels[0].closed = true
	require.NoError(t, p.Publish(ctx, "orders.status_changed", struct{}{}))
	require.Len(t, d.conns, 1, "an open connection is reused")
	require.Len(t, d.conns[0].channels, 2)
	assert.Len(t, d.conns[0].channels[1].sent, 1)

	d.conns[0].closed = true
	d.conns[0].channels[1].closed = true
	require.NoError(t, p.Publish(ctx, "orders.status_changed", struct{}{}))
	require.Len(t, d.conns, 2)
	assert.Len(t, d.conns[1].channels[0].sent, 1)
}

func TestPublishAfterClose(t *testing.T) {
	d := &fakeDialer{}
	p, err := newPublisher("amqp://test", "storefront.events", "storefront", d.dial)
	require.NoError(t, err)

	require.NoError(t, p.Close())
	assert.ErrorIs(t, p.Publish(context.Background(), "orders.placed", struct{}{}), ErrClosed)
	assert.Len(t, d.conns, 1)
}

func TestDialFailure(t *testing.T) {
	d := &fakeDialer{err: errors.New("connection refused")}
	_, err := newPublisher("amqp://test", "storefront.events", "storefront", d.dial)
	assert.ErrorContains(t, err, "connection refused")
}
