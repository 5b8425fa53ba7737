package orders_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greengrocer/storefront/internal/orders"
)

type published struct {
	key     string
	payload any
}

type fakePublisher struct{ sent []published }

func (p *fakePublisher) Publish(_ context.Context, key string, payload any) error {
	p.sent = append(p.sent, published{key: key, payload: payload})
	return nil
}

func TestEventProducerRoutingKeys(t *testing.T) {
	pub := &fakePublisher{}
	producer := orders.NewEventProducer(pub)
	ctx := context.Background()

	require.NoError(t, producer.OrderPlaced(ctx, orders.OrderPlacedEvent{OrderID: 9}))
	require.NoError(t, producer.OrderStatusChanged(ctx, orders.StatusChangedEvent{OrderID: 9, From: orders.StatusPending, To: orders.StatusProcessing}))

	require.Len(t, pub.sent, 2)
	assert.Equal(t, orders.EventOrderPlaced, pub.sent[0].key)
	assert.Equal(t, orders.EventOrderStatusChanged, pub.sent[1].key)
	assert.Equal(t, orders.StatusProcessing, pub.sent[1].payload.(orders.StatusChangedEvent).To)
}

func TestNotifiersJoinErrors(t *testing.T) {
	ok := &recordingNotifier{}
	failing := &recordingNotifier{err: errors.New("smtp down")}
	all := orders.Notifiers{failing, ok}

	err := all.OrderPlaced(context.Background(), orders.OrderPlacedEvent{OrderID: 1})
	require.ErrorContains(t, err, "smtp down")
	assert.Len(t, ok.placed, 1)

	assert.NoError(t, orders.Notifiers{ok}.OrderStatusChanged(context.Background(), orders.StatusChangedEvent{}))
}
