package event

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/catalog-service/internal/storage/mq"
)

type fakeConsumer struct {
	handlers map[string]mq.HandlerFunc
}

func (c *fakeConsumer) RegisterHandler(topic string, handler mq.HandlerFunc) error {
	c.handlers[topic] = handler
	return nil
}

func (c *fakeConsumer) Run(context.Context) (mq.CleanupFunc, error) {
	return func() {}, nil
}

func TestEventService(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	consumer := &fakeConsumer{handlers: map[string]mq.HandlerFunc{}}

	svc := New(logger, consumer)
	require.NoError(t, svc.RegisterHandlers())
	require.Contains(t, consumer.handlers, TopicProductCreated)
	require.Contains(t, consumer.handlers, TopicInventoryChanged)

	ctx := context.Background()

	t.Run("Should warn when a product runs out of stock", func(t *testing.T) {
		buf.Reset()
		payload, err := json.Marshal(InventoryChangedEvent{ProductID: "p-1", Quantity: 0, Delta: -1, Reason: InventoryReasonReserve})
		require.NoError(t, err)

		require.NoError(t, consumer.handlers[TopicInventoryChanged](ctx, TopicInventoryChanged, payload))
		assert.Contains(t, buf.String(), `"level":"WARN"`)
		assert.Contains(t, buf.String(), "out of stock")
	})

	t.Run("Should not warn on new empty inventory", func(t *testing.T) {
		buf.Reset()
		payload, err := json.Marshal(InventoryChangedEvent{ProductID: "p-2", Quantity: 0, Reason: InventoryReasonCreate})
		require.NoError(t, err)

		require.NoError(t, consumer.handlers[TopicInventoryChanged](ctx, TopicInventoryChanged, payload))
		assert.NotContains(t, buf.String(), `"level":"WARN"`)
	})

	t.Run("Should reject malformed payload", func(t *testing.T) {
		err := consumer.handlers[TopicProductCreated](ctx, TopicProductCreated, []byte("{"))
		assert.Error(t, err)
	})
}
