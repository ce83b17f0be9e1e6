package eventbus_test

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/botblocks/botblocks/pkg/channels/gochannel"
	"github.com/botblocks/botblocks/pkg/eventbus"
	"github.com/botblocks/botblocks/pkg/events"
)

func TestWatermillEventBusRoundTrip(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pub, sub, err := gochannel.CreateTestChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(pub, sub)
	received := make(chan *events.MessageSent, 1)

	err = bus.Handle(events.MessageSentEvent, func(_ context.Context, event any) error {
		sent, ok := event.(*events.MessageSent)
		require.True(t, ok)

		received <- sent

		return nil
	})
	require.NoError(t, err)

	require.NoError(t, bus.Subscribe(ctx))

	sent := events.MessageSent{
		BaseEvent:   events.NewBaseEvent(events.MessageSentEvent, "schema-1"),
		ExecutionID: "run-1",
		ChatID:      "c1",
		Text:        "hello",
	}
	require.NoError(t, bus.Publish(ctx, "schema-1", sent))

	select {
	case got := <-received:
		assert.Equal(t, "run-1", got.ExecutionID)
		assert.Equal(t, "hello", got.Text)
		assert.Equal(t, "schema-1", got.SchemaID)
	case <-time.After(2 * time.Second):
		t.Fatal("event was not delivered")
	}
}

func TestWatermillEventBusIgnoresUnhandledTypes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pub, sub, err := gochannel.CreateChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(pub, sub)
	require.NoError(t, bus.Subscribe(ctx))

	event := events.SchemaFixed{
		BaseEvent: events.NewBaseEvent(events.SchemaFixedEvent, "schema-1"),
		FixCount:  2,
	}
	assert.NoError(t, bus.Publish(ctx, "schema-1", event))
}
