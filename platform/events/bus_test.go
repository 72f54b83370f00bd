package events

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"movecrm_backend/platform/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingEvent struct {
	BaseEvent
}

func (pingEvent) EventName() string { return "test.ping" }

func TestPublishRunsEveryHandler(t *testing.T) {
	bus := NewInMemoryBus(logger.Nop())
	var calls atomic.Int32
	for i := 0; i < 3; i++ {
		bus.Subscribe("test.ping", HandlerFunc(func(context.Context, Event) error {
			calls.Add(1)
			return nil
		}))
	}

	bus.Publish(context.Background(), pingEvent{BaseEvent: NewBaseEvent()})
	bus.Wait()

	assert.Equal(t, int32(3), calls.Load())
}

func TestPublishIsolatesFailingHandlers(t *testing.T) {
	bus := NewInMemoryBus(logger.Nop())
	var reached atomic.Bool
	bus.Subscribe("test.ping", HandlerFunc(func(context.Context, Event) error {
		panic("boom")
	}))
	bus.Subscribe("test.ping", HandlerFunc(func(context.Context, Event) error {
		return errors.New("sink down")
	}))
	bus.Subscribe("test.ping", HandlerFunc(func(context.Context, Event) error {
		reached.Store(true)
		return nil
	}))

	require.NotPanics(t, func() {
		bus.Publish(context.Background(), pingEvent{BaseEvent: NewBaseEvent()})
		bus.Wait()
	})
	assert.True(t, reached.Load())
}

func TestPublishSurvivesCancelledRequestContext(t *testing.T) {
	bus := NewInMemoryBus(logger.Nop())
	var alive atomic.Bool
	bus.Subscribe("test.ping", HandlerFunc(func(ctx context.Context, _ Event) error {
		alive.Store(ctx.Err() == nil)
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	bus.Publish(ctx, pingEvent{BaseEvent: NewBaseEvent()})
	cancel()
	bus.Wait()

	assert.True(t, alive.Load())
}

func TestPublishSyncJoinsErrors(t *testing.T) {
	bus := NewInMemoryBus(logger.Nop())
	bus.Subscribe("test.ping", HandlerFunc(func(context.Context, Event) error {
		return errors.New("first")
	}))
	bus.Subscribe("test.ping", HandlerFunc(func(context.Context, Event) error {
		panic("second")
	}))

	err := bus.PublishSync(context.Background(), pingEvent{BaseEvent: NewBaseEvent()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "first")
	assert.Contains(t, err.Error(), "second")
}
