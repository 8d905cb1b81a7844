package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sdmtech/sdmcrm/internal/domain/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestEventBus_PublishRunsHandlersInOrder(t *testing.T) {
	bus := NewEventBus(zap.NewNop())
	var order []int
	bus.Subscribe(events.TaskAssigned, func(context.Context, interface{}) error { order = append(order, 1); return nil })
	bus.Subscribe(events.TaskAssigned, func(context.Context, interface{}) error { order = append(order, 2); return nil })
	bus.Subscribe(events.TaskSubmitted, func(context.Context, interface{}) error { order = append(order, 99); return nil })

	require.NoError(t, bus.Publish(context.Background(), events.TaskAssigned, nil))
	assert.Equal(t, []int{1, 2}, order)
}

func TestEventBus_PublishStopsAtFirstError(t *testing.T) {
	bus := NewEventBus(nil)
	called := false
	bus.Subscribe(events.TaskAssigned, func(context.Context, interface{}) error { return errors.New("boom") })
	bus.Subscribe(events.TaskAssigned, func(context.Context, interface{}) error { called = true; return nil })

	err := bus.Publish(context.Background(), events.TaskAssigned, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "task.assigned")
	assert.False(t, called)
}

func TestEventBus_Unsubscribe(t *testing.T) {
	bus := NewEventBus(nil)
	var hits int32
	unsub := bus.Subscribe(events.TaskOverdue, func(context.Context, interface{}) error {
		atomic.AddInt32(&hits, 1)
		return nil
	})
	require.Equal(t, 1, bus.HandlerCount(events.TaskOverdue))

	unsub()
	unsub()

	assert.Equal(t, 0, bus.HandlerCount(events.TaskOverdue))
	require.NoError(t, bus.Publish(context.Background(), events.TaskOverdue, nil))
	assert.Zero(t, atomic.LoadInt32(&hits))
}

func TestEventBus_PublishAsyncOutlivesRequestContext(t *testing.T) {
	bus := NewEventBus(nil)
	got := make(chan error, 1)
	bus.Subscribe(events.TaskSubmitted, func(ctx context.Context, _ interface{}) error {
		got <- ctx.Err()
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	bus.PublishAsync(ctx, events.TaskSubmitted, nil)
	bus.Wait()

	select {
	case err := <-got:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("handler did not run")
	}
}

func TestAuthStream_DeliversOnlyToTheUser(t *testing.T) {
	bus := NewEventBus(nil)
	stream := NewAuthStream(bus, nil)
	defer stream.Close()

	mine, cancelMine := stream.Listen("u1")
	defer cancelMine()
	theirs, cancelTheirs := stream.Listen("u2")
	defer cancelTheirs()

	evt := events.AuthEvent{Type: events.AuthRoleChanged, UserID: "u1", Role: "admin"}
	require.NoError(t, bus.Publish(context.Background(), events.AuthRoleChanged, evt))

	assert.Equal(t, evt, <-mine)
	assert.Empty(t, theirs)
}

func TestAuthStream_DropsSlowListeners(t *testing.T) {
	bus := NewEventBus(nil)
	stream := NewAuthStream(bus, nil)
	defer stream.Close()

	ch, cancel := stream.Listen("u1")
	defer cancel()

	evt := events.AuthEvent{Type: events.AuthSignedIn, UserID: "u1"}
	for i := 0; i <= authStreamBuffer; i++ {
		require.NoError(t, bus.Publish(context.Background(), events.AuthSignedIn, evt))
	}

	assert.Equal(t, 0, stream.ListenerCount("u1"))
	n := 0
	for range ch {
		n++
	}
	assert.Equal(t, authStreamBuffer, n)
}

func TestAuthStream_CloseUnsubscribes(t *testing.T) {
	bus := NewEventBus(nil)
	stream := NewAuthStream(bus, nil)
	ch, cancel := stream.Listen("u1")

	stream.Close()
	cancel()

	_, open := <-ch
	assert.False(t, open)
	assert.Equal(t, 0, bus.HandlerCount(events.AuthSignedOut))
}
