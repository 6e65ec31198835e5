package messaging

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SuWh1/InternAI-sub001/internal/domain/shared"
)

func newSyncBus(t *testing.T) *InMemoryEventBus {
	t.Helper()
	return NewInMemoryEventBus(InMemoryEventBusConfig{
		AsyncMode:     false,
		EnableMetrics: true,
	})
}

func TestInMemoryEventBus_DeliversToTypedSubscriber(t *testing.T) {
	bus := newSyncBus(t)
	defer bus.Close()

	var got []shared.Event
	require.NoError(t, bus.Subscribe(shared.EventTaskToggled, func(event shared.Event) error {
		got = append(got, event)
		return nil
	}))

	event := shared.NewTaskToggledEvent("user-1", 2, "task-0", true, 50)
	require.NoError(t, bus.Publish(event))

	require.Len(t, got, 1)
	assert.Equal(t, shared.EventTaskToggled, got[0].EventType())
	assert.Equal(t, "user-1", got[0].AggregateID())
}

func TestInMemoryEventBus_TypedSubscriberIgnoresOtherTypes(t *testing.T) {
	bus := newSyncBus(t)
	defer bus.Close()

	calls := 0
	require.NoError(t, bus.Subscribe(shared.EventWeekCompleted, func(shared.Event) error {
		calls++
		return nil
	}))

	require.NoError(t, bus.Publish(shared.NewTaskToggledEvent("user-1", 1, "task-0", true, 33)))
	assert.Zero(t, calls)
}

func TestInMemoryEventBus_GlobalSubscriberSeesEverything(t *testing.T) {
	bus := newSyncBus(t)
	defer bus.Close()

	calls := 0
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error {
		calls++
		return nil
	}))

	require.NoError(t, bus.Publish(shared.NewTaskToggledEvent("user-1", 1, "task-0", true, 33)))
	require.NoError(t, bus.Publish(shared.NewRoadmapGeneratedEvent("user-1", 12, "mock", true)))

	assert.Equal(t, 2, calls)
}

func TestInMemoryEventBus_HandlerErrorDoesNotStopOthers(t *testing.T) {
	bus := newSyncBus(t)
	defer bus.Close()

	second := false
	require.NoError(t, bus.Subscribe(shared.EventTaskToggled, func(shared.Event) error {
		return errors.New("boom")
	}))
	require.NoError(t, bus.Subscribe(shared.EventTaskToggled, func(shared.Event) error {
		second = true
		return nil
	}))

	require.NoError(t, bus.Publish(shared.NewTaskToggledEvent("user-1", 1, "task-0", true, 33)))
	assert.True(t, second)
}

func TestInMemoryEventBus_AsyncDelivery(t *testing.T) {
	bus := NewInMemoryEventBus(InMemoryEventBusConfig{
		AsyncMode:      true,
		WorkerPoolSize: 4,
	})

	var calls atomic.Int64
	require.NoError(t, bus.Subscribe(shared.EventTaskToggled, func(shared.Event) error {
		calls.Add(1)
		return nil
	}))

	for i := 0; i < 10; i++ {
		require.NoError(t, bus.Publish(shared.NewTaskToggledEvent("user-1", 1, "task-0", true, 33)))
	}

	// Close waits for in-flight handlers
	require.NoError(t, bus.Close())
	assert.Equal(t, int64(10), calls.Load())
}

func TestInMemoryEventBus_ClosedBusRejectsOperations(t *testing.T) {
	bus := newSyncBus(t)
	require.NoError(t, bus.Close())

	assert.ErrorIs(t, bus.Publish(shared.NewTaskToggledEvent("user-1", 1, "task-0", true, 33)), ErrEventBusClosed)
	assert.ErrorIs(t, bus.Subscribe(shared.EventTaskToggled, func(shared.Event) error { return nil }), ErrEventBusClosed)
}

func TestInMemoryEventBus_MetricsTrackPublishes(t *testing.T) {
	bus := newSyncBus(t)
	defer bus.Close()

	require.NoError(t, bus.Subscribe(shared.EventTaskToggled, func(shared.Event) error { return nil }))
	require.NoError(t, bus.Subscribe(shared.EventTaskToggled, func(shared.Event) error { return errors.New("boom") }))

	require.NoError(t, bus.Publish(shared.NewTaskToggledEvent("user-1", 1, "task-0", true, 33)))

	snap := bus.Metrics().Snapshot()
	assert.Equal(t, int64(1), snap.TotalPublished)
	assert.Equal(t, int64(2), snap.TotalHandlerExecs)
	assert.InDelta(t, 0.5, snap.HandlerSuccessRate, 0.001)
	assert.WithinDuration(t, time.Now(), snap.LastReset, time.Minute)
}

func TestRegisterLoggingSubscribers(t *testing.T) {
	bus := newSyncBus(t)
	defer bus.Close()

	require.NoError(t, RegisterLoggingSubscribers(bus, nil))

	// All four event families have at least one handler registered.
	require.NoError(t, bus.Publish(shared.NewTaskToggledEvent("user-1", 1, "task-0", true, 33)))
	require.NoError(t, bus.Publish(shared.NewWeekCompletedEvent("user-1", 1, 2, 3)))
	require.NoError(t, bus.Publish(shared.NewProgressRevertedEvent("user-1", 1, "task-0", "persist failed")))
	require.NoError(t, bus.Publish(shared.NewRoadmapGeneratedEvent("user-1", 12, "mock", true)))

	assert.Equal(t, int64(4), bus.Metrics().Snapshot().TotalHandlerExecs)
}

type fakeInvalidator struct {
	clears int
}

func (f *fakeInvalidator) Clear() {
	f.clears++
}

func TestRegisterCacheInvalidation(t *testing.T) {
	bus := newSyncBus(t)
	defer bus.Close()

	cache := &fakeInvalidator{}
	require.NoError(t, RegisterCacheInvalidation(bus, cache, nil))

	// Only roadmap generation clears the cache.
	require.NoError(t, bus.Publish(shared.NewTaskToggledEvent("user-1", 1, "task-0", true, 33)))
	assert.Equal(t, 0, cache.clears)

	require.NoError(t, bus.Publish(shared.NewRoadmapGeneratedEvent("user-1", 12, "mock", true)))
	assert.Equal(t, 1, cache.clears)
}
