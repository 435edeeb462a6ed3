package messaging

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	contractsv1 "qconnect/contracts/gen/events/v1"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	events []contractsv1.Envelope
}

func (r *recorder) handle(_ context.Context, event contractsv1.Envelope) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func TestBusDeliversToEachConsumerGroup(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus, err := NewBus([]string{"localhost:9092"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"localhost:9092"}, bus.Brokers())

	projector := &recorder{}
	audit := &recorder{}
	require.NoError(t, bus.Subscribe(ctx, contractsv1.EventTypeVoteChanged, "projector", projector.handle))
	require.NoError(t, bus.Subscribe(ctx, contractsv1.EventTypeVoteChanged, "audit", audit.handle))

	require.NoError(t, bus.Publish(ctx, contractsv1.EventTypeVoteChanged, contractsv1.Envelope{
		EventID:   "evt-1",
		EventType: contractsv1.EventTypeVoteChanged,
	}))

	require.Eventually(t, func() bool {
		return projector.count() == 1 && audit.count() == 1
	}, time.Second, 5*time.Millisecond)
}

func TestBusSplitsEventsWithinConsumerGroup(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus, err := NewBus(nil, nil)
	require.NoError(t, err)

	first := &recorder{}
	second := &recorder{}
	require.NoError(t, bus.Subscribe(ctx, contractsv1.EventTypeMembershipChanged, "projector", first.handle))
	require.NoError(t, bus.Subscribe(ctx, contractsv1.EventTypeMembershipChanged, "projector", second.handle))

	for _, id := range []string{"evt-1", "evt-2", "evt-3", "evt-4"} {
		require.NoError(t, bus.Publish(ctx, contractsv1.EventTypeMembershipChanged, contractsv1.Envelope{EventID: id}))
	}

	require.Eventually(t, func() bool {
		return first.count()+second.count() == 4
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 2, first.count())
	assert.Equal(t, 2, second.count())
}

func TestBusIgnoresOtherTopics(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus, err := NewBus(nil, nil)
	require.NoError(t, err)

	votes := &recorder{}
	require.NoError(t, bus.Subscribe(ctx, contractsv1.EventTypeVoteChanged, "projector", votes.handle))
	require.NoError(t, bus.Publish(ctx, contractsv1.EventTypeMembershipChanged, contractsv1.Envelope{EventID: "evt-1"}))

	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, votes.count())
}

func TestBusReportsFullSubscriberBacklog(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus, err := NewBus(nil, nil)
	require.NoError(t, err)
	bus.bufferSize = 1

	release := make(chan struct{})
	var started atomic.Int32
	blocked := func(ctx context.Context, _ contractsv1.Envelope) error {
		started.Add(1)
		select {
		case <-release:
		case <-ctx.Done():
		}
		return nil
	}
	require.NoError(t, bus.Subscribe(ctx, contractsv1.EventTypeVoteChanged, "projector", blocked))

	require.NoError(t, bus.Publish(ctx, contractsv1.EventTypeVoteChanged, contractsv1.Envelope{EventID: "evt-1"}))
	require.Eventually(t, func() bool { return started.Load() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, bus.Publish(ctx, contractsv1.EventTypeVoteChanged, contractsv1.Envelope{EventID: "evt-2"}))
	err = bus.Publish(ctx, contractsv1.EventTypeVoteChanged, contractsv1.Envelope{EventID: "evt-3"})
	require.ErrorIs(t, err, ErrSubscriberBacklog)
	assert.Contains(t, err.Error(), "projector")

	close(release)
	require.Eventually(t, func() bool {
		return bus.Publish(ctx, contractsv1.EventTypeVoteChanged, contractsv1.Envelope{EventID: "evt-3"}) == nil
	}, time.Second, 5*time.Millisecond)
}
