package workers

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"qconnect/contexts/community-experience/interaction-engine/ports"
	contractsv1 "qconnect/contracts/gen/events/v1"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOutbox struct {
	rows      []ports.OutboxMessage
	published []string
	listErr   error
}

func (f *fakeOutbox) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	done := make(map[string]bool, len(f.published))
	for _, id := range f.published {
		done[id] = true
	}
	out := make([]ports.OutboxMessage, 0, len(f.rows))
	for _, row := range f.rows {
		if !done[row.OutboxID] && len(out) < limit {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeOutbox) MarkOutboxPublished(_ context.Context, outboxID string, _ time.Time) error {
	f.published = append(f.published, outboxID)
	return nil
}

type fakeBus struct {
	mu        sync.Mutex
	events    []ports.EventEnvelope
	failOn    string
	handlers  map[string]func(context.Context, ports.EventEnvelope) error
	subscribe error
}

func (b *fakeBus) Publish(ctx context.Context, topic string, event ports.EventEnvelope) error {
	b.mu.Lock()
	if event.EventID == b.failOn {
		b.mu.Unlock()
		return errors.New("broker unavailable")
	}
	b.events = append(b.events, event)
	handler := b.handlers[topic]
	b.mu.Unlock()
	if handler != nil {
		return handler(ctx, event)
	}
	return nil
}

func (b *fakeBus) Subscribe(_ context.Context, topic string, _ string, handler func(context.Context, ports.EventEnvelope) error) error {
	if b.subscribe != nil {
		return b.subscribe
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.handlers == nil {
		b.handlers = make(map[string]func(context.Context, ports.EventEnvelope) error)
	}
	b.handlers[topic] = handler
	return nil
}

type fakeProjection struct {
	votes       []contractsv1.VoteChangedData
	memberships []contractsv1.MembershipChangedData
}

func (p *fakeProjection) ApplyVoteChange(_ context.Context, data contractsv1.VoteChangedData) error {
	p.votes = append(p.votes, data)
	return nil
}

func (p *fakeProjection) ApplyMembershipChange(_ context.Context, data contractsv1.MembershipChangedData) error {
	p.memberships = append(p.memberships, data)
	return nil
}

func outboxRow(t *testing.T, id string, eventType string, data any) ports.OutboxMessage {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	payload, err := json.Marshal(contractsv1.Envelope{EventID: id, EventType: eventType, Data: raw})
	require.NoError(t, err)
	return ports.OutboxMessage{OutboxID: id, EventType: eventType, Payload: payload}
}

func TestOutboxRelayPublishesAndMarks(t *testing.T) {
	outbox := &fakeOutbox{rows: []ports.OutboxMessage{
		outboxRow(t, "evt-1", contractsv1.EventTypeVoteChanged, contractsv1.VoteChangedData{ItemID: "post-1", NewScore: 25}),
		outboxRow(t, "evt-2", contractsv1.EventTypeMembershipChanged, contractsv1.MembershipChangedData{GroupID: "group-1", Joined: true}),
	}}
	bus := &fakeBus{}
	relay := OutboxRelay{Outbox: outbox, Publisher: bus, BatchSize: 10}

	published, err := relay.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, published)
	assert.Equal(t, []string{"evt-1", "evt-2"}, outbox.published)

	published, err = relay.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, published)
}

func TestOutboxRelayStopsOnPublishFailure(t *testing.T) {
	outbox := &fakeOutbox{rows: []ports.OutboxMessage{
		outboxRow(t, "evt-1", contractsv1.EventTypeVoteChanged, contractsv1.VoteChangedData{ItemID: "post-1"}),
		outboxRow(t, "evt-2", contractsv1.EventTypeVoteChanged, contractsv1.VoteChangedData{ItemID: "post-2"}),
		outboxRow(t, "evt-3", contractsv1.EventTypeVoteChanged, contractsv1.VoteChangedData{ItemID: "post-3"}),
	}}
	bus := &fakeBus{failOn: "evt-2"}
	relay := OutboxRelay{Outbox: outbox, Publisher: bus}

	published, err := relay.RunOnce(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, published)
	assert.Equal(t, []string{"evt-1"}, outbox.published)

	bus.failOn = ""
	published, err = relay.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, published)
}

func TestOutboxRelayReportsListFailure(t *testing.T) {
	relay := OutboxRelay{Outbox: &fakeOutbox{listErr: errors.New("db down")}, Publisher: &fakeBus{}}
	_, err := relay.RunOnce(context.Background())
	require.Error(t, err)
}

func TestChangeProjectorAppliesRelayedEvents(t *testing.T) {
	bus := &fakeBus{}
	projection := &fakeProjection{}
	projector := ChangeProjector{Subscriber: bus, Projection: projection}
	require.NoError(t, projector.Start(context.Background()))

	outbox := &fakeOutbox{rows: []ports.OutboxMessage{
		outboxRow(t, "evt-1", contractsv1.EventTypeVoteChanged, contractsv1.VoteChangedData{ItemID: "post-1", ActorID: "a", NewScore: 25}),
		outboxRow(t, "evt-2", contractsv1.EventTypeMembershipChanged, contractsv1.MembershipChangedData{GroupID: "group-1", ActorID: "a", Joined: true}),
	}}
	_, err := OutboxRelay{Outbox: outbox, Publisher: bus}.RunOnce(context.Background())
	require.NoError(t, err)

	require.Len(t, projection.votes, 1)
	assert.Equal(t, 25, projection.votes[0].NewScore)
	require.Len(t, projection.memberships, 1)
	assert.True(t, projection.memberships[0].Joined)
}

func TestChangeProjectorRejectsBadPayload(t *testing.T) {
	bus := &fakeBus{}
	projector := ChangeProjector{Subscriber: bus, Projection: &fakeProjection{}}
	require.NoError(t, projector.Start(context.Background()))

	err := bus.Publish(context.Background(), contractsv1.EventTypeVoteChanged, contractsv1.Envelope{
		EventID: "evt-bad",
		Data:    json.RawMessage(`"not an object"`),
	})
	require.Error(t, err)
}

func TestChangeProjectorSubscribeFailure(t *testing.T) {
	projector := ChangeProjector{Subscriber: &fakeBus{subscribe: errors.New("no broker")}, Projection: &fakeProjection{}}
	require.Error(t, projector.Start(context.Background()))
}
