package ports

import (
	"context"
	"time"

	"qconnect/contexts/community-experience/interaction-engine/domain/entities"
	contractsv1 "qconnect/contracts/gen/events/v1"
)

// CollectionSource supplies the item collection, the closed category set and
// any pre-existing records when a collection is loaded.
type CollectionSource interface {
	LoadCatalog(ctx context.Context) (entities.Catalog, error)
}

// ChangeSink receives a notification after each successful mutation.
// Delivery is best effort; callers log failures and move on.
type ChangeSink interface {
	Notify(ctx context.Context, change entities.ChangeNotification) error
}

type ItemReader interface {
	GetItem(ctx context.Context, itemID string) (entities.Item, bool, error)
	// ListItems returns items in insertion order. An empty kind lists all.
	ListItems(ctx context.Context, kind entities.ItemKind) ([]entities.Item, error)
	Categories(ctx context.Context) ([]string, error)
}

// VoteTransition maps the stored direction to the next one and the score
// delta that goes with it.
type VoteTransition func(current entities.Direction) (entities.Direction, int)

type VoteOutcome struct {
	Record   entities.VoteRecord
	Previous entities.Direction
	Delta    int
	Score    int

	// Version is the item's ScoreVersion after this change.
	Version int64
}

type VoteRepository interface {
	// UpdateVote applies transition to the (actor, item) record and the item
	// score as one step, so concurrent actors never lose an increment.
	UpdateVote(ctx context.Context, actorID string, itemID string, transition VoteTransition, at time.Time) (VoteOutcome, error)
	GetVoteRecord(ctx context.Context, actorID string, itemID string) (entities.VoteRecord, bool, error)
	ListVotesByActor(ctx context.Context, actorID string) ([]entities.VoteRecord, error)
}

type MembershipRepository interface {
	UpdateMembership(ctx context.Context, actorID string, groupID string, toggle func(joined bool) bool, at time.Time) (entities.MembershipRecord, error)
	GetMembership(ctx context.Context, actorID string, groupID string) (entities.MembershipRecord, bool, error)
	ListMembershipsByActor(ctx context.Context, actorID string) ([]entities.MembershipRecord, error)
}

// ChangeProjection is the persistence collaborator fed from relayed events.
type ChangeProjection interface {
	ApplyVoteChange(ctx context.Context, data contractsv1.VoteChangedData) error
	ApplyMembershipChange(ctx context.Context, data contractsv1.MembershipChangedData) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// EventEnvelope reuses the canonical cross-runtime envelope contract.
type EventEnvelope = contractsv1.Envelope

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

type EventSubscriber interface {
	Subscribe(
		ctx context.Context,
		topic string,
		consumerGroup string,
		handler func(context.Context, EventEnvelope) error,
	) error
}
