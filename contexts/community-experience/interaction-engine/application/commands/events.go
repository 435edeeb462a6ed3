package commands

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	application "qconnect/contexts/community-experience/interaction-engine/application"
	"qconnect/contexts/community-experience/interaction-engine/domain/entities"
	"qconnect/contexts/community-experience/interaction-engine/ports"
	contractsv1 "qconnect/contracts/gen/events/v1"
)

// OutboxChangeSink turns change notifications into outbox envelopes. The
// worker relay publishes them later.
type OutboxChangeSink struct {
	Outbox ports.OutboxWriter
	IDGen  ports.IDGenerator
}

func (s OutboxChangeSink) Notify(ctx context.Context, change entities.ChangeNotification) error {
	eventID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	occurredAt := change.OccurredAt.UTC()
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	var (
		eventType string
		data      any
	)
	switch change.Kind {
	case entities.ChangeKindVoteChanged:
		eventType = contractsv1.EventTypeVoteChanged
		data = contractsv1.VoteChangedData{
			ItemID:     change.ItemID,
			ActorID:    change.ActorID,
			Direction:  change.Direction.String(),
			NewScore:   change.NewScore,
			Version:    change.Version,
			OccurredAt: occurredAt.Format(time.RFC3339),
		}
	case entities.ChangeKindMembershipChanged:
		eventType = contractsv1.EventTypeMembershipChanged
		data = contractsv1.MembershipChangedData{
			GroupID:    change.ItemID,
			ActorID:    change.ActorID,
			Joined:     change.Joined,
			OccurredAt: occurredAt.Format(time.RFC3339),
		}
	default:
		return nil
	}

	envelope, err := newInteractionEnvelope(eventID, eventType, change.ItemID, occurredAt, data)
	if err != nil {
		return err
	}
	return s.Outbox.AppendOutbox(ctx, envelope)
}

func newInteractionEnvelope(
	eventID string,
	eventType string,
	itemID string,
	occurredAt time.Time,
	data any,
) (ports.EventEnvelope, error) {
	// Partitioned by item so per-item consumers see score changes in order.
	payload, err := json.Marshal(data)
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return ports.EventEnvelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       occurredAt.UTC(),
		SourceService:    "interaction-engine",
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: "item_id",
		PartitionKey:     itemID,
		Data:             payload,
	}, nil
}

// notifyChange never fails the caller; delivery is the sink's concern.
func notifyChange(ctx context.Context, sink ports.ChangeSink, logger *slog.Logger, change entities.ChangeNotification) {
	if sink == nil {
		return
	}
	if err := sink.Notify(ctx, change); err != nil {
		logger.Warn("change notification dropped",
			"event", "interaction_change_notify_failed",
			"module", application.ModuleName,
			"layer", "application",
			"kind", string(change.Kind),
			"item_id", change.ItemID,
			"actor_id", change.ActorID,
			"error", err.Error(),
		)
	}
}
