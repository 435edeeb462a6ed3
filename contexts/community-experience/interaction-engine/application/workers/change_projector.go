package workers

import (
	"context"
	"log/slog"
	"strings"

	application "qconnect/contexts/community-experience/interaction-engine/application"
	"qconnect/contexts/community-experience/interaction-engine/ports"
	contractsv1 "qconnect/contracts/gen/events/v1"
)

const defaultProjectorCG = "interaction-engine-projector-cg"

// ChangeProjector hands relayed change events to the persistence
// collaborator. Projections store absolute values, so replays are harmless.
type ChangeProjector struct {
	Subscriber    ports.EventSubscriber
	Projection    ports.ChangeProjection
	ConsumerGroup string
	Logger        *slog.Logger
}

func (p ChangeProjector) Start(ctx context.Context) error {
	logger := application.ResolveLogger(p.Logger)
	group := strings.TrimSpace(p.ConsumerGroup)
	if group == "" {
		group = defaultProjectorCG
	}

	subscriptions := []struct {
		topic   string
		handler func(context.Context, ports.EventEnvelope) error
	}{
		{topic: contractsv1.EventTypeVoteChanged, handler: p.handleVoteChanged},
		{topic: contractsv1.EventTypeMembershipChanged, handler: p.handleMembershipChanged},
	}
	for _, sub := range subscriptions {
		if err := p.Subscriber.Subscribe(ctx, sub.topic, group, sub.handler); err != nil {
			logger.Error("change projector subscribe failed",
				"event", "interaction_projector_subscribe_failed",
				"module", application.ModuleName,
				"layer", "worker",
				"topic", sub.topic,
				"consumer_group", group,
				"error", err.Error(),
			)
			return err
		}
	}
	logger.Info("change projector subscriptions active",
		"event", "interaction_projector_started",
		"module", application.ModuleName,
		"layer", "worker",
		"consumer_group", group,
	)
	return nil
}

func (p ChangeProjector) handleVoteChanged(ctx context.Context, event ports.EventEnvelope) error {
	logger := application.ResolveLogger(p.Logger)
	var data contractsv1.VoteChangedData
	if err := event.Decode(&data); err != nil {
		logger.Error("vote_changed payload decode failed",
			"event", "interaction_projector_vote_decode_failed",
			"module", application.ModuleName,
			"layer", "worker",
			"event_id", event.EventID,
			"error", err.Error(),
		)
		return err
	}
	return p.Projection.ApplyVoteChange(ctx, data)
}

func (p ChangeProjector) handleMembershipChanged(ctx context.Context, event ports.EventEnvelope) error {
	logger := application.ResolveLogger(p.Logger)
	var data contractsv1.MembershipChangedData
	if err := event.Decode(&data); err != nil {
		logger.Error("membership_changed payload decode failed",
			"event", "interaction_projector_membership_decode_failed",
			"module", application.ModuleName,
			"layer", "worker",
			"event_id", event.EventID,
			"error", err.Error(),
		)
		return err
	}
	return p.Projection.ApplyMembershipChange(ctx, data)
}
