package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "qconnect/contexts/community-experience/interaction-engine/application"
	"qconnect/contexts/community-experience/interaction-engine/domain/entities"
	domainerrors "qconnect/contexts/community-experience/interaction-engine/domain/errors"
	"qconnect/contexts/community-experience/interaction-engine/ports"
)

// VoteCommand requests an up or down vote on a post.
type VoteCommand struct {
	ActorID   string
	ItemID    string
	Direction entities.Direction
}

// VoteResult carries the new absolute score so callers never recompute it.
type VoteResult struct {
	ItemID    string
	Direction entities.Direction
	Previous  entities.Direction
	Delta     int
	Score     int
}

// VoteLedger owns per-actor vote records and is the only writer of post
// scores.
type VoteLedger struct {
	Items  ports.ItemReader
	Votes  ports.VoteRepository
	Sink   ports.ChangeSink
	Clock  ports.Clock
	Logger *slog.Logger
}

// Vote applies the toggle reducer to the actor's stored direction. Unknown
// ids and groups are rejected with ErrInvalidItem before anything changes.
func (uc VoteLedger) Vote(ctx context.Context, cmd VoteCommand) (VoteResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	actorID := strings.TrimSpace(cmd.ActorID)
	itemID := strings.TrimSpace(cmd.ItemID)

	if actorID == "" {
		return VoteResult{}, domainerrors.ErrInvalidActor
	}
	if !cmd.Direction.Requestable() {
		logger.Warn("vote validation failed",
			"event", "interaction_vote_validation_failed",
			"module", application.ModuleName,
			"layer", "application",
			"actor_id", actorID,
			"item_id", itemID,
			"direction", string(cmd.Direction),
		)
		return VoteResult{}, domainerrors.ErrInvalidDirection
	}

	item, found, err := uc.Items.GetItem(ctx, itemID)
	if err != nil {
		return VoteResult{}, err
	}
	if !found || !item.IsPost() {
		logger.Warn("vote rejected for unknown item",
			"event", "interaction_vote_invalid_item",
			"module", application.ModuleName,
			"layer", "application",
			"actor_id", actorID,
			"item_id", itemID,
		)
		return VoteResult{}, domainerrors.ErrInvalidItem
	}

	now := uc.now()
	outcome, err := uc.Votes.UpdateVote(ctx, actorID, itemID, func(current entities.Direction) (entities.Direction, int) {
		return entities.ApplyVote(current, cmd.Direction)
	}, now)
	if err != nil {
		logger.Error("vote update failed",
			"event", "interaction_vote_update_failed",
			"module", application.ModuleName,
			"layer", "application",
			"actor_id", actorID,
			"item_id", itemID,
			"error", err.Error(),
		)
		return VoteResult{}, err
	}

	logger.Info("vote applied",
		"event", "interaction_vote_applied",
		"module", application.ModuleName,
		"layer", "application",
		"actor_id", actorID,
		"item_id", itemID,
		"previous", outcome.Previous.String(),
		"direction", outcome.Record.Direction.String(),
		"delta", outcome.Delta,
		"score", outcome.Score,
	)

	notifyChange(ctx, uc.Sink, logger, entities.ChangeNotification{
		Kind:       entities.ChangeKindVoteChanged,
		ItemID:     itemID,
		ActorID:    actorID,
		NewScore:   outcome.Score,
		Version:    outcome.Version,
		Direction:  outcome.Record.Direction,
		OccurredAt: now,
	})

	return VoteResult{
		ItemID:    itemID,
		Direction: outcome.Record.Direction,
		Previous:  outcome.Previous,
		Delta:     outcome.Delta,
		Score:     outcome.Score,
	}, nil
}

func (uc VoteLedger) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
