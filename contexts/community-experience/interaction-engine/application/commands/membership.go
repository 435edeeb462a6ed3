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

type ToggleMembershipCommand struct {
	ActorID string
	GroupID string
}

type ToggleMembershipResult struct {
	GroupID string
	Joined  bool
}

// MembershipRegistry flips join state. There is no approval step and no
// capacity check; member counts on the group are left untouched.
type MembershipRegistry struct {
	Items       ports.ItemReader
	Memberships ports.MembershipRepository
	Sink        ports.ChangeSink
	Clock       ports.Clock
	Logger      *slog.Logger
}

func (uc MembershipRegistry) ToggleMembership(ctx context.Context, cmd ToggleMembershipCommand) (ToggleMembershipResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	actorID := strings.TrimSpace(cmd.ActorID)
	groupID := strings.TrimSpace(cmd.GroupID)

	if actorID == "" {
		return ToggleMembershipResult{}, domainerrors.ErrInvalidActor
	}
	item, found, err := uc.Items.GetItem(ctx, groupID)
	if err != nil {
		return ToggleMembershipResult{}, err
	}
	if !found || !item.IsGroup() {
		logger.Warn("membership toggle rejected for unknown group",
			"event", "interaction_membership_invalid_group",
			"module", application.ModuleName,
			"layer", "application",
			"actor_id", actorID,
			"group_id", groupID,
		)
		return ToggleMembershipResult{}, domainerrors.ErrInvalidGroup
	}

	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	record, err := uc.Memberships.UpdateMembership(ctx, actorID, groupID, func(joined bool) bool {
		return !joined
	}, now)
	if err != nil {
		logger.Error("membership toggle failed",
			"event", "interaction_membership_toggle_failed",
			"module", application.ModuleName,
			"layer", "application",
			"actor_id", actorID,
			"group_id", groupID,
			"error", err.Error(),
		)
		return ToggleMembershipResult{}, err
	}

	logger.Info("membership toggled",
		"event", "interaction_membership_toggled",
		"module", application.ModuleName,
		"layer", "application",
		"actor_id", actorID,
		"group_id", groupID,
		"joined", record.Joined,
	)

	notifyChange(ctx, uc.Sink, logger, entities.ChangeNotification{
		Kind:       entities.ChangeKindMembershipChanged,
		ItemID:     groupID,
		ActorID:    actorID,
		Joined:     record.Joined,
		OccurredAt: now,
	})

	return ToggleMembershipResult{GroupID: groupID, Joined: record.Joined}, nil
}
