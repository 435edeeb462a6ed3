package entities

import "time"

type ChangeKind string

const (
	ChangeKindVoteChanged       ChangeKind = "vote_changed"
	ChangeKindMembershipChanged ChangeKind = "membership_changed"
)

// ChangeNotification is emitted after a successful mutation. For votes
// NewScore, Direction and Version are set; for memberships Joined is set.
type ChangeNotification struct {
	Kind       ChangeKind
	ItemID     string
	ActorID    string
	NewScore   int
	Version    int64
	Direction  Direction
	Joined     bool
	OccurredAt time.Time
}
