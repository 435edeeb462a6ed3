package v1

const (
	EventTypeVoteChanged       = "interaction.vote_changed"
	EventTypeMembershipChanged = "interaction.membership_changed"
)

// VoteChangedData is the payload of interaction.vote_changed.
type VoteChangedData struct {
	ItemID     string `json:"item_id"`
	ActorID    string `json:"actor_id"`
	Direction  string `json:"direction"`
	NewScore   int    `json:"new_score"`
	Version    int64  `json:"version"`
	OccurredAt string `json:"occurred_at"`
}

// MembershipChangedData is the payload of interaction.membership_changed.
type MembershipChangedData struct {
	GroupID    string `json:"group_id"`
	ActorID    string `json:"actor_id"`
	Joined     bool   `json:"joined"`
	OccurredAt string `json:"occurred_at"`
}
