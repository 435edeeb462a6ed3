package entities

import (
	"strings"
	"time"
)

type Direction string

const (
	DirectionNone Direction = ""
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// ParseDirection accepts the request spellings used by clients. Only up and
// down are requestable; none is a stored state, never a request.
func ParseDirection(raw string) (Direction, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "up", "upvote", "+1":
		return DirectionUp, true
	case "down", "downvote", "-1":
		return DirectionDown, true
	default:
		return DirectionNone, false
	}
}

func (d Direction) Requestable() bool {
	return d == DirectionUp || d == DirectionDown
}

// Effect is the direction's contribution to an item score.
func (d Direction) Effect() int {
	switch d {
	case DirectionUp:
		return 1
	case DirectionDown:
		return -1
	default:
		return 0
	}
}

func (d Direction) String() string {
	if d == DirectionNone {
		return "none"
	}
	return string(d)
}

// ApplyVote is the vote reducer. Requesting the stored direction again undoes
// it; requesting the opposite direction flips it. The returned delta is the
// score change, always next.Effect() - current.Effect().
func ApplyVote(current Direction, requested Direction) (Direction, int) {
	next := requested
	if current == requested {
		next = DirectionNone
	}
	return next, next.Effect() - current.Effect()
}

type VoteRecord struct {
	ActorID   string
	ItemID    string
	Direction Direction
	UpdatedAt time.Time
}
