package entities

import "time"

type MembershipRecord struct {
	ActorID   string
	GroupID   string
	Joined    bool
	UpdatedAt time.Time
}
