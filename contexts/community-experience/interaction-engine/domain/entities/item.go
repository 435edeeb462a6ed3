package entities

import (
	"strings"
	"time"
)

type ItemKind string

const (
	ItemKindPost  ItemKind = "post"
	ItemKindGroup ItemKind = "group"
)

// Item is the rankable, filterable unit shared by forum posts and study
// groups. Kind selects which detail block is populated.
type Item struct {
	ItemID          string
	Kind            ItemKind
	Category        string
	Title           string
	Body            string
	Score           int
	SecondaryMetric int
	CreatedAt       time.Time
	Sequence        int64

	// ScoreVersion increases with every committed score change. Projections
	// use it to discard changes that arrive out of order.
	ScoreVersion int64

	Post  *PostDetails
	Group *GroupDetails
}

type PostDetails struct {
	AuthorName string
	Tags       []string
	Views      int
}

type GroupDetails struct {
	Rating float64
	Topics int
}

func (i Item) IsPost() bool {
	return i.Kind == ItemKindPost
}

func (i Item) IsGroup() bool {
	return i.Kind == ItemKindGroup
}

// Replies is the post-side reading of SecondaryMetric.
func (i Item) Replies() int {
	if !i.IsPost() {
		return 0
	}
	return i.SecondaryMetric
}

// Members is the group-side reading of SecondaryMetric.
func (i Item) Members() int {
	if !i.IsGroup() {
		return 0
	}
	return i.SecondaryMetric
}

// SearchableText joins title/name and body/description. Tags are display
// data only.
func (i Item) SearchableText() string {
	return strings.Join([]string{i.Title, i.Body}, " ")
}

// Clone returns a copy whose detail blocks do not alias the receiver's.
func (i Item) Clone() Item {
	out := i
	if i.Post != nil {
		post := *i.Post
		post.Tags = append([]string(nil), i.Post.Tags...)
		out.Post = &post
	}
	if i.Group != nil {
		group := *i.Group
		out.Group = &group
	}
	return out
}

// Catalog is what a collection source hands over at session start.
type Catalog struct {
	Items       []Item
	Categories  []string
	Votes       []VoteRecord
	Memberships []MembershipRecord
}
