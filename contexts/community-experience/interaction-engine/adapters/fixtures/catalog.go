package fixtures

import (
	"context"
	"strings"
	"time"

	"qconnect/contexts/community-experience/interaction-engine/domain/entities"
	"qconnect/contexts/community-experience/interaction-engine/ports"
)

// DefaultSeedActorID owns the seeded votes and memberships.
const DefaultSeedActorID = "demo-student"

var categories = []string{
	"Computer Science",
	"Mathematics",
	"Physics",
	"Biology",
	"Chemistry",
	"Engineering",
	"Literature",
	"History",
	"Economics",
	"Academic Skills",
	"Psychology",
}

// Source is the built-in demo collection: four forum posts and six study
// groups. Post timestamps are relative to the clock at load time.
type Source struct {
	Clock       ports.Clock
	SeedActorID string
}

func (s Source) LoadCatalog(_ context.Context) (entities.Catalog, error) {
	now := time.Now().UTC()
	if s.Clock != nil {
		now = s.Clock.Now().UTC()
	}
	actorID := strings.TrimSpace(s.SeedActorID)
	if actorID == "" {
		actorID = DefaultSeedActorID
	}

	items := append(posts(now), groups(now)...)
	return entities.Catalog{
		Items:      items,
		Categories: append([]string(nil), categories...),
		Votes: []entities.VoteRecord{
			{ActorID: actorID, ItemID: "post-1", Direction: entities.DirectionUp, UpdatedAt: now},
			{ActorID: actorID, ItemID: "post-3", Direction: entities.DirectionDown, UpdatedAt: now},
		},
		Memberships: []entities.MembershipRecord{
			{ActorID: actorID, GroupID: "group-1", Joined: true, UpdatedAt: now},
			{ActorID: actorID, GroupID: "group-3", Joined: true, UpdatedAt: now},
		},
	}, nil
}

func posts(now time.Time) []entities.Item {
	return []entities.Item{
		{
			ItemID:          "post-1",
			Kind:            entities.ItemKindPost,
			Category:        "Computer Science",
			Title:           "Understanding recursive functions in JavaScript",
			Body:            "I've been trying to understand recursive functions in JavaScript but I'm having trouble with the concept. Can someone explain how the call stack works with recursion, preferably with a simple example?",
			Score:           24,
			SecondaryMetric: 8,
			CreatedAt:       now.Add(-2 * time.Hour),
			Post: &entities.PostDetails{
				AuthorName: "Alice Johnson",
				Tags:       []string{"javascript", "programming", "recursion"},
				Views:      156,
			},
		},
		{
			ItemID:          "post-2",
			Kind:            entities.ItemKindPost,
			Category:        "Mathematics",
			Title:           "Help with calculus limit problem",
			Body:            "I'm trying to solve this limit: lim(x→∞) (1 + 2/x)^x. I know the answer should be e², but I'm not sure how to get there step by step. Any help would be appreciated!",
			Score:           15,
			SecondaryMetric: 5,
			CreatedAt:       now.Add(-5 * time.Hour),
			Post: &entities.PostDetails{
				AuthorName: "Michael Chen",
				Tags:       []string{"calculus", "limits", "mathematics"},
				Views:      89,
			},
		},
		{
			ItemID:          "post-3",
			Kind:            entities.ItemKindPost,
			Category:        "Physics",
			Title:           "Book recommendations for quantum physics",
			Body:            "I'm an undergraduate physics student interested in quantum mechanics. Can anyone recommend some beginner-friendly books that explain the concepts clearly without oversimplifying?",
			Score:           32,
			SecondaryMetric: 12,
			CreatedAt:       now.Add(-24 * time.Hour),
			Post: &entities.PostDetails{
				AuthorName: "Sarah Williams",
				Tags:       []string{"physics", "quantum-mechanics", "books"},
				Views:      210,
			},
		},
		{
			ItemID:          "post-4",
			Kind:            entities.ItemKindPost,
			Category:        "Academic Skills",
			Title:           "Tips for writing an effective research paper",
			Body:            "I'm working on my first major research paper and feeling overwhelmed. Does anyone have tips for organizing research, structuring the paper, and maintaining focus throughout the writing process?",
			Score:           41,
			SecondaryMetric: 15,
			CreatedAt:       now.Add(-48 * time.Hour),
			Post: &entities.PostDetails{
				AuthorName: "David Park",
				Tags:       []string{"research", "writing", "academic"},
				Views:      287,
			},
		},
	}
}

func groups(now time.Time) []entities.Item {
	group := func(id, category, name, description string, members, topics int, rating float64) entities.Item {
		return entities.Item{
			ItemID:          id,
			Kind:            entities.ItemKindGroup,
			Category:        category,
			Title:           name,
			Body:            description,
			SecondaryMetric: members,
			CreatedAt:       now,
			Group:           &entities.GroupDetails{Rating: rating, Topics: topics},
		}
	}
	return []entities.Item{
		group("group-1", "Computer Science", "Algorithms & Data Structures",
			"A collaborative group for learning and discussing algorithms and data structures concepts.", 256, 45, 4.8),
		group("group-2", "Mathematics", "Calculus Help Center",
			"Get help with calculus problems, derivatives, integrals, and more.", 189, 32, 4.6),
		group("group-3", "Physics", "Physics Enthusiasts",
			"Explore physics concepts from mechanics to quantum physics with fellow enthusiasts.", 143, 28, 4.7),
		group("group-4", "Computer Science", "Web Development Club",
			"Learn and collaborate on web development projects, from frontend to backend.", 312, 56, 4.9),
		group("group-5", "Chemistry", "Organic Chemistry Study Group",
			"Master organic chemistry concepts through collaborative discussions and problem-solving.", 128, 24, 4.5),
		group("group-6", "Literature", "Literary Analysis Circle",
			"Discuss and analyze classic and contemporary literature from around the world.", 97, 35, 4.4),
	}
}

var _ ports.CollectionSource = Source{}
