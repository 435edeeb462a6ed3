package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"qconnect/contexts/community-experience/interaction-engine/adapters/fixtures"
	"qconnect/contexts/community-experience/interaction-engine/domain/entities"
	domainerrors "qconnect/contexts/community-experience/interaction-engine/domain/errors"
	contractsv1 "qconnect/contracts/gen/events/v1"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadFixtures(t *testing.T) *Store {
	t.Helper()
	store, err := NewStoreFromSource(context.Background(), fixtures.Source{})
	require.NoError(t, err)
	return store
}

func flip(requested entities.Direction) func(entities.Direction) (entities.Direction, int) {
	return func(current entities.Direction) (entities.Direction, int) {
		return entities.ApplyVote(current, requested)
	}
}

func assertScoreInvariant(t *testing.T, store *Store, itemID string) {
	t.Helper()
	ctx := context.Background()
	item, found, err := store.GetItem(ctx, itemID)
	require.NoError(t, err)
	require.True(t, found)
	base, ok := store.BaseScore(itemID)
	require.True(t, ok)
	votes, err := store.ListVotesByItem(ctx, itemID)
	require.NoError(t, err)

	sum := 0
	for _, vote := range votes {
		sum += vote.Direction.Effect()
	}
	assert.Equal(t, base+sum, item.Score)
}

func TestLoadDerivesBaseScoreFromSeededVotes(t *testing.T) {
	store := loadFixtures(t)

	base, ok := store.BaseScore("post-1")
	require.True(t, ok)
	assert.Equal(t, 23, base)

	base, ok = store.BaseScore("post-3")
	require.True(t, ok)
	assert.Equal(t, 33, base)

	for _, id := range []string{"post-1", "post-2", "post-3", "post-4"} {
		assertScoreInvariant(t, store, id)
	}

	items, err := store.ListItems(context.Background(), entities.ItemKindGroup)
	require.NoError(t, err)
	require.Len(t, items, 6)
	for _, item := range items {
		assert.Zero(t, item.Score)
	}
}

func TestListItemsKeepsInsertionOrderAndClones(t *testing.T) {
	store := loadFixtures(t)
	ctx := context.Background()

	items, err := store.ListItems(ctx, "")
	require.NoError(t, err)
	require.Len(t, items, 10)
	assert.Equal(t, "post-1", items[0].ItemID)
	assert.Equal(t, int64(1), items[0].Sequence)
	assert.Equal(t, "group-6", items[9].ItemID)

	items[0].Score = 1000
	items[0].Post.Tags[0] = "changed"
	again, _, err := store.GetItem(ctx, "post-1")
	require.NoError(t, err)
	assert.Equal(t, 24, again.Score)
	assert.Equal(t, "javascript", again.Post.Tags[0])
}

func TestUpdateVoteMaintainsScoreInvariant(t *testing.T) {
	store := loadFixtures(t)
	ctx := context.Background()
	at := time.Now().UTC()

	outcome, err := store.UpdateVote(ctx, fixtures.DefaultSeedActorID, "post-1", flip(entities.DirectionUp), at)
	require.NoError(t, err)
	assert.Equal(t, entities.DirectionUp, outcome.Previous)
	assert.Equal(t, 23, outcome.Score)

	_, found, err := store.GetVoteRecord(ctx, fixtures.DefaultSeedActorID, "post-1")
	require.NoError(t, err)
	assert.False(t, found)

	_, err = store.UpdateVote(ctx, "other", "post-1", flip(entities.DirectionDown), at)
	require.NoError(t, err)
	assertScoreInvariant(t, store, "post-1")

	_, err = store.UpdateVote(ctx, "other", "group-1", flip(entities.DirectionUp), at)
	assert.ErrorIs(t, err, domainerrors.ErrInvalidItem)
}

func TestUpdateVoteConcurrentActors(t *testing.T) {
	store := loadFixtures(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			direction := entities.DirectionUp
			if i%4 == 0 {
				direction = entities.DirectionDown
			}
			actor := "actor-" + time.Duration(i).String()
			_, err := store.UpdateVote(ctx, actor, "post-2", flip(direction), time.Now())
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	item, _, err := store.GetItem(ctx, "post-2")
	require.NoError(t, err)
	assert.Equal(t, 15+30-10, item.Score)
	assertScoreInvariant(t, store, "post-2")
}

func TestMembershipsAndListings(t *testing.T) {
	store := loadFixtures(t)
	ctx := context.Background()

	memberships, err := store.ListMembershipsByActor(ctx, fixtures.DefaultSeedActorID)
	require.NoError(t, err)
	require.Len(t, memberships, 2)
	assert.Equal(t, "group-1", memberships[0].GroupID)
	assert.Equal(t, "group-3", memberships[1].GroupID)

	record, err := store.UpdateMembership(ctx, fixtures.DefaultSeedActorID, "group-1", func(joined bool) bool { return !joined }, time.Now())
	require.NoError(t, err)
	assert.False(t, record.Joined)

	_, err = store.UpdateMembership(ctx, "a", "post-1", func(joined bool) bool { return !joined }, time.Now())
	assert.ErrorIs(t, err, domainerrors.ErrInvalidGroup)

	votes, err := store.ListVotesByActor(ctx, fixtures.DefaultSeedActorID)
	require.NoError(t, err)
	require.Len(t, votes, 2)
	assert.Equal(t, "post-1", votes[0].ItemID)
	assert.Equal(t, entities.DirectionDown, votes[1].Direction)
}

func TestOutboxLifecycle(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	second := contractsv1.Envelope{EventID: "evt-2", EventType: contractsv1.EventTypeVoteChanged, OccurredAt: base.Add(time.Second), PartitionKey: "post-1"}
	first := contractsv1.Envelope{EventID: "evt-1", EventType: contractsv1.EventTypeMembershipChanged, OccurredAt: base, PartitionKey: "group-1"}
	require.NoError(t, store.AppendOutbox(ctx, second))
	require.NoError(t, store.AppendOutbox(ctx, first))
	require.NoError(t, store.AppendOutbox(ctx, first))

	conflicting := first
	conflicting.PartitionKey = "group-2"
	assert.ErrorIs(t, store.AppendOutbox(ctx, conflicting), domainerrors.ErrConflict)

	pending, err := store.ListPendingOutbox(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "evt-1", pending[0].OutboxID)
	assert.Equal(t, "evt-2", pending[1].OutboxID)

	require.NoError(t, store.MarkOutboxPublished(ctx, "evt-1", base))
	pending, err = store.ListPendingOutbox(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "evt-2", pending[0].OutboxID)

	assert.ErrorIs(t, store.MarkOutboxPublished(ctx, "missing", base), domainerrors.ErrConflict)
}

func TestProjectionKeepsLatestAbsoluteValues(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	require.NoError(t, store.ApplyVoteChange(ctx, contractsv1.VoteChangedData{ItemID: "post-1", NewScore: 25, Version: 1}))
	require.NoError(t, store.ApplyVoteChange(ctx, contractsv1.VoteChangedData{ItemID: "post-1", NewScore: 24, Version: 2}))
	require.NoError(t, store.ApplyMembershipChange(ctx, contractsv1.MembershipChangedData{ActorID: "a", GroupID: "group-1", Joined: true}))

	score, ok := store.ProjectedScore("post-1")
	require.True(t, ok)
	assert.Equal(t, 24, score)

	joined, ok := store.ProjectedMembership("a", "group-1")
	require.True(t, ok)
	assert.True(t, joined)

	_, ok = store.ProjectedMembership("b", "group-1")
	assert.False(t, ok)
}

func TestProjectionIgnoresStaleVersions(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	require.NoError(t, store.ApplyVoteChange(ctx, contractsv1.VoteChangedData{ItemID: "post-1", NewScore: 12, Version: 20}))
	require.NoError(t, store.ApplyVoteChange(ctx, contractsv1.VoteChangedData{ItemID: "post-1", NewScore: 11, Version: 10}))
	require.NoError(t, store.ApplyVoteChange(ctx, contractsv1.VoteChangedData{ItemID: "post-1", NewScore: 99, Version: 20}))

	score, ok := store.ProjectedScore("post-1")
	require.True(t, ok)
	assert.Equal(t, 12, score)
}

func TestUpdateVoteVersionsIncrease(t *testing.T) {
	store := loadFixtures(t)
	ctx := context.Background()

	first, err := store.UpdateVote(ctx, "a", "post-2", flip(entities.DirectionUp), time.Now())
	require.NoError(t, err)
	second, err := store.UpdateVote(ctx, "b", "post-2", flip(entities.DirectionUp), time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Greater(t, second.Version, first.Version)

	item, _, err := store.GetItem(ctx, "post-2")
	require.NoError(t, err)
	assert.Equal(t, second.Version, item.ScoreVersion)
}

func TestNextScoreVersionNeverGoesBackwards(t *testing.T) {
	now := time.Unix(0, 1_000)
	assert.Equal(t, int64(1_000), nextScoreVersion(0, now))
	assert.Equal(t, int64(5_001), nextScoreVersion(5_000, now))
	assert.Equal(t, int64(1_001), nextScoreVersion(1_000, now))
}
