package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"qconnect/contexts/community-experience/interaction-engine/domain/entities"
	domainerrors "qconnect/contexts/community-experience/interaction-engine/domain/errors"
	"qconnect/contexts/community-experience/interaction-engine/ports"
	contractsv1 "qconnect/contracts/gen/events/v1"

	"github.com/google/uuid"
)

type recordKey struct {
	actorID string
	itemID  string
}

type projectedScore struct {
	score   int
	version int64
}

type outboxRecord struct {
	message   ports.OutboxMessage
	published bool
}

// Store is the shared in-process collection. Item scores and vote records
// change together under one lock.
type Store struct {
	mu sync.RWMutex

	items      map[string]entities.Item
	order      []string
	categories []string
	baseScores map[string]int

	votes       map[recordKey]entities.VoteRecord
	memberships map[recordKey]entities.MembershipRecord
	outbox      map[string]outboxRecord

	projectedScores      map[string]projectedScore
	projectedMemberships map[recordKey]bool
}

func NewStore() *Store {
	return &Store{
		items:                make(map[string]entities.Item),
		baseScores:           make(map[string]int),
		votes:                make(map[recordKey]entities.VoteRecord),
		memberships:          make(map[recordKey]entities.MembershipRecord),
		outbox:               make(map[string]outboxRecord),
		projectedScores:      make(map[string]projectedScore),
		projectedMemberships: make(map[recordKey]bool),
	}
}

// NewStoreFromSource loads the source's catalog into a fresh store.
func NewStoreFromSource(ctx context.Context, source ports.CollectionSource) (*Store, error) {
	catalog, err := source.LoadCatalog(ctx)
	if err != nil {
		return nil, err
	}
	store := NewStore()
	if err := store.Load(ctx, catalog); err != nil {
		return nil, err
	}
	return store, nil
}

// Load replaces the collection. Loaded scores already include the seeded
// votes, so each item's base score is its loaded score minus their effects.
func (s *Store) Load(_ context.Context, catalog entities.Catalog) error {
	if err := catalog.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = make(map[string]entities.Item, len(catalog.Items))
	s.order = make([]string, 0, len(catalog.Items))
	s.baseScores = make(map[string]int, len(catalog.Items))
	s.votes = make(map[recordKey]entities.VoteRecord, len(catalog.Votes))
	s.memberships = make(map[recordKey]entities.MembershipRecord, len(catalog.Memberships))
	s.categories = make([]string, 0, len(catalog.Categories))

	seen := make(map[string]struct{}, len(catalog.Categories))
	for _, category := range catalog.Categories {
		category = strings.TrimSpace(category)
		if _, dup := seen[category]; dup {
			continue
		}
		seen[category] = struct{}{}
		s.categories = append(s.categories, category)
	}

	for i, item := range catalog.Items {
		item = item.Clone()
		item.ItemID = strings.TrimSpace(item.ItemID)
		item.Sequence = int64(i + 1)
		if item.IsGroup() {
			item.Score = 0
		}
		s.items[item.ItemID] = item
		s.order = append(s.order, item.ItemID)
	}

	for _, vote := range catalog.Votes {
		if !vote.Direction.Requestable() {
			continue
		}
		key := recordKey{actorID: strings.TrimSpace(vote.ActorID), itemID: strings.TrimSpace(vote.ItemID)}
		vote.ActorID, vote.ItemID = key.actorID, key.itemID
		s.votes[key] = vote
	}
	for _, membership := range catalog.Memberships {
		key := recordKey{actorID: strings.TrimSpace(membership.ActorID), itemID: strings.TrimSpace(membership.GroupID)}
		membership.ActorID, membership.GroupID = key.actorID, key.itemID
		s.memberships[key] = membership
	}

	seeded := make(map[string]int, len(s.votes))
	for key, vote := range s.votes {
		seeded[key.itemID] += vote.Direction.Effect()
	}
	for id, item := range s.items {
		s.baseScores[id] = item.Score - seeded[id]
	}
	return nil
}

func (s *Store) GetItem(_ context.Context, itemID string) (entities.Item, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[strings.TrimSpace(itemID)]
	if !ok {
		return entities.Item{}, false, nil
	}
	return item.Clone(), true, nil
}

func (s *Store) ListItems(_ context.Context, kind entities.ItemKind) ([]entities.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Item, 0, len(s.order))
	for _, id := range s.order {
		item := s.items[id]
		if kind != "" && item.Kind != kind {
			continue
		}
		items = append(items, item.Clone())
	}
	return items, nil
}

func (s *Store) Categories(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.categories...), nil
}

// BaseScore is the item score with every actor's vote removed.
func (s *Store) BaseScore(itemID string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	score, ok := s.baseScores[strings.TrimSpace(itemID)]
	return score, ok
}

func (s *Store) UpdateVote(
	_ context.Context,
	actorID string,
	itemID string,
	transition ports.VoteTransition,
	at time.Time,
) (ports.VoteOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := recordKey{actorID: strings.TrimSpace(actorID), itemID: strings.TrimSpace(itemID)}
	item, ok := s.items[key.itemID]
	if !ok || !item.IsPost() {
		return ports.VoteOutcome{}, domainerrors.ErrInvalidItem
	}

	previous := s.votes[key].Direction
	next, delta := transition(previous)
	item.Score += delta
	item.ScoreVersion = nextScoreVersion(item.ScoreVersion, time.Now())
	s.items[key.itemID] = item

	record := entities.VoteRecord{
		ActorID:   key.actorID,
		ItemID:    key.itemID,
		Direction: next,
		UpdatedAt: at.UTC(),
	}
	if next == entities.DirectionNone {
		delete(s.votes, key)
	} else {
		s.votes[key] = record
	}

	return ports.VoteOutcome{
		Record:   record,
		Previous: previous,
		Delta:    delta,
		Score:    item.Score,
		Version:  item.ScoreVersion,
	}, nil
}

// nextScoreVersion follows the commit clock but never repeats or goes
// backwards for one item, so versions survive a restart from a loaded
// catalog.
func nextScoreVersion(current int64, now time.Time) int64 {
	next := now.UnixNano()
	if next <= current {
		next = current + 1
	}
	return next
}

func (s *Store) GetVoteRecord(_ context.Context, actorID string, itemID string) (entities.VoteRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.votes[recordKey{actorID: strings.TrimSpace(actorID), itemID: strings.TrimSpace(itemID)}]
	return record, ok, nil
}

func (s *Store) ListVotesByActor(_ context.Context, actorID string) ([]entities.VoteRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	actorID = strings.TrimSpace(actorID)
	items := make([]entities.VoteRecord, 0)
	for key, record := range s.votes {
		if key.actorID == actorID {
			items = append(items, record)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].ItemID < items[j].ItemID
	})
	return items, nil
}

func (s *Store) ListVotesByItem(_ context.Context, itemID string) ([]entities.VoteRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	itemID = strings.TrimSpace(itemID)
	items := make([]entities.VoteRecord, 0)
	for key, record := range s.votes {
		if key.itemID == itemID {
			items = append(items, record)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].ActorID < items[j].ActorID
	})
	return items, nil
}

func (s *Store) UpdateMembership(
	_ context.Context,
	actorID string,
	groupID string,
	toggle func(joined bool) bool,
	at time.Time,
) (entities.MembershipRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := recordKey{actorID: strings.TrimSpace(actorID), itemID: strings.TrimSpace(groupID)}
	item, ok := s.items[key.itemID]
	if !ok || !item.IsGroup() {
		return entities.MembershipRecord{}, domainerrors.ErrInvalidGroup
	}
	record := entities.MembershipRecord{
		ActorID:   key.actorID,
		GroupID:   key.itemID,
		Joined:    toggle(s.memberships[key].Joined),
		UpdatedAt: at.UTC(),
	}
	s.memberships[key] = record
	return record, nil
}

func (s *Store) GetMembership(_ context.Context, actorID string, groupID string) (entities.MembershipRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.memberships[recordKey{actorID: strings.TrimSpace(actorID), itemID: strings.TrimSpace(groupID)}]
	return record, ok, nil
}

func (s *Store) ListMembershipsByActor(_ context.Context, actorID string) ([]entities.MembershipRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	actorID = strings.TrimSpace(actorID)
	items := make([]entities.MembershipRecord, 0)
	for key, record := range s.memberships {
		if key.actorID == actorID {
			items = append(items, record)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].GroupID < items[j].GroupID
	})
	return items, nil
}

func (s *Store) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	outboxID := strings.TrimSpace(envelope.EventID)
	if outboxID == "" {
		outboxID = uuid.NewString()
	}
	if existing, ok := s.outbox[outboxID]; ok {
		if !bytes.Equal(existing.message.Payload, payload) {
			return domainerrors.ErrConflict
		}
		return nil
	}
	createdAt := envelope.OccurredAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	s.outbox[outboxID] = outboxRecord{
		message: ports.OutboxMessage{
			OutboxID:     outboxID,
			EventType:    strings.TrimSpace(envelope.EventType),
			PartitionKey: strings.TrimSpace(envelope.PartitionKey),
			Payload:      payload,
			CreatedAt:    createdAt,
		},
	}
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	items := make([]ports.OutboxMessage, 0, len(s.outbox))
	for _, row := range s.outbox {
		if row.published {
			continue
		}
		items = append(items, row.message)
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].OutboxID < items[j].OutboxID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.outbox[strings.TrimSpace(outboxID)]
	if !ok {
		return domainerrors.ErrConflict
	}
	row.published = true
	s.outbox[strings.TrimSpace(outboxID)] = row
	return nil
}

// ApplyVoteChange records the relayed absolute score unless a newer version
// is already projected. The in-memory projection stands in for the database
// one in tests and fixture mode.
func (s *Store) ApplyVoteChange(_ context.Context, data contractsv1.VoteChangedData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	itemID := strings.TrimSpace(data.ItemID)
	if current, ok := s.projectedScores[itemID]; ok && data.Version <= current.version {
		return nil
	}
	s.projectedScores[itemID] = projectedScore{score: data.NewScore, version: data.Version}
	return nil
}

func (s *Store) ApplyMembershipChange(_ context.Context, data contractsv1.MembershipChangedData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projectedMemberships[recordKey{actorID: strings.TrimSpace(data.ActorID), itemID: strings.TrimSpace(data.GroupID)}] = data.Joined
	return nil
}

func (s *Store) ProjectedScore(itemID string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	projected, ok := s.projectedScores[strings.TrimSpace(itemID)]
	return projected.score, ok
}

func (s *Store) ProjectedMembership(actorID string, groupID string) (bool, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	joined, ok := s.projectedMemberships[recordKey{actorID: strings.TrimSpace(actorID), itemID: strings.TrimSpace(groupID)}]
	return joined, ok
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

var (
	_ ports.ItemReader           = (*Store)(nil)
	_ ports.VoteRepository       = (*Store)(nil)
	_ ports.MembershipRepository = (*Store)(nil)
	_ ports.OutboxWriter         = (*Store)(nil)
	_ ports.OutboxRepository     = (*Store)(nil)
	_ ports.ChangeProjection     = (*Store)(nil)
	_ ports.Clock                = (*Store)(nil)
	_ ports.IDGenerator          = (*Store)(nil)
)
