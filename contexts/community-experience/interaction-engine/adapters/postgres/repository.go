package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"qconnect/contexts/community-experience/interaction-engine/domain/entities"
	domainerrors "qconnect/contexts/community-experience/interaction-engine/domain/errors"
	"qconnect/contexts/community-experience/interaction-engine/ports"
	contractsv1 "qconnect/contracts/gen/events/v1"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

// Repository is the durable side of the engine: it supplies the catalog at
// startup and stores what the worker projects from relayed change events.
type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) LoadCatalog(ctx context.Context) (entities.Catalog, error) {
	var categoryRows []categoryModel
	if err := r.db.WithContext(ctx).
		Order("position ASC").
		Find(&categoryRows).Error; err != nil {
		return entities.Catalog{}, r.logError("interaction_repo_load_categories_failed", err)
	}
	var itemRows []itemModel
	if err := r.db.WithContext(ctx).
		Order("sequence ASC").
		Find(&itemRows).Error; err != nil {
		return entities.Catalog{}, r.logError("interaction_repo_load_items_failed", err)
	}
	var voteRows []voteModel
	if err := r.db.WithContext(ctx).
		Where("direction IN ?", []string{string(entities.DirectionUp), string(entities.DirectionDown)}).
		Find(&voteRows).Error; err != nil {
		return entities.Catalog{}, r.logError("interaction_repo_load_votes_failed", err)
	}
	var membershipRows []membershipModel
	if err := r.db.WithContext(ctx).
		Where("joined = ?", true).
		Find(&membershipRows).Error; err != nil {
		return entities.Catalog{}, r.logError("interaction_repo_load_memberships_failed", err)
	}

	catalog := entities.Catalog{
		Items:       make([]entities.Item, 0, len(itemRows)),
		Categories:  make([]string, 0, len(categoryRows)),
		Votes:       make([]entities.VoteRecord, 0, len(voteRows)),
		Memberships: make([]entities.MembershipRecord, 0, len(membershipRows)),
	}
	for _, row := range categoryRows {
		catalog.Categories = append(catalog.Categories, row.Name)
	}
	for _, row := range itemRows {
		item, err := row.toEntity()
		if err != nil {
			return entities.Catalog{}, r.logError("interaction_repo_decode_item_failed", err, "item_id", row.ItemID)
		}
		catalog.Items = append(catalog.Items, item)
	}
	for _, row := range voteRows {
		catalog.Votes = append(catalog.Votes, row.toEntity())
	}
	for _, row := range membershipRows {
		catalog.Memberships = append(catalog.Memberships, row.toEntity())
	}
	return catalog, nil
}

// Seed writes a catalog into empty tables. Existing rows are left alone so
// the command can be rerun.
func (r *Repository) Seed(ctx context.Context, catalog entities.Catalog) error {
	if err := catalog.Validate(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, name := range catalog.Categories {
			row := categoryModel{Name: strings.TrimSpace(name), Position: i + 1}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
				return r.logError("interaction_repo_seed_category_failed", err, "category", row.Name)
			}
		}
		for i, item := range catalog.Items {
			item.Sequence = int64(i + 1)
			row, err := itemModelFromEntity(item)
			if err != nil {
				return r.logError("interaction_repo_seed_item_encode_failed", err, "item_id", item.ItemID)
			}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
				return r.logError("interaction_repo_seed_item_failed", err, "item_id", row.ItemID)
			}
		}
		for _, vote := range catalog.Votes {
			row := voteModelFromEntity(vote)
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
				return r.logError("interaction_repo_seed_vote_failed", err, "item_id", row.ItemID, "actor_id", row.ActorID)
			}
		}
		for _, membership := range catalog.Memberships {
			row := membershipModelFromEntity(membership)
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
				return r.logError("interaction_repo_seed_membership_failed", err, "group_id", row.GroupID, "actor_id", row.ActorID)
			}
		}
		return nil
	})
}

// ApplyVoteChange stores the absolute score and the actor's direction. Each
// write only lands when the event's version is newer than the stored one, so
// redelivered and out-of-order events are harmless. A cleared vote is kept as
// a "none" row to hold its version.
func (r *Repository) ApplyVoteChange(ctx context.Context, data contractsv1.VoteChangedData) error {
	itemID := strings.TrimSpace(data.ItemID)
	actorID := strings.TrimSpace(data.ActorID)
	updatedAt := parseOccurredAt(data.OccurredAt)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current itemModel
		if err := tx.Select("item_id", "score_version").
			Where("item_id = ?", itemID).
			Where("kind = ?", string(entities.ItemKindPost)).
			First(&current).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrInvalidItem
			}
			return r.logError("interaction_repo_apply_vote_load_item_failed", err, "item_id", itemID)
		}

		if data.Version > current.ScoreVersion {
			result := tx.Model(&itemModel{}).
				Where("item_id = ?", itemID).
				Where("score_version < ?", data.Version).
				Updates(map[string]any{
					"score":         data.NewScore,
					"score_version": data.Version,
					"updated_at":    updatedAt,
				})
			if result.Error != nil {
				return r.logError("interaction_repo_apply_vote_score_failed", result.Error, "item_id", itemID)
			}
		} else {
			r.logger.Debug("stale vote change skipped",
				"event", "interaction_repo_apply_vote_stale",
				"module", "community-experience/interaction-engine",
				"layer", "adapter",
				"item_id", itemID,
				"version", data.Version,
				"stored_version", current.ScoreVersion,
			)
		}

		direction, ok := entities.ParseDirection(data.Direction)
		if !ok {
			direction = entities.DirectionNone
		}
		row := voteModel{
			ActorID:   actorID,
			ItemID:    itemID,
			Direction: direction.String(),
			Version:   data.Version,
			UpdatedAt: updatedAt,
		}
		if err := tx.Clauses(voteUpsertClause(row)).Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrConflict
			}
			return r.logError("interaction_repo_upsert_vote_failed", err, "item_id", itemID, "actor_id", actorID)
		}
		return nil
	})
}

// voteUpsertClause overwrites an existing vote row only with a newer version.
func voteUpsertClause(row voteModel) clause.OnConflict {
	return clause.OnConflict{
		Columns: []clause.Column{{Name: "actor_id"}, {Name: "item_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"direction":  row.Direction,
			"version":    row.Version,
			"updated_at": row.UpdatedAt,
		}),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Expr{SQL: "interaction_votes.version < ?", Vars: []any{row.Version}},
		}},
	}
}

func (r *Repository) ApplyMembershipChange(ctx context.Context, data contractsv1.MembershipChangedData) error {
	row := membershipModel{
		ActorID:   strings.TrimSpace(data.ActorID),
		GroupID:   strings.TrimSpace(data.GroupID),
		Joined:    data.Joined,
		UpdatedAt: parseOccurredAt(data.OccurredAt),
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "actor_id"}, {Name: "group_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"joined":     row.Joined,
			"updated_at": row.UpdatedAt,
		}),
	}).Create(&row)
	if create.Error != nil {
		if isUniqueViolation(create.Error) {
			return domainerrors.ErrConflict
		}
		return r.logError("interaction_repo_upsert_membership_failed", create.Error,
			"group_id", row.GroupID,
			"actor_id", row.ActorID,
		)
	}
	return nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return r.logError("interaction_repo_append_outbox_marshal_failed", err,
			"event_id", strings.TrimSpace(envelope.EventID),
			"event_type", strings.TrimSpace(envelope.EventType),
		)
	}
	row := outboxModel{
		OutboxID:     strings.TrimSpace(envelope.EventID),
		EventType:    strings.TrimSpace(envelope.EventType),
		PartitionKey: strings.TrimSpace(envelope.PartitionKey),
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    envelope.OccurredAt.UTC(),
	}
	if row.OutboxID == "" {
		row.OutboxID = uuid.NewString()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "outbox_id"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return r.logError("interaction_repo_append_outbox_insert_failed", create.Error,
			"outbox_id", row.OutboxID,
		)
	}
	if create.RowsAffected > 0 {
		return nil
	}

	var existing outboxModel
	if err := r.db.WithContext(ctx).
		Select("payload").
		Where("outbox_id = ?", row.OutboxID).
		First(&existing).Error; err != nil {
		return r.logError("interaction_repo_append_outbox_load_existing_failed", err,
			"outbox_id", row.OutboxID,
		)
	}
	if !samePayload(existing.Payload, row.Payload) {
		return domainerrors.ErrConflict
	}
	return nil
}

// samePayload compares two JSON documents by value. JSONB storage reorders
// keys and drops whitespace, so the stored bytes rarely match the input.
func samePayload(a, b []byte) bool {
	left, err := decodePayload(a)
	if err != nil {
		return false
	}
	right, err := decodePayload(b)
	if err != nil {
		return false
	}
	return reflect.DeepEqual(left, right)
}

func decodePayload(raw []byte) (any, error) {
	decoder := json.NewDecoder(strings.NewReader(string(raw)))
	decoder.UseNumber()
	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, err
	}
	return value, nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("interaction_repo_list_pending_outbox_failed", err, "limit", limit)
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      append([]byte(nil), row.Payload...),
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": publishedAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("interaction_repo_mark_outbox_published_failed", result.Error,
			"outbox_id", strings.TrimSpace(outboxID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrConflict
	}
	return nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "community-experience/interaction-engine",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("interaction repository operation failed", fields...)
	return err
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

type UUIDGenerator struct{}

func (UUIDGenerator) NewID(context.Context) (string, error) {
	return uuid.NewString(), nil
}

type categoryModel struct {
	Name     string `gorm:"column:name;primaryKey"`
	Position int    `gorm:"column:position"`
}

func (categoryModel) TableName() string {
	return "interaction_categories"
}

type itemModel struct {
	ItemID          string    `gorm:"column:item_id;primaryKey"`
	Kind            string    `gorm:"column:kind"`
	Category        string    `gorm:"column:category"`
	Title           string    `gorm:"column:title"`
	Body            string    `gorm:"column:body"`
	Score           int       `gorm:"column:score"`
	SecondaryMetric int       `gorm:"column:secondary_metric"`
	Details         []byte    `gorm:"column:details"`
	Sequence        int64     `gorm:"column:sequence"`
	ScoreVersion    int64     `gorm:"column:score_version"`
	CreatedAt       time.Time `gorm:"column:created_at"`
	UpdatedAt       time.Time `gorm:"column:updated_at"`
}

func (itemModel) TableName() string {
	return "interaction_items"
}

// itemDetails is the JSON shape of the details column.
type itemDetails struct {
	AuthorName string   `json:"author_name,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	Views      int      `json:"views,omitempty"`
	Rating     float64  `json:"rating,omitempty"`
	Topics     int      `json:"topics,omitempty"`
}

func itemModelFromEntity(item entities.Item) (itemModel, error) {
	var details itemDetails
	if item.Post != nil {
		details.AuthorName = item.Post.AuthorName
		details.Tags = append([]string(nil), item.Post.Tags...)
		details.Views = item.Post.Views
	}
	if item.Group != nil {
		details.Rating = item.Group.Rating
		details.Topics = item.Group.Topics
	}
	encoded, err := json.Marshal(details)
	if err != nil {
		return itemModel{}, err
	}
	createdAt := item.CreatedAt.UTC()
	return itemModel{
		ItemID:          strings.TrimSpace(item.ItemID),
		Kind:            string(item.Kind),
		Category:        strings.TrimSpace(item.Category),
		Title:           item.Title,
		Body:            item.Body,
		Score:           item.Score,
		SecondaryMetric: item.SecondaryMetric,
		Details:         encoded,
		Sequence:        item.Sequence,
		ScoreVersion:    item.ScoreVersion,
		CreatedAt:       createdAt,
		UpdatedAt:       createdAt,
	}, nil
}

func (m itemModel) toEntity() (entities.Item, error) {
	var details itemDetails
	if len(m.Details) > 0 {
		if err := json.Unmarshal(m.Details, &details); err != nil {
			return entities.Item{}, err
		}
	}
	item := entities.Item{
		ItemID:          m.ItemID,
		Kind:            entities.ItemKind(m.Kind),
		Category:        m.Category,
		Title:           m.Title,
		Body:            m.Body,
		Score:           m.Score,
		SecondaryMetric: m.SecondaryMetric,
		CreatedAt:       m.CreatedAt.UTC(),
		Sequence:        m.Sequence,
		ScoreVersion:    m.ScoreVersion,
	}
	switch item.Kind {
	case entities.ItemKindPost:
		item.Post = &entities.PostDetails{
			AuthorName: details.AuthorName,
			Tags:       details.Tags,
			Views:      details.Views,
		}
	case entities.ItemKindGroup:
		item.Group = &entities.GroupDetails{
			Rating: details.Rating,
			Topics: details.Topics,
		}
	}
	return item, nil
}

type voteModel struct {
	ActorID   string    `gorm:"column:actor_id;primaryKey"`
	ItemID    string    `gorm:"column:item_id;primaryKey"`
	Direction string    `gorm:"column:direction"`
	Version   int64     `gorm:"column:version"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (voteModel) TableName() string {
	return "interaction_votes"
}

func voteModelFromEntity(vote entities.VoteRecord) voteModel {
	return voteModel{
		ActorID:   strings.TrimSpace(vote.ActorID),
		ItemID:    strings.TrimSpace(vote.ItemID),
		Direction: string(vote.Direction),
		UpdatedAt: vote.UpdatedAt.UTC(),
	}
}

func (m voteModel) toEntity() entities.VoteRecord {
	direction, _ := entities.ParseDirection(m.Direction)
	return entities.VoteRecord{
		ActorID:   m.ActorID,
		ItemID:    m.ItemID,
		Direction: direction,
		UpdatedAt: m.UpdatedAt.UTC(),
	}
}

type membershipModel struct {
	ActorID   string    `gorm:"column:actor_id;primaryKey"`
	GroupID   string    `gorm:"column:group_id;primaryKey"`
	Joined    bool      `gorm:"column:joined"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (membershipModel) TableName() string {
	return "interaction_memberships"
}

func membershipModelFromEntity(membership entities.MembershipRecord) membershipModel {
	return membershipModel{
		ActorID:   strings.TrimSpace(membership.ActorID),
		GroupID:   strings.TrimSpace(membership.GroupID),
		Joined:    membership.Joined,
		UpdatedAt: membership.UpdatedAt.UTC(),
	}
}

func (m membershipModel) toEntity() entities.MembershipRecord {
	return entities.MembershipRecord{
		ActorID:   m.ActorID,
		GroupID:   m.GroupID,
		Joined:    m.Joined,
		UpdatedAt: m.UpdatedAt.UTC(),
	}
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "interaction_outbox"
}

func parseOccurredAt(raw string) time.Time {
	parsed, err := time.Parse(time.RFC3339, strings.TrimSpace(raw))
	if err != nil {
		return time.Now().UTC()
	}
	return parsed.UTC()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.CollectionSource = (*Repository)(nil)
var _ ports.ChangeProjection = (*Repository)(nil)
var _ ports.OutboxWriter = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
var _ ports.Clock = SystemClock{}
var _ ports.IDGenerator = UUIDGenerator{}
