package session

import (
	"context"
	"log/slog"
	"strings"

	application "qconnect/contexts/community-experience/interaction-engine/application"
	"qconnect/contexts/community-experience/interaction-engine/application/commands"
	"qconnect/contexts/community-experience/interaction-engine/application/queries"
	"qconnect/contexts/community-experience/interaction-engine/domain/entities"
	domainerrors "qconnect/contexts/community-experience/interaction-engine/domain/errors"
	"qconnect/contexts/community-experience/interaction-engine/ports"
)

// View is what the presentation layer renders: the ordered items plus the
// session actor's own vote and membership state.
type View struct {
	Sequence queries.Sequence
	State    entities.QueryState
	Votes    map[string]entities.Direction
	Joined   map[string]bool
}

// DirectionFor returns the actor's stored vote on itemID (none if absent).
func (v View) DirectionFor(itemID string) entities.Direction {
	return v.Votes[itemID]
}

func (v View) IsJoined(groupID string) bool {
	return v.Joined[groupID]
}

type VoteOutcome struct {
	commands.VoteResult
	View View
}

type MembershipOutcome struct {
	commands.ToggleMembershipResult
	View View
}

type Dependencies struct {
	ActorID string
	// Scope limits the view to one item kind; empty shows every kind.
	Scope       entities.ItemKind
	Items       ports.ItemReader
	Votes       ports.VoteRepository
	Memberships ports.MembershipRepository
	Sink        ports.ChangeSink
	Clock       ports.Clock
	Logger      *slog.Logger
}

// Session is the single entry point for one actor. It is not safe for
// concurrent use; the shared collection behind it is.
type Session struct {
	actorID    string
	scope      entities.ItemKind
	state      entities.QueryState
	categories map[string]string

	items       ports.ItemReader
	votes       ports.VoteRepository
	memberships ports.MembershipRepository
	ledger      commands.VoteLedger
	registry    commands.MembershipRegistry
	logger      *slog.Logger
}

func New(ctx context.Context, deps Dependencies) (*Session, error) {
	actorID := strings.TrimSpace(deps.ActorID)
	if actorID == "" {
		return nil, domainerrors.ErrInvalidActor
	}
	if deps.Scope != "" && deps.Scope != entities.ItemKindPost && deps.Scope != entities.ItemKindGroup {
		return nil, domainerrors.ErrInvalidScope
	}
	known, err := deps.Items.Categories(ctx)
	if err != nil {
		return nil, err
	}
	categories := make(map[string]string, len(known))
	for _, category := range known {
		categories[strings.ToLower(category)] = category
	}

	logger := application.ResolveLogger(deps.Logger)
	return &Session{
		actorID:     actorID,
		scope:       deps.Scope,
		state:       entities.NewQueryState(),
		categories:  categories,
		items:       deps.Items,
		votes:       deps.Votes,
		memberships: deps.Memberships,
		ledger: commands.VoteLedger{
			Items:  deps.Items,
			Votes:  deps.Votes,
			Sink:   deps.Sink,
			Clock:  deps.Clock,
			Logger: logger,
		},
		registry: commands.MembershipRegistry{
			Items:       deps.Items,
			Memberships: deps.Memberships,
			Sink:        deps.Sink,
			Clock:       deps.Clock,
			Logger:      logger,
		},
		logger: logger,
	}, nil
}

func (s *Session) ActorID() string {
	return s.actorID
}

func (s *Session) State() entities.QueryState {
	return s.state
}

func (s *Session) Vote(ctx context.Context, itemID string, direction entities.Direction) (VoteOutcome, error) {
	result, err := s.ledger.Vote(ctx, commands.VoteCommand{
		ActorID:   s.actorID,
		ItemID:    itemID,
		Direction: direction,
	})
	if err != nil {
		return VoteOutcome{}, err
	}
	view, err := s.View(ctx)
	if err != nil {
		return VoteOutcome{}, err
	}
	return VoteOutcome{VoteResult: result, View: view}, nil
}

func (s *Session) ToggleMembership(ctx context.Context, groupID string) (MembershipOutcome, error) {
	result, err := s.registry.ToggleMembership(ctx, commands.ToggleMembershipCommand{
		ActorID: s.actorID,
		GroupID: groupID,
	})
	if err != nil {
		return MembershipOutcome{}, err
	}
	view, err := s.View(ctx)
	if err != nil {
		return MembershipOutcome{}, err
	}
	return MembershipOutcome{ToggleMembershipResult: result, View: view}, nil
}

// SetCategory accepts the sentinel (or one of its page spellings) or a
// member of the known category set, matched case-insensitively and stored in
// its canonical spelling. Anything else is rejected and the state is kept.
func (s *Session) SetCategory(ctx context.Context, category string) (View, error) {
	selected := entities.CategoryAll
	if !entities.IsAllCategory(category) {
		canonical, ok := s.categories[strings.ToLower(strings.TrimSpace(category))]
		if !ok {
			s.logger.Warn("category rejected",
				"event", "interaction_category_rejected",
				"module", application.ModuleName,
				"layer", "application",
				"actor_id", s.actorID,
				"category", category,
			)
			return View{}, domainerrors.ErrInvalidCategory
		}
		selected = canonical
	}
	s.state.SelectedCategory = selected
	return s.View(ctx)
}

func (s *Session) SetSearchText(ctx context.Context, text string) (View, error) {
	s.state.SearchText = text
	return s.View(ctx)
}

func (s *Session) SetSortKey(ctx context.Context, key entities.SortKey) (View, error) {
	switch key {
	case entities.SortKeyPopularity, entities.SortKeyRecency, entities.SortKeyUnanswered:
	default:
		return View{}, domainerrors.ErrInvalidSortKey
	}
	s.state.SortKey = key
	return s.View(ctx)
}

// View re-derives the ordered sequence from the current collection.
func (s *Session) View(ctx context.Context) (View, error) {
	items, err := s.items.ListItems(ctx, s.scope)
	if err != nil {
		return View{}, err
	}
	votes, err := s.votes.ListVotesByActor(ctx, s.actorID)
	if err != nil {
		return View{}, err
	}
	memberships, err := s.memberships.ListMembershipsByActor(ctx, s.actorID)
	if err != nil {
		return View{}, err
	}

	view := View{
		Sequence: queries.Derive(items, s.state),
		State:    s.state,
		Votes:    make(map[string]entities.Direction, len(votes)),
		Joined:   make(map[string]bool, len(memberships)),
	}
	for _, vote := range votes {
		if vote.Direction != entities.DirectionNone {
			view.Votes[vote.ItemID] = vote.Direction
		}
	}
	for _, membership := range memberships {
		if membership.Joined {
			view.Joined[membership.GroupID] = true
		}
	}
	return view, nil
}
