package httpadapter

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "qconnect/contexts/community-experience/interaction-engine/application"
	"qconnect/contexts/community-experience/interaction-engine/application/session"
	"qconnect/contexts/community-experience/interaction-engine/domain/entities"
	domainerrors "qconnect/contexts/community-experience/interaction-engine/domain/errors"
	"qconnect/contexts/community-experience/interaction-engine/ports"
	httptransport "qconnect/contexts/community-experience/interaction-engine/transport/http"
)

// Handler maps transport requests onto per-actor sessions.
type Handler struct {
	Sessions *session.Manager
	Items    ports.ItemReader
	Logger   *slog.Logger
}

// ViewHandler godoc
// @Summary Get the actor's current view
// @Description Returns the ordered items for the actor's session on the given scope.
// @Tags interaction-engine
// @Produce json
// @Param X-User-Id header string true "Actor id"
// @Param scope query string false "posts, groups or all"
// @Success 200 {object} httptransport.ViewResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /api/v1/interactions/view [get]
func (h Handler) ViewHandler(ctx context.Context, actorID string, scope string) (httptransport.ViewResponse, error) {
	kind, err := parseScope(scope)
	if err != nil {
		return httptransport.ViewResponse{}, err
	}
	var view session.View
	err = h.Sessions.With(ctx, actorID, kind, func(s *session.Session) error {
		view, err = s.View(ctx)
		return err
	})
	if err != nil {
		return httptransport.ViewResponse{}, err
	}
	return h.mapView(ctx, kind, view)
}

// VoteHandler godoc
// @Summary Vote on a post
// @Description Applies an up or down vote. Repeating the stored direction undoes it.
// @Tags interaction-engine
// @Accept json
// @Produce json
// @Param X-User-Id header string true "Actor id"
// @Param item_id path string true "Post id"
// @Param scope query string false "posts, groups or all"
// @Param request body httptransport.VoteRequest true "Vote direction"
// @Success 200 {object} httptransport.VoteResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /api/v1/interactions/items/{item_id}/votes [post]
func (h Handler) VoteHandler(
	ctx context.Context,
	actorID string,
	scope string,
	itemID string,
	req httptransport.VoteRequest,
) (httptransport.VoteResponse, error) {
	kind, err := parseScope(scope)
	if err != nil {
		return httptransport.VoteResponse{}, err
	}
	logger := application.ResolveLogger(h.Logger)
	logger.Info("vote request received",
		"event", "http_interaction_vote_received",
		"module", application.ModuleName,
		"layer", "transport",
		"actor_id", actorID,
		"item_id", itemID,
	)
	direction, ok := entities.ParseDirection(req.Direction)
	if !ok {
		return httptransport.VoteResponse{}, domainerrors.ErrInvalidDirection
	}
	var outcome session.VoteOutcome
	err = h.Sessions.With(ctx, actorID, kind, func(s *session.Session) error {
		outcome, err = s.Vote(ctx, itemID, direction)
		return err
	})
	if err != nil {
		return httptransport.VoteResponse{}, err
	}
	view, err := h.mapView(ctx, kind, outcome.View)
	if err != nil {
		return httptransport.VoteResponse{}, err
	}
	return httptransport.VoteResponse{
		ItemID:    outcome.ItemID,
		Direction: outcome.Direction.String(),
		Previous:  outcome.Previous.String(),
		Delta:     outcome.Delta,
		Score:     outcome.Score,
		View:      view,
	}, nil
}

// ToggleMembershipHandler godoc
// @Summary Join or leave a study group
// @Tags interaction-engine
// @Produce json
// @Param X-User-Id header string true "Actor id"
// @Param group_id path string true "Group id"
// @Param scope query string false "posts, groups or all"
// @Success 200 {object} httptransport.MembershipResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /api/v1/interactions/groups/{group_id}/membership [post]
func (h Handler) ToggleMembershipHandler(
	ctx context.Context,
	actorID string,
	scope string,
	groupID string,
) (httptransport.MembershipResponse, error) {
	kind, err := parseScope(scope)
	if err != nil {
		return httptransport.MembershipResponse{}, err
	}
	var outcome session.MembershipOutcome
	err = h.Sessions.With(ctx, actorID, kind, func(s *session.Session) error {
		outcome, err = s.ToggleMembership(ctx, groupID)
		return err
	})
	if err != nil {
		application.ResolveLogger(h.Logger).Warn("membership request failed",
			"event", "http_interaction_membership_failed",
			"module", application.ModuleName,
			"layer", "transport",
			"actor_id", actorID,
			"group_id", groupID,
			"error", err.Error(),
		)
		return httptransport.MembershipResponse{}, err
	}
	view, err := h.mapView(ctx, kind, outcome.View)
	if err != nil {
		return httptransport.MembershipResponse{}, err
	}
	return httptransport.MembershipResponse{
		GroupID: outcome.GroupID,
		Joined:  outcome.Joined,
		View:    view,
	}, nil
}

// SetCategoryHandler godoc
// @Summary Select a category filter
// @Tags interaction-engine
// @Accept json
// @Produce json
// @Param X-User-Id header string true "Actor id"
// @Param scope query string false "posts, groups or all"
// @Param request body httptransport.CategoryRequest true "Category or All"
// @Success 200 {object} httptransport.ViewResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Router /api/v1/interactions/query/category [put]
func (h Handler) SetCategoryHandler(
	ctx context.Context,
	actorID string,
	scope string,
	req httptransport.CategoryRequest,
) (httptransport.ViewResponse, error) {
	return h.updateQuery(ctx, actorID, scope, func(s *session.Session) (session.View, error) {
		return s.SetCategory(ctx, req.Category)
	})
}

// SetSearchHandler godoc
// @Summary Set the search text
// @Tags interaction-engine
// @Accept json
// @Produce json
// @Param X-User-Id header string true "Actor id"
// @Param scope query string false "posts, groups or all"
// @Param request body httptransport.SearchRequest true "Search text"
// @Success 200 {object} httptransport.ViewResponse
// @Router /api/v1/interactions/query/search [put]
func (h Handler) SetSearchHandler(
	ctx context.Context,
	actorID string,
	scope string,
	req httptransport.SearchRequest,
) (httptransport.ViewResponse, error) {
	return h.updateQuery(ctx, actorID, scope, func(s *session.Session) (session.View, error) {
		return s.SetSearchText(ctx, req.SearchText)
	})
}

// SetSortHandler godoc
// @Summary Select the sort key
// @Tags interaction-engine
// @Accept json
// @Produce json
// @Param X-User-Id header string true "Actor id"
// @Param scope query string false "posts, groups or all"
// @Param request body httptransport.SortRequest true "popularity, recency or unanswered"
// @Success 200 {object} httptransport.ViewResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Router /api/v1/interactions/query/sort [put]
func (h Handler) SetSortHandler(
	ctx context.Context,
	actorID string,
	scope string,
	req httptransport.SortRequest,
) (httptransport.ViewResponse, error) {
	key, ok := entities.ParseSortKey(req.SortKey)
	if !ok {
		return httptransport.ViewResponse{}, domainerrors.ErrInvalidSortKey
	}
	return h.updateQuery(ctx, actorID, scope, func(s *session.Session) (session.View, error) {
		return s.SetSortKey(ctx, key)
	})
}

// EndSessionHandler godoc
// @Summary End the actor's sessions
// @Description Drops the actor's query state on every scope. Votes and memberships are kept.
// @Tags interaction-engine
// @Param X-User-Id header string true "Actor id"
// @Success 204
// @Router /api/v1/interactions/session [delete]
func (h Handler) EndSessionHandler(_ context.Context, actorID string) error {
	if strings.TrimSpace(actorID) == "" {
		return domainerrors.ErrInvalidActor
	}
	h.Sessions.End(actorID)
	return nil
}

func (h Handler) updateQuery(
	ctx context.Context,
	actorID string,
	scope string,
	apply func(*session.Session) (session.View, error),
) (httptransport.ViewResponse, error) {
	kind, err := parseScope(scope)
	if err != nil {
		return httptransport.ViewResponse{}, err
	}
	var view session.View
	err = h.Sessions.With(ctx, actorID, kind, func(s *session.Session) error {
		view, err = apply(s)
		return err
	})
	if err != nil {
		return httptransport.ViewResponse{}, err
	}
	return h.mapView(ctx, kind, view)
}

func (h Handler) mapView(ctx context.Context, kind entities.ItemKind, view session.View) (httptransport.ViewResponse, error) {
	categories, err := h.Items.Categories(ctx)
	if err != nil {
		return httptransport.ViewResponse{}, err
	}
	scope := string(kind)
	if scope == "" {
		scope = "all"
	}
	response := httptransport.ViewResponse{
		Scope: scope,
		State: httptransport.QueryStateResponse{
			SelectedCategory: view.State.SelectedCategory,
			SearchText:       view.State.SearchText,
			SortKey:          string(view.State.SortKey),
		},
		Categories: categories,
		Items:      make([]httptransport.ItemResponse, 0, view.Sequence.Len()),
	}
	for _, item := range view.Sequence.All() {
		response.Items = append(response.Items, mapItem(item, view))
	}
	return response, nil
}

func mapItem(item entities.Item, view session.View) httptransport.ItemResponse {
	out := httptransport.ItemResponse{
		ItemID:    item.ItemID,
		Kind:      string(item.Kind),
		Category:  item.Category,
		Title:     item.Title,
		Body:      item.Body,
		Score:     item.Score,
		CreatedAt: item.CreatedAt.UTC().Format(time.RFC3339),
	}
	switch {
	case item.IsPost():
		out.Replies = item.Replies()
		if item.Post != nil {
			out.AuthorName = item.Post.AuthorName
			out.Tags = append([]string(nil), item.Post.Tags...)
			out.Views = item.Post.Views
		}
		if direction := view.DirectionFor(item.ItemID); direction != entities.DirectionNone {
			out.UserVoted = string(direction)
		}
	case item.IsGroup():
		out.Members = item.Members()
		if item.Group != nil {
			out.Topics = item.Group.Topics
			out.Rating = item.Group.Rating
		}
		joined := view.IsJoined(item.ItemID)
		out.IsJoined = &joined
	}
	return out
}

func parseScope(raw string) (entities.ItemKind, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "all":
		return "", nil
	case "post", "posts", "forum":
		return entities.ItemKindPost, nil
	case "group", "groups", "study-groups":
		return entities.ItemKindGroup, nil
	default:
		return "", domainerrors.ErrInvalidScope
	}
}
