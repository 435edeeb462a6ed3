package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	interactionengine "qconnect/contexts/community-experience/interaction-engine"
	"qconnect/contexts/community-experience/interaction-engine/adapters/fixtures"
	interactionhttp "qconnect/contexts/community-experience/interaction-engine/transport/http"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	module, err := interactionengine.NewInMemoryModule(context.Background(), fixtures.Source{}, nil, slog.Default())
	require.NoError(t, err)
	return New(module, slog.Default(), ":0")
}

func doJSON(t *testing.T, server *Server, method string, target string, actorID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	if actorID != "" {
		req.Header.Set("X-User-Id", actorID)
	}
	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	return rr
}

func itemIDs(items []interactionhttp.ItemResponse) []string {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ItemID)
	}
	return ids
}

func TestInteractionViewRequiresUser(t *testing.T) {
	server := newTestServer(t)
	rr := doJSON(t, server, http.MethodGet, "/api/v1/interactions/view?scope=posts", "", nil)
	require.Equal(t, http.StatusUnauthorized, rr.Code, rr.Body.String())
}

func TestInteractionViewOrdersPostsByPopularity(t *testing.T) {
	server := newTestServer(t)
	rr := doJSON(t, server, http.MethodGet, "/api/v1/interactions/view?scope=posts", "alice", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp interactionhttp.ViewResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "post", resp.Scope)
	assert.Equal(t, []string{"post-4", "post-3", "post-1", "post-2"}, itemIDs(resp.Items))
	assert.Equal(t, "All", resp.State.SelectedCategory)
	assert.Equal(t, "popularity", resp.State.SortKey)
	assert.Contains(t, resp.Categories, "Academic Skills")
}

func TestInteractionViewShowsSeededActorState(t *testing.T) {
	server := newTestServer(t)
	rr := doJSON(t, server, http.MethodGet, "/api/v1/interactions/view?scope=all", fixtures.DefaultSeedActorID, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp interactionhttp.ViewResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	byID := make(map[string]interactionhttp.ItemResponse, len(resp.Items))
	for _, item := range resp.Items {
		byID[item.ItemID] = item
	}
	assert.Equal(t, "up", byID["post-1"].UserVoted)
	assert.Equal(t, "down", byID["post-3"].UserVoted)
	assert.Empty(t, byID["post-2"].UserVoted)
	require.NotNil(t, byID["group-1"].IsJoined)
	assert.True(t, *byID["group-1"].IsJoined)
	require.NotNil(t, byID["group-2"].IsJoined)
	assert.False(t, *byID["group-2"].IsJoined)
}

func TestInteractionVoteTogglesScore(t *testing.T) {
	server := newTestServer(t)

	rr := doJSON(t, server, http.MethodPost, "/api/v1/interactions/items/post-2/votes?scope=posts", "alice",
		interactionhttp.VoteRequest{Direction: "up"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var first interactionhttp.VoteResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &first))
	assert.Equal(t, 16, first.Score)
	assert.Equal(t, "up", first.Direction)
	assert.Equal(t, "none", first.Previous)

	rr = doJSON(t, server, http.MethodPost, "/api/v1/interactions/items/post-2/votes?scope=posts", "alice",
		interactionhttp.VoteRequest{Direction: "down"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var second interactionhttp.VoteResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &second))
	assert.Equal(t, 14, second.Score)
	assert.Equal(t, -2, second.Delta)
}

func TestInteractionVoteRejectsUnknownItemAndGroups(t *testing.T) {
	server := newTestServer(t)

	rr := doJSON(t, server, http.MethodPost, "/api/v1/interactions/items/missing/votes", "alice",
		interactionhttp.VoteRequest{Direction: "up"})
	assert.Equal(t, http.StatusNotFound, rr.Code, rr.Body.String())

	rr = doJSON(t, server, http.MethodPost, "/api/v1/interactions/items/group-1/votes", "alice",
		interactionhttp.VoteRequest{Direction: "up"})
	assert.Equal(t, http.StatusNotFound, rr.Code, rr.Body.String())

	rr = doJSON(t, server, http.MethodPost, "/api/v1/interactions/items/post-1/votes", "alice",
		interactionhttp.VoteRequest{Direction: "sideways"})
	assert.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())
}

func TestInteractionMembershipToggles(t *testing.T) {
	server := newTestServer(t)

	rr := doJSON(t, server, http.MethodPost, "/api/v1/interactions/groups/group-2/membership?scope=groups", "alice", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var joined interactionhttp.MembershipResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &joined))
	assert.True(t, joined.Joined)

	rr = doJSON(t, server, http.MethodPost, "/api/v1/interactions/groups/group-2/membership?scope=groups", "alice", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var left interactionhttp.MembershipResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &left))
	assert.False(t, left.Joined)

	rr = doJSON(t, server, http.MethodPost, "/api/v1/interactions/groups/post-1/membership", "alice", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code, rr.Body.String())
}

func TestInteractionQueryUpdatesPersistPerSession(t *testing.T) {
	server := newTestServer(t)

	rr := doJSON(t, server, http.MethodPut, "/api/v1/interactions/query/category?scope=groups", "alice",
		interactionhttp.CategoryRequest{Category: "computer science"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var view interactionhttp.ViewResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
	assert.Equal(t, "Computer Science", view.State.SelectedCategory)
	assert.Equal(t, []string{"group-1", "group-4"}, itemIDs(view.Items))

	rr = doJSON(t, server, http.MethodPut, "/api/v1/interactions/query/search?scope=groups", "alice",
		interactionhttp.SearchRequest{SearchText: "WEB"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
	assert.Equal(t, []string{"group-4"}, itemIDs(view.Items))

	// Another actor's session starts from defaults.
	rr = doJSON(t, server, http.MethodGet, "/api/v1/interactions/view?scope=groups", "bob", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
	assert.Len(t, view.Items, 6)

	rr = doJSON(t, server, http.MethodDelete, "/api/v1/interactions/session", "alice", nil)
	require.Equal(t, http.StatusNoContent, rr.Code, rr.Body.String())

	rr = doJSON(t, server, http.MethodGet, "/api/v1/interactions/view?scope=groups", "alice", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
	assert.Len(t, view.Items, 6)
}

func TestInteractionQueryRejectsInvalidInput(t *testing.T) {
	server := newTestServer(t)

	rr := doJSON(t, server, http.MethodPut, "/api/v1/interactions/query/category?scope=posts", "alice",
		interactionhttp.CategoryRequest{Category: "Astrology"})
	assert.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())

	rr = doJSON(t, server, http.MethodPut, "/api/v1/interactions/query/sort?scope=posts", "alice",
		interactionhttp.SortRequest{SortKey: "alphabetical"})
	assert.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())

	rr = doJSON(t, server, http.MethodGet, "/api/v1/interactions/view?scope=comments", "alice", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())

	req := httptest.NewRequest(http.MethodPut, "/api/v1/interactions/query/search", bytes.NewReader([]byte("{")))
	req.Header.Set("X-User-Id", "alice")
	raw := httptest.NewRecorder()
	server.mux.ServeHTTP(raw, req)
	assert.Equal(t, http.StatusBadRequest, raw.Code)
}

func TestInteractionSortByRecencyAndUnanswered(t *testing.T) {
	server := newTestServer(t)

	rr := doJSON(t, server, http.MethodPut, "/api/v1/interactions/query/sort?scope=posts", "alice",
		interactionhttp.SortRequest{SortKey: "recent"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var view interactionhttp.ViewResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
	assert.Equal(t, "recency", view.State.SortKey)
	assert.Equal(t, []string{"post-1", "post-2", "post-3", "post-4"}, itemIDs(view.Items))

	rr = doJSON(t, server, http.MethodPut, "/api/v1/interactions/query/sort?scope=posts", "alice",
		interactionhttp.SortRequest{SortKey: "unanswered"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
	assert.Equal(t, []string{"post-2", "post-1", "post-3", "post-4"}, itemIDs(view.Items))
}

func TestHealthAndSwagger(t *testing.T) {
	server := newTestServer(t)

	rr := doJSON(t, server, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(t, server, http.MethodGet, "/swagger/doc.json", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "/api/v1/interactions/view")
}
