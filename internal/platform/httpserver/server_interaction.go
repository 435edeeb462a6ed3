package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	domainerrors "qconnect/contexts/community-experience/interaction-engine/domain/errors"
	interactionhttp "qconnect/contexts/community-experience/interaction-engine/transport/http"
)

func (s *Server) registerInteractionRoutes() {
	s.mux.HandleFunc("GET /api/v1/interactions/view", s.handleInteractionView)
	s.mux.HandleFunc("POST /api/v1/interactions/items/{item_id}/votes", s.handleInteractionVote)
	s.mux.HandleFunc("POST /api/v1/interactions/groups/{group_id}/membership", s.handleInteractionMembership)
	s.mux.HandleFunc("PUT /api/v1/interactions/query/category", s.handleInteractionCategory)
	s.mux.HandleFunc("PUT /api/v1/interactions/query/search", s.handleInteractionSearch)
	s.mux.HandleFunc("PUT /api/v1/interactions/query/sort", s.handleInteractionSort)
	s.mux.HandleFunc("DELETE /api/v1/interactions/session", s.handleInteractionEndSession)
}

func (s *Server) handleInteractionView(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireInteractionActor(w, r)
	if !ok {
		return
	}
	resp, err := s.interaction.Handler.ViewHandler(r.Context(), actorID, r.URL.Query().Get("scope"))
	if err != nil {
		s.writeInteractionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleInteractionVote(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireInteractionActor(w, r)
	if !ok {
		return
	}
	var req interactionhttp.VoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInteractionError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.interaction.Handler.VoteHandler(
		r.Context(),
		actorID,
		r.URL.Query().Get("scope"),
		r.PathValue("item_id"),
		req,
	)
	if err != nil {
		s.writeInteractionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleInteractionMembership(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireInteractionActor(w, r)
	if !ok {
		return
	}
	resp, err := s.interaction.Handler.ToggleMembershipHandler(
		r.Context(),
		actorID,
		r.URL.Query().Get("scope"),
		r.PathValue("group_id"),
	)
	if err != nil {
		s.writeInteractionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleInteractionCategory(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireInteractionActor(w, r)
	if !ok {
		return
	}
	var req interactionhttp.CategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInteractionError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.interaction.Handler.SetCategoryHandler(r.Context(), actorID, r.URL.Query().Get("scope"), req)
	if err != nil {
		s.writeInteractionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleInteractionSearch(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireInteractionActor(w, r)
	if !ok {
		return
	}
	var req interactionhttp.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInteractionError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.interaction.Handler.SetSearchHandler(r.Context(), actorID, r.URL.Query().Get("scope"), req)
	if err != nil {
		s.writeInteractionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleInteractionSort(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireInteractionActor(w, r)
	if !ok {
		return
	}
	var req interactionhttp.SortRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInteractionError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.interaction.Handler.SetSortHandler(r.Context(), actorID, r.URL.Query().Get("scope"), req)
	if err != nil {
		s.writeInteractionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleInteractionEndSession(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireInteractionActor(w, r)
	if !ok {
		return
	}
	if err := s.interaction.Handler.EndSessionHandler(r.Context(), actorID); err != nil {
		s.writeInteractionDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func requireInteractionActor(w http.ResponseWriter, r *http.Request) (string, bool) {
	actorID := strings.TrimSpace(r.Header.Get("X-User-Id"))
	if actorID == "" {
		writeInteractionError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return "", false
	}
	return actorID, true
}

func (s *Server) writeInteractionDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domainerrors.ErrInvalidItem):
		writeInteractionError(w, http.StatusNotFound, "invalid_item", err.Error())
	case errors.Is(err, domainerrors.ErrInvalidGroup):
		writeInteractionError(w, http.StatusNotFound, "invalid_group", err.Error())
	case errors.Is(err, domainerrors.ErrInvalidCategory):
		writeInteractionError(w, http.StatusBadRequest, "invalid_category", err.Error())
	case errors.Is(err, domainerrors.ErrInvalidDirection):
		writeInteractionError(w, http.StatusBadRequest, "invalid_direction", err.Error())
	case errors.Is(err, domainerrors.ErrInvalidSortKey):
		writeInteractionError(w, http.StatusBadRequest, "invalid_sort_key", err.Error())
	case errors.Is(err, domainerrors.ErrInvalidScope):
		writeInteractionError(w, http.StatusBadRequest, "invalid_scope", err.Error())
	case errors.Is(err, domainerrors.ErrInvalidActor):
		writeInteractionError(w, http.StatusUnauthorized, "missing_user", err.Error())
	case errors.Is(err, domainerrors.ErrConflict):
		writeInteractionError(w, http.StatusConflict, "conflict", err.Error())
	default:
		s.logger.Error("interaction request failed",
			"event", "http_interaction_internal_error",
			"module", "internal/platform/httpserver",
			"layer", "platform",
			"error", err.Error(),
		)
		writeInteractionError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeInteractionError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, interactionhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
