package server

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/coopvote/plenum/internal/model"
)

// NewHTTPHandler returns an http.Handler with all routes registered.
// When authToken is non-empty, requests (except GET /v1/health) must include
// a valid Authorization: Bearer <token> header.
func (s *VotingServer) NewHTTPHandler(authToken string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/agenda", s.handleCreateAgendaItem)
	mux.HandleFunc("GET /v1/agenda", s.handleListAgendaItems)
	mux.HandleFunc("GET /v1/agenda/{id}", s.handleGetAgendaItem)
	mux.HandleFunc("DELETE /v1/agenda/{id}", s.handleDeleteAgendaItem)
	mux.HandleFunc("POST /v1/agenda/{id}/session", s.handleOpenSession)
	mux.HandleFunc("POST /v1/agenda/{id}/votes", s.handleCastVote)
	mux.HandleFunc("GET /v1/agenda/{id}/result", s.handleGetResult)
	mux.HandleFunc("GET /v1/sessions/{id}", s.handleGetSession)
	mux.HandleFunc("POST /v1/sessions/{id}/close", s.handleCloseSession)
	mux.HandleFunc("GET /v1/health", s.handleHealth)
	return AuthMiddleware(authToken, mux)
}

// handleHealth handles GET /v1/health.
func (s *VotingServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleCreateAgendaItem handles POST /v1/agenda.
func (s *VotingServer) handleCreateAgendaItem(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	item, err := s.createAgendaItem(r.Context(), in.Title, in.Description)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, item)
}

// handleListAgendaItems handles GET /v1/agenda.
func (s *VotingServer) handleListAgendaItems(w http.ResponseWriter, r *http.Request) {
	items, err := s.store.ListAgendaItems(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list agenda items")
		return
	}
	if items == nil {
		items = []*model.AgendaItem{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "total": len(items)})
}

// handleGetAgendaItem handles GET /v1/agenda/{id}.
func (s *VotingServer) handleGetAgendaItem(w http.ResponseWriter, r *http.Request) {
	item, err := s.store.GetAgendaItem(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// handleDeleteAgendaItem handles DELETE /v1/agenda/{id}.
func (s *VotingServer) handleDeleteAgendaItem(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteAgendaItem(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleOpenSession handles POST /v1/agenda/{id}/session.
func (s *VotingServer) handleOpenSession(w http.ResponseWriter, r *http.Request) {
	var in struct {
		DurationMinutes int `json:"duration_minutes"`
	}
	// An empty body means the default duration.
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	session, err := s.openSession(r.Context(), r.PathValue("id"), in.DurationMinutes)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, session)
}

// handleGetSession handles GET /v1/sessions/{id}.
func (s *VotingServer) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.store.GetSession(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// handleCloseSession handles POST /v1/sessions/{id}/close.
func (s *VotingServer) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.closeSession(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, session)
}

// handleCastVote handles POST /v1/agenda/{id}/votes.
func (s *VotingServer) handleCastVote(w http.ResponseWriter, r *http.Request) {
	var in struct {
		MemberID string `json:"member_id"`
		Choice   string `json:"choice"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	vote, err := s.castVote(r.Context(), r.PathValue("id"), in.MemberID, model.Choice(strings.ToUpper(in.Choice)))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, vote)
}

// handleGetResult handles GET /v1/agenda/{id}/result.
func (s *VotingServer) handleGetResult(w http.ResponseWriter, r *http.Request) {
	result, err := s.getResult(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// writeServiceError maps a business error to its HTTP status.
func writeServiceError(w http.ResponseWriter, err error) {
	var ie inputError
	switch {
	case errors.Is(err, model.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, model.ErrConflict), errors.Is(err, model.ErrDuplicateVote):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, model.ErrSessionClosed):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, model.ErrInvalidMemberID):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, model.ErrIneligibleMember):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.As(err, &ie):
		writeError(w, http.StatusBadRequest, ie.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// AuthMiddleware wraps an http.Handler and checks the Authorization header for
// a valid Bearer token. When token is empty, auth is disabled and all requests
// pass through. GET /v1/health is always exempt.
func AuthMiddleware(token string, next http.Handler) http.Handler {
	if token == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Exempt health check.
		if r.Method == http.MethodGet && r.URL.Path == "/v1/health" {
			next.ServeHTTP(w, r)
			return
		}

		auth := r.Header.Get("Authorization")
		if auth == "" {
			writeError(w, http.StatusUnauthorized, "missing authorization header")
			return
		}

		if !strings.HasPrefix(auth, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "invalid authorization scheme")
			return
		}

		provided := strings.TrimPrefix(auth, "Bearer ")
		if subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		next.ServeHTTP(w, r)
	})
}
