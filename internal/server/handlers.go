package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/balkashynov/listeningroom/internal/apperr"
	"github.com/balkashynov/listeningroom/internal/models"
	"github.com/balkashynov/listeningroom/internal/rewards"
)

type snapshotResponse struct {
	Session models.Snapshot `json:"session"`
}

type decisionRequest struct {
	Action string `json:"action"`
}

// getRewards handles GET /sessions/{id}/rewards.
func (s *Server) getRewards(w http.ResponseWriter, r *http.Request) {
	snap, err := s.svc.Snapshot(r.Context(), principal(r), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, snapshotResponse{Session: snap})
}

// postDecision handles POST /sessions/{id}/rewards.
func (s *Server) postDecision(w http.ResponseWriter, r *http.Request) {
	var req decisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, fmt.Errorf("%w: invalid JSON body", apperr.ErrBadRequest))
		return
	}
	action, err := rewards.ParseAction(req.Action)
	if err != nil {
		Error(w, err)
		return
	}

	snap, err := s.svc.Decide(r.Context(), principal(r), chi.URLParam(r, "id"), action)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, snapshotResponse{Session: snap})
}

// postEnd handles POST /sessions/{id}/end.
func (s *Server) postEnd(w http.ResponseWriter, r *http.Request) {
	snap, err := s.svc.End(r.Context(), principal(r), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, snapshotResponse{Session: snap})
}

// getHistory handles GET /sessions/{id}/rewards/history.
func (s *Server) getHistory(w http.ResponseWriter, r *http.Request) {
	records, err := s.svc.History(r.Context(), principal(r), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if records == nil {
		records = []models.SnapshotRecord{}
	}
	JSON(w, http.StatusOK, map[string]any{"snapshots": records})
}

// listSessions handles GET /sessions?status=active.
func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.svc.ListSessions(r.Context(), principal(r), r.URL.Query().Get("status"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if sessions == nil {
		sessions = []models.Session{}
	}
	JSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

// getVolunteerStats handles GET /volunteers/me/stats.
func (s *Server) getVolunteerStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.svc.VolunteerStats(r.Context(), principal(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	JSON(w, http.StatusOK, map[string]any{"stats": stats})
}

// fail logs unexpected errors before writing the response
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	if apperr.CodeOf(err) == apperr.CodeInternal {
		s.Logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	Error(w, err)
}
