package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/meltforce/paceline/internal/export"
	"github.com/meltforce/paceline/internal/workout"
)

type exportRequest struct {
	AthleteID uuid.UUID `json:"athlete_id"`
	// Provider overrides selection; empty means pick per policy.
	Provider string `json:"provider,omitempty"`
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid session ID"})
		return
	}

	var req exportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if req.AthleteID == uuid.Nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "athlete_id is required"})
		return
	}

	provider := req.Provider
	if provider == "" {
		provider, err = s.orch.SelectProvider(r.Context(), req.AthleteID)
		if err != nil {
			s.log.Error("provider selection failed", "athlete", req.AthleteID, "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "provider selection failed"})
			return
		}
		if provider == "" {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "no connected device"})
			return
		}
	}

	state, err := s.orch.ExportWorkout(r.Context(), sessionID, req.AthleteID, provider)
	if err != nil {
		status := exportErrorStatus(err)
		if status >= 500 {
			s.log.Error("export failed", "session", sessionID, "provider", provider, "error", err)
		}
		body := map[string]any{"error": err.Error()}
		if state != nil {
			body["export"] = state
		}
		writeJSON(w, status, body)
		return
	}

	writeJSON(w, http.StatusOK, state)
}

// exportErrorStatus maps export failures to HTTP statuses for the direct
// trigger endpoint.
func exportErrorStatus(err error) int {
	var validationErr *workout.ValidationError
	var malformedErr *workout.MalformedTargetError
	var providerErr *export.ProviderError

	switch {
	case errors.Is(err, export.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, export.ErrOwnershipMismatch):
		return http.StatusForbidden
	case errors.Is(err, export.ErrNotExportable),
		errors.As(err, &validationErr),
		errors.As(err, &malformedErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, export.ErrNotConnected):
		return http.StatusConflict
	case errors.As(err, &providerErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid session ID"})
		return
	}

	session, err := s.store.GetSession(r.Context(), sessionID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if session == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
		return
	}
	if session.Prescription == nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "session has no workout prescription"})
		return
	}

	normalized, err := workout.Normalize(session.Prescription)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, normalized)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	athleteID, err := uuid.Parse(r.URL.Query().Get("athlete"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "athlete parameter required"})
		return
	}

	sessions, err := s.store.ListSessions(r.Context(), athleteID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	if status := r.URL.Query().Get("status"); status != "" {
		filtered := sessions[:0]
		for _, sess := range sessions {
			if string(sess.ExportStatus) == status {
				filtered = append(filtered, sess)
			}
		}
		sessions = filtered
	}

	writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleListConnections(w http.ResponseWriter, r *http.Request) {
	athleteID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid athlete ID"})
		return
	}

	athlete, err := s.store.GetAthlete(r.Context(), athleteID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if athlete == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "athlete not found"})
		return
	}

	conns, err := s.store.ListConnections(r.Context(), athleteID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, conns)
}

func (s *Server) handleSetPrimary(w http.ResponseWriter, r *http.Request) {
	athleteID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid athlete ID"})
		return
	}
	provider := chi.URLParam(r, "provider")

	if err := s.store.SetPrimaryConnection(r.Context(), athleteID, provider); err != nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"primary": provider})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are already gone; nothing useful to do.
		return
	}
}
