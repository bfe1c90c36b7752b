package server

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// handleOAuthConnect issues a single-use state token and redirects the
// browser to the provider's authorization page.
func (s *Server) handleOAuthConnect(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	cfg, ok := s.providers[provider]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown provider"})
		return
	}

	athleteID, err := uuid.Parse(r.URL.Query().Get("athlete"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "athlete parameter required"})
		return
	}

	state := s.states.Issue(provider, athleteID)

	q := url.Values{
		"response_type": {"code"},
		"client_id":     {cfg.ClientID},
		"redirect_uri":  {cfg.RedirectURL},
		"state":         {state},
	}
	if cfg.Scopes != "" {
		q.Set("scope", cfg.Scopes)
	}

	http.Redirect(w, r, cfg.AuthURL+"?"+q.Encode(), http.StatusFound)
}

// handleOAuthCallback redeems the state (exactly once), exchanges the code,
// and kicks off the pending-push sweep for the athlete. A replayed or
// expired state fails; it is never retried.
func (s *Server) handleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")

	if errMsg := r.URL.Query().Get("error"); errMsg != "" {
		s.log.Warn("oauth callback denied", "provider", provider, "error", errMsg)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "authorization denied: " + errMsg})
		return
	}

	state := r.URL.Query().Get("state")
	code := r.URL.Query().Get("code")
	if state == "" || code == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "state and code parameters required"})
		return
	}

	stateProvider, athleteID, ok := s.states.Consume(state)
	if !ok || stateProvider != provider {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid or expired state"})
		return
	}

	if err := s.exchanger.ExchangeCode(r.Context(), provider, code, athleteID); err != nil {
		s.log.Error("code exchange failed", "provider", provider, "athlete", athleteID, "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "token exchange failed"})
		return
	}

	// Sweep sessions that were waiting on a device. The callback response
	// does not wait for the exports.
	go s.orch.PushPending(athleteID, provider)

	writeJSON(w, http.StatusOK, map[string]string{
		"provider": provider,
		"status":   "connected",
	})
}
