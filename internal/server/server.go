// Package server exposes the export pipeline over HTTP: export triggers,
// normalized-workout previews, connection management, and the OAuth
// connect/callback handshake.
package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/meltforce/paceline/internal/config"
	"github.com/meltforce/paceline/internal/export"
	"github.com/meltforce/paceline/internal/models"
	"github.com/meltforce/paceline/internal/vault"
)

// Store is the slice of the storage layer the handlers read directly.
// *storage.DB satisfies it; tests use fakes.
type Store interface {
	GetAthlete(ctx context.Context, id uuid.UUID) (*models.Athlete, error)
	GetSession(ctx context.Context, id uuid.UUID) (*models.TrainingSession, error)
	ListSessions(ctx context.Context, athleteID uuid.UUID) ([]models.TrainingSession, error)
	ListConnections(ctx context.Context, athleteID uuid.UUID) ([]models.DeviceConnection, error)
	SetPrimaryConnection(ctx context.Context, athleteID uuid.UUID, provider string) error
}

// CodeExchanger is the vault operation the OAuth callback needs.
type CodeExchanger interface {
	ExchangeCode(ctx context.Context, provider, code string, athleteID uuid.UUID) error
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store     Store
	orch      *export.Orchestrator
	exchanger CodeExchanger
	states    *vault.StateStore
	providers map[string]config.ProviderConfig
	log       *slog.Logger
	apiKey    string
	router    chi.Router
}

// New creates a new Server with all routes configured.
func New(store Store, orch *export.Orchestrator, exchanger CodeExchanger, states *vault.StateStore, providers map[string]config.ProviderConfig, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		store:     store,
		orch:      orch,
		exchanger: exchanger,
		states:    states,
		providers: providers,
		log:       log,
		apiKey:    apiKey,
		router:    chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	// Export and connection management (API key required)
	s.router.Group(func(r chi.Router) {
		r.Use(APIKeyAuth(s.apiKey))
		r.Post("/api/v1/sessions/{id}/export", s.handleExport)
		r.Post("/api/v1/athletes/{id}/connections/{provider}/primary", s.handleSetPrimary)
	})

	// Read paths for the coaching clients and the push CLI
	s.router.Get("/api/v1/sessions", s.handleListSessions)
	s.router.Get("/api/v1/sessions/{id}/preview", s.handlePreview)
	s.router.Get("/api/v1/athletes/{id}/connections", s.handleListConnections)

	// OAuth handshake (browser-driven; the state token is the credential)
	s.router.Get("/api/v1/oauth/{provider}/connect", s.handleOAuthConnect)
	s.router.Get("/api/v1/oauth/{provider}/callback", s.handleOAuthCallback)
}
