package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/paceline/internal/models"
	"github.com/meltforce/paceline/internal/vault"
	"github.com/meltforce/paceline/internal/workout"
)

// SessionStore is the slice of session storage the orchestrator reads and
// the export-state slice it exclusively writes.
type SessionStore interface {
	// GetSession returns nil, nil when the session does not exist.
	GetSession(ctx context.Context, id uuid.UUID) (*models.TrainingSession, error)
	ListUnconnectedEndurance(ctx context.Context, athleteID uuid.UUID) ([]models.TrainingSession, error)
	UpdateExportState(ctx context.Context, sessionID uuid.UUID, state models.ExportState) error
}

// ConnectionReader lists an athlete's device connections for provider
// selection.
type ConnectionReader interface {
	ListConnections(ctx context.Context, athleteID uuid.UUID) ([]models.DeviceConnection, error)
}

// TokenSource hands out usable access tokens. "" with a nil error means no
// connection exists.
type TokenSource interface {
	AccessToken(ctx context.Context, provider string, athleteID uuid.UUID) (string, error)
}

// WorkoutCreator performs the provider API call.
type WorkoutCreator interface {
	CreateWorkout(ctx context.Context, provider, accessToken string, payload Payload) (string, error)
}

// Orchestrator composes normalization, validation, payload building, token
// lookup, and the provider call into an idempotent per-session export, and
// owns every write to a session's export state.
type Orchestrator struct {
	sessions SessionStore
	conns    ConnectionReader
	tokens   TokenSource
	api      WorkoutCreator
	registry *Registry
	log      *slog.Logger
	now      func() time.Time
}

// NewOrchestrator wires an orchestrator.
func NewOrchestrator(sessions SessionStore, conns ConnectionReader, tokens TokenSource, api WorkoutCreator, registry *Registry, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		sessions: sessions,
		conns:    conns,
		tokens:   tokens,
		api:      api,
		registry: registry,
		log:      log,
		now:      time.Now,
	}
}

// SelectProvider picks the provider to export to for an athlete: the
// primary CONNECTED connection if one exists, else the most recently
// connected, else "".
func (o *Orchestrator) SelectProvider(ctx context.Context, athleteID uuid.UUID) (string, error) {
	conns, err := o.conns.ListConnections(ctx, athleteID)
	if err != nil {
		return "", fmt.Errorf("listing connections: %w", err)
	}

	var best *models.DeviceConnection
	for i := range conns {
		c := &conns[i]
		if c.Status != models.ConnectionConnected {
			continue
		}
		if c.IsPrimary {
			return c.Provider, nil
		}
		if best == nil || c.ConnectedAt.After(best.ConnectedAt) {
			best = c
		}
	}
	if best == nil {
		return "", nil
	}
	return best.Provider, nil
}

// ExportWorkout runs the full export of one session to one provider and
// persists the outcome. Each call re-runs the whole transition from the
// session's current state; concurrent calls for the same session race and
// the last state write wins.
func (o *Orchestrator) ExportWorkout(ctx context.Context, sessionID, athleteID uuid.UUID, provider string) (*models.ExportState, error) {
	session, err := o.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	if session.AthleteID != athleteID {
		return nil, ErrOwnershipMismatch
	}
	if session.Type != models.SessionEndurance {
		return nil, ErrNotExportable
	}

	// PENDING is visible to polling clients while the export runs.
	pending := models.ExportState{Status: models.ExportPending, Provider: &provider}
	if err := o.sessions.UpdateExportState(ctx, sessionID, pending); err != nil {
		return nil, fmt.Errorf("marking export pending: %w", err)
	}

	externalID, err := o.deliver(ctx, session, provider)
	if err != nil {
		msg := exportErrorMessage(provider, err)
		failed := models.ExportState{
			Status:    models.ExportFailed,
			Provider:  &provider,
			LastError: &msg,
		}
		if stErr := o.sessions.UpdateExportState(ctx, sessionID, failed); stErr != nil {
			o.log.Error("recording export failure", "session", sessionID, "error", stErr)
		}
		return &failed, err
	}

	exportedAt := o.now()
	sent := models.ExportState{
		Status:            models.ExportSent,
		Provider:          &provider,
		ExportedAt:        &exportedAt,
		ExternalWorkoutID: &externalID,
	}
	if err := o.sessions.UpdateExportState(ctx, sessionID, sent); err != nil {
		return nil, fmt.Errorf("recording export success: %w", err)
	}

	o.log.Info("workout exported",
		"session", sessionID,
		"athlete", athleteID,
		"provider", provider,
		"external_id", externalID,
	)
	return &sent, nil
}

// deliver is steps 3–4: normalize, validate, build, token, provider call.
func (o *Orchestrator) deliver(ctx context.Context, session *models.TrainingSession, provider string) (string, error) {
	if session.Prescription == nil {
		return "", &workout.ValidationError{Reason: "session has no workout prescription"}
	}

	normalized, err := workout.Normalize(session.Prescription)
	if err != nil {
		return "", err
	}
	if err := workout.Validate(normalized); err != nil {
		return "", err
	}

	builder, ok := o.registry.Builder(provider)
	if !ok {
		return "", fmt.Errorf("%w for provider %s", ErrNoExporter, provider)
	}
	payload := builder.Build(normalized)

	token, err := o.tokens.AccessToken(ctx, provider, session.AthleteID)
	if err != nil {
		return "", err
	}
	if token == "" {
		return "", ErrNotConnected
	}

	return o.api.CreateWorkout(ctx, provider, token, payload)
}

// AutoPush is the best-effort hook run whenever a coach saves an endurance
// session. It never reports failure to the caller; plan saves must not be
// blocked by export problems. Intended to be launched in its own goroutine.
func (o *Orchestrator) AutoPush(sessionID, athleteID uuid.UUID) {
	// Detached from the triggering request on purpose: the save has already
	// returned by the time this runs.
	ctx := context.Background()

	provider, err := o.SelectProvider(ctx, athleteID)
	if err != nil {
		o.log.Error("auto-push: provider selection failed", "session", sessionID, "error", err)
		return
	}
	if provider == "" {
		state := models.ExportState{Status: models.ExportNotConnected}
		if err := o.sessions.UpdateExportState(ctx, sessionID, state); err != nil {
			o.log.Error("auto-push: recording NOT_CONNECTED failed", "session", sessionID, "error", err)
		}
		return
	}

	if _, err := o.ExportWorkout(ctx, sessionID, athleteID, provider); err != nil {
		o.log.Warn("auto-push: export failed", "session", sessionID, "provider", provider, "error", err)
	}
}

// PushPending fires an export for every endurance session of the athlete
// still in NOT_CONNECTED. Run after the first successful device connection.
// Sessions are pushed independently; one failure does not stop the rest.
func (o *Orchestrator) PushPending(athleteID uuid.UUID, provider string) {
	ctx := context.Background()

	sessions, err := o.sessions.ListUnconnectedEndurance(ctx, athleteID)
	if err != nil {
		o.log.Error("pending push: listing sessions failed", "athlete", athleteID, "error", err)
		return
	}
	if len(sessions) == 0 {
		return
	}

	o.log.Info("pushing pending workouts", "athlete", athleteID, "provider", provider, "count", len(sessions))
	for _, s := range sessions {
		go func(sessionID uuid.UUID) {
			if _, err := o.ExportWorkout(context.Background(), sessionID, athleteID, provider); err != nil {
				o.log.Warn("pending push: export failed", "session", sessionID, "provider", provider, "error", err)
			}
		}(s.ID)
	}
}

// exportErrorMessage maps a failure to the string persisted on the session.
// Local, deterministic failures are recorded verbatim; network-level ones
// get a stable user-safe message (the raw error is logged, not persisted).
func exportErrorMessage(provider string, err error) string {
	var validationErr *workout.ValidationError
	var malformedErr *workout.MalformedTargetError
	var providerErr *ProviderError

	switch {
	case errors.As(err, &validationErr), errors.As(err, &malformedErr):
		return err.Error()
	case errors.Is(err, ErrNotConnected):
		return "no device connection available"
	case errors.Is(err, ErrNoExporter):
		return err.Error()
	case errors.As(err, &providerErr):
		if providerErr.CredentialProblem() {
			return fmt.Sprintf("%s no longer accepts this connection; please reconnect the device", provider)
		}
		return providerErr.Error()
	case errors.Is(err, vault.ErrRefreshFailed):
		return fmt.Sprintf("stored %s credentials have expired; please reconnect the device", provider)
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Sprintf("timed out reaching %s", provider)
	default:
		return fmt.Sprintf("could not reach %s; the workout will be retried on the next trigger", provider)
	}
}
