package mcp

import (
	"context"

	"github.com/google/uuid"
	"github.com/meltforce/paceline/internal/models"
)

// DataSource abstracts the data layer for MCP tools. *storage.DB satisfies
// it; tests use fakes.
type DataSource interface {
	GetSession(ctx context.Context, id uuid.UUID) (*models.TrainingSession, error)
	ListSessions(ctx context.Context, athleteID uuid.UUID) ([]models.TrainingSession, error)
	ListConnections(ctx context.Context, athleteID uuid.UUID) ([]models.DeviceConnection, error)
}

// Exporter is the slice of the orchestrator the export tool drives.
type Exporter interface {
	SelectProvider(ctx context.Context, athleteID uuid.UUID) (string, error)
	ExportWorkout(ctx context.Context, sessionID, athleteID uuid.UUID, provider string) (*models.ExportState, error)
}
