package models

import (
	"time"

	"github.com/google/uuid"
)

// SessionType classifies a training session. Only ENDURANCE sessions carry a
// prescription and are exportable.
type SessionType string

const (
	SessionEndurance SessionType = "ENDURANCE"
	SessionStrength  SessionType = "STRENGTH"
)

// ExportStatus is the persisted delivery state of a session's workout.
type ExportStatus string

const (
	ExportNotConnected ExportStatus = "NOT_CONNECTED"
	ExportPending      ExportStatus = "PENDING"
	ExportSent         ExportStatus = "SENT"
	ExportFailed       ExportStatus = "FAILED"
)

// TrainingSession is a scheduled session on an athlete's plan. The plan
// editor owns everything except the export fields, which the export
// orchestrator writes.
type TrainingSession struct {
	ID           uuid.UUID     `json:"id"`
	AthleteID    uuid.UUID     `json:"athlete_id"`
	Type         SessionType   `json:"type"`
	Title        string        `json:"title"`
	ScheduledFor time.Time     `json:"scheduled_for"`
	Prescription *Prescription `json:"prescription,omitempty"`

	ExportStatus      ExportStatus `json:"export_status"`
	ExportProvider    *string      `json:"export_provider,omitempty"`
	ExportedAt        *time.Time   `json:"exported_at,omitempty"`
	ExternalWorkoutID *string      `json:"external_workout_id,omitempty"`
	LastExportError   *string      `json:"last_export_error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ExportState is the writable slice of a session's export fields. The
// orchestrator is the only writer.
type ExportState struct {
	Status            ExportStatus `json:"export_status"`
	Provider          *string      `json:"export_provider,omitempty"`
	ExportedAt        *time.Time   `json:"exported_at,omitempty"`
	ExternalWorkoutID *string      `json:"external_workout_id,omitempty"`
	LastError         *string      `json:"last_export_error,omitempty"`
}
