package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/meltforce/paceline/internal/models"
)

const sessionColumns = `id, athlete_id, session_type, title, scheduled_for, prescription,
	 export_status, export_provider, exported_at, external_workout_id, last_export_error,
	 created_at, updated_at`

// GetSession retrieves one training session. Returns nil, nil when the
// session does not exist.
func (db *DB) GetSession(ctx context.Context, id uuid.UUID) (*models.TrainingSession, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM training_sessions WHERE id = $1`, id)

	s, err := scanSession(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying session: %w", err)
	}
	return s, nil
}

// ListSessions retrieves an athlete's endurance sessions, newest first.
func (db *DB) ListSessions(ctx context.Context, athleteID uuid.UUID) ([]models.TrainingSession, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+sessionColumns+` FROM training_sessions
		 WHERE athlete_id = $1 AND session_type = $2
		 ORDER BY scheduled_for DESC`,
		athleteID, models.SessionEndurance)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	return scanSessions(rows)
}

// ListUnconnectedEndurance retrieves the athlete's endurance sessions still
// in NOT_CONNECTED, oldest scheduled first. This is the reconnect sweep's
// worklist.
func (db *DB) ListUnconnectedEndurance(ctx context.Context, athleteID uuid.UUID) ([]models.TrainingSession, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+sessionColumns+` FROM training_sessions
		 WHERE athlete_id = $1 AND session_type = $2 AND export_status = $3
		 ORDER BY scheduled_for ASC`,
		athleteID, models.SessionEndurance, models.ExportNotConnected)
	if err != nil {
		return nil, fmt.Errorf("querying unconnected sessions: %w", err)
	}
	defer rows.Close()

	return scanSessions(rows)
}

// UpdateExportState overwrites the session's export fields. Fields absent
// from the state (nil) are cleared, not preserved: every transition writes
// the full export slice.
func (db *DB) UpdateExportState(ctx context.Context, sessionID uuid.UUID, state models.ExportState) error {
	tag, err := db.Pool.Exec(ctx,
		`UPDATE training_sessions
		 SET export_status = $2, export_provider = $3, exported_at = $4,
		     external_workout_id = $5, last_export_error = $6, updated_at = NOW()
		 WHERE id = $1`,
		sessionID, state.Status, state.Provider, state.ExportedAt,
		state.ExternalWorkoutID, state.LastError)
	if err != nil {
		return fmt.Errorf("updating export state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("updating export state: session %s not found", sessionID)
	}
	return nil
}

// CreateSession inserts a training session. The plan editor owns session
// creation in production; this backs the -seed bootstrap.
func (db *DB) CreateSession(ctx context.Context, s *models.TrainingSession) error {
	var prescription []byte
	if s.Prescription != nil {
		var err error
		prescription, err = json.Marshal(s.Prescription)
		if err != nil {
			return fmt.Errorf("marshaling prescription: %w", err)
		}
	}

	_, err := db.Pool.Exec(ctx,
		`INSERT INTO training_sessions
		 (id, athlete_id, session_type, title, scheduled_for, prescription, export_status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		s.ID, s.AthleteID, s.Type, s.Title, s.ScheduledFor, prescription, s.ExportStatus)
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}
	return nil
}

func scanSession(row pgx.Row) (*models.TrainingSession, error) {
	var s models.TrainingSession
	var prescription []byte
	if err := row.Scan(&s.ID, &s.AthleteID, &s.Type, &s.Title, &s.ScheduledFor, &prescription,
		&s.ExportStatus, &s.ExportProvider, &s.ExportedAt, &s.ExternalWorkoutID, &s.LastExportError,
		&s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	if len(prescription) > 0 {
		s.Prescription = &models.Prescription{}
		if err := json.Unmarshal(prescription, s.Prescription); err != nil {
			return nil, fmt.Errorf("unmarshaling prescription: %w", err)
		}
	}
	return &s, nil
}

func scanSessions(rows pgx.Rows) ([]models.TrainingSession, error) {
	var result []models.TrainingSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		result = append(result, *s)
	}
	return result, rows.Err()
}
