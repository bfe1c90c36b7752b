package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/meltforce/paceline/internal/models"
)

// GetAthlete retrieves a roster entry. Returns nil, nil when the athlete is
// unknown.
func (db *DB) GetAthlete(ctx context.Context, id uuid.UUID) (*models.Athlete, error) {
	var a models.Athlete
	err := db.Pool.QueryRow(ctx,
		`SELECT id, name, email, created_at FROM athletes WHERE id = $1`,
		id).Scan(&a.ID, &a.Name, &a.Email, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying athlete: %w", err)
	}
	return &a, nil
}

// GetOrCreateAthlete finds or creates an athlete by email. Roster management
// proper lives in the coaching app; this keeps the export service usable on
// its own.
func (db *DB) GetOrCreateAthlete(ctx context.Context, email, name string) (uuid.UUID, error) {
	var id uuid.UUID
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO athletes (id, email, name)
		VALUES ($1, $2, $3)
		ON CONFLICT (email) DO UPDATE
			SET name = COALESCE(NULLIF($3, ''), athletes.name)
		RETURNING id
	`, uuid.New(), email, name).Scan(&id)
	return id, err
}
