package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/meltforce/paceline/internal/models"
)

const connectionColumns = `id, athlete_id, provider, access_token, refresh_token,
	 expires_at, status, is_primary, connected_at`

// GetConnection retrieves the (athlete, provider) connection. Returns
// nil, nil when none exists.
func (db *DB) GetConnection(ctx context.Context, athleteID uuid.UUID, provider string) (*models.DeviceConnection, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT `+connectionColumns+` FROM device_connections
		 WHERE athlete_id = $1 AND provider = $2`,
		athleteID, provider)

	c, err := scanConnection(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying connection: %w", err)
	}
	return c, nil
}

// ListConnections retrieves all of an athlete's connections, most recently
// connected first.
func (db *DB) ListConnections(ctx context.Context, athleteID uuid.UUID) ([]models.DeviceConnection, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+connectionColumns+` FROM device_connections
		 WHERE athlete_id = $1
		 ORDER BY connected_at DESC`,
		athleteID)
	if err != nil {
		return nil, fmt.Errorf("querying connections: %w", err)
	}
	defer rows.Close()

	var result []models.DeviceConnection
	for rows.Next() {
		c, err := scanConnection(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning connection: %w", err)
		}
		result = append(result, *c)
	}
	return result, rows.Err()
}

// UpsertConnection inserts or replaces the (athlete, provider) connection.
func (db *DB) UpsertConnection(ctx context.Context, c *models.DeviceConnection) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO device_connections
		 (id, athlete_id, provider, access_token, refresh_token, expires_at, status, is_primary, connected_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (athlete_id, provider) DO UPDATE SET
		   access_token = EXCLUDED.access_token,
		   refresh_token = EXCLUDED.refresh_token,
		   expires_at = EXCLUDED.expires_at,
		   status = EXCLUDED.status,
		   connected_at = EXCLUDED.connected_at`,
		c.ID, c.AthleteID, c.Provider, c.AccessToken, c.RefreshToken,
		c.ExpiresAt, c.Status, c.IsPrimary, c.ConnectedAt)
	if err != nil {
		return fmt.Errorf("upserting connection: %w", err)
	}
	return nil
}

// SetConnectionStatus updates just the status of the (athlete, provider)
// connection.
func (db *DB) SetConnectionStatus(ctx context.Context, athleteID uuid.UUID, provider string, status models.ConnectionStatus) error {
	_, err := db.Pool.Exec(ctx,
		`UPDATE device_connections SET status = $3
		 WHERE athlete_id = $1 AND provider = $2`,
		athleteID, provider, status)
	if err != nil {
		return fmt.Errorf("updating connection status: %w", err)
	}
	return nil
}

// SetPrimaryConnection marks one provider as the athlete's primary
// connection and clears the flag everywhere else, in one transaction. This
// is how the one-primary-per-athlete invariant is maintained.
func (db *DB) SetPrimaryConnection(ctx context.Context, athleteID uuid.UUID, provider string) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`UPDATE device_connections SET is_primary = FALSE WHERE athlete_id = $1`,
		athleteID); err != nil {
		return fmt.Errorf("clearing primary flags: %w", err)
	}

	tag, err := tx.Exec(ctx,
		`UPDATE device_connections SET is_primary = TRUE
		 WHERE athlete_id = $1 AND provider = $2`,
		athleteID, provider)
	if err != nil {
		return fmt.Errorf("setting primary flag: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("no %s connection for athlete %s", provider, athleteID)
	}

	return tx.Commit(ctx)
}

func scanConnection(row pgx.Row) (*models.DeviceConnection, error) {
	var c models.DeviceConnection
	if err := row.Scan(&c.ID, &c.AthleteID, &c.Provider, &c.AccessToken, &c.RefreshToken,
		&c.ExpiresAt, &c.Status, &c.IsPrimary, &c.ConnectedAt); err != nil {
		return nil, err
	}
	return &c, nil
}
