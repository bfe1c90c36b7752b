package models

import (
	"time"

	"github.com/google/uuid"
)

// ConnectionStatus is the lifecycle state of a device connection.
type ConnectionStatus string

const (
	ConnectionConnected ConnectionStatus = "CONNECTED"
	ConnectionExpired   ConnectionStatus = "EXPIRED"
	ConnectionRevoked   ConnectionStatus = "REVOKED"
	ConnectionError     ConnectionStatus = "ERROR"
)

// DeviceConnection links one athlete to one provider. Token columns hold the
// AES-256-GCM envelope (hex iv:tag:ciphertext), never plaintext. At most one
// connection per athlete has IsPrimary set; the orchestrator enforces that,
// not the database.
type DeviceConnection struct {
	ID           uuid.UUID        `json:"id"`
	AthleteID    uuid.UUID        `json:"athlete_id"`
	Provider     string           `json:"provider"`
	AccessToken  string           `json:"-"`
	RefreshToken string           `json:"-"`
	ExpiresAt    time.Time        `json:"expires_at"`
	Status       ConnectionStatus `json:"status"`
	IsPrimary    bool             `json:"is_primary"`
	ConnectedAt  time.Time        `json:"connected_at"`
}

// Athlete is the roster entry a connection and its sessions belong to.
// Roster management lives elsewhere; this service only resolves IDs.
type Athlete struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}
