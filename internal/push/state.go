package push

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/meltforce/paceline/internal/models"
	_ "modernc.org/sqlite"
)

// StateDB tracks which sessions have been successfully exported so repeated
// sweeps only re-send sessions whose prescription changed.
type StateDB struct {
	db *sql.DB
}

// OpenStateDB opens (or creates) the SQLite state database at dir/state.db.
func OpenStateDB(dir string) (*StateDB, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state dir %s: %w", dir, err)
	}

	dbPath := filepath.Join(dir, "state.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening state db: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS exported_sessions (
		session_id  TEXT PRIMARY KEY,
		fingerprint TEXT NOT NULL,
		provider    TEXT NOT NULL DEFAULT '',
		exported_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating state table: %w", err)
	}

	return &StateDB{db: db}, nil
}

// IsExported checks if a session was already pushed with the same
// prescription fingerprint.
func (s *StateDB) IsExported(sessionID, fingerprint string) (bool, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM exported_sessions WHERE session_id = ? AND fingerprint = ?`,
		sessionID, fingerprint,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// MarkExported records that a session's current prescription went out.
func (s *StateDB) MarkExported(sessionID, fingerprint, provider string) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO exported_sessions (session_id, fingerprint, provider) VALUES (?, ?, ?)`,
		sessionID, fingerprint, provider,
	)
	return err
}

// Close closes the state database.
func (s *StateDB) Close() error {
	return s.db.Close()
}

// Fingerprint computes a stable SHA-256 digest of a prescription. An empty
// prescription fingerprints to the empty string.
func Fingerprint(p *models.Prescription) string {
	if p == nil {
		return ""
	}
	data, err := json.Marshal(p)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
