package export

import (
	"errors"
	"fmt"
)

// Sentinel failures of the export operation itself. Validation failures come
// from the workout package, refresh failures from the vault.
var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrOwnershipMismatch = errors.New("session belongs to a different athlete")
	ErrNotExportable     = errors.New("only endurance sessions can be exported")
	ErrNotConnected      = errors.New("no device connection available")
	ErrNoExporter        = errors.New("no exporter registered")
)

// ProviderError is a non-2xx reply from a provider's workout API. 401/403
// mean the credential is bad and the athlete should reconnect; 400 means the
// payload was rejected.
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s rejected the workout (status %d): %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s rejected the workout (status %d)", e.Provider, e.StatusCode)
}

// CredentialProblem reports whether the rejection points at the token rather
// than the payload.
func (e *ProviderError) CredentialProblem() bool {
	return e.StatusCode == 401 || e.StatusCode == 403
}
