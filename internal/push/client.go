// Package push implements the operator CLI that sweeps un-exported
// endurance sessions through the server's export API, with a local state DB
// so repeated runs do not re-send unchanged workouts.
package push

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/paceline/internal/models"
)

// Client talks to the Paceline server's REST API.
type Client struct {
	serverURL  string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new HTTP client for the Paceline server.
func NewClient(serverURL, apiKey string) *Client {
	return &Client{
		serverURL: strings.TrimRight(serverURL, "/"),
		apiKey:    apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// ListSessions retrieves an athlete's endurance sessions with their export
// state.
func (c *Client) ListSessions(athleteID uuid.UUID) ([]models.TrainingSession, error) {
	resp, err := c.httpClient.Get(c.serverURL + "/api/v1/sessions?athlete=" + athleteID.String())
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("session list failed (status %d): %s", resp.StatusCode, body)
	}

	var sessions []models.TrainingSession
	if err := json.NewDecoder(resp.Body).Decode(&sessions); err != nil {
		return nil, fmt.Errorf("decoding sessions: %w", err)
	}
	return sessions, nil
}

// Export triggers an export for one session and returns the resulting
// state. Retries up to 3 times with exponential backoff on transport-level
// failure; a definite server answer (2xx or 4xx) is never retried.
func (c *Client) Export(sessionID, athleteID uuid.UUID) (*models.ExportState, error) {
	body, err := json.Marshal(map[string]string{"athlete_id": athleteID.String()})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/api/v1/sessions/%s/export", c.serverURL, sessionID)

	var lastErr error
	for attempt := range 3 {
		if attempt > 0 {
			time.Sleep(time.Duration(1<<uint(attempt-1)) * time.Second)
		}

		req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-API-Key", c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		raw, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode == http.StatusOK {
			var state models.ExportState
			if err := json.Unmarshal(raw, &state); err != nil {
				return nil, fmt.Errorf("decoding export state: %w", err)
			}
			return &state, nil
		}
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return nil, fmt.Errorf("export rejected (status %d): %s", resp.StatusCode, raw)
		}
		lastErr = fmt.Errorf("export failed (status %d): %s", resp.StatusCode, raw)
	}

	return nil, fmt.Errorf("after 3 attempts: %w", lastErr)
}
