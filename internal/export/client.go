package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/meltforce/paceline/internal/config"
)

// Client performs the authenticated workout-creation call against provider
// APIs. One client serves all providers; the API base comes from each
// provider's configuration.
type Client struct {
	providers  map[string]config.ProviderConfig
	httpClient *http.Client
}

// NewClient creates a provider API client.
func NewClient(providers map[string]config.ProviderConfig) *Client {
	return &Client{
		providers: providers,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// createResponse is the minimal reply shape shared by the draft provider
// stubs.
type createResponse struct {
	ID        string `json:"id"`
	WorkoutID string `json:"workoutId"`
	Message   string `json:"message"`
	Error     string `json:"error"`
}

// CreateWorkout POSTs the payload to {apiBase}/workouts with a bearer token
// and returns the external workout ID. Non-2xx replies become
// *ProviderError; connection-level failures are returned wrapped and
// classified as transient by the orchestrator.
func (c *Client) CreateWorkout(ctx context.Context, provider, accessToken string, payload Payload) (string, error) {
	cfg, ok := c.providers[provider]
	if !ok {
		return "", fmt.Errorf("no API configuration for provider %s", provider)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshaling payload: %w", err)
	}

	url := strings.TrimRight(cfg.APIBase, "/") + "/workouts"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling %s workout API: %w", provider, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var parsed createResponse
		_ = json.Unmarshal(raw, &parsed)
		msg := parsed.Error
		if msg == "" {
			msg = parsed.Message
		}
		return "", &ProviderError{Provider: provider, StatusCode: resp.StatusCode, Message: msg}
	}

	var parsed createResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("decoding %s response: %w", provider, err)
	}
	id := parsed.ID
	if id == "" {
		id = parsed.WorkoutID
	}
	if id == "" {
		return "", fmt.Errorf("%s response contained no workout ID", provider)
	}
	return id, nil
}
