package vault

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/paceline/internal/config"
	"github.com/meltforce/paceline/internal/models"
)

// refreshBuffer is how close to expiry a stored access token is still
// handed out without refreshing first.
const refreshBuffer = 5 * time.Minute

// ErrRefreshFailed marks a refresh the provider rejected. The connection is
// flipped to EXPIRED before this is returned; only the athlete reconnecting
// resolves it.
var ErrRefreshFailed = errors.New("token refresh failed")

// ErrUnknownProvider marks a provider ID with no configuration.
var ErrUnknownProvider = errors.New("unknown provider")

// ConnectionStore is the slice of the storage layer the vault needs.
type ConnectionStore interface {
	GetConnection(ctx context.Context, athleteID uuid.UUID, provider string) (*models.DeviceConnection, error)
	UpsertConnection(ctx context.Context, conn *models.DeviceConnection) error
	SetConnectionStatus(ctx context.Context, athleteID uuid.UUID, provider string, status models.ConnectionStatus) error
}

// Vault encrypts OAuth credentials at rest and keeps access tokens fresh.
type Vault struct {
	providers  map[string]config.ProviderConfig
	conns      ConnectionStore
	httpClient *http.Client
	log        *slog.Logger
	now        func() time.Time
}

// New creates a Vault over the configured providers.
func New(providers map[string]config.ProviderConfig, conns ConnectionStore, log *slog.Logger) *Vault {
	return &Vault{
		providers:  providers,
		conns:      conns,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        log,
		now:        time.Now,
	}
}

// tokenResponse is the provider's token endpoint reply, for both the
// authorization-code and refresh-token grants.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// ExchangeCode swaps an authorization code for a token pair and stores it
// encrypted, upserting the (athlete, provider) connection.
func (v *Vault) ExchangeCode(ctx context.Context, provider, code string, athleteID uuid.UUID) error {
	cfg, ok := v.providers[provider]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
	}

	var tok tokenResponse
	if cfg.MockExchange {
		tok = mockTokens()
	} else {
		form := url.Values{
			"grant_type":    {"authorization_code"},
			"code":          {code},
			"client_id":     {cfg.ClientID},
			"client_secret": {cfg.ClientSecret},
			"redirect_uri":  {cfg.RedirectURL},
		}
		if err := v.postToken(ctx, cfg.TokenURL, form, &tok); err != nil {
			return fmt.Errorf("exchanging code with %s: %w", provider, err)
		}
	}

	conn, err := v.conns.GetConnection(ctx, athleteID, provider)
	if err != nil {
		return fmt.Errorf("loading connection: %w", err)
	}
	if conn == nil {
		conn = &models.DeviceConnection{
			ID:        uuid.New(),
			AthleteID: athleteID,
			Provider:  provider,
		}
	}

	if err := v.storeTokens(cfg, conn, tok); err != nil {
		return err
	}
	conn.Status = models.ConnectionConnected
	// Re-authorizing counts as a fresh connect; the most-recently-connected
	// tiebreak in provider selection depends on this.
	conn.ConnectedAt = v.now()

	if err := v.conns.UpsertConnection(ctx, conn); err != nil {
		return fmt.Errorf("storing connection: %w", err)
	}

	v.log.Info("device connected", "provider", provider, "athlete", athleteID)
	return nil
}

// AccessToken returns a usable access token for (athlete, provider), or ""
// when no connection exists. Tokens within the refresh buffer of expiry are
// refreshed first.
func (v *Vault) AccessToken(ctx context.Context, provider string, athleteID uuid.UUID) (string, error) {
	cfg, ok := v.providers[provider]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
	}

	conn, err := v.conns.GetConnection(ctx, athleteID, provider)
	if err != nil {
		return "", fmt.Errorf("loading connection: %w", err)
	}
	if conn == nil {
		return "", nil
	}

	if conn.ExpiresAt.After(v.now().Add(refreshBuffer)) {
		key, err := cfg.Key()
		if err != nil {
			return "", err
		}
		return Decrypt(key, conn.AccessToken)
	}

	return v.Refresh(ctx, provider, athleteID)
}

// Refresh exchanges the stored refresh token for a new pair, re-encrypts and
// stores it, and returns the new access token. A provider-side rejection
// flips the connection to EXPIRED and returns ErrRefreshFailed.
func (v *Vault) Refresh(ctx context.Context, provider string, athleteID uuid.UUID) (string, error) {
	cfg, ok := v.providers[provider]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
	}

	conn, err := v.conns.GetConnection(ctx, athleteID, provider)
	if err != nil {
		return "", fmt.Errorf("loading connection: %w", err)
	}
	if conn == nil {
		return "", fmt.Errorf("%w: no connection for %s", ErrRefreshFailed, provider)
	}

	key, err := cfg.Key()
	if err != nil {
		return "", err
	}
	refreshToken, err := Decrypt(key, conn.RefreshToken)
	if err != nil {
		return "", fmt.Errorf("decrypting refresh token: %w", err)
	}

	var tok tokenResponse
	if cfg.MockExchange {
		tok = mockTokens()
	} else {
		form := url.Values{
			"grant_type":    {"refresh_token"},
			"refresh_token": {refreshToken},
			"client_id":     {cfg.ClientID},
			"client_secret": {cfg.ClientSecret},
		}
		if err := v.postToken(ctx, cfg.TokenURL, form, &tok); err != nil {
			if stErr := v.conns.SetConnectionStatus(ctx, athleteID, provider, models.ConnectionExpired); stErr != nil {
				v.log.Error("marking connection expired", "provider", provider, "error", stErr)
			}
			v.log.Warn("token refresh rejected", "provider", provider, "athlete", athleteID, "error", err)
			return "", fmt.Errorf("%w: %s", ErrRefreshFailed, provider)
		}
	}

	// Some providers rotate refresh tokens, some don't. Keep the old one
	// when none is issued.
	if tok.RefreshToken == "" {
		tok.RefreshToken = refreshToken
	}

	if err := v.storeTokens(cfg, conn, tok); err != nil {
		return "", err
	}
	conn.Status = models.ConnectionConnected
	if err := v.conns.UpsertConnection(ctx, conn); err != nil {
		return "", fmt.Errorf("storing refreshed tokens: %w", err)
	}

	return tok.AccessToken, nil
}

func (v *Vault) storeTokens(cfg config.ProviderConfig, conn *models.DeviceConnection, tok tokenResponse) error {
	key, err := cfg.Key()
	if err != nil {
		return err
	}
	access, err := Encrypt(key, tok.AccessToken)
	if err != nil {
		return fmt.Errorf("encrypting access token: %w", err)
	}
	refresh, err := Encrypt(key, tok.RefreshToken)
	if err != nil {
		return fmt.Errorf("encrypting refresh token: %w", err)
	}

	conn.AccessToken = access
	conn.RefreshToken = refresh
	conn.ExpiresAt = v.now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	return nil
}

func (v *Vault) postToken(ctx context.Context, tokenURL string, form url.Values, out *tokenResponse) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("creating token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling token endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("token endpoint returned %d: %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding token response: %w", err)
	}
	if out.AccessToken == "" {
		return fmt.Errorf("token endpoint returned no access token")
	}
	return nil
}

func mockTokens() tokenResponse {
	return tokenResponse{
		AccessToken:  "mock-access-" + uuid.NewString(),
		RefreshToken: "mock-refresh-" + uuid.NewString(),
		ExpiresIn:    3600,
	}
}
