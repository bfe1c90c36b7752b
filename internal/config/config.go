package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig              `yaml:"server"`
	Database  DatabaseConfig            `yaml:"database"`
	Auth      AuthConfig                `yaml:"auth"`
	Tailscale TailscaleConfig           `yaml:"tailscale"`
	Providers map[string]ProviderConfig `yaml:"providers"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

// ProviderConfig holds the OAuth application and API settings for one
// fitness-device platform.
type ProviderConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	AuthURL      string `yaml:"auth_url"`
	TokenURL     string `yaml:"token_url"`
	APIBase      string `yaml:"api_base"`
	RedirectURL  string `yaml:"redirect_url"`
	Scopes       string `yaml:"scopes"`
	// EncryptionKey is the hex-encoded 32-byte key tokens for this provider
	// are sealed under.
	EncryptionKey string `yaml:"encryption_key"`
	// MockExchange short-circuits the code/refresh exchanges with fabricated
	// tokens. Development only.
	MockExchange bool `yaml:"mock_exchange"`
}

// Key decodes the provider's token encryption key.
func (p ProviderConfig) Key() ([]byte, error) {
	key, err := hex.DecodeString(p.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("decoding encryption key: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("encryption key must be 32 bytes, got %d", len(key))
	}
	return key, nil
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// Load reads config from a YAML file, then applies environment variable
// overrides. Env vars use the prefix PACELINE_ and underscore-separated
// paths:
//
//	PACELINE_SERVER_HOST, PACELINE_SERVER_PORT,
//	PACELINE_DB_HOST, PACELINE_DB_PORT, PACELINE_DB_NAME,
//	PACELINE_DB_USER, PACELINE_DB_PASSWORD, PACELINE_DB_SSLMODE,
//	PACELINE_AUTH_API_KEY
//
// Per-provider secrets can be injected as
// PACELINE_PROVIDER_<ID>_CLIENT_SECRET and
// PACELINE_PROVIDER_<ID>_ENCRYPTION_KEY.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PACELINE_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("PACELINE_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("PACELINE_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("PACELINE_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("PACELINE_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("PACELINE_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("PACELINE_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("PACELINE_DB_SSLMODE"); v != "" {
		cfg.Database.SSLMode = v
	}
	if v := os.Getenv("PACELINE_AUTH_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}

	for id, p := range cfg.Providers {
		prefix := "PACELINE_PROVIDER_" + strings.ToUpper(id) + "_"
		if v := os.Getenv(prefix + "CLIENT_SECRET"); v != "" {
			p.ClientSecret = v
		}
		if v := os.Getenv(prefix + "ENCRYPTION_KEY"); v != "" {
			p.EncryptionKey = v
		}
		cfg.Providers[id] = p
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 {
		return fmt.Errorf("server.port is required")
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if c.Database.Port == 0 {
		return fmt.Errorf("database.port is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database.name is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database.user is required")
	}
	if c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key is required")
	}
	if len(c.Providers) == 0 {
		return fmt.Errorf("at least one provider is required")
	}
	for id, p := range c.Providers {
		if p.TokenURL == "" && !p.MockExchange {
			return fmt.Errorf("providers.%s.token_url is required", id)
		}
		if _, err := p.Key(); err != nil {
			return fmt.Errorf("providers.%s.encryption_key: %w", id, err)
		}
	}
	return nil
}
