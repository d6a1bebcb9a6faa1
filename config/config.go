// Package config loads settings for the relay and the sync client from an
// optional YAML file overlaid with PRISM_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"prism-sync/internal/consts"
)

// Auth configures how the relay verifies bearer tokens.
type Auth struct {
	Domain     string `mapstructure:"domain"`
	Audience   string `mapstructure:"audience"`
	TestSecret string `mapstructure:"test_secret"`
	Anonymous  bool   `mapstructure:"anonymous"`
}

// Config is shared by both binaries; each validates the part it needs.
type Config struct {
	APIBaseURL string        `mapstructure:"api_url"`
	RelayURL   string        `mapstructure:"relay_url"`
	Token      string        `mapstructure:"token"`
	AlertDelay time.Duration `mapstructure:"alert_delay"`
	RelayAddr  string        `mapstructure:"relay_addr"`
	RedisURL   string        `mapstructure:"redis_url"`
	Auth       Auth          `mapstructure:"auth"`
	Debug      bool          `mapstructure:"debug"`
}

var (
	ErrMissingAPIURL = errors.New("missing api_url")
	ErrMissingAuth   = errors.New("missing relay auth config")
)

// Load reads path when it is not empty, then applies environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("PRISM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("api_url", "")
	v.SetDefault("relay_url", "")
	v.SetDefault("token", "")
	v.SetDefault("alert_delay", consts.DefaultAlertDelay)
	v.SetDefault("relay_addr", consts.DefaultRelayAddr)
	v.SetDefault("redis_url", "")
	v.SetDefault("auth.domain", "")
	v.SetDefault("auth.audience", "")
	v.SetDefault("auth.test_secret", "")
	v.SetDefault("auth.anonymous", false)
	v.SetDefault("debug", false)
	if err := v.BindEnv("debug", "PRISM_DEBUG", "DEBUG"); err != nil {
		return nil, err
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")
	return &cfg, nil
}

// ValidateClient checks the settings the sync client needs.
func (c *Config) ValidateClient() error {
	if c.APIBaseURL == "" {
		return ErrMissingAPIURL
	}
	if c.AlertDelay <= 0 {
		return fmt.Errorf("invalid alert_delay %s: must be greater than zero", c.AlertDelay)
	}
	return nil
}

// ValidateRelay checks the settings the relay needs.
func (c *Config) ValidateRelay() error {
	if c.RelayAddr == "" {
		return errors.New("missing relay_addr")
	}
	if c.Auth.Anonymous || c.Auth.TestSecret != "" {
		return nil
	}
	if c.Auth.Domain == "" || c.Auth.Audience == "" {
		return ErrMissingAuth
	}
	return nil
}

// JWKSURL is the key set endpoint of the configured identity provider.
func (a Auth) JWKSURL() string {
	return fmt.Sprintf("https://%s/.well-known/jwks.json", a.Domain)
}

// Issuer is the expected token issuer.
func (a Auth) Issuer() string {
	return "https://" + a.Domain + "/"
}
