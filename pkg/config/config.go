package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultDomain    = "amocrm.ru"
	DefaultUserAgent = "amoCRM-API-client/1.0"
	DefaultTimeout   = 30 * time.Second
)

type Config struct {
	Subdomain string
	Login     string
	APIKey    string

	// BaseURL replaces https://<subdomain>.amocrm.ru when set.
	BaseURL string

	// CookieFile enables cookie persistence across processes. Empty keeps cookies in memory.
	CookieFile string

	UserAgent string
	Timeout   time.Duration

	// Vendor-issued pair required by the call logging endpoint.
	CallsCode string
	CallsKey  string
}

func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	cfg := &Config{
		Subdomain:  os.Getenv("AMO_SUBDOMAIN"),
		Login:      os.Getenv("AMO_LOGIN"),
		APIKey:     os.Getenv("AMO_API_KEY"),
		BaseURL:    os.Getenv("AMO_BASE_URL"),
		CookieFile: os.Getenv("AMO_COOKIE_FILE"),
		UserAgent:  os.Getenv("AMO_USER_AGENT"),
		CallsCode:  os.Getenv("AMO_CALLS_CODE"),
		CallsKey:   os.Getenv("AMO_CALLS_KEY"),
	}

	if raw := os.Getenv("AMO_TIMEOUT"); raw != "" {
		timeout, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("AMO_TIMEOUT is not a valid duration: %w", err)
		}
		cfg.Timeout = timeout
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Subdomain == "" && c.BaseURL == "" {
		return fmt.Errorf("AMO_SUBDOMAIN is required")
	}
	if c.Login == "" {
		return fmt.Errorf("AMO_LOGIN is required")
	}
	if c.APIKey == "" {
		return fmt.Errorf("AMO_API_KEY is required")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("AMO_TIMEOUT must not be negative")
	}
	return nil
}

// Host returns the account root URL without a trailing slash.
func (c *Config) Host() string {
	if c.BaseURL != "" {
		return strings.TrimSuffix(c.BaseURL, "/")
	}
	return fmt.Sprintf("https://%s.%s", c.Subdomain, DefaultDomain)
}

// RequestTimeout returns the configured timeout or the 30 second default.
func (c *Config) RequestTimeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return DefaultTimeout
}

func (c *Config) Agent() string {
	if c.UserAgent != "" {
		return c.UserAgent
	}
	return DefaultUserAgent
}
