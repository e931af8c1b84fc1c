package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/alexjbarnes/esi-proxy/internal/logging"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	// keySecretMinLen is the minimum length of KEY_SECRET.
	keySecretMinLen = 32
)

// Config holds all environment-based configuration for esi-proxy.
type Config struct {
	// Environment controls log format
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	ListenAddr string `env:"LISTEN_ADDR" envDefault:":8080"`

	// Upstream ESI. Always reached over HTTPS on 443.
	UpstreamHost    string        `env:"ESI_UPSTREAM_HOST" envDefault:"esi.evetech.net"`
	UpstreamTimeout time.Duration `env:"UPSTREAM_TIMEOUT" envDefault:"30s"`

	// TrustStore is a PEM bundle or PKCS#12 file with extra root CAs for
	// the upstream connection.
	TrustStore         string `env:"TRUST_STORE"`
	TrustStorePassword string `env:"TRUST_STORE_PASSWORD"`

	// Externally visible address advertised in rewritten swagger documents.
	ProxyHost string `env:"PROXY_HOST" envDefault:"localhost"`
	ProxyPort int    `env:"PROXY_PORT" envDefault:"8080"`

	// Query parameter names carrying the proxy credential.
	KeyName  string `env:"PROXY_KEY_NAME" envDefault:"esiProxyKey"`
	HashName string `env:"PROXY_HASH_NAME" envDefault:"esiProxyHash"`

	// AppName prefixes every route and the rewritten basePath when set.
	AppName string `env:"APP_NAME"`
	// AppPath is the external URL of the UI; login redirects land here.
	AppPath string `env:"APP_PATH" envDefault:"http://localhost/esi-proxy"`

	ExpiryWindow      time.Duration `env:"EXPIRY_WINDOW" envDefault:"3m"`
	TempStateLifetime time.Duration `env:"TEMP_STATE_LIFETIME" envDefault:"10m"`
	TempStateSweep    time.Duration `env:"TEMP_STATE_SWEEP" envDefault:"5m"`

	KeyLimit             int    `env:"KEY_LIMIT" envDefault:"100"`
	RestrictLoginToAdmin bool   `env:"RESTRICT_LOGIN_TO_ADMIN" envDefault:"false"`
	AdminCharacters      string `env:"ADMIN_CHARACTERS"`

	// KeySecret is the root secret for access key hashes and cookies.
	KeySecret string `env:"KEY_SECRET"`

	// StateDB is the bbolt database path. Defaults to ~/.esi-proxy/state.db.
	StateDB string `env:"STATE_DB"`

	// EVE SSO application (required unless debug mode is on)
	EveClientID  string `env:"EVE_CLIENT_ID"`
	EveSecretKey string `env:"EVE_SECRET_KEY"`
	EveAuthURL   string `env:"EVE_AUTH_URL" envDefault:"https://login.eveonline.com/v2/oauth/authorize"`
	EveTokenURL  string `env:"EVE_TOKEN_URL" envDefault:"https://login.eveonline.com/v2/oauth/token"`
	EveVerifyURL string `env:"EVE_VERIFY_URL" envDefault:"https://login.eveonline.com/oauth/verify"`

	// Debug mode skips SSO entirely.
	EveDebugMode bool   `env:"EVE_DEBUG_MODE" envDefault:"false"`
	EveDebugUser string `env:"EVE_DEBUG_USER" envDefault:"eveuser"`
}

// warnInsecureEnvFile checks whether the .env file (if present) has
// overly permissive permissions. On Unix systems, group or world
// readable files risk exposing KEY_SECRET to other users.
func warnInsecureEnvFile() {
	if runtime.GOOS == "windows" {
		return
	}

	info, err := os.Stat(".env")
	if err != nil {
		return // file does not exist, nothing to check
	}

	mode := info.Mode().Perm()
	if mode&0o077 != 0 {
		log.Printf("WARNING: .env file has insecure permissions %04o; recommended 0600", mode)
	}
}

// Load reads configuration from environment variables.
// It first attempts to load a .env file if present, then parses env vars.
func Load() (*Config, error) {
	_ = godotenv.Load()

	warnInsecureEnvFile()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.AppName = strings.Trim(cfg.AppName, "/")
	cfg.AppPath = strings.TrimRight(cfg.AppPath, "/")

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	if cfg.StateDB != "" {
		abs, err := filepath.Abs(cfg.StateDB)
		if err != nil {
			return nil, fmt.Errorf("resolving state db path: %w", err)
		}

		cfg.StateDB = abs
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if _, ok := logging.ParseLevel(c.LogLevel); !ok {
		return fmt.Errorf("LOG_LEVEL %q is not one of debug, info, warn, error", c.LogLevel)
	}

	if c.UpstreamHost == "" {
		return fmt.Errorf("ESI_UPSTREAM_HOST must not be empty")
	}

	if c.ProxyPort < 1 || c.ProxyPort > 65535 {
		return fmt.Errorf("PROXY_PORT %d out of range", c.ProxyPort)
	}

	if c.KeyName == "" || c.HashName == "" {
		return fmt.Errorf("PROXY_KEY_NAME and PROXY_HASH_NAME must not be empty")
	}

	if c.KeyName == c.HashName {
		return fmt.Errorf("PROXY_KEY_NAME and PROXY_HASH_NAME must differ")
	}

	for name, d := range map[string]time.Duration{
		"UPSTREAM_TIMEOUT":    c.UpstreamTimeout,
		"EXPIRY_WINDOW":       c.ExpiryWindow,
		"TEMP_STATE_LIFETIME": c.TempStateLifetime,
		"TEMP_STATE_SWEEP":    c.TempStateSweep,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}

	if c.KeyLimit < 1 {
		return fmt.Errorf("KEY_LIMIT must be at least 1")
	}

	if len(c.KeySecret) < keySecretMinLen {
		return fmt.Errorf("KEY_SECRET is required and must be at least %d characters", keySecretMinLen)
	}

	if c.TrustStorePassword != "" && c.TrustStore == "" {
		return fmt.Errorf("TRUST_STORE_PASSWORD set without TRUST_STORE")
	}

	if !c.EveDebugMode {
		if c.EveClientID == "" || c.EveSecretKey == "" {
			return fmt.Errorf("EVE_CLIENT_ID and EVE_SECRET_KEY are required unless EVE_DEBUG_MODE is set")
		}
	} else if c.EveDebugUser == "" {
		return fmt.Errorf("EVE_DEBUG_USER must not be empty in debug mode")
	}

	return nil
}

// IsProduction returns true when the environment is set to production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Admins returns the character names listed in ADMIN_CHARACTERS.
func (c *Config) Admins() []string {
	var names []string

	for _, n := range strings.Split(c.AdminCharacters, ",") {
		n = strings.TrimSpace(n)
		if n != "" {
			names = append(names, n)
		}
	}

	return names
}

// IsAdmin reports whether name is listed in ADMIN_CHARACTERS.
func (c *Config) IsAdmin(name string) bool {
	return slices.Contains(c.Admins(), name)
}

// StatePath returns the configured database path or the default
// ~/.esi-proxy/state.db.
func (c *Config) StatePath() (string, error) {
	if c.StateDB != "" {
		return c.StateDB, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("determining home directory: %w", err)
	}

	return filepath.Join(home, ".esi-proxy", "state.db"), nil
}

// RoutePrefix returns "/<AppName>" or "" when no application name is set.
func (c *Config) RoutePrefix() string {
	if c.AppName == "" {
		return ""
	}

	return "/" + c.AppName
}
