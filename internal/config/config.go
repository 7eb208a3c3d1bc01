// Package config loads eddo-core's environment configuration using the
// same hand-rolled, prefix-aware EnvConfig pattern the rest of the stack
// uses, extended with a typed Config covering every variable the server
// core consumes.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvConfig reads environment variables under an optional prefix.
type EnvConfig struct {
	prefix string
}

// NewEnvConfig creates a loader; prefix may be empty.
func NewEnvConfig(prefix string) *EnvConfig {
	return &EnvConfig{prefix: prefix}
}

func (ec *EnvConfig) buildKey(key string) string {
	if ec.prefix != "" {
		return ec.prefix + "_" + key
	}
	return key
}

// GetString returns the env var's value or defaultValue if unset/empty.
func (ec *EnvConfig) GetString(key, defaultValue string) string {
	if v := os.Getenv(ec.buildKey(key)); v != "" {
		return v
	}
	return defaultValue
}

// MustGetString returns the env var's value or panics if unset.
func (ec *EnvConfig) MustGetString(key string) string {
	fullKey := ec.buildKey(key)
	v := os.Getenv(fullKey)
	if v == "" {
		panic(fmt.Sprintf("required environment variable %s not set", fullKey))
	}
	return v
}

// GetInt parses the env var as an int, or returns defaultValue.
func (ec *EnvConfig) GetInt(key string, defaultValue int) int {
	if v := os.Getenv(ec.buildKey(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultValue
}

// GetBool parses the env var as a bool, or returns defaultValue.
func (ec *EnvConfig) GetBool(key string, defaultValue bool) bool {
	if v := os.Getenv(ec.buildKey(key)); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultValue
}

// GetDuration parses the env var as a time.Duration, or returns defaultValue.
func (ec *EnvConfig) GetDuration(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(ec.buildKey(key)); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

// Config is the fully resolved configuration for both cmd/toolserver and
// cmd/scheduler.
type Config struct {
	NodeEnv            string // "production" or "test"
	DatabasePrefix     string
	DatabaseTestPrefix string
	CouchDBURL         string
	CouchDBName        string

	MCPServerURL  string
	MCPServerPort int
	BotPersonaID  string
	LLMModel      string

	Port       int
	CORSOrigin string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURI  string

	JWTSecret string

	LogLevel     string
	ForceConsole bool
	OTelDisabled bool

	EmailSyncInterval     time.Duration
	EmailSyncConcurrency  int
	EmailFetchTimeout     time.Duration
	EmailDefaultFolder    string
	EmailProcessedFolder  string
}

// Load resolves Config from the process environment, applying the same
// defaults the original environment-variable table (§6) specifies.
func Load() Config {
	env := NewEnvConfig("")
	return Config{
		NodeEnv:            env.GetString("NODE_ENV", "production"),
		DatabasePrefix:     env.GetString("DATABASE_PREFIX", "eddo"),
		DatabaseTestPrefix: env.GetString("DATABASE_TEST_PREFIX", "eddo_test"),
		CouchDBURL:         env.GetString("COUCHDB_URL", "http://localhost:5984"),
		CouchDBName:        env.GetString("COUCHDB_DB_NAME", "todos-dev"),

		MCPServerURL:  env.GetString("MCP_SERVER_URL", "http://localhost:3001"),
		MCPServerPort: env.GetInt("MCP_SERVER_PORT", 3001),
		BotPersonaID:  env.GetString("BOT_PERSONA_ID", ""),
		LLMModel:      env.GetString("LLM_MODEL", ""),

		Port:       env.GetInt("PORT", 3000),
		CORSOrigin: env.GetString("CORS_ORIGIN", "*"),

		GoogleClientID:     env.GetString("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: env.GetString("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURI:  env.GetString("GOOGLE_REDIRECT_URI", ""),

		JWTSecret: env.GetString("JWT_SECRET", ""),

		LogLevel:     env.GetString("LOG_LEVEL", "info"),
		ForceConsole: env.GetBool("FORCE_CONSOLE", false),
		OTelDisabled: env.GetBool("OTEL_SDK_DISABLED", false),

		EmailSyncInterval:    env.GetDuration("EMAIL_SYNC_INTERVAL", 15*time.Minute),
		EmailSyncConcurrency: env.GetInt("EMAIL_SYNC_CONCURRENCY", 8),
		EmailFetchTimeout:    env.GetDuration("EMAIL_FETCH_TIMEOUT", 30*time.Second),
		EmailDefaultFolder:   env.GetString("EMAIL_DEFAULT_FOLDER", "eddo"),
		EmailProcessedFolder: env.GetString("EMAIL_PROCESSED_FOLDER", "eddo-processed"),
	}
}

// IsTest reports whether NodeEnv selects the test database prefix.
func (c Config) IsTest() bool { return c.NodeEnv == "test" }

// Prefix returns the active database prefix for the configured environment.
func (c Config) Prefix() string {
	if c.IsTest() {
		return c.DatabaseTestPrefix
	}
	return c.DatabasePrefix
}

// LoadOptionalFile reads an optional YAML/JSON/TOML config file via viper
// and exports every key it finds into the process environment (uppercased,
// dots turned to underscores) so a subsequent Load() picks it up. path may
// be empty, in which case this is a no-op. Keys already set in the
// environment are left untouched — the file only fills gaps.
func LoadOptionalFile(path string) error {
	if path == "" {
		return nil
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	for _, key := range v.AllKeys() {
		envKey := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if os.Getenv(envKey) != "" {
			continue
		}
		if err := os.Setenv(envKey, v.GetString(key)); err != nil {
			return fmt.Errorf("config: export %s: %w", envKey, err)
		}
	}
	return nil
}
