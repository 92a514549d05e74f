// Package config handles the configuration directory, config.yaml and
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// AppName is the application directory name.
	AppName = "taskboard"

	// ConfigFile is the optional settings file inside the config directory.
	ConfigFile = "config.yaml"

	// SessionFile is the stored auth session filename.
	SessionFile = "session.json"

	// EnvPrefix prefixes environment overrides, e.g. TASKBOARD_SUPABASE_URL.
	EnvPrefix = "TASKBOARD"
)

// Backend kinds.
const (
	KindSupabase = "supabase"
	KindSQLite   = "sqlite"
	KindPostgres = "postgres"
	KindGCS      = "gcs"
	KindLocal    = "local"
	KindNone     = "none"
)

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string `mapstructure:"-" yaml:"-"`

	// Debug enables debug logging.
	Debug bool `mapstructure:"-" yaml:"-"`

	// Quiet suppresses informational output.
	Quiet bool `mapstructure:"-" yaml:"-"`

	// Log is the diagnostic logger. Nil discards.
	Log *log.Logger `mapstructure:"-" yaml:"-"`

	Backend  BackendConfig  `mapstructure:"backend" yaml:"backend"`
	Supabase SupabaseConfig `mapstructure:"supabase" yaml:"supabase"`
	SQLite   SQLiteConfig   `mapstructure:"sqlite" yaml:"sqlite"`
	Postgres PostgresConfig `mapstructure:"postgres" yaml:"postgres"`
	GCS      GCSConfig      `mapstructure:"gcs" yaml:"gcs"`
	Local    LocalConfig    `mapstructure:"local" yaml:"local"`
	Kafka    KafkaConfig    `mapstructure:"kafka" yaml:"kafka"`
	Redis    RedisConfig    `mapstructure:"redis" yaml:"redis"`
	Web      WebConfig      `mapstructure:"web" yaml:"web"`
}

// BackendConfig selects the implementation of each backend concern.
type BackendConfig struct {
	Table   string `mapstructure:"table" yaml:"table"`     // supabase | sqlite | postgres
	Storage string `mapstructure:"storage" yaml:"storage"` // supabase | gcs | local
	Auth    string `mapstructure:"auth" yaml:"auth"`       // supabase | none
}

// SupabaseConfig holds the managed backend connection settings.
type SupabaseConfig struct {
	URL     string `mapstructure:"url" yaml:"url"`
	AnonKey string `mapstructure:"anon_key" yaml:"anon_key"`
	Table   string `mapstructure:"table" yaml:"table"`
	Bucket  string `mapstructure:"bucket" yaml:"bucket"`
}

// SQLiteConfig holds the local table database path.
type SQLiteConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// PostgresConfig holds the direct table connection string.
type PostgresConfig struct {
	DSN string `mapstructure:"dsn" yaml:"dsn"`
}

// GCSConfig holds Google Cloud Storage settings.
type GCSConfig struct {
	Bucket          string `mapstructure:"bucket" yaml:"bucket"`
	CredentialsFile string `mapstructure:"credentials_file" yaml:"credentials_file"`
}

// LocalConfig holds on-disk object storage settings.
type LocalConfig struct {
	Dir     string `mapstructure:"dir" yaml:"dir"`
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
}

// KafkaConfig enables change events when Brokers is non-empty.
type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers" yaml:"brokers"`
	Topic   string   `mapstructure:"topic" yaml:"topic"`
}

// RedisConfig enables Redis-backed web UI state when Addr is set.
type RedisConfig struct {
	Addr     string `mapstructure:"addr" yaml:"addr"`
	Password string `mapstructure:"password" yaml:"password"`
	DB       int    `mapstructure:"db" yaml:"db"`
}

// WebConfig holds web UI settings.
type WebConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// New creates a new Config with the default or specified config directory.
// If configDir is empty, uses XDG_CONFIG_HOME/taskboard or $HOME/.config/taskboard.
// Settings hold defaults and environment overrides until Load reads config.yaml.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	cfg := &Config{Dir: dir}
	if err := newViper(cfg.Dir).Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("invalid defaults: %w", err)
	}
	return cfg, nil
}

// Load reads config.yaml from the config directory (if present) and applies
// TASKBOARD_* environment overrides.
func (c *Config) Load() error {
	v := newViper(c.Dir)
	if _, err := os.Stat(c.ConfigPath()); err == nil {
		v.SetConfigFile(c.ConfigPath())
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("invalid %s: %w", ConfigFile, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to read %s: %w", ConfigFile, err)
	}

	// Comma-separated environment values decode into slices (kafka.brokers).
	if err := v.Unmarshal(c); err != nil {
		return fmt.Errorf("invalid %s: %w", ConfigFile, err)
	}
	return c.Validate()
}

// Validate checks backend kinds and required settings.
func (c *Config) Validate() error {
	switch c.Backend.Table {
	case KindSupabase, KindSQLite, KindPostgres:
	default:
		return fmt.Errorf("unknown table backend: %s", c.Backend.Table)
	}
	switch c.Backend.Storage {
	case KindSupabase, KindGCS, KindLocal:
	default:
		return fmt.Errorf("unknown storage backend: %s", c.Backend.Storage)
	}
	switch c.Backend.Auth {
	case KindSupabase, KindNone:
	default:
		return fmt.Errorf("unknown auth backend: %s", c.Backend.Auth)
	}

	usesSupabase := c.Backend.Table == KindSupabase || c.Backend.Storage == KindSupabase || c.Backend.Auth == KindSupabase
	if usesSupabase && (c.Supabase.URL == "" || c.Supabase.AnonKey == "") {
		return errors.New("supabase.url and supabase.anon_key are not configured")
	}
	if c.Backend.Table == KindPostgres && c.Postgres.DSN == "" {
		return errors.New("postgres.dsn is not configured")
	}
	if c.Backend.Storage == KindGCS && c.GCS.Bucket == "" {
		return errors.New("gcs.bucket is not configured")
	}
	return nil
}

func newViper(dir string) *viper.Viper {
	v := viper.New()
	v.SetDefault("backend.table", KindSupabase)
	v.SetDefault("backend.storage", KindSupabase)
	v.SetDefault("backend.auth", KindSupabase)
	v.SetDefault("supabase.url", "")
	v.SetDefault("supabase.anon_key", "")
	v.SetDefault("supabase.table", "tasks")
	v.SetDefault("supabase.bucket", "task_uploads")
	v.SetDefault("sqlite.path", filepath.Join(dir, "tasks.db"))
	v.SetDefault("postgres.dsn", "")
	v.SetDefault("gcs.bucket", "")
	v.SetDefault("gcs.credentials_file", "")
	v.SetDefault("local.dir", filepath.Join(dir, "uploads"))
	v.SetDefault("local.base_url", "http://localhost:8080/files")
	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "taskboard.tasks")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("web.addr", ":8080")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Logger returns the diagnostic logger, discarding output if none is set.
func (c *Config) Logger() *log.Logger {
	if c.Log == nil {
		return log.New(io.Discard, "", 0)
	}
	return c.Log
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// ConfigPath returns the path to config.yaml.
func (c *Config) ConfigPath() string {
	return filepath.Join(c.Dir, ConfigFile)
}

// SessionPath returns the path to the stored session file.
func (c *Config) SessionPath() string {
	return filepath.Join(c.Dir, SessionFile)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}

// HasSession checks if the session file exists.
func (c *Config) HasSession() bool {
	_, err := os.Stat(c.SessionPath())
	return err == nil
}

// RemoveSession deletes the session file.
func (c *Config) RemoveSession() error {
	return os.Remove(c.SessionPath())
}

// Redacted returns a copy with secrets masked, for display.
func (c *Config) Redacted() Config {
	out := *c
	out.Log = nil
	if out.Supabase.AnonKey != "" {
		out.Supabase.AnonKey = mask(out.Supabase.AnonKey)
	}
	if out.Redis.Password != "" {
		out.Redis.Password = "****"
	}
	if out.Postgres.DSN != "" {
		out.Postgres.DSN = "****"
	}
	return out
}

func mask(s string) string {
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "****"
}
