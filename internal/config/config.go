// Package config loads meetcore runtime configuration from .meetcore.toml,
// MEETCORE_* environment variables and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"meetcore/internal/blob"
)

// FileName is the config file looked up in the working directory.
const FileName = ".meetcore.toml"

// EnvPrefix prefixes every environment override, e.g. MEETCORE_STORAGE_DRIVER.
const EnvPrefix = "MEETCORE"

// S3Config configures the s3 storage driver.
type S3Config struct {
	Region          string `mapstructure:"region" toml:"region"`
	Bucket          string `mapstructure:"bucket" toml:"bucket"`
	Prefix          string `mapstructure:"prefix" toml:"prefix"`
	Endpoint        string `mapstructure:"endpoint" toml:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id" toml:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key" toml:"secret_access_key"`
	PathStyle       bool   `mapstructure:"path_style" toml:"path_style"`
}

// StorageConfig selects the document store.
type StorageConfig struct {
	Driver      string   `mapstructure:"driver" toml:"driver"`
	FSRoot      string   `mapstructure:"fs_root" toml:"fs_root"`
	SQLitePath  string   `mapstructure:"sqlite_path" toml:"sqlite_path"`
	PostgresDSN string   `mapstructure:"postgres_dsn" toml:"postgres_dsn"`
	S3          S3Config `mapstructure:"s3" toml:"s3"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `mapstructure:"level" toml:"level"`
	Format string `mapstructure:"format" toml:"format"`
}

// ServerConfig configures `meetctl serve`.
type ServerConfig struct {
	Addr       string `mapstructure:"addr" toml:"addr"`
	Watch      bool   `mapstructure:"watch" toml:"watch"`
	DebounceMS int    `mapstructure:"debounce_ms" toml:"debounce_ms"`
	// AllowedOrigins feeds the CORS middleware.
	AllowedOrigins []string `mapstructure:"allowed_origins" toml:"allowed_origins"`
}

// Debounce returns the watcher debounce interval.
func (s ServerConfig) Debounce() time.Duration {
	return time.Duration(s.DebounceMS) * time.Millisecond
}

// RulesConfig tunes rule evaluation on load.
type RulesConfig struct {
	FailOnWarnings bool `mapstructure:"fail_on_warnings" toml:"fail_on_warnings"`
}

// Config holds all runtime configuration. It is passed explicitly to the
// components that need it; there is no process-wide instance.
type Config struct {
	ImportDir string        `mapstructure:"import_dir" toml:"import_dir"`
	Storage   StorageConfig `mapstructure:"storage" toml:"storage"`
	Log       LogConfig     `mapstructure:"log" toml:"log"`
	Server    ServerConfig  `mapstructure:"server" toml:"server"`
	Rules     RulesConfig   `mapstructure:"rules" toml:"rules"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ImportDir: "imports",
		Storage: StorageConfig{
			Driver:     string(blob.DriverFilesystem),
			FSRoot:     "meetdata",
			SQLitePath: "meetcore.db",
			S3:         S3Config{Region: "eu-west-3"},
		},
		Log:    LogConfig{Level: "info", Format: "text"},
		Server: ServerConfig{Addr: ":8080", DebounceMS: 250, AllowedOrigins: []string{"*"}},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("import_dir", d.ImportDir)
	v.SetDefault("storage.driver", d.Storage.Driver)
	v.SetDefault("storage.fs_root", d.Storage.FSRoot)
	v.SetDefault("storage.sqlite_path", d.Storage.SQLitePath)
	v.SetDefault("storage.postgres_dsn", d.Storage.PostgresDSN)
	v.SetDefault("storage.s3.region", d.Storage.S3.Region)
	v.SetDefault("storage.s3.bucket", "")
	v.SetDefault("storage.s3.prefix", "")
	v.SetDefault("storage.s3.endpoint", "")
	v.SetDefault("storage.s3.access_key_id", "")
	v.SetDefault("storage.s3.secret_access_key", "")
	v.SetDefault("storage.s3.path_style", false)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.watch", d.Server.Watch)
	v.SetDefault("server.debounce_ms", d.Server.DebounceMS)
	v.SetDefault("server.allowed_origins", d.Server.AllowedOrigins)
	v.SetDefault("rules.fail_on_warnings", d.Rules.FailOnWarnings)
}

// Load reads configuration. An empty path looks for FileName in the working
// directory and tolerates its absence; an explicit path must exist. Values
// from a .env file in the working directory are exported first and never
// override variables already set.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(strings.TrimSuffix(FileName, ".toml"))
		v.SetConfigType("toml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks enumerated values.
func (c Config) Validate() error {
	switch blob.Driver(c.Storage.Driver) {
	case blob.DriverFilesystem, blob.DriverS3, blob.DriverMemory, blob.DriverSQLite, blob.DriverPostgres:
	default:
		return fmt.Errorf("storage.driver: unknown driver %q", c.Storage.Driver)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format: want text or json, got %q", c.Log.Format)
	}
	if c.Server.DebounceMS < 0 {
		return fmt.Errorf("server.debounce_ms: must not be negative")
	}
	return nil
}

// BlobConfig maps the storage section onto the blob factory configuration.
func (c Config) BlobConfig() blob.Config {
	s := c.Storage
	return blob.Config{
		Driver:      blob.Driver(s.Driver),
		FSRoot:      s.FSRoot,
		SQLitePath:  s.SQLitePath,
		PostgresDSN: s.PostgresDSN,
		S3: blob.S3Config{
			Region:          s.S3.Region,
			Bucket:          s.S3.Bucket,
			Prefix:          s.S3.Prefix,
			Endpoint:        s.S3.Endpoint,
			AccessKeyID:     s.S3.AccessKeyID,
			SecretAccessKey: s.S3.SecretAccessKey,
			PathStyle:       s.S3.PathStyle,
		},
	}
}

// WriteDefault renders Default() as TOML to path. An existing file is kept
// unless force is set.
func WriteDefault(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
	}
	data, err := toml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("encode default config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
