// Package config loads the reorder TOML configuration file.
//
// Every field has a default, so a missing file or an empty file yields a
// usable Config. Command-line flags override file values in the CLI.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/roach88/reorder/internal/session"
)

// Default values.
const (
	DefaultDatabase    = "reorder.db"
	DefaultListen      = "127.0.0.1:8080"
	DefaultLogLevel    = "info"
	DefaultReentry     = "overwrite"
	DefaultTransfer    = session.CodecItem
	DefaultSurfacesDir = "surfaces"
)

// Config is the reorder configuration file.
type Config struct {
	// Database is the SQLite item store path.
	Database string `toml:"database" json:"database"`

	// Listen is the adapter's HTTP address.
	Listen string `toml:"listen" json:"listen"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `toml:"log_level" json:"log_level"`

	// Reentry is the StartDrag policy while a drag is active:
	// "overwrite" or "reject".
	Reentry string `toml:"reentry" json:"reentry"`

	// Transfer is the drag payload codec: "item" or "id".
	Transfer string `toml:"transfer" json:"transfer"`

	// SurfacesDir holds the CUE surface definitions.
	SurfacesDir string `toml:"surfaces_dir" json:"surfaces_dir"`
}

// Default returns a Config with every field at its default.
func Default() Config {
	return Config{
		Database:    DefaultDatabase,
		Listen:      DefaultListen,
		LogLevel:    DefaultLogLevel,
		Reentry:     DefaultReentry,
		Transfer:    DefaultTransfer,
		SurfacesDir: DefaultSurfacesDir,
	}
}

// Load reads the file at path over the defaults and validates the result.
// An empty path returns the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes TOML over the defaults and validates the result.
// Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return Config{}, fmt.Errorf("unknown keys:\n%s", strict.String())
		}
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return Config{}, fmt.Errorf("line %d column %d: %s", row, col, derr.Error())
		}
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every field.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Database) == "" {
		errs = append(errs, errors.New("database must not be empty"))
	}
	if strings.TrimSpace(c.Listen) == "" {
		errs = append(errs, errors.New("listen must not be empty"))
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if _, ok := session.ParseReentryPolicy(c.Reentry); !ok {
		errs = append(errs, fmt.Errorf("reentry: unknown policy %q: must be %q or %q",
			c.Reentry, session.ReentryOverwrite, session.ReentryReject))
	}
	if _, err := session.CodecByName(c.Transfer); err != nil {
		errs = append(errs, fmt.Errorf("transfer: %w", err))
	}
	return errors.Join(errs...)
}

// Level returns the parsed log level. Invalid levels fall back to info.
func (c Config) Level() slog.Level {
	level, err := ParseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

// SessionOptions returns the session options the config selects.
func (c Config) SessionOptions() ([]session.Option, error) {
	codec, err := session.CodecByName(c.Transfer)
	if err != nil {
		return nil, err
	}
	policy, ok := session.ParseReentryPolicy(c.Reentry)
	if !ok {
		return nil, fmt.Errorf("unknown reentry policy %q", c.Reentry)
	}
	return []session.Option{
		session.WithCodec(codec),
		session.WithReentryPolicy(policy),
	}, nil
}

// Marshal renders the config as TOML.
func (c Config) Marshal() ([]byte, error) {
	return toml.Marshal(c)
}

// ParseLevel parses debug, info, warn or error (case-insensitive).
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("log_level: unknown level %q", s)
	}
}
