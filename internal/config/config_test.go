package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reorder.toml")
	content := `
database = "/var/lib/reorder/items.db"
log_level = "debug"
reentry = "reject"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/reorder/items.db", cfg.Database)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "reject", cfg.Reentry)
	assert.Equal(t, DefaultListen, cfg.Listen)
	assert.Equal(t, DefaultTransfer, cfg.Transfer)
	assert.Equal(t, DefaultSurfacesDir, cfg.SurfacesDir)
	assert.Equal(t, slog.LevelDebug, cfg.Level())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"unknown key", `databse = "x.db"`, "unknown keys"},
		{"syntax", `database = `, "line 1"},
		{"bad reentry", `reentry = "queue"`, `unknown policy "queue"`},
		{"bad transfer", `transfer = "blob"`, "transfer"},
		{"bad level", `log_level = "loud"`, `unknown level "loud"`},
		{"empty database", `database = ""`, "database must not be empty"},
		{"empty listen", `listen = " "`, "listen must not be empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_JoinsErrors(t *testing.T) {
	cfg := Default()
	cfg.Reentry = "queue"
	cfg.Transfer = "blob"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reentry")
	assert.Contains(t, err.Error(), "transfer")
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("trace")
	assert.Error(t, err)
}

func TestSessionOptions(t *testing.T) {
	opts, err := Default().SessionOptions()
	require.NoError(t, err)
	assert.Len(t, opts, 2)

	cfg := Default()
	cfg.Transfer = "blob"
	_, err = cfg.SessionOptions()
	assert.Error(t, err)
}

func TestMarshal_RoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Reentry = "reject"

	data, err := cfg.Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(data), "reentry = ")

	parsed, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, cfg, parsed)
}
