package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Equal(t, Default(), cfg)
}

func TestLoadMalformedFileReturnsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen_addr: [not: valid"), 0o644))

	cfg := Load(path)
	require.Equal(t, Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
listen_addr: ":9090"
db_path: "/tmp/pets/pet.db"
owner: "0xABC"
scheduler_mode: "uncapped"
seed: 1234
sleep:
  mode: "custom"
  custom_start: 1410
  custom_end: 420
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg := Load(path)
	require.Equal(t, ":9090", cfg.ListenAddr)
	require.Equal(t, "/tmp/pets/pet.db", cfg.DBPath)
	require.Equal(t, "0xABC", cfg.Owner)
	require.Equal(t, "uncapped", cfg.SchedulerMode)
	require.Equal(t, int64(1234), cfg.Seed)
	require.Equal(t, "custom", cfg.Sleep.Mode)
	require.Equal(t, 1410, cfg.Sleep.CustomStart)
	require.Equal(t, 420, cfg.Sleep.CustomEnd)
}

func TestLoadFillsBlankRequiredFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`owner: ""`), 0o644))

	cfg := Load(path)
	require.Equal(t, ":8080", cfg.ListenAddr)
	require.Equal(t, "pet.db", cfg.DBPath)
	require.Equal(t, "0xLOCAL", cfg.Owner)
}
