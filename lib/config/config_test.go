package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)
	require.Equal(t, "info", cfg.LogLevel)
	require.Empty(t, cfg.ScenarioPath)
}

func TestLoadFromFlags(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("scenario", "", "")
	flags.String("log-level", "info", "")
	require.NoError(t, flags.Parse([]string{"--scenario", "pool.json", "--log-level", "debug"}))

	cfg, err := Load("", flags)
	require.NoError(t, err)
	require.Equal(t, "pool.json", cfg.ScenarioPath)
	require.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scenario: from-file.json\nlog-level: warn\n"), 0o644))

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	require.Equal(t, "from-file.json", cfg.ScenarioPath)
	require.Equal(t, "warn", cfg.LogLevel)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("RANGEPOOL_LOG_LEVEL", "error")

	cfg, err := Load("", nil)
	require.NoError(t, err)
	require.Equal(t, "error", cfg.LogLevel)
}

func TestLoadBadFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	require.Error(t, err)
}
