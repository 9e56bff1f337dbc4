// SPDX-License-Identifier: MIT

// Package config_test covers file, environment and validation paths of Config.
package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/katalvlaran/lvlath-spectral/config"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "spectral.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	return path
}

// TestLoadConfig reads a YAML file over the defaults.
func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
procs: 3
rank: 2
mode: kway
num_eigvecs: 3
solver: jacobi
lanczos:
  seed: 99
  tolerance: 1.0e-7
  exhaustion_policy: fail
graph:
  fixture: grid
  rows: 4
  cols: 5
log:
  level: debug
  format: json
transport:
  peers: ["127.0.0.1:7000", "127.0.0.1:7001", "127.0.0.1:7002"]
  compression: true
  dial_backoff: 10ms
`)
	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, 3, cfg.Procs)
	require.Equal(t, 2, cfg.Rank)
	require.Equal(t, config.ModeKWay, cfg.Mode)
	require.Equal(t, 3, cfg.NumEigvecs)
	require.Equal(t, "jacobi", cfg.Solver)
	require.Equal(t, uint64(99), cfg.Lanczos.Seed)
	require.Equal(t, 1e-7, cfg.Lanczos.Tolerance)
	require.Equal(t, "fail", cfg.Lanczos.ExhaustionPolicy)
	// Untouched fields keep their defaults.
	require.True(t, cfg.Lanczos.Reorthogonalize)
	require.Equal(t, 1e-8, cfg.Lanczos.BreakdownTolerance)
	require.Equal(t, 64, cfg.Transport.MailboxDepth)

	require.Equal(t, 10*time.Millisecond, cfg.Transport.DialBackoff)
	require.True(t, cfg.Transport.Compression)
	require.Equal(t, "127.0.0.1:7002", cfg.ListenAddr())
	lvl, err := cfg.LogLevel()
	require.NoError(t, err)
	require.Equal(t, slog.LevelDebug, lvl)

	_, n, err := cfg.Graph.Build()
	require.NoError(t, err)
	require.Equal(t, 20, n)
}

// TestLoadConfig_Errors covers a missing file and malformed YAML.
func TestLoadConfig_Errors(t *testing.T) {
	_, err := config.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	_, err = config.LoadConfig(writeConfig(t, "procs: [1"))
	require.Error(t, err)

	_, err = config.LoadConfig(writeConfig(t, "procs: 2\nrank: 2\n"))
	require.ErrorIs(t, err, config.ErrInvalid)
}

// TestValidate walks each invalid field and expects ErrInvalid.
func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *config.Config)
	}{
		{"procs", func(c *config.Config) { c.Procs = 0 }},
		{"mode", func(c *config.Config) { c.Mode = "tripartite" }},
		{"num_eigvecs", func(c *config.Config) { c.NumEigvecs = 0 }},
		{"num_eigvecs too many", func(c *config.Config) { c.NumEigvecs = 63 }},
		{"tolerance", func(c *config.Config) { c.Lanczos.Tolerance = 0 }},
		{"breakdown", func(c *config.Config) { c.Lanczos.BreakdownTolerance = -1 }},
		{"iterations", func(c *config.Config) { c.Lanczos.Iterations = -3 }},
		{"solver", func(c *config.Config) { c.Solver = "arpack" }},
		{"policy", func(c *config.Config) { c.Lanczos.ExhaustionPolicy = "retry" }},
		{"log level", func(c *config.Config) { c.Log.Level = "loud" }},
		{"log format", func(c *config.Config) { c.Log.Format = "xml" }},
		{"peers", func(c *config.Config) { c.Procs = 2; c.Transport.Peers = []string{"a:1"} }},
		{"fixture", func(c *config.Config) { c.Graph.Fixture = "torus" }},
		{"too small", func(c *config.Config) { c.Procs = 20 }},
	}
	require.NoError(t, config.Default().Validate())
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(cfg)
			require.ErrorIs(t, cfg.Validate(), config.ErrInvalid)
		})
	}
}

// TestLoadConfigFromEnv applies SPECTRAL_* variables to the defaults.
func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("SPECTRAL_PROCS", "2")
	t.Setenv("SPECTRAL_RANK", "1")
	t.Setenv("SPECTRAL_MODE", "eigenvalues")
	t.Setenv("SPECTRAL_REORTHOGONALIZE", "false")
	t.Setenv("SPECTRAL_SEED", "5")
	t.Setenv("SPECTRAL_TOLERANCE", "not-a-number")
	t.Setenv("SPECTRAL_GRAPH_FIXTURE", "barbell")
	t.Setenv("SPECTRAL_GRAPH_SIZE", "4")
	t.Setenv("SPECTRAL_PEERS", "h0:1,h1:2")
	t.Setenv("SPECTRAL_DIAL_BACKOFF", "1s")

	cfg := config.LoadConfigFromEnv()
	require.Equal(t, 2, cfg.Procs)
	require.Equal(t, 1, cfg.Rank)
	require.Equal(t, config.ModeEigenvalues, cfg.Mode)
	require.False(t, cfg.Lanczos.Reorthogonalize)
	require.Equal(t, uint64(5), cfg.Lanczos.Seed)
	require.Equal(t, 1e-6, cfg.Lanczos.Tolerance, "unparsable value keeps the default")
	require.Equal(t, []string{"h0:1", "h1:2"}, cfg.Transport.Peers)
	require.Equal(t, "h1:2", cfg.ListenAddr())
	require.Equal(t, time.Second, cfg.Transport.DialBackoff)
	require.NoError(t, cfg.Validate())

	_, n, err := cfg.Graph.Build()
	require.NoError(t, err)
	require.Equal(t, 8, n)
}

// TestEnvOverridesFile ensures the environment wins over the file.
func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("SPECTRAL_SOLVER", "lapack")
	cfg, err := config.LoadConfig(writeConfig(t, "solver: jacobi\n"))
	require.NoError(t, err)
	require.Equal(t, "lapack", cfg.Solver)
}
