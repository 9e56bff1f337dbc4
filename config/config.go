// SPDX-License-Identifier: MIT

// Package config loads the settings of a partitioning run from YAML, with
// SPECTRAL_* environment variables taking precedence over the file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/katalvlaran/lvlath-spectral/dgraph"
	"github.com/katalvlaran/lvlath-spectral/lanczos"
	"github.com/katalvlaran/lvlath-spectral/partition"
	"github.com/katalvlaran/lvlath-spectral/tridiag"
	"gopkg.in/yaml.v3"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("config: invalid")

// Run modes.
const (
	ModeBisect      = "bisect"
	ModeKWay        = "kway"
	ModeEigenvalues = "eigenvalues"
)

// Graph fixtures.
const (
	FixturePath     = "path"
	FixtureCycle    = "cycle"
	FixtureGrid     = "grid"
	FixtureComplete = "complete"
	FixtureBarbell  = "barbell"
)

const envPrefix = "SPECTRAL_"

// Config holds every setting of one rank's partitioning run. Rank and Procs
// describe this process' place in the group; NumEigvecs is the number of
// sign bits for kway mode and the eigenpair target for eigenvalues mode.
type Config struct {
	Procs      int       `yaml:"procs"`
	Rank       int       `yaml:"rank"`
	Mode       string    `yaml:"mode"`
	NumEigvecs int       `yaml:"num_eigvecs"`
	Solver     string    `yaml:"solver"`
	Lanczos    Lanczos   `yaml:"lanczos"`
	Graph      Graph     `yaml:"graph"`
	Log        Log       `yaml:"log"`
	Transport  Transport `yaml:"transport"`
}

// Lanczos configures the iteration. Iterations 0 keeps the built-in step
// heuristic.
type Lanczos struct {
	Reorthogonalize    bool    `yaml:"reorthogonalize"`
	Seed               uint64  `yaml:"seed"`
	Tolerance          float64 `yaml:"tolerance"`
	BreakdownTolerance float64 `yaml:"breakdown_tolerance"`
	Iterations         int     `yaml:"iterations,omitempty"`
	ExhaustionPolicy   string  `yaml:"exhaustion_policy"`
}

// Graph selects a generated topology. Size is the vertex count for path,
// cycle and complete, the clique size for barbell; grid uses Rows×Cols.
type Graph struct {
	Fixture string `yaml:"fixture"`
	Size    int    `yaml:"size"`
	Rows    int    `yaml:"rows,omitempty"`
	Cols    int    `yaml:"cols,omitempty"`
}

// Log selects the slog level (debug, info, warn, error) and the text or
// json handler.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Transport configures the TCP communicator. Peers lists one address per
// rank, in rank order; Listen defaults to Peers[Rank].
type Transport struct {
	Listen       string        `yaml:"listen,omitempty"`
	Peers        []string      `yaml:"peers"`
	Compression  bool          `yaml:"compression"`
	DialBackoff  time.Duration `yaml:"dial_backoff"`
	MailboxDepth int           `yaml:"mailbox_depth"`
	Timeout      time.Duration `yaml:"timeout"`
}

// Default returns the configuration used for any field a file or the
// environment leaves out.
func Default() *Config {
	return &Config{
		Procs:      1,
		Mode:       ModeBisect,
		NumEigvecs: 2,
		Solver:     tridiag.NameQL,
		Lanczos: Lanczos{
			Reorthogonalize:    lanczos.DefaultReorthogonalize,
			Seed:               lanczos.DefaultSeed,
			Tolerance:          lanczos.DefaultTolerance,
			BreakdownTolerance: lanczos.DefaultBreakdownTolerance,
			ExhaustionPolicy:   lanczos.PolicyTruncate.String(),
		},
		Graph: Graph{Fixture: FixturePath, Size: 16},
		Log:   Log{Level: "info", Format: "text"},
		Transport: Transport{
			DialBackoff:  50 * time.Millisecond,
			MailboxDepth: 64,
			Timeout:      30 * time.Second,
		},
	}
}

// LoadConfig reads configPath over the defaults, applies environment
// overrides and validates the result.
func LoadConfig(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}
	ApplyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadConfigFromEnv returns the defaults with environment overrides applied.
// The result is not validated.
func LoadConfigFromEnv() *Config {
	cfg := Default()
	ApplyEnv(cfg)

	return cfg
}

// ApplyEnv overwrites cfg fields whose SPECTRAL_* variable is set. Values
// that fail to parse are ignored.
func ApplyEnv(cfg *Config) {
	cfg.Procs = getEnvInt("PROCS", cfg.Procs)
	cfg.Rank = getEnvInt("RANK", cfg.Rank)
	cfg.Mode = getEnv("MODE", cfg.Mode)
	cfg.NumEigvecs = getEnvInt("NUM_EIGVECS", cfg.NumEigvecs)
	cfg.Solver = getEnv("SOLVER", cfg.Solver)

	cfg.Lanczos.Reorthogonalize = getEnvBool("REORTHOGONALIZE", cfg.Lanczos.Reorthogonalize)
	cfg.Lanczos.Seed = getEnvUint("SEED", cfg.Lanczos.Seed)
	cfg.Lanczos.Tolerance = getEnvFloat("TOLERANCE", cfg.Lanczos.Tolerance)
	cfg.Lanczos.BreakdownTolerance = getEnvFloat("BREAKDOWN_TOLERANCE", cfg.Lanczos.BreakdownTolerance)
	cfg.Lanczos.Iterations = getEnvInt("ITERATIONS", cfg.Lanczos.Iterations)
	cfg.Lanczos.ExhaustionPolicy = getEnv("EXHAUSTION_POLICY", cfg.Lanczos.ExhaustionPolicy)

	cfg.Graph.Fixture = getEnv("GRAPH_FIXTURE", cfg.Graph.Fixture)
	cfg.Graph.Size = getEnvInt("GRAPH_SIZE", cfg.Graph.Size)
	cfg.Graph.Rows = getEnvInt("GRAPH_ROWS", cfg.Graph.Rows)
	cfg.Graph.Cols = getEnvInt("GRAPH_COLS", cfg.Graph.Cols)

	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnv("LOG_FORMAT", cfg.Log.Format)

	cfg.Transport.Listen = getEnv("LISTEN", cfg.Transport.Listen)
	if peers := getEnv("PEERS", ""); peers != "" {
		cfg.Transport.Peers = strings.Split(peers, ",")
	}
	cfg.Transport.Compression = getEnvBool("COMPRESSION", cfg.Transport.Compression)
	cfg.Transport.DialBackoff = getEnvDuration("DIAL_BACKOFF", cfg.Transport.DialBackoff)
	cfg.Transport.MailboxDepth = getEnvInt("MAILBOX_DEPTH", cfg.Transport.MailboxDepth)
	cfg.Transport.Timeout = getEnvDuration("TIMEOUT", cfg.Transport.Timeout)
}

// Validate checks every field and reports the first problem.
func (c *Config) Validate() error {
	switch {
	case c.Procs < 1:
		return fmt.Errorf("%w: procs=%d must be >= 1", ErrInvalid, c.Procs)
	case c.Rank < 0 || c.Rank >= c.Procs:
		return fmt.Errorf("%w: rank=%d outside [0, %d)", ErrInvalid, c.Rank, c.Procs)
	case c.Mode != ModeBisect && c.Mode != ModeKWay && c.Mode != ModeEigenvalues:
		return fmt.Errorf("%w: mode %q", ErrInvalid, c.Mode)
	case c.NumEigvecs < 1 || c.NumEigvecs > partition.MaxKWayBits:
		return fmt.Errorf("%w: num_eigvecs=%d outside [1, %d]", ErrInvalid, c.NumEigvecs, partition.MaxKWayBits)
	case !(c.Lanczos.Tolerance > 0):
		return fmt.Errorf("%w: lanczos.tolerance=%g must be > 0", ErrInvalid, c.Lanczos.Tolerance)
	case !(c.Lanczos.BreakdownTolerance > 0):
		return fmt.Errorf("%w: lanczos.breakdown_tolerance=%g must be > 0", ErrInvalid, c.Lanczos.BreakdownTolerance)
	case c.Lanczos.Iterations < 0:
		return fmt.Errorf("%w: lanczos.iterations=%d must be >= 0", ErrInvalid, c.Lanczos.Iterations)
	case c.Log.Format != "text" && c.Log.Format != "json":
		return fmt.Errorf("%w: log.format %q", ErrInvalid, c.Log.Format)
	case len(c.Transport.Peers) != 0 && len(c.Transport.Peers) != c.Procs:
		return fmt.Errorf("%w: transport.peers has %d entries for %d procs", ErrInvalid, len(c.Transport.Peers), c.Procs)
	}
	if _, err := tridiag.ByName(c.Solver); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if _, err := lanczos.ParsePolicy(c.Lanczos.ExhaustionPolicy); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if _, err := c.LogLevel(); err != nil {
		return fmt.Errorf("%w: log.level: %w", ErrInvalid, err)
	}
	_, n, err := c.Graph.Build()
	if err != nil {
		return fmt.Errorf("%w: graph: %w", ErrInvalid, err)
	}
	if n < c.Procs {
		return fmt.Errorf("%w: graph has %d vertices for %d procs", ErrInvalid, n, c.Procs)
	}

	return nil
}

// LogLevel parses Log.Level ("debug", "info", "warn", "error").
func (c *Config) LogLevel() (slog.Level, error) {
	var lvl slog.Level
	err := lvl.UnmarshalText([]byte(c.Log.Level))

	return lvl, err
}

// ListenAddr returns the address this rank listens on.
func (c *Config) ListenAddr() string {
	if c.Transport.Listen != "" {
		return c.Transport.Listen
	}
	if c.Rank >= 0 && c.Rank < len(c.Transport.Peers) {
		return c.Transport.Peers[c.Rank]
	}

	return ""
}

// Build returns the fixture constructor and its global vertex count.
func (g Graph) Build() (dgraph.Constructor, int, error) {
	switch g.Fixture {
	case FixturePath:
		return dgraph.Path(g.Size), g.Size, nil
	case FixtureCycle:
		return dgraph.Cycle(g.Size), g.Size, nil
	case FixtureComplete:
		return dgraph.Complete(g.Size), g.Size, nil
	case FixtureBarbell:
		return dgraph.Barbell(g.Size), 2 * g.Size, nil
	case FixtureGrid:
		return dgraph.Grid(g.Rows, g.Cols), g.Rows * g.Cols, nil
	default:
		return nil, 0, fmt.Errorf("unknown fixture %q", g.Fixture)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(envPrefix + key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(envPrefix + key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvUint(key string, defaultValue uint64) uint64 {
	if value := os.Getenv(envPrefix + key); value != "" {
		if v, err := strconv.ParseUint(value, 10, 64); err == nil {
			return v
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(envPrefix + key); value != "" {
		if v, err := strconv.ParseFloat(value, 64); err == nil {
			return v
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(envPrefix + key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(envPrefix + key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
