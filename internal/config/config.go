// Package config loads the host's saturation-loop configuration from
// environment variables, with an optional YAML file supplying defaults
// that the environment then overrides.
//
// Grounded on pkg/config/config.go's getEnv/getEnvInt/getEnvBool/
// getEnvDuration family and its LoadFromEnv/Validate shape, narrowed
// from that file's Neo4j-compatibility surface down to the handful of
// settings spec.md §6 names as "recognized options" plus the ambient
// settings a host process needs (data directory, log level, rule
// toggles).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every recognized environment variable, per
// SPEC_FULL §F.2.
const EnvPrefix = "EGRAPH_"

// Config holds the host's saturation-loop configuration.
type Config struct {
	// Engine holds the saturation loop's own tunables — spec.md §6's
	// "recognized options" plus the host-imposed iteration budgets
	// spec.md §7 asks for.
	Engine EngineConfig
	// Rules toggles which rulepack categories are active.
	Rules RulesConfig
	// Checkpoint configures optional badger-backed snapshotting.
	Checkpoint CheckpointConfig
	// Logging controls the xlog level.
	Logging LoggingConfig
}

// EngineConfig holds the saturation loop's tunables.
type EngineConfig struct {
	// TimestampSummary is the amount by which each outer iteration
	// advances logical time, spec.md §6's timestamp_summary option.
	// The core's own loop always advances by whole ticks; this is
	// surfaced for a host that batches multiple external timestamps
	// per tick.
	TimestampSummary int
	// MaxOuterIterations bounds the saturation loop's outer fixpoint.
	MaxOuterIterations int
	// MaxInnerIterations bounds the union-find label-propagation
	// fixpoint.
	MaxInnerIterations int
}

// RulesConfig toggles rulepack categories by name, defaulting every
// absent category to enabled (rulepack.Enabled's own contract).
type RulesConfig struct {
	EnabledByCategory map[string]bool
}

// CheckpointConfig configures the optional badger-backed snapshot
// store.
type CheckpointConfig struct {
	Enabled bool
	DataDir string
}

// LoggingConfig controls the host logger.
type LoggingConfig struct {
	Level string
}

// LoadFromEnv builds a Config from EGRAPH_*-prefixed environment
// variables, starting from built-in defaults.
func LoadFromEnv() *Config {
	cfg := &Config{}

	cfg.Engine.TimestampSummary = getEnvInt("TIMESTAMP_SUMMARY", 1)
	cfg.Engine.MaxOuterIterations = getEnvInt("MAX_OUTER_ITERATIONS", 1000)
	cfg.Engine.MaxInnerIterations = getEnvInt("MAX_INNER_ITERATIONS", 10000)

	cfg.Rules.EnabledByCategory = getEnvBoolMap("RULES_DISABLED")

	cfg.Checkpoint.Enabled = getEnvBool("CHECKPOINT_ENABLED", false)
	cfg.Checkpoint.DataDir = getEnv("CHECKPOINT_DIR", "./data/checkpoint")

	cfg.Logging.Level = getEnv("LOG_LEVEL", "info")

	return cfg
}

// LoadFromYAML reads defaults from a YAML file at path, then applies
// environment overrides on top via LoadFromEnv's same variable names —
// the host may ship a checked-in YAML baseline and still override any
// single field at deploy time, mirroring apoc/config.go's category
// toggles layered under env-first precedence.
func LoadFromYAML(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var fromFile Config
	if err := yaml.Unmarshal(data, &fromFile); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg := LoadFromEnv()
	mergeYAMLDefaults(cfg, &fromFile)
	return cfg, nil
}

// mergeYAMLDefaults copies every non-zero field of fromFile into cfg
// unless its environment variable is set, so a value explicitly set by
// the environment always wins over the file, and the file wins over
// the built-in defaults.
func mergeYAMLDefaults(cfg, fromFile *Config) {
	unset := func(key string) bool { return os.Getenv(EnvPrefix+key) == "" }
	if unset("TIMESTAMP_SUMMARY") && fromFile.Engine.TimestampSummary != 0 {
		cfg.Engine.TimestampSummary = fromFile.Engine.TimestampSummary
	}
	if unset("MAX_OUTER_ITERATIONS") && fromFile.Engine.MaxOuterIterations != 0 {
		cfg.Engine.MaxOuterIterations = fromFile.Engine.MaxOuterIterations
	}
	if unset("MAX_INNER_ITERATIONS") && fromFile.Engine.MaxInnerIterations != 0 {
		cfg.Engine.MaxInnerIterations = fromFile.Engine.MaxInnerIterations
	}
	if len(cfg.Rules.EnabledByCategory) == 0 {
		cfg.Rules.EnabledByCategory = fromFile.Rules.EnabledByCategory
	}
	if unset("CHECKPOINT_ENABLED") && fromFile.Checkpoint.Enabled {
		cfg.Checkpoint.Enabled = true
	}
	if unset("CHECKPOINT_DIR") && fromFile.Checkpoint.DataDir != "" {
		cfg.Checkpoint.DataDir = fromFile.Checkpoint.DataDir
	}
	if unset("LOG_LEVEL") && fromFile.Logging.Level != "" {
		cfg.Logging.Level = fromFile.Logging.Level
	}
}

// Validate reports whether cfg's values are usable, mirroring
// pkg/config/config.go's Validate: a small set of range/non-empty
// checks, never a full schema validator.
func (c *Config) Validate() error {
	if c.Engine.MaxOuterIterations <= 0 {
		return fmt.Errorf("config: invalid max outer iterations: %d", c.Engine.MaxOuterIterations)
	}
	if c.Engine.MaxInnerIterations <= 0 {
		return fmt.Errorf("config: invalid max inner iterations: %d", c.Engine.MaxInnerIterations)
	}
	if c.Engine.TimestampSummary <= 0 {
		return fmt.Errorf("config: invalid timestamp summary: %d", c.Engine.TimestampSummary)
	}
	if c.Checkpoint.Enabled && c.Checkpoint.DataDir == "" {
		return fmt.Errorf("config: checkpointing enabled but no data directory configured")
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unrecognized log level: %q", c.Logging.Level)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		val = strings.ToLower(val)
		return val == "true" || val == "1" || val == "yes" || val == "on"
	}
	return defaultVal
}

// getEnvBoolMap parses a comma-separated list of category names from
// the named variable into a map of category -> false, the shape
// rulepack.Enabled expects for its enabledByCategory argument. Absent
// entirely, it returns nil, which rulepack.Enabled treats as
// "everything enabled".
func getEnvBoolMap(key string) map[string]bool {
	val := os.Getenv(EnvPrefix + key)
	if val == "" {
		return nil
	}
	out := make(map[string]bool)
	for _, category := range strings.Split(val, ",") {
		category = strings.TrimSpace(category)
		if category == "" {
			continue
		}
		out[category] = false
	}
	return out
}

// Duration parses a value the same way pkg/config/config.go's
// getEnvDuration does, accepted both as a Go duration string and as a
// bare integer count of seconds; exported for hosts building their own
// config extensions on top of this package.
func Duration(val string, defaultVal time.Duration) time.Duration {
	if val == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(val); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(val); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultVal
}
