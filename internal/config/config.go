// Package config provides configuration management for Vestige.
// It loads settings from environment variables with the VESTIGE_ prefix,
// applies an optional YAML override file, and provides sensible defaults
// for every option in the spec's configuration table.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// FSRSWeights is the w0..w20 parameter vector the scheduler uses for
// stability/difficulty updates. Defaults are the reference FSRS-6 weights;
// any subset can be overridden via the fsrs_weights YAML key or
// VESTIGE_FSRS_W<n> environment variables.
type FSRSWeights [21]float64

// DefaultFSRSWeights are the reference FSRS-6 parameter defaults.
var DefaultFSRSWeights = FSRSWeights{
	0.40255, 1.18385, 3.173, 15.69105, 5.0, 0.5345, 1.4604, 0.0046,
	1.54575, 0.1192, 1.01925, 1.9395, 0.11, 0.29605, 2.2698, 0.2315,
	2.9898, 0.51655, 0.6621, 0.0, 0.1542,
}

// RetentionStateThresholds maps MemoryState boundaries onto retrieval
// strength, per spec §4.2.
type RetentionStateThresholds struct {
	Silent  float64 `yaml:"silent"`
	Dormant float64 `yaml:"dormant"`
	Active  float64 `yaml:"active"`
}

// ContextBonusWeights are the retrieval stage-5 context-match coefficients
// (spec §4.4 stage 5).
type ContextBonusWeights struct {
	Tag     float64 `yaml:"tag"`
	TOD     float64 `yaml:"tod"`
	Project float64 `yaml:"project"`
}

// Config holds every tunable the cognitive engine reads at startup. It is
// built once by Load and treated as immutable thereafter.
type Config struct {
	DataDir        string `yaml:"data_dir"`
	EmbeddingModel string `yaml:"embedding_model"`
	EmbeddingDim   int    `yaml:"embedding_dimension"`

	FSRSWeights FSRSWeights `yaml:"fsrs_weights"`

	TagTTLHours          float64 `yaml:"tag_ttl_hours"`
	CaptureBackwardHours float64 `yaml:"capture_backward_hours"`
	CaptureForwardHours  float64 `yaml:"capture_forward_hours"`

	DreamMinIntervalHours float64 `yaml:"dream_min_interval_hours"`
	DreamWriteThreshold   int     `yaml:"dream_write_threshold"`

	RetentionStateThresholds RetentionStateThresholds `yaml:"retention_state_thresholds"`

	SearchOverfetchFactor int                 `yaml:"search_overfetch_factor"`
	ContextBonusWeights   ContextBonusWeights `yaml:"context_bonus_weights"`

	DeterministicMode bool `yaml:"deterministic_mode"`
}

// Load builds a Config from environment variables (VESTIGE_ prefix) and
// then, if present, applies overridePath as a YAML overlay on top.
func Load(overridePath string) (*Config, error) {
	cfg := buildBaseConfig()

	if overridePath == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(overridePath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: reading override file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing override file: %w", err)
	}
	return cfg, nil
}

func buildBaseConfig() *Config {
	return &Config{
		DataDir:        getEnv("VESTIGE_DATA_DIR", "./data"),
		EmbeddingModel: getEnv("VESTIGE_EMBEDDING_MODEL", "local-hash-v1"),
		EmbeddingDim:   getEnvInt("VESTIGE_EMBEDDING_DIMENSION", 256),

		FSRSWeights: loadFSRSWeights(),

		TagTTLHours:          getEnvFloat("VESTIGE_TAG_TTL_HOURS", 9.0),
		CaptureBackwardHours: getEnvFloat("VESTIGE_CAPTURE_BACKWARD_HOURS", 9.0),
		CaptureForwardHours:  getEnvFloat("VESTIGE_CAPTURE_FORWARD_HOURS", 2.0),

		DreamMinIntervalHours: getEnvFloat("VESTIGE_DREAM_MIN_INTERVAL_HOURS", 24.0),
		DreamWriteThreshold:   getEnvInt("VESTIGE_DREAM_WRITE_THRESHOLD", 50),

		RetentionStateThresholds: RetentionStateThresholds{
			Silent:  getEnvFloat("VESTIGE_RETENTION_SILENT", 0.10),
			Dormant: getEnvFloat("VESTIGE_RETENTION_DORMANT", 0.40),
			Active:  getEnvFloat("VESTIGE_RETENTION_ACTIVE", 0.70),
		},

		SearchOverfetchFactor: getEnvInt("VESTIGE_SEARCH_OVERFETCH_FACTOR", 3),
		ContextBonusWeights: ContextBonusWeights{
			Tag:     getEnvFloat("VESTIGE_CONTEXT_BONUS_TAG", 0.15),
			TOD:     getEnvFloat("VESTIGE_CONTEXT_BONUS_TOD", 0.10),
			Project: getEnvFloat("VESTIGE_CONTEXT_BONUS_PROJECT", 0.10),
		},

		DeterministicMode: getEnvBool("VESTIGE_DETERMINISTIC_MODE", false),
	}
}

func loadFSRSWeights() FSRSWeights {
	w := DefaultFSRSWeights
	for i := range w {
		key := fmt.Sprintf("VESTIGE_FSRS_W%d", i)
		if v := os.Getenv(key); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				w[i] = f
			}
		}
	}
	return w
}

// getEnv retrieves a string environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat retrieves a float environment variable or returns a default value.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvBool retrieves a boolean environment variable or returns a default value.
// It recognizes "true", "1", "yes" as true and "false", "0", "no" as false, in
// lower, Title or UPPER case only; any other value returns defaultValue.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		switch value {
		case "true", "1", "yes", "True", "TRUE", "Yes", "YES":
			return true
		case "false", "0", "no", "False", "FALSE", "No", "NO":
			return false
		}
	}
	return defaultValue
}
