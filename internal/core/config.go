package core

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	Addr            string `yaml:"addr"`
	LogLevel        string `yaml:"log_level"` // debug, info, warn, error
	GoogleAPIKey    string `yaml:"-"`         // env only, never persisted
	PrimaryModel    string `yaml:"primary_model"`
	FallbackModel   string `yaml:"fallback_model"`
	ClassifierModel string `yaml:"classifier_model"`
	ImageModel      string `yaml:"image_model"`
	ProjectsDir     string `yaml:"projects_dir"`
	UploadsDir      string `yaml:"uploads_dir"`
	WisdomDir       string `yaml:"wisdom_dir"`

	// MaxUnitsPerSession bounds concurrent orchestration units per session.
	MaxUnitsPerSession int64 `yaml:"max_units_per_session"`
}

// LoadConfig builds configuration from defaults, an optional YAML file
// named by HARP_CONFIG, and environment variable overrides, in that order.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Addr:               ":10000",
		LogLevel:           "info",
		PrimaryModel:       "gemini-2.5-pro",
		FallbackModel:      "gemini-2.5-flash",
		ClassifierModel:    "gemini-2.5-flash",
		ImageModel:         "gemini-2.5-flash",
		ProjectsDir:        "projects",
		UploadsDir:         "uploads",
		WisdomDir:          "wisdom",
		MaxUnitsPerSession: 4,
	}

	if path := os.Getenv("HARP_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.Addr = getEnvOrDefault("HARP_ADDR", cfg.Addr)
	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", cfg.LogLevel)
	cfg.ProjectsDir = getEnvOrDefault("HARP_PROJECTS_DIR", cfg.ProjectsDir)
	cfg.UploadsDir = getEnvOrDefault("HARP_UPLOADS_DIR", cfg.UploadsDir)
	cfg.WisdomDir = getEnvOrDefault("HARP_WISDOM_DIR", cfg.WisdomDir)
	cfg.GoogleAPIKey = os.Getenv("GOOGLE_API_KEY")

	// DEBUG flag overrides log level
	if os.Getenv("DEBUG") == "1" {
		cfg.LogLevel = "debug"
	}

	// The API key is validated when the LLM client is constructed, not here,
	// so filesystem-only operations work without one.

	return cfg, nil
}

// getEnvOrDefault returns the value of an environment variable or a default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
