package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where the loader looks for the YAML configuration.
const DefaultPath = ".config.yaml"

// Loader reads configuration from a YAML file with environment overrides.
type Loader struct {
	path      string
	useDotEnv bool
}

// NewLoader creates a loader for the default config path.
func NewLoader() *Loader {
	return &Loader{
		path:      DefaultPath,
		useDotEnv: true,
	}
}

// WithPath overrides the configuration file path (useful for tests).
func (l *Loader) WithPath(path string) *Loader {
	if path != "" {
		l.path = path
	}
	return l
}

// WithDotEnv toggles loading variables from a .env file before reading config.
func (l *Loader) WithDotEnv(enabled bool) *Loader {
	l.useDotEnv = enabled
	return l
}

// Result captures the loaded configuration and its origin path.
type Result struct {
	Config *Config
	Path   string
}

// Load reads the YAML file over the defaults, applies environment overrides
// and validates the outcome. A missing file is not an error; the defaults
// then apply as-is.
func (l *Loader) Load() (*Result, error) {
	if l.useDotEnv {
		if err := godotenv.Load(); err != nil {
			fmt.Println("no .env file found, using system environment")
		}
	}

	cfg := Default()
	path := l.path

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
		path = "defaults"
	default:
		return nil, fmt.Errorf("read %s: %w", l.path, err)
	}

	l.applyEnvOverrides(cfg)

	if err := l.validate(cfg); err != nil {
		return nil, err
	}

	return &Result{
		Config: cfg,
		Path:   path,
	}, nil
}

// applyEnvOverrides fills secrets from the environment when the file left
// them blank, so keys never have to live in the YAML.
func (l *Loader) applyEnvOverrides(cfg *Config) {
	if token := os.Getenv("LENS_SERVER_TOKEN"); token != "" {
		cfg.Server.Token = token
	}
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return
	}
	if cfg.Vision.Captioner.APIKey == "" {
		cfg.Vision.Captioner.APIKey = apiKey
	}
	if cfg.Vision.Detector.APIKey == "" {
		cfg.Vision.Detector.APIKey = apiKey
	}
	if cfg.Agent.Model.APIKey == "" {
		cfg.Agent.Model.APIKey = apiKey
	}
}

func (l *Loader) validate(cfg *Config) error {
	if cfg.Web.Port <= 0 || cfg.Web.Port > 65535 {
		return fmt.Errorf("web port out of range: %d", cfg.Web.Port)
	}
	if t := cfg.Vision.Detector.ConfidenceThreshold; t < 0 || t > 1 {
		return fmt.Errorf("detector confidence threshold out of range: %f", t)
	}
	if cfg.Agent.MaxSteps <= 0 {
		return fmt.Errorf("agent max_steps must be positive: %d", cfg.Agent.MaxSteps)
	}
	if cfg.Agent.HistoryWindow < 0 {
		return fmt.Errorf("agent history_window must not be negative: %d", cfg.Agent.HistoryWindow)
	}
	if cfg.Server.Auth.Enabled && cfg.Server.Token == "" {
		return fmt.Errorf("auth enabled but server token is empty")
	}
	return nil
}
