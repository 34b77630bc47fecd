package config

import (
	"time"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
	Web     WebConfig     `yaml:"web"`
	Vision  VisionConfig  `yaml:"vision"`
	Agent   AgentConfig   `yaml:"agent"`
	Session SessionConfig `yaml:"session"`
	Storage StorageConfig `yaml:"storage"`
}

type ServerConfig struct {
	Token string     `yaml:"token"`
	Auth  AuthConfig `yaml:"auth"`
}

type AuthConfig struct {
	Enabled bool          `yaml:"enabled"`
	Expiry  time.Duration `yaml:"expiry"`
}

type LogConfig struct {
	Level  string `yaml:"log_level"`
	Dir    string `yaml:"log_dir"`
	File   string `yaml:"log_file"`
	Format string `yaml:"log_format"`
}

type WebConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Port      int    `yaml:"port"`
	StaticDir string `yaml:"static_dir"`
}

// ModelConfig describes one OpenAI-compatible chat endpoint.
type ModelConfig struct {
	Type        string  `yaml:"type"`
	ModelName   string  `yaml:"model_name"`
	BaseURL     string  `yaml:"url"`
	APIKey      string  `yaml:"api_key"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	TopP        float64 `yaml:"top_p"`
}

type VisionConfig struct {
	Captioner CaptionerConfig `yaml:"captioner"`
	Detector  DetectorConfig  `yaml:"detector"`
	Security  SecurityConfig  `yaml:"security"`
}

type CaptionerConfig struct {
	ModelConfig `yaml:",inline"`
	// MaxCaptionTokens bounds caption generation; it wins over MaxTokens.
	MaxCaptionTokens int `yaml:"max_caption_tokens"`
}

type DetectorConfig struct {
	ModelConfig         `yaml:",inline"`
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`
}

type SecurityConfig struct {
	MaxFileSize    int64    `yaml:"max_file_size"`
	MaxPixels      int64    `yaml:"max_pixels"`
	MaxWidth       int      `yaml:"max_width"`
	MaxHeight      int      `yaml:"max_height"`
	AllowedFormats []string `yaml:"allowed_formats"`
	EnableDeepScan bool     `yaml:"enable_deep_scan"`
}

type AgentConfig struct {
	Model         ModelConfig `yaml:"model"`
	Prompt        string      `yaml:"prompt"`
	MaxSteps      int         `yaml:"max_steps"`
	HistoryWindow int         `yaml:"history_window"`
}

type SessionConfig struct {
	Type  string             `yaml:"type"`
	Redis SessionRedisConfig `yaml:"redis,omitempty"`
}

type SessionRedisConfig struct {
	Addr     string `yaml:"addr"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`
	Prefix   string `yaml:"prefix,omitempty"`
}

type StorageConfig struct {
	Enabled bool   `yaml:"enabled"`
	DSN     string `yaml:"dsn"`
}
