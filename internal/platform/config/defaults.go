package config

import "time"

// Default constructs the baseline configuration. Values here match a local
// single-node deployment; the YAML file and environment overlay on top.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Auth: AuthConfig{
				Enabled: false,
				Expiry:  time.Hour,
			},
		},
		Log: LogConfig{
			Level:  "info",
			Dir:    "logs",
			File:   "server.log",
			Format: "text",
		},
		Web: WebConfig{
			Enabled:   true,
			Port:      8080,
			StaticDir: "./web",
		},
		Vision: VisionConfig{
			Captioner: CaptionerConfig{
				ModelConfig: ModelConfig{
					Type:        "openai",
					ModelName:   "gpt-4o-mini",
					Temperature: 0.2,
					TopP:        1.0,
				},
				MaxCaptionTokens: 20,
			},
			Detector: DetectorConfig{
				ModelConfig: ModelConfig{
					Type:        "openai",
					ModelName:   "gpt-4o-mini",
					Temperature: 0.0,
					TopP:        1.0,
					MaxTokens:   512,
				},
				ConfidenceThreshold: 0.9,
			},
			Security: SecurityConfig{
				MaxFileSize:    5 * 1024 * 1024,
				MaxPixels:      16777216,
				MaxWidth:       4096,
				MaxHeight:      4096,
				AllowedFormats: []string{"jpeg", "jpg", "png", "webp", "gif", "bmp"},
				EnableDeepScan: true,
			},
		},
		Agent: AgentConfig{
			Model: ModelConfig{
				Type:        "openai",
				ModelName:   "gpt-4o-mini",
				Temperature: 0.7,
				TopP:        1.0,
				MaxTokens:   1024,
			},
			Prompt:        "You are a visual assistant. Use the available tools to inspect images before answering questions about them.",
			MaxSteps:      5,
			HistoryWindow: 5,
		},
		Session: SessionConfig{
			Type: "memory",
		},
		Storage: StorageConfig{
			Enabled: true,
			DSN:     "data/lens.db",
		},
	}
}
