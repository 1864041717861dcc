package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where commands look for the configuration file
const DefaultPath = "config/config.yaml"

// Config represents the complete application configuration
type Config struct {
	Trim    TrimConfig    `yaml:"trim"`
	Audio   AudioConfig   `yaml:"audio"`
	FFmpeg  FFmpegConfig  `yaml:"ffmpeg"`
	Google  GoogleConfig  `yaml:"google"`
	Logging LoggingConfig `yaml:"logging"`
}

// TrimConfig contains batch trimming settings
type TrimConfig struct {
	Seconds         float64 `yaml:"seconds"`
	Concurrency     int     `yaml:"concurrency"`
	OutputDirectory string  `yaml:"output_directory"`
}

// AudioConfig contains encoder settings
type AudioConfig struct {
	BitrateKbps int `yaml:"bitrate_kbps"`
}

// FFmpegConfig contains paths to the ffmpeg tools
type FFmpegConfig struct {
	FFmpegPath  string `yaml:"ffmpeg_path"`
	FFprobePath string `yaml:"ffprobe_path"`
}

// GoogleConfig contains Google Drive upload settings
type GoogleConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
	TokenFile       string `yaml:"token_file"`
	FolderID        string `yaml:"folder_id"`
}

// LoggingConfig contains diagnostic log settings
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads and parses the configuration from the specified YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	ApplyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration to the specified YAML file
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
