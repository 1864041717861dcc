package config

import (
	"errors"
	"fmt"
	"strings"

	"audio-trimmer/domain/audio"
)

// Default values used when the file leaves a setting empty
const (
	DefaultTrimSeconds     = 5
	DefaultConcurrency     = 1
	DefaultOutputDirectory = "trimmed"
	DefaultFFmpegPath      = "ffmpeg"
	DefaultFFprobePath     = "ffprobe"
	DefaultTokenFile       = "token.json"
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "console"
)

// ErrInvalidConfig is returned when a loaded configuration fails validation
var ErrInvalidConfig = errors.New("invalid configuration")

// Default returns a configuration with every default applied
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills unset (zero) fields with their defaults. Negative values
// are kept so Validate can report them.
func ApplyDefaults(cfg *Config) {
	if cfg.Trim.Seconds == 0 {
		cfg.Trim.Seconds = DefaultTrimSeconds
	}
	if cfg.Trim.Concurrency == 0 {
		cfg.Trim.Concurrency = DefaultConcurrency
	}
	if strings.TrimSpace(cfg.Trim.OutputDirectory) == "" {
		cfg.Trim.OutputDirectory = DefaultOutputDirectory
	}
	if cfg.Audio.BitrateKbps == 0 {
		cfg.Audio.BitrateKbps = audio.DefaultBitrateKbps
	}
	if strings.TrimSpace(cfg.FFmpeg.FFmpegPath) == "" {
		cfg.FFmpeg.FFmpegPath = DefaultFFmpegPath
	}
	if strings.TrimSpace(cfg.FFmpeg.FFprobePath) == "" {
		cfg.FFmpeg.FFprobePath = DefaultFFprobePath
	}
	if strings.TrimSpace(cfg.Google.TokenFile) == "" {
		cfg.Google.TokenFile = DefaultTokenFile
	}
	if strings.TrimSpace(cfg.Logging.Level) == "" {
		cfg.Logging.Level = DefaultLogLevel
	}
	if strings.TrimSpace(cfg.Logging.Format) == "" {
		cfg.Logging.Format = DefaultLogFormat
	}
}

// Validate checks values that would make every run fail
func Validate(cfg *Config) error {
	var problems []string

	if err := (audio.TrimSpec{Seconds: cfg.Trim.Seconds}).Validate(); err != nil {
		problems = append(problems, fmt.Sprintf("trim.seconds: %v", err))
	}
	if cfg.Trim.Concurrency < 1 {
		problems = append(problems, "trim.concurrency: must be at least 1")
	}
	if cfg.Audio.BitrateKbps != audio.DefaultBitrateKbps {
		problems = append(problems, fmt.Sprintf("audio.bitrate_kbps: only %d is supported", audio.DefaultBitrateKbps))
	}
	switch strings.ToLower(cfg.Logging.Format) {
	case "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format: %q is not console or json", cfg.Logging.Format))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w:\n  %s", ErrInvalidConfig, strings.Join(problems, "\n  "))
	}
	return nil
}
