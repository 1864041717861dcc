package config

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ErrUnknownKey is returned for a dotted key that does not name a setting
var ErrUnknownKey = errors.New("unknown config key")

// setting binds a dotted key to accessors on Config
type setting struct {
	get func(*Config) string
	set func(*Config, string) error
}

var settings = map[string]setting{
	"trim.seconds": {
		get: func(c *Config) string { return strconv.FormatFloat(c.Trim.Seconds, 'f', -1, 64) },
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("trim.seconds must be a number: %w", err)
			}
			c.Trim.Seconds = f
			return nil
		},
	},
	"trim.concurrency": {
		get: func(c *Config) string { return strconv.Itoa(c.Trim.Concurrency) },
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("trim.concurrency must be an integer: %w", err)
			}
			c.Trim.Concurrency = n
			return nil
		},
	},
	"trim.output_directory": {
		get: func(c *Config) string { return c.Trim.OutputDirectory },
		set: func(c *Config, v string) error { c.Trim.OutputDirectory = v; return nil },
	},
	"audio.bitrate_kbps": {
		get: func(c *Config) string { return strconv.Itoa(c.Audio.BitrateKbps) },
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("audio.bitrate_kbps must be an integer: %w", err)
			}
			c.Audio.BitrateKbps = n
			return nil
		},
	},
	"ffmpeg.ffmpeg_path": {
		get: func(c *Config) string { return c.FFmpeg.FFmpegPath },
		set: func(c *Config, v string) error { c.FFmpeg.FFmpegPath = v; return nil },
	},
	"ffmpeg.ffprobe_path": {
		get: func(c *Config) string { return c.FFmpeg.FFprobePath },
		set: func(c *Config, v string) error { c.FFmpeg.FFprobePath = v; return nil },
	},
	"google.credentials_file": {
		get: func(c *Config) string { return c.Google.CredentialsFile },
		set: func(c *Config, v string) error { c.Google.CredentialsFile = v; return nil },
	},
	"google.token_file": {
		get: func(c *Config) string { return c.Google.TokenFile },
		set: func(c *Config, v string) error { c.Google.TokenFile = v; return nil },
	},
	"google.folder_id": {
		get: func(c *Config) string { return c.Google.FolderID },
		set: func(c *Config, v string) error { c.Google.FolderID = v; return nil },
	},
	"logging.level": {
		get: func(c *Config) string { return c.Logging.Level },
		set: func(c *Config, v string) error { c.Logging.Level = v; return nil },
	},
	"logging.format": {
		get: func(c *Config) string { return c.Logging.Format },
		set: func(c *Config, v string) error { c.Logging.Format = v; return nil },
	},
}

// ConfigManager reads and updates individual settings and persists them
type ConfigManager struct {
	config     *Config
	configPath string
}

// NewConfigManager creates a new config manager
func NewConfigManager(cfg *Config, configPath string) *ConfigManager {
	return &ConfigManager{
		config:     cfg,
		configPath: configPath,
	}
}

// Keys returns every settable key in sorted order
func (m *ConfigManager) Keys() []string {
	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the current value of key
func (m *ConfigManager) Get(key string) (string, error) {
	s, ok := settings[normalizeKey(key)]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	return s.get(m.config), nil
}

// Set validates and stores a new value for key, then saves the file.
// The in-memory config is left unchanged when validation fails.
func (m *ConfigManager) Set(key, value string) error {
	s, ok := settings[normalizeKey(key)]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}

	updated := *m.config
	if err := s.set(&updated, strings.TrimSpace(value)); err != nil {
		return err
	}
	ApplyDefaults(&updated)
	if err := Validate(&updated); err != nil {
		return err
	}

	*m.config = updated
	return Save(m.config, m.configPath)
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// SuggestSetCommand returns the command that changes key
func SuggestSetCommand(key, example string) string {
	return fmt.Sprintf("audio-trimmer config set %s %s", key, example)
}
