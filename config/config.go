package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"

	"airdrums/synth"
)

// ListenConfig is where the UDP receiver binds
type ListenConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// AudioConfig holds playback settings
type AudioConfig struct {
	SampleRate int `json:"sampleRate"`
	FadeMs     int `json:"fadeMs"`
	MaxVoices  int `json:"maxVoices"`
}

// UIConfig stores UI preferences
type UIConfig struct {
	AltScreen bool `json:"altScreen"`
}

// Config is the main configuration structure
type Config struct {
	Listen ListenConfig `json:"listen"`
	Audio  AudioConfig  `json:"audio"`
	Kit    string       `json:"kit"`
	Lights string       `json:"lights,omitempty"` // Launchpad output port, empty for none
	Debug  bool         `json:"debug,omitempty"`
	UI     UIConfig     `json:"ui"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Listen: ListenConfig{
			Host: "0.0.0.0",
			Port: 6000,
		},
		Audio: AudioConfig{
			SampleRate: synth.DefaultSampleRate,
			FadeMs:     100,
			MaxVoices:  32,
		},
		Kit: "gm",
		UI: UIConfig{
			AltScreen: true,
		},
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "airdrums"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from the default path, or returns defaults if not found
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads the config at path. Fields missing from the file keep
// their default values.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config to the default path
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the config to path, creating the directory
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate checks ranges and the kit name
func (c *Config) Validate() error {
	if c.Listen.Port < 0 || c.Listen.Port > 65535 {
		return fmt.Errorf("listen port %d out of range", c.Listen.Port)
	}
	if c.Audio.SampleRate < synth.MinSampleRate || c.Audio.SampleRate > synth.MaxSampleRate {
		return fmt.Errorf("%w: %d", synth.ErrSampleRate, c.Audio.SampleRate)
	}
	if c.Audio.FadeMs < 0 {
		return fmt.Errorf("fade %dms is negative", c.Audio.FadeMs)
	}
	if c.Audio.MaxVoices < 1 {
		return fmt.Errorf("max voices %d, need at least 1", c.Audio.MaxVoices)
	}
	if _, err := synth.LookupRoute(c.Kit); err != nil {
		return err
	}
	return nil
}

// Addr returns host:port for the listener
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Listen.Host, strconv.Itoa(c.Listen.Port))
}
