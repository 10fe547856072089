package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
)

const (
	BackendPortAudio = "portaudio"
	BackendMiniaudio = "miniaudio"
	BackendPulse     = "pulse"
)

type Config struct {
	LogLevel string      `json:"log_level"` // zerolog level name
	Audio    AudioConfig `json:"audio"`
}

type AudioConfig struct {
	Backend       string `json:"backend"`
	DefaultDevice string `json:"default_device"`
	// BufferCapacity bounds each session's sample buffer. Zero means unbounded.
	BufferCapacity int `json:"buffer_capacity"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Audio: AudioConfig{
			Backend:        BackendPortAudio,
			DefaultDevice:  "",
			BufferCapacity: 0,
		},
	}
}

// Load reads the config from disk or returns defaults, then applies
// environment overrides
func Load() (*Config, error) {
	return LoadFrom(configPath())
}

// LoadFrom is Load with an explicit config file path
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	// Load existing config if it exists
	if data, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("AUDIOCAP_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("AUDIOCAP_BACKEND"); v != "" {
		c.Audio.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("AUDIOCAP_DEFAULT_DEVICE"); v != "" {
		c.Audio.DefaultDevice = v
	}
	if v := os.Getenv("AUDIOCAP_BUFFER_CAPACITY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid AUDIOCAP_BUFFER_CAPACITY %q", v)
		}
		c.Audio.BufferCapacity = n
	}
	return nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	path, err := xdg.ConfigFile(filepath.Join("audiocap", "config.json"))
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

func configPath() string {
	return filepath.Join(xdg.ConfigHome, "audiocap", "config.json")
}
