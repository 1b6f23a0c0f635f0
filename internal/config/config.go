// Package config loads the engine configuration from an optional YAML file
// with sane defaults for every field.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the full configuration for the capture engine and CLI.
type Config struct {
	Audio     AudioConfig     `mapstructure:"audio" yaml:"audio"`
	Recording RecordingConfig `mapstructure:"recording" yaml:"recording"`
	Output    OutputConfig    `mapstructure:"output" yaml:"output"`
	LogLevel  string          `mapstructure:"log_level" yaml:"log_level"`
}

type AudioConfig struct {
	// Backend selects the capture implementation: portaudio, malgo, auto.
	Backend string `mapstructure:"backend" yaml:"backend"`
	// Device names the capture device; empty uses the system default.
	Device string `mapstructure:"device" yaml:"device"`
	// SampleRate requested from the device.
	SampleRate int `mapstructure:"sample_rate" yaml:"sample_rate"`
	// ChunkFrames is the fixed capture window size, in frames.
	ChunkFrames int `mapstructure:"chunk_frames" yaml:"chunk_frames"`
}

type RecordingConfig struct {
	// MaxDurationSeconds hard-stops a recording that reaches it. 0 disables.
	MaxDurationSeconds float64 `mapstructure:"max_duration_seconds" yaml:"max_duration_seconds"`
	// MinDurationSeconds is advisory; shorter takes get a warning.
	MinDurationSeconds float64 `mapstructure:"min_duration_seconds" yaml:"min_duration_seconds"`
}

type OutputConfig struct {
	// Directory receives recorded WAV files.
	Directory string `mapstructure:"directory" yaml:"directory"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Audio: AudioConfig{
			Backend:     "auto",
			Device:      "",
			SampleRate:  48000,
			ChunkFrames: 2048,
		},
		Recording: RecordingConfig{
			MaxDurationSeconds: 0,
			MinDurationSeconds: 0,
		},
		Output: OutputConfig{
			Directory: ".",
		},
		LogLevel: "info",
	}
}

// Load reads the config file at path, if it exists, merged over defaults.
// A missing file is not an error; an invalid one is.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config %s: %w", path, err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	def := Default()
	v.SetDefault("audio.backend", def.Audio.Backend)
	v.SetDefault("audio.device", def.Audio.Device)
	v.SetDefault("audio.sample_rate", def.Audio.SampleRate)
	v.SetDefault("audio.chunk_frames", def.Audio.ChunkFrames)
	v.SetDefault("recording.max_duration_seconds", def.Recording.MaxDurationSeconds)
	v.SetDefault("recording.min_duration_seconds", def.Recording.MinDurationSeconds)
	v.SetDefault("output.directory", def.Output.Directory)
	v.SetDefault("log_level", def.LogLevel)
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	switch c.Audio.Backend {
	case "", "auto", "portaudio", "malgo":
	default:
		return fmt.Errorf("invalid audio backend %q (expected auto, portaudio, or malgo)", c.Audio.Backend)
	}
	if c.Audio.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate %d", c.Audio.SampleRate)
	}
	if c.Audio.ChunkFrames < 64 {
		return fmt.Errorf("chunk_frames %d is too small (minimum 64)", c.Audio.ChunkFrames)
	}
	if c.Recording.MaxDurationSeconds < 0 || c.Recording.MinDurationSeconds < 0 {
		return fmt.Errorf("recording durations must not be negative")
	}
	if max, min := c.Recording.MaxDurationSeconds, c.Recording.MinDurationSeconds; max > 0 && min > max {
		return fmt.Errorf("min_duration_seconds %v exceeds max_duration_seconds %v", min, max)
	}
	return nil
}

// WriteDefault writes the default configuration as YAML to path, creating
// parent directories as needed. Refuses to overwrite an existing file.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}

	data, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("failed to marshal default config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
