package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "voicecapture.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Audio.Backend != "auto" {
		t.Errorf("expected backend auto, got %q", cfg.Audio.Backend)
	}
	if cfg.Audio.SampleRate != 48000 {
		t.Errorf("expected sample rate 48000, got %d", cfg.Audio.SampleRate)
	}
	if cfg.Audio.ChunkFrames != 2048 {
		t.Errorf("expected chunk frames 2048, got %d", cfg.Audio.ChunkFrames)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("expected log level info, got %q", cfg.LogLevel)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing file should not fail: %v", err)
	}
	if cfg.Audio.SampleRate != 48000 {
		t.Errorf("expected default sample rate, got %d", cfg.Audio.SampleRate)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeTempConfig(t, `
audio:
  backend: malgo
  device: "USB Microphone"
  sample_rate: 16000
recording:
  max_duration_seconds: 120
  min_duration_seconds: 3
output:
  directory: /tmp/takes
log_level: debug
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Audio.Backend != "malgo" {
		t.Errorf("expected backend malgo, got %q", cfg.Audio.Backend)
	}
	if cfg.Audio.Device != "USB Microphone" {
		t.Errorf("expected device override, got %q", cfg.Audio.Device)
	}
	if cfg.Audio.SampleRate != 16000 {
		t.Errorf("expected sample rate 16000, got %d", cfg.Audio.SampleRate)
	}
	// chunk_frames not set in the file, should keep the default
	if cfg.Audio.ChunkFrames != 2048 {
		t.Errorf("expected default chunk frames, got %d", cfg.Audio.ChunkFrames)
	}
	if cfg.Recording.MaxDurationSeconds != 120 {
		t.Errorf("expected max duration 120, got %v", cfg.Recording.MaxDurationSeconds)
	}
	if cfg.Output.Directory != "/tmp/takes" {
		t.Errorf("expected output directory override, got %q", cfg.Output.Directory)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "unknown backend",
			mutate:  func(c *Config) { c.Audio.Backend = "coreaudio" },
			wantErr: "invalid audio backend",
		},
		{
			name:    "zero sample rate",
			mutate:  func(c *Config) { c.Audio.SampleRate = 0 },
			wantErr: "invalid sample rate",
		},
		{
			name:    "tiny chunk",
			mutate:  func(c *Config) { c.Audio.ChunkFrames = 16 },
			wantErr: "too small",
		},
		{
			name:    "negative duration",
			mutate:  func(c *Config) { c.Recording.MaxDurationSeconds = -1 },
			wantErr: "must not be negative",
		},
		{
			name: "min above max",
			mutate: func(c *Config) {
				c.Recording.MaxDurationSeconds = 5
				c.Recording.MinDurationSeconds = 10
			},
			wantErr: "exceeds max_duration_seconds",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestLoadInvalidConfigFails(t *testing.T) {
	path := writeTempConfig(t, "audio:\n  sample_rate: -1\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected validation failure for negative sample rate")
	}
}

func TestWriteDefaultRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "voicecapture.yaml")
	if err := WriteDefault(path); err != nil {
		t.Fatalf("write default failed: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load of written default failed: %v", err)
	}
	if *cfg != *Default() {
		t.Fatalf("written default does not round trip: %+v", cfg)
	}

	if err := WriteDefault(path); err == nil {
		t.Fatal("expected refusal to overwrite an existing config")
	}
}
