package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFromMissingFileUsesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if cfg.Audio.Backend != BackendPortAudio {
		t.Errorf("expected default backend %s, got %s", BackendPortAudio, cfg.Audio.Backend)
	}
	if cfg.Audio.BufferCapacity != 0 {
		t.Errorf("expected unbounded buffer by default, got %d", cfg.Audio.BufferCapacity)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("expected info log level, got %s", cfg.LogLevel)
	}
}

func TestLoadFromFileAndEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())

	path := filepath.Join(t.TempDir(), "config.json")
	data := `{"log_level":"debug","audio":{"backend":"miniaudio","default_device":"USB Mic","buffer_capacity":96000}}`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if cfg.LogLevel != "debug" || cfg.Audio.Backend != BackendMiniaudio ||
		cfg.Audio.DefaultDevice != "USB Mic" || cfg.Audio.BufferCapacity != 96000 {
		t.Errorf("file values not applied: %+v", cfg)
	}

	t.Setenv("AUDIOCAP_BACKEND", "PULSE")
	t.Setenv("AUDIOCAP_BUFFER_CAPACITY", "1024")

	cfg, err = LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if cfg.Audio.Backend != BackendPulse {
		t.Errorf("expected env backend override, got %s", cfg.Audio.Backend)
	}
	if cfg.Audio.BufferCapacity != 1024 {
		t.Errorf("expected env capacity override, got %d", cfg.Audio.BufferCapacity)
	}
	if cfg.Audio.DefaultDevice != "USB Mic" {
		t.Errorf("unrelated field changed: %s", cfg.Audio.DefaultDevice)
	}
}

func TestLoadFromDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	// godotenv never overrides a variable that is already set
	t.Setenv("AUDIOCAP_DEFAULT_DEVICE", "")
	os.Unsetenv("AUDIOCAP_DEFAULT_DEVICE")
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("AUDIOCAP_DEFAULT_DEVICE=Line In\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(filepath.Join(dir, "none.json"))
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if cfg.Audio.DefaultDevice != "Line In" {
		t.Errorf("expected .env default device, got %q", cfg.Audio.DefaultDevice)
	}
}

func TestLoadFromRejectsBadInput(t *testing.T) {
	t.Chdir(t.TempDir())

	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Error("expected parse error")
	}

	t.Setenv("AUDIOCAP_BUFFER_CAPACITY", "-5")
	if _, err := LoadFrom(filepath.Join(t.TempDir(), "none.json")); err == nil {
		t.Error("expected error for negative capacity")
	}
}
