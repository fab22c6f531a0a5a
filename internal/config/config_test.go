package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.HTTPPort != 8080 {
		t.Errorf("unexpected default port: %d", cfg.HTTPPort)
	}
	if cfg.SampleRate != 16000 {
		t.Errorf("unexpected default sample rate: %d", cfg.SampleRate)
	}
	if cfg.Channels != 1 {
		t.Errorf("unexpected default channel count: %d", cfg.Channels)
	}
	if cfg.SilenceLevel != 500 {
		t.Errorf("unexpected default silence level: %d", cfg.SilenceLevel)
	}
	if cfg.ScoringTimeout != 30*time.Second {
		t.Errorf("unexpected default scoring timeout: %v", cfg.ScoringTimeout)
	}
	if cfg.StorageBackend != "gcs" {
		t.Errorf("unexpected default storage backend: %s", cfg.StorageBackend)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SERVER_HTTP_PORT", "9999")
	t.Setenv("AUDIO_SILENCE_LEVEL", "750")
	t.Setenv("STORAGE_BACKEND", "r2")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.HTTPPort != 9999 {
		t.Errorf("port override not applied: %d", cfg.HTTPPort)
	}
	if cfg.SilenceLevel != 750 {
		t.Errorf("silence level override not applied: %d", cfg.SilenceLevel)
	}
	if cfg.StorageBackend != "r2" {
		t.Errorf("storage backend override not applied: %s", cfg.StorageBackend)
	}
}

func TestHTTPAddress(t *testing.T) {
	cfg := &Config{Host: "127.0.0.1", HTTPPort: 8081}
	if got := cfg.HTTPAddress(); got != "127.0.0.1:8081" {
		t.Errorf("unexpected address: %s", got)
	}
}

func TestEnvironmentHelpers(t *testing.T) {
	dev := &Config{Environment: "development"}
	if !dev.IsDevelopment() || dev.IsProduction() {
		t.Error("development environment misclassified")
	}

	prod := &Config{Environment: "production"}
	if !prod.IsProduction() || prod.IsDevelopment() {
		t.Error("production environment misclassified")
	}
}
