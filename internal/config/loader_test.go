package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFrom_DefaultsWhenFileMissing(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Scheduler.DrivingInterval != 2*time.Second {
		t.Errorf("expected 2s driving interval, got %s", cfg.Scheduler.DrivingInterval)
	}
	if cfg.Scheduler.BackgroundInterval != 5*time.Second {
		t.Errorf("expected 5s background interval, got %s", cfg.Scheduler.BackgroundInterval)
	}
}

func TestLoadFrom_YAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trailbench.yaml")
	data := []byte("server:\n  port: \"9999\"\njudge:\n  url: http://judge:7000\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9999" {
		t.Errorf("expected port 9999 from yaml, got %s", cfg.Server.Port)
	}
	if cfg.Judge.URL != "http://judge:7000" {
		t.Errorf("expected judge url from yaml, got %s", cfg.Judge.URL)
	}
	// Untouched sections keep defaults.
	if cfg.NATS.URL != "nats://localhost:4222" {
		t.Errorf("expected default nats url, got %s", cfg.NATS.URL)
	}
}

func TestLoadFrom_EnvOverridesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trailbench.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: \"9999\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TRAILBENCH_PORT", "7777")
	t.Setenv("TRAILBENCH_SCHED_BACKGROUND_INTERVAL", "10s")

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "7777" {
		t.Errorf("expected env to win, got %s", cfg.Server.Port)
	}
	if cfg.Scheduler.BackgroundInterval != 10*time.Second {
		t.Errorf("expected 10s from env, got %s", cfg.Scheduler.BackgroundInterval)
	}
}

func TestLoadFrom_InvalidYAMLFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("server: [not a map"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Fatal("expected error for invalid yaml")
	}
}

func TestValidate_RejectsZeroIntervals(t *testing.T) {
	cfg := Defaults()
	cfg.Scheduler.DrivingInterval = 0
	if err := validate(&cfg); err == nil {
		t.Fatal("expected validation error for zero interval")
	}
}
