package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.toml")
	if err := os.WriteFile(path, []byte(""), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Sim.TickRate != 50*time.Millisecond {
		t.Fatalf("TickRate = %v, want 50ms", cfg.Sim.TickRate)
	}
	if cfg.Sim.EntityCapacity != 8192 {
		t.Fatalf("EntityCapacity = %d, want 8192", cfg.Sim.EntityCapacity)
	}
	if cfg.Spatial.CellSize != 128 {
		t.Fatalf("CellSize = %v, want 128", cfg.Spatial.CellSize)
	}
	if cfg.Ecology.LoadRadiusCells != 3 {
		t.Fatalf("LoadRadiusCells = %d, want 3", cfg.Ecology.LoadRadiusCells)
	}
	if cfg.Database.Enabled {
		t.Fatalf("database must default to disabled")
	}
}

func TestLoadOverridesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.toml")
	content := `
[world]
seed = 99
day_length = "48m"

[sim]
tick_rate = "100ms"
entity_capacity = 256

[planner]
trigger_hour = 3
batch_size = 2

[logging]
level = "debug"
format = "json"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.World.Seed != 99 {
		t.Fatalf("Seed = %d, want 99", cfg.World.Seed)
	}
	if cfg.World.DayLength != 48*time.Minute {
		t.Fatalf("DayLength = %v, want 48m", cfg.World.DayLength)
	}
	if cfg.Sim.TickRate != 100*time.Millisecond {
		t.Fatalf("TickRate = %v, want 100ms", cfg.Sim.TickRate)
	}
	if cfg.Sim.EntityCapacity != 256 {
		t.Fatalf("EntityCapacity = %d, want 256", cfg.Sim.EntityCapacity)
	}
	if cfg.Planner.TriggerHour != 3 || cfg.Planner.BatchSize != 2 {
		t.Fatalf("planner = %+v", cfg.Planner)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Fatalf("logging = %+v", cfg.Logging)
	}
	// Sections not present keep their defaults.
	if cfg.Gateway.BindAddress != "0.0.0.0:8780" {
		t.Fatalf("BindAddress = %q", cfg.Gateway.BindAddress)
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	if _, err := Load("does/not/exist.toml"); err == nil {
		t.Fatalf("missing config must error")
	}
}
