package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/c360studio/onboard/engine"
)

// Test Coverage:
// - Defaults validate cleanly
// - Validation rejects bad thresholds, delays, and templates
// - YAML round trip through SaveToFile/LoadFromFile
// - Merge precedence for non-zero values

func TestDefaultConfigValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() error = %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"threshold too high", func(c *Config) { c.Engine.ProfileThreshold = 101 }},
		{"threshold negative", func(c *Config) { c.Engine.ProfileThreshold = -1 }},
		{"reminder ladder out of order", func(c *Config) { c.Engine.SecondReminder = c.Engine.FirstReminder - time.Hour }},
		{"zero check interval", func(c *Config) { c.Engine.CheckInterval = 0 }},
		{"missing manager email", func(c *Config) { c.Engine.ManagerEmail = "" }},
		{"invalid role rule", func(c *Config) { c.Roles = []engine.RoleRule{{Role: "", Keywords: []string{"x"}}} }},
		{"invalid base template", func(c *Config) { c.Tasks.Base = []engine.TaskTemplate{{Title: ""}} }},
		{"missing sources dir", func(c *Config) { c.Knowledge.SourcesDir = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() error = nil, want error")
			}
		})
	}
}

func TestConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "onboard.yaml")

	original := DefaultConfig()
	original.Engine.ProfileThreshold = 80
	original.Engine.ManagerEmail = "boss@example.com"
	original.Knowledge.SourcesDir = "/srv/policies"

	if err := original.SaveToFile(path); err != nil {
		t.Fatalf("SaveToFile() error = %v", err)
	}

	loaded, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if loaded.Engine.ProfileThreshold != 80 {
		t.Errorf("ProfileThreshold = %d, want 80", loaded.Engine.ProfileThreshold)
	}
	if loaded.Engine.ManagerEmail != "boss@example.com" {
		t.Errorf("ManagerEmail = %q", loaded.Engine.ManagerEmail)
	}
	if loaded.Knowledge.SourcesDir != "/srv/policies" {
		t.Errorf("SourcesDir = %q", loaded.Knowledge.SourcesDir)
	}
	if loaded.Engine.FirstReminder != 24*time.Hour {
		t.Errorf("FirstReminder = %v, want default preserved", loaded.Engine.FirstReminder)
	}
}

func TestLoadFromFilePartialOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "onboard.yaml")
	partial := "engine:\n  profile_threshold: 60\n"
	if err := os.WriteFile(path, []byte(partial), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}
	if cfg.Engine.ProfileThreshold != 60 {
		t.Errorf("ProfileThreshold = %d, want 60", cfg.Engine.ProfileThreshold)
	}
	if cfg.Engine.ManagerEmail == "" {
		t.Error("defaults not preserved for unset fields")
	}
	if len(cfg.Tasks.Base) == 0 {
		t.Error("default base templates not preserved")
	}
}

func TestConfigMerge(t *testing.T) {
	base := DefaultConfig()
	other := &Config{}
	other.Engine.ProfileThreshold = 70
	other.Engine.ManagerEmail = "lead@example.com"
	other.NATS.URL = "nats://remote:4222"
	other.Roles = []engine.RoleRule{{Role: "custom", Keywords: []string{"wizard"}}}

	base.Merge(other)

	if base.Engine.ProfileThreshold != 70 {
		t.Errorf("ProfileThreshold = %d, want 70", base.Engine.ProfileThreshold)
	}
	if base.Engine.ManagerEmail != "lead@example.com" {
		t.Errorf("ManagerEmail = %q", base.Engine.ManagerEmail)
	}
	if base.NATS.URL != "nats://remote:4222" {
		t.Errorf("NATS.URL = %q", base.NATS.URL)
	}
	if len(base.Roles) != 1 || base.Roles[0].Role != "custom" {
		t.Errorf("Roles = %v, want custom rule set", base.Roles)
	}

	// Zero values in other must not clobber defaults.
	if base.Engine.FirstReminder != 24*time.Hour {
		t.Errorf("FirstReminder = %v, want default", base.Engine.FirstReminder)
	}
	if base.Knowledge.SourcesDir != "policies" {
		t.Errorf("SourcesDir = %q, want default", base.Knowledge.SourcesDir)
	}
}

func TestConfigMergeNil(t *testing.T) {
	base := DefaultConfig()
	base.Merge(nil)
	if err := base.Validate(); err != nil {
		t.Errorf("Merge(nil) broke config: %v", err)
	}
}

func TestReminderPolicy(t *testing.T) {
	cfg := DefaultConfig()
	policy := cfg.ReminderPolicy()
	if policy.First != cfg.Engine.FirstReminder || policy.Second != cfg.Engine.SecondReminder || policy.Escalation != cfg.Engine.Escalation {
		t.Errorf("ReminderPolicy() = %+v, want engine delays", policy)
	}
}
