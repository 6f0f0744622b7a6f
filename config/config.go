// Package config provides configuration loading and management for the
// onboarding service.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/c360studio/onboard/engine"
)

// Config represents the complete onboarding service configuration
type Config struct {
	Engine    EngineConfig    `yaml:"engine"`
	Roles     []engine.RoleRule `yaml:"roles"`
	Tasks     TasksConfig     `yaml:"tasks"`
	Knowledge KnowledgeConfig `yaml:"knowledge"`
	NATS      NATSConfig      `yaml:"nats"`
}

// EngineConfig configures the workflow engine
type EngineConfig struct {
	// ProfileThreshold is the completeness score (0-100) required before
	// tasks are assigned
	ProfileThreshold int `yaml:"profile_threshold"`

	// FirstReminder is the delay after assignment before the first nudge
	FirstReminder time.Duration `yaml:"first_reminder"`

	// SecondReminder is the delay before the second nudge
	SecondReminder time.Duration `yaml:"second_reminder"`

	// Escalation is the delay before the manager is notified
	Escalation time.Duration `yaml:"escalation"`

	// CheckInterval is how often the reminder scheduler scans sessions
	CheckInterval time.Duration `yaml:"check_interval"`

	// ManagerEmail receives escalation notifications
	ManagerEmail string `yaml:"manager_email"`
}

// TasksConfig configures the task catalog. Empty sections fall back to
// the built-in templates.
type TasksConfig struct {
	// Base tasks are assigned to every new hire
	Base []engine.TaskTemplate `yaml:"base"`

	// Roles maps role tags to additional role-specific tasks
	Roles map[string][]engine.TaskTemplate `yaml:"roles"`
}

// KnowledgeConfig configures the policy knowledge base
type KnowledgeConfig struct {
	// SourcesDir is the directory of policy documents (.md, .html)
	SourcesDir string `yaml:"sources_dir"`

	// Watch enables live reload when policy files change
	Watch bool `yaml:"watch"`

	// DebounceDelay is how long to wait for more changes before reloading
	DebounceDelay time.Duration `yaml:"debounce_delay"`
}

// NATSConfig configures the NATS connection
type NATSConfig struct {
	// URL is the NATS server URL (NATS_URL environment variable overrides)
	URL string `yaml:"url"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			ProfileThreshold: 100,
			FirstReminder:    24 * time.Hour,
			SecondReminder:   48 * time.Hour,
			Escalation:       72 * time.Hour,
			CheckInterval:    15 * time.Minute,
			ManagerEmail:     "people-team@example.com",
		},
		Roles: engine.DefaultRoleRules(),
		Tasks: TasksConfig{
			Base:  engine.DefaultBaseTemplates(),
			Roles: engine.DefaultRoleTemplates(),
		},
		Knowledge: KnowledgeConfig{
			SourcesDir:    "policies",
			Watch:         true,
			DebounceDelay: 500 * time.Millisecond,
		},
		NATS: NATSConfig{
			URL: "nats://localhost:4222",
		},
	}
}

// ReminderPolicy converts the engine section to the scheduler's policy.
func (c *Config) ReminderPolicy() engine.ReminderPolicy {
	return engine.ReminderPolicy{
		First:      c.Engine.FirstReminder,
		Second:     c.Engine.SecondReminder,
		Escalation: c.Engine.Escalation,
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Engine.ProfileThreshold < 0 || c.Engine.ProfileThreshold > 100 {
		return fmt.Errorf("engine.profile_threshold must be between 0 and 100")
	}
	if err := c.ReminderPolicy().Validate(); err != nil {
		return fmt.Errorf("engine reminder delays: %w", err)
	}
	if c.Engine.CheckInterval <= 0 {
		return fmt.Errorf("engine.check_interval must be positive")
	}
	if c.Engine.ManagerEmail == "" {
		return fmt.Errorf("engine.manager_email is required")
	}
	for i := range c.Roles {
		if err := c.Roles[i].Validate(); err != nil {
			return fmt.Errorf("roles[%d]: %w", i, err)
		}
	}
	if _, err := engine.NewCatalog(c.Tasks.Base, c.Tasks.Roles); err != nil {
		return fmt.Errorf("tasks: %w", err)
	}
	if c.Knowledge.SourcesDir == "" {
		return fmt.Errorf("knowledge.sources_dir is required")
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Engine
	if other.Engine.ProfileThreshold != 0 {
		c.Engine.ProfileThreshold = other.Engine.ProfileThreshold
	}
	if other.Engine.FirstReminder != 0 {
		c.Engine.FirstReminder = other.Engine.FirstReminder
	}
	if other.Engine.SecondReminder != 0 {
		c.Engine.SecondReminder = other.Engine.SecondReminder
	}
	if other.Engine.Escalation != 0 {
		c.Engine.Escalation = other.Engine.Escalation
	}
	if other.Engine.CheckInterval != 0 {
		c.Engine.CheckInterval = other.Engine.CheckInterval
	}
	if other.Engine.ManagerEmail != "" {
		c.Engine.ManagerEmail = other.Engine.ManagerEmail
	}

	// Roles and tasks replace wholesale when provided
	if len(other.Roles) > 0 {
		c.Roles = other.Roles
	}
	if len(other.Tasks.Base) > 0 {
		c.Tasks.Base = other.Tasks.Base
	}
	if len(other.Tasks.Roles) > 0 {
		c.Tasks.Roles = other.Tasks.Roles
	}

	// Knowledge
	if other.Knowledge.SourcesDir != "" {
		c.Knowledge.SourcesDir = other.Knowledge.SourcesDir
	}
	if other.Knowledge.Watch {
		c.Knowledge.Watch = true
	}
	if other.Knowledge.DebounceDelay != 0 {
		c.Knowledge.DebounceDelay = other.Knowledge.DebounceDelay
	}

	// NATS
	if other.NATS.URL != "" {
		c.NATS.URL = other.NATS.URL
	}
}
