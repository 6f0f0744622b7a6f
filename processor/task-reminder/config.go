package taskreminder

import (
	"fmt"
	"reflect"
	"time"

	"github.com/c360studio/semstreams/component"

	"github.com/c360studio/onboard/engine"
)

// reminderSchema defines the configuration schema.
var reminderSchema = component.GenerateConfigSchema(reflect.TypeOf(Config{}))

// Config holds configuration for the task reminder component.
type Config struct {
	// CheckInterval is how often to scan sessions for due reminders.
	CheckInterval time.Duration `json:"check_interval"`

	// FirstReminder is the delay after assignment before the first nudge.
	FirstReminder time.Duration `json:"first_reminder"`

	// SecondReminder is the delay before the second nudge.
	SecondReminder time.Duration `json:"second_reminder"`

	// Escalation is the delay before the manager is notified.
	Escalation time.Duration `json:"escalation"`

	// ManagerEmail receives escalation notifications.
	ManagerEmail string `json:"manager_email"`

	// ProfileThreshold is the completeness score required before tasks
	// are assigned. Must match the onboarding agent's setting so the
	// shared controller applies one profile gate.
	ProfileThreshold int `json:"profile_threshold"`

	// Ports contains input/output port definitions.
	Ports *component.PortConfig `json:"ports,omitempty"`
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() Config {
	return Config{
		CheckInterval:    15 * time.Minute,
		FirstReminder:    24 * time.Hour,
		SecondReminder:   48 * time.Hour,
		Escalation:       72 * time.Hour,
		ManagerEmail:     "people-team@example.com",
		ProfileThreshold: 100,
		Ports: &component.PortConfig{
			Inputs: []component.PortDefinition{
				{
					Name:        "sessions",
					Type:        "kv-watch",
					Subject:     engine.SessionsBucket,
					Description: "Onboarding sessions scanned for due reminders",
					Required:    true,
				},
			},
			Outputs: []component.PortDefinition{
				{
					Name:        "chat-reminders",
					Type:        "jetstream",
					Subject:     "notify.chat.>",
					StreamName:  "NOTIFY",
					Description: "Reminder nudges delivered to users",
					Required:    true,
				},
				{
					Name:        "email-escalations",
					Type:        "jetstream",
					Subject:     "notify.email.>",
					StreamName:  "NOTIFY",
					Description: "Escalations delivered to the manager",
					Required:    true,
				},
			},
		},
	}
}

// Policy converts the configured delays to the engine's reminder policy.
func (c *Config) Policy() engine.ReminderPolicy {
	return engine.ReminderPolicy{
		First:      c.FirstReminder,
		Second:     c.SecondReminder,
		Escalation: c.Escalation,
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.CheckInterval <= 0 {
		return fmt.Errorf("check_interval must be positive")
	}
	if err := c.Policy().Validate(); err != nil {
		return fmt.Errorf("reminder delays: %w", err)
	}
	if c.ManagerEmail == "" {
		return fmt.Errorf("manager_email is required")
	}
	if c.ProfileThreshold < 0 || c.ProfileThreshold > 100 {
		return fmt.Errorf("profile_threshold must be between 0 and 100")
	}
	return nil
}
