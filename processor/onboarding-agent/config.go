package onboardingagent

import (
	"fmt"
	"reflect"

	"github.com/c360studio/semstreams/component"

	"github.com/c360studio/onboard/engine"
)

// agentSchema defines the configuration schema.
var agentSchema = component.GenerateConfigSchema(reflect.TypeOf(Config{}))

// Config holds configuration for the onboarding agent component.
type Config struct {
	// StreamName is the JetStream stream carrying chat traffic.
	StreamName string `json:"stream_name"`

	// ConsumerName is the durable consumer name for inbound messages.
	ConsumerName string `json:"consumer_name"`

	// ProfileThreshold is the completeness score (0-100) required before
	// tasks are assigned.
	ProfileThreshold int `json:"profile_threshold"`

	// Roles overrides the built-in job-title routing rules.
	Roles []engine.RoleRule `json:"roles,omitempty"`

	// BaseTasks overrides the built-in tasks assigned to every hire.
	BaseTasks []engine.TaskTemplate `json:"base_tasks,omitempty"`

	// RoleTasks overrides the built-in role-specific task sets.
	RoleTasks map[string][]engine.TaskTemplate `json:"role_tasks,omitempty"`

	// SourcesDir is the policy document directory for the knowledge base.
	SourcesDir string `json:"sources_dir"`

	// WatchPolicies enables live reload of policy documents.
	WatchPolicies bool `json:"watch_policies"`

	// Ports contains input/output port definitions.
	Ports *component.PortConfig `json:"ports,omitempty"`
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() Config {
	return Config{
		StreamName:       "CHAT",
		ConsumerName:     "onboarding-agent",
		ProfileThreshold: 100,
		SourcesDir:       "policies",
		WatchPolicies:    true,
		Ports: &component.PortConfig{
			Inputs: []component.PortDefinition{
				{
					Name:        "chat-in",
					Type:        "jetstream",
					Subject:     "chat.message.in.>",
					StreamName:  "CHAT",
					Description: "Inbound chat messages from users",
					Required:    true,
				},
			},
			Outputs: []component.PortDefinition{
				{
					Name:        "chat-out",
					Type:        "jetstream",
					Subject:     "chat.message.out.>",
					StreamName:  "CHAT",
					Description: "Responses back to users",
					Required:    true,
				},
				{
					Name:        "qa-forward",
					Type:        "jetstream",
					Subject:     "qa.question.>",
					StreamName:  "QA",
					Description: "Unanswerable questions forwarded to humans",
					Required:    false,
				},
			},
		},
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.StreamName == "" {
		return fmt.Errorf("stream_name is required")
	}
	if c.ConsumerName == "" {
		return fmt.Errorf("consumer_name is required")
	}
	if c.ProfileThreshold < 0 || c.ProfileThreshold > 100 {
		return fmt.Errorf("profile_threshold must be between 0 and 100")
	}
	if c.SourcesDir == "" {
		return fmt.Errorf("sources_dir is required")
	}
	return nil
}
