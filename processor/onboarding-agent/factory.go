package onboardingagent

import (
	"fmt"

	"github.com/c360studio/semstreams/component"
)

// RegistryInterface defines the minimal interface needed for registration.
type RegistryInterface interface {
	RegisterWithConfig(component.RegistrationConfig) error
}

// Register registers the onboarding agent component with the given registry.
func Register(registry RegistryInterface) error {
	if registry == nil {
		return fmt.Errorf("registry cannot be nil")
	}
	return registry.RegisterWithConfig(component.RegistrationConfig{
		Name:        "onboarding-agent",
		Factory:     NewComponent,
		Schema:      agentSchema,
		Type:        "processor",
		Protocol:    "chat",
		Domain:      "onboard",
		Description: "Drives onboarding conversations, task assignment, and policy Q&A",
		Version:     "0.1.0",
	})
}
