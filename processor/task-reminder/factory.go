package taskreminder

import (
	"fmt"

	"github.com/c360studio/semstreams/component"
)

// RegistryInterface defines the minimal interface needed for registration.
type RegistryInterface interface {
	RegisterWithConfig(component.RegistrationConfig) error
}

// Register registers the task reminder component with the given registry.
func Register(registry RegistryInterface) error {
	if registry == nil {
		return fmt.Errorf("registry cannot be nil")
	}
	return registry.RegisterWithConfig(component.RegistrationConfig{
		Name:        "task-reminder",
		Factory:     NewComponent,
		Schema:      reminderSchema,
		Type:        "processor",
		Protocol:    "notify",
		Domain:      "onboard",
		Description: "Scans onboarding sessions and escalates overdue tasks on a schedule",
		Version:     "0.1.0",
	})
}
