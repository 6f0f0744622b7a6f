package engine

import (
	"fmt"
	"time"
)

// TaskTemplate is the reusable definition a TaskInstance is stamped from.
type TaskTemplate struct {
	// Title is the short task name.
	Title string `json:"title" yaml:"title"`

	// Description is the one-line summary shown in task lists.
	Description string `json:"description" yaml:"description"`

	// Priority indicates urgency.
	Priority Priority `json:"priority" yaml:"priority"`

	// DeadlineDays is the number of days after assignment the task is due.
	DeadlineDays int `json:"deadline_days" yaml:"deadline_days"`

	// Instructions is the step-by-step guidance shown on help requests.
	Instructions string `json:"instructions,omitempty" yaml:"instructions,omitempty"`

	// SuccessCriteria describes what "done" means.
	SuccessCriteria string `json:"success_criteria,omitempty" yaml:"success_criteria,omitempty"`
}

// Validate checks the template is well formed.
func (t *TaskTemplate) Validate() error {
	if t.Title == "" {
		return &ValidationError{Field: "title", Message: "title is required"}
	}
	if t.Description == "" {
		return &ValidationError{Field: "description", Message: "description is required"}
	}
	if !t.Priority.IsValid() {
		return &ValidationError{Field: "priority", Message: fmt.Sprintf("unknown priority %q", t.Priority)}
	}
	if t.DeadlineDays < 0 {
		return &ValidationError{Field: "deadline_days", Message: "deadline_days must be >= 0"}
	}
	return nil
}

// Catalog holds the validated template set: a base list every new hire
// gets plus role-specific extensions.
type Catalog struct {
	base  []TaskTemplate
	roles map[string][]TaskTemplate
}

// NewCatalog validates every template up front. A malformed template is a
// deployment error and fails loudly here rather than at assignment time.
func NewCatalog(base []TaskTemplate, roles map[string][]TaskTemplate) (*Catalog, error) {
	if len(base) == 0 {
		return nil, &ValidationError{Field: "base", Message: "at least one base template is required"}
	}
	for i := range base {
		if err := base[i].Validate(); err != nil {
			return nil, fmt.Errorf("base template %d: %w", i+1, err)
		}
	}
	for role, templates := range roles {
		for i := range templates {
			if err := templates[i].Validate(); err != nil {
				return nil, fmt.Errorf("role %s template %d: %w", role, i+1, err)
			}
		}
	}
	return &Catalog{base: base, roles: roles}, nil
}

// Build instantiates the ordered task set for a role: base templates first,
// then role-specific ones, with 1-based indices stable for the session's
// lifetime. Unknown roles get the base set only.
func (c *Catalog) Build(role string, now time.Time) []*TaskInstance {
	templates := make([]TaskTemplate, 0, len(c.base)+len(c.roles[role]))
	templates = append(templates, c.base...)
	templates = append(templates, c.roles[role]...)

	instances := make([]*TaskInstance, len(templates))
	for i, tmpl := range templates {
		instances[i] = &TaskInstance{
			Index:           i + 1,
			Title:           tmpl.Title,
			Description:     tmpl.Description,
			Priority:        tmpl.Priority,
			Instructions:    tmpl.Instructions,
			SuccessCriteria: tmpl.SuccessCriteria,
			Status:          TaskNotStarted,
			AssignedAt:      now,
			DueAt:           now.AddDate(0, 0, tmpl.DeadlineDays),
		}
	}
	return instances
}

// Roles returns the role tags with specific template extensions.
func (c *Catalog) Roles() []string {
	roles := make([]string, 0, len(c.roles))
	for role := range c.roles {
		roles = append(roles, role)
	}
	return roles
}

// DefaultBaseTemplates returns the task set every new hire receives.
func DefaultBaseTemplates() []TaskTemplate {
	return []TaskTemplate{
		{
			Title:           "Complete Profile Setup",
			Description:     "Fill out your chat profile with your name, job title, and photo",
			Priority:        PriorityCritical,
			DeadlineDays:    1,
			Instructions:    "Open your profile settings, add your full name, job title, and a profile photo. Optional fields like phone and timezone help your teammates reach you.",
			SuccessCriteria: "Profile completeness reaches 100%",
		},
		{
			Title:           "Read Employee Handbook",
			Description:     "Review the employee handbook and company policies",
			Priority:        PriorityHigh,
			DeadlineDays:    3,
			Instructions:    "The handbook covers working hours, leave policy, code of conduct, and benefits. Ask me about any policy and I will point you at the right section.",
			SuccessCriteria: "You can answer the handbook acknowledgment quiz",
		},
		{
			Title:           "Complete Security Training",
			Description:     "Finish the mandatory security awareness training",
			Priority:        PriorityCritical,
			DeadlineDays:    5,
			Instructions:    "Log in to the training portal with your company account and complete all security modules, including phishing awareness and password hygiene.",
			SuccessCriteria: "Training portal shows all security modules passed",
		},
	}
}

// DefaultRoleTemplates returns the built-in role-specific extensions.
func DefaultRoleTemplates() map[string][]TaskTemplate {
	developer := []TaskTemplate{
		{
			Title:           "Set Up Development Environment",
			Description:     "Install the toolchain and get the main repository building locally",
			Priority:        PriorityHigh,
			DeadlineDays:    2,
			Instructions:    "Follow the environment setup guide: install the language toolchain, clone the main repository, and run the test suite end to end.",
			SuccessCriteria: "Test suite passes on your machine",
		},
		{
			Title:           "Read Code Review Guidelines",
			Description:     "Learn the team's code review and contribution conventions",
			Priority:        PriorityMedium,
			DeadlineDays:    5,
			Instructions:    "Read the code review guidelines document and review two recent merged pull requests to see the conventions in practice.",
			SuccessCriteria: "You have commented on at least one open pull request",
		},
		{
			Title:           "Meet Your Tech Lead",
			Description:     "Schedule an introduction meeting with your tech lead",
			Priority:        PriorityHigh,
			DeadlineDays:    3,
			Instructions:    "Find your tech lead in the team directory and book a 30 minute introduction on their calendar.",
			SuccessCriteria: "Introduction meeting has happened",
		},
	}

	return map[string][]TaskTemplate{
		"software_developer": developer,
		"ai_engineer":        developer,
		"data_scientist":     developer,
		"hr_associate": {
			{
				Title:           "Complete HRIS Training",
				Description:     "Learn the HR information system used for employee records",
				Priority:        PriorityHigh,
				DeadlineDays:    3,
				Instructions:    "Request HRIS access from IT, then complete the admin walkthrough with your onboarding buddy.",
				SuccessCriteria: "You can look up and update an employee record",
			},
			{
				Title:           "Complete Compliance Training",
				Description:     "Finish the employment law and compliance modules",
				Priority:        PriorityCritical,
				DeadlineDays:    5,
				Instructions:    "Complete all compliance modules in the training portal, including anti-harassment and data privacy.",
				SuccessCriteria: "Training portal shows all compliance modules passed",
			},
		},
		"sales": {
			{
				Title:           "Set Up CRM Access",
				Description:     "Get access to the CRM and learn the pipeline stages",
				Priority:        PriorityHigh,
				DeadlineDays:    2,
				Instructions:    "Request a CRM seat from sales ops, then complete the pipeline walkthrough with your manager.",
				SuccessCriteria: "You can create and advance an opportunity in the CRM",
			},
			{
				Title:           "Pass Product Knowledge Quiz",
				Description:     "Learn the product line well enough to pass the knowledge quiz",
				Priority:        PriorityMedium,
				DeadlineDays:    7,
				Instructions:    "Work through the product training deck and demo environment, then take the quiz in the training portal.",
				SuccessCriteria: "Quiz score of 80% or higher",
			},
		},
	}
}
