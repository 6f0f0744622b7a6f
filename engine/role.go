package engine

import "strings"

// RoleOther is the fallback role when no rule matches a job title.
const RoleOther = "other"

// RoleRule maps a set of job-title keywords to a role tag.
type RoleRule struct {
	// Role is the tag produced when a keyword matches (e.g. "ai_engineer").
	Role string `json:"role" yaml:"role"`

	// Keywords are matched case-insensitively as substrings of the job title.
	Keywords []string `json:"keywords" yaml:"keywords"`
}

// Validate checks the rule is well formed.
func (r *RoleRule) Validate() error {
	if r.Role == "" {
		return &ValidationError{Field: "role", Message: "role is required"}
	}
	if len(r.Keywords) == 0 {
		return &ValidationError{Field: "keywords", Message: "at least one keyword is required"}
	}
	for _, kw := range r.Keywords {
		if strings.TrimSpace(kw) == "" {
			return &ValidationError{Field: "keywords", Message: "keywords must not be blank"}
		}
	}
	return nil
}

// DefaultRoleRules returns the built-in rule set. Order matters: more
// specific roles come first so "AI Engineer" resolves to ai_engineer
// rather than the generic engineer match.
func DefaultRoleRules() []RoleRule {
	return []RoleRule{
		{Role: "ai_engineer", Keywords: []string{"ai engineer", "machine learning", "ml engineer", "artificial intelligence", "llm"}},
		{Role: "data_scientist", Keywords: []string{"data scientist", "data analyst", "data engineer", "analytics"}},
		{Role: "software_developer", Keywords: []string{"software", "developer", "engineer", "programmer", "backend", "frontend", "full stack", "devops"}},
		{Role: "product_manager", Keywords: []string{"product manager", "product owner", "program manager"}},
		{Role: "designer", Keywords: []string{"designer", "ux", "ui", "user experience"}},
		{Role: "hr_associate", Keywords: []string{"hr", "human resources", "people ops", "recruiter", "talent"}},
		{Role: "marketing", Keywords: []string{"marketing", "content", "brand", "communications"}},
		{Role: "sales", Keywords: []string{"sales", "account executive", "business development"}},
	}
}

// RoleResolver maps free-text job titles to role tags using ordered
// keyword rules. First match wins.
type RoleResolver struct {
	rules []RoleRule
}

// NewRoleResolver builds a resolver from the given rules, validating each.
// Pass DefaultRoleRules() for the built-in set.
func NewRoleResolver(rules []RoleRule) (*RoleResolver, error) {
	for i := range rules {
		if err := rules[i].Validate(); err != nil {
			return nil, err
		}
	}
	return &RoleResolver{rules: rules}, nil
}

// Resolve returns the role tag for a job title, or RoleOther when nothing
// matches. Matching is case-insensitive substring comparison.
func (r *RoleResolver) Resolve(jobTitle string) string {
	title := strings.ToLower(strings.TrimSpace(jobTitle))
	if title == "" {
		return RoleOther
	}
	for _, rule := range r.rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(title, strings.ToLower(kw)) {
				return rule.Role
			}
		}
	}
	return RoleOther
}
