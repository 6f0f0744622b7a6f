package engine

import "testing"

func TestRoleResolverResolve(t *testing.T) {
	resolver, err := NewRoleResolver(DefaultRoleRules())
	if err != nil {
		t.Fatalf("NewRoleResolver() error = %v", err)
	}

	tests := []struct {
		name     string
		jobTitle string
		want     string
	}{
		{"software engineer", "Senior Software Engineer", "software_developer"},
		{"backend developer", "Backend Developer", "software_developer"},
		{"ml engineer", "Machine Learning Engineer", "ai_engineer"},
		{"data scientist", "Staff Data Scientist", "data_scientist"},
		{"product manager", "Product Manager, Growth", "product_manager"},
		{"designer", "UX Designer", "designer"},
		{"hr", "HR Business Partner", "hr_associate"},
		{"marketing", "Marketing Coordinator", "marketing"},
		{"sales", "Account Executive", "sales"},
		{"case insensitive", "SOFTWARE ENGINEER", "software_developer"},
		{"no match", "Office Dog", RoleOther},
		{"empty title", "", RoleOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolver.Resolve(tt.jobTitle); got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.jobTitle, got, tt.want)
			}
		})
	}
}

func TestRoleResolverFirstMatchWins(t *testing.T) {
	rules := []RoleRule{
		{Role: "first", Keywords: []string{"engineer"}},
		{Role: "second", Keywords: []string{"software engineer"}},
	}
	resolver, err := NewRoleResolver(rules)
	if err != nil {
		t.Fatalf("NewRoleResolver() error = %v", err)
	}

	if got := resolver.Resolve("Software Engineer"); got != "first" {
		t.Errorf("Resolve() = %q, want %q (rule order decides ties)", got, "first")
	}
}

func TestNewRoleResolverRejectsInvalidRules(t *testing.T) {
	tests := []struct {
		name  string
		rules []RoleRule
	}{
		{"empty role name", []RoleRule{{Role: "", Keywords: []string{"x"}}}},
		{"no keywords", []RoleRule{{Role: "dev", Keywords: nil}}},
		{"blank keyword", []RoleRule{{Role: "dev", Keywords: []string{"  "}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewRoleResolver(tt.rules); err == nil {
				t.Error("NewRoleResolver() error = nil, want validation error")
			}
		})
	}
}
