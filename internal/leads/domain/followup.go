package domain

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// TaskRule is one follow-up task template keyed to a trigger status.
type TaskRule struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	OffsetDays  int      `yaml:"offsetDays"`
	Priority    Priority `yaml:"priority"`
}

// RuleSet maps a trigger status to the follow-up tasks it generates.
// Statuses absent from the set (lost, and any unknown value) generate nothing.
type RuleSet map[LeadStatus][]TaskRule

// DefaultRules returns the built-in follow-up generation table.
func DefaultRules() RuleSet {
	return RuleSet{
		StatusNew: {
			{Title: "Initial follow-up", Description: "Make initial contact with the lead", OffsetDays: 1, Priority: PriorityHigh},
		},
		StatusQualified: {
			{Title: "Qualify needs", Description: "Identify the client's specific needs", OffsetDays: 2, Priority: PriorityHigh},
			{Title: "Budget review", Description: "Verify the client's available budget", OffsetDays: 3, Priority: PriorityMedium},
		},
		StatusProposal: {
			{Title: "Draft proposal", Description: "Prepare a detailed commercial proposal", OffsetDays: 3, Priority: PriorityHigh},
			{Title: "Send proposal", Description: "Send the proposal to the client", OffsetDays: 5, Priority: PriorityHigh},
			{Title: "Proposal follow-up", Description: "Confirm the client received and reviewed the proposal", OffsetDays: 7, Priority: PriorityMedium},
		},
		StatusNegotiation: {
			{Title: "Negotiate terms", Description: "Negotiate pricing, deadlines and commercial terms", OffsetDays: 2, Priority: PriorityHigh},
		},
		StatusClosed: {
			{Title: "Customer onboarding", Description: "Run the onboarding process for the new client", OffsetDays: 1, Priority: PriorityHigh},
			{Title: "Satisfaction follow-up", Description: "Check client satisfaction after closing", OffsetDays: 7, Priority: PriorityMedium},
		},
	}
}

// LoadRules reads a YAML rule file overriding the defaults. Statuses present
// in the file replace the default entries for that status; statuses absent
// keep the defaults. An empty path returns the defaults unchanged.
func LoadRules(path string) (RuleSet, error) {
	rules := DefaultRules()
	if path == "" {
		return rules, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read followup rules: %w", err)
	}

	var overrides map[LeadStatus][]TaskRule
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("parse followup rules: %w", err)
	}

	for status, taskRules := range overrides {
		if !IsKnownStatus(status) {
			return nil, fmt.Errorf("followup rules: unknown status %q", status)
		}
		for _, r := range taskRules {
			if r.Title == "" {
				return nil, fmt.Errorf("followup rules: rule for %q has no title", status)
			}
			if r.OffsetDays < 0 {
				return nil, fmt.Errorf("followup rules: rule %q has negative offset", r.Title)
			}
			if !IsKnownPriority(r.Priority) {
				return nil, fmt.Errorf("followup rules: rule %q has unknown priority %q", r.Title, r.Priority)
			}
		}
		rules[status] = taskRules
	}

	return rules, nil
}

// PlannedTask describes one follow-up task to create. Due offsets are
// measured from the moment of generation, not from lead creation.
type PlannedTask struct {
	Title       string
	Description string
	DueAt       time.Time
	Priority    Priority
}

// Plan expands the rules for a trigger status into concrete task specs for
// the given lead title. It decides only WHAT to generate; whether generation
// runs at all is the lifecycle engine's call.
func (r RuleSet) Plan(trigger LeadStatus, leadTitle string, now time.Time) []PlannedTask {
	taskRules, ok := r[trigger]
	if !ok {
		return nil
	}

	planned := make([]PlannedTask, 0, len(taskRules))
	for _, rule := range taskRules {
		planned = append(planned, PlannedTask{
			Title:       fmt.Sprintf("%s: %s", rule.Title, leadTitle),
			Description: rule.Description,
			DueAt:       now.AddDate(0, 0, rule.OffsetDays),
			Priority:    rule.Priority,
		})
	}
	return planned
}
