package classify

import (
	"strings"

	"github.com/sandevgo/quill/internal/core"
	"github.com/sandevgo/quill/internal/service/heuristics"
)

func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

// normalizeCategory maps the legacy "admin" category to task.
func normalizeCategory(c string) core.Category {
	c = strings.ToLower(strings.TrimSpace(c))
	if c == "admin" {
		return core.CategoryTask
	}
	return core.Category(c)
}

func normalizeResultSlug(slug, name string) string {
	if s := heuristics.NormalizeSlug(slug); s != "" {
		return s
	}
	return heuristics.NormalizeSlug(name)
}

// pick reads a field accepting both camelCase and snake_case keys;
// snake_case is the fallback when camelCase is absent.
func pick(m map[string]any, camel, snake string) any {
	if v, ok := m[camel]; ok && v != nil {
		return v
	}
	if v, ok := m[snake]; ok && v != nil {
		return v
	}
	return nil
}

func str(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func optionalString(v any) string {
	s, _ := v.(string)
	return s
}

// stringSlice silently drops non-string elements.
func stringSlice(v any) []string {
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range arr {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

func intValue(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	}
	return 0
}

// normalizeFields builds the tagged union for the category from the
// model's loose field object.
func normalizeFields(category core.Category, m map[string]any) core.Fields {
	if m == nil {
		m = map[string]any{}
	}

	switch category {
	case core.CategoryPeople:
		return core.Fields{People: &core.PeopleFields{
			Role:        str(pick(m, "role", "role")),
			Company:     str(pick(m, "company", "company")),
			LastContact: str(pick(m, "lastContact", "last_contact")),
			FollowUps:   stringSlice(pick(m, "followUps", "follow_ups")),
		}}
	case core.CategoryProjects:
		return core.Fields{Projects: &core.ProjectsFields{
			Status:     normalizeProjectStatus(str(pick(m, "status", "status"))),
			NextAction: str(pick(m, "nextAction", "next_action")),
			DueDate:    str(pick(m, "dueDate", "due_date")),
			People:     stringSlice(pick(m, "people", "people")),
		}}
	case core.CategoryIdeas:
		return core.Fields{Ideas: &core.IdeasFields{
			Tags:            stringSlice(pick(m, "tags", "tags")),
			RelatedProjects: stringSlice(pick(m, "relatedProjects", "related_projects")),
		}}
	case core.CategoryTask:
		return core.Fields{Task: &core.TaskFields{
			Status:          str(pick(m, "status", "status")),
			DueDate:         str(pick(m, "dueDate", "due_date")),
			Priority:        intValue(pick(m, "priority", "priority")),
			DurationMinutes: intValue(pick(m, "durationMinutes", "duration_minutes")),
		}}
	}
	return core.Fields{}
}

// normalizeProjectStatus defaults values outside the enumerated set to
// "active".
func normalizeProjectStatus(s string) string {
	s = strings.ToLower(s)
	for _, valid := range core.ProjectStatuses {
		if s == valid {
			return s
		}
	}
	return "active"
}
