// Package digest renders activity summaries over the knowledge base:
// the daily/weekly digest shown to the user, and the compact index
// summary injected into classification prompts.
package digest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sandevgo/quill/internal/core"
)

const sectionLimit = 10

type Service struct {
	store core.EntryStore
	now   func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(store core.EntryStore, opts ...Option) *Service {
	s := &Service{store: store, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Build renders a markdown digest for the period ("daily" or "weekly").
func (s *Service) Build(ctx context.Context, period string) (string, error) {
	horizon := 1
	title := "Daily digest"
	if period == "weekly" {
		horizon = 7
		title = "Weekly digest"
	}
	today := s.now().Format("2006-01-02")
	cutoff := s.now().AddDate(0, 0, horizon).Format("2006-01-02")

	var b strings.Builder
	fmt.Fprintf(&b, "# %s - %s\n", title, today)

	tasks, err := s.store.List(ctx, core.ListFilter{Category: core.CategoryTask})
	if err != nil {
		return "", fmt.Errorf("failed to list tasks: %w", err)
	}

	var overdue, due, active []core.Entry
	for _, t := range tasks {
		if t.Status == core.TaskStatusDone {
			continue
		}
		switch {
		case t.DueDate != "" && t.DueDate < today:
			overdue = append(overdue, t)
		case t.DueDate != "" && t.DueDate <= cutoff:
			due = append(due, t)
		default:
			active = append(active, t)
		}
	}
	sort.Slice(overdue, func(i, j int) bool { return overdue[i].DueDate < overdue[j].DueDate })
	sort.Slice(due, func(i, j int) bool { return due[i].DueDate < due[j].DueDate })

	writeSection(&b, "Overdue", overdue, func(e core.Entry) string {
		return fmt.Sprintf("%s (was due %s)", e.Name, e.DueDate)
	})
	writeSection(&b, dueTitle(period), due, func(e core.Entry) string {
		return fmt.Sprintf("%s (due %s)", e.Name, e.DueDate)
	})
	writeSection(&b, "Open tasks", active, func(e core.Entry) string { return e.Name })

	projects, err := s.store.List(ctx, core.ListFilter{Category: core.CategoryProjects, Status: "active"})
	if err != nil {
		return "", fmt.Errorf("failed to list projects: %w", err)
	}
	writeSection(&b, "Active projects", projects, func(e core.Entry) string {
		if next, ok := e.Fields["next_action"].(string); ok && next != "" {
			return fmt.Sprintf("%s - next: %s", e.Name, next)
		}
		return e.Name
	})

	inbox, err := s.store.List(ctx, core.ListFilter{Category: core.CategoryInbox, Limit: sectionLimit})
	if err != nil {
		return "", fmt.Errorf("failed to list inbox: %w", err)
	}
	writeSection(&b, "Waiting in inbox", inbox, func(e core.Entry) string { return e.Name })

	return strings.TrimSpace(b.String()), nil
}

func dueTitle(period string) string {
	if period == "weekly" {
		return "Due this week"
	}
	return "Due today or tomorrow"
}

func writeSection(b *strings.Builder, title string, entries []core.Entry, line func(core.Entry) string) {
	if len(entries) == 0 {
		return
	}
	fmt.Fprintf(b, "\n## %s\n", title)
	for i, e := range entries {
		if i == sectionLimit {
			fmt.Fprintf(b, "- …and %d more\n", len(entries)-sectionLimit)
			break
		}
		fmt.Fprintf(b, "- %s\n", line(e))
	}
}

// IndexSummary is the one-paragraph shape of the knowledge base given to
// the classifier as context: per-category counts plus the most recently
// touched names.
func (s *Service) IndexSummary(ctx context.Context) (string, error) {
	var parts []string
	for _, category := range []core.Category{
		core.CategoryPeople, core.CategoryProjects, core.CategoryIdeas, core.CategoryTask, core.CategoryInbox,
	} {
		entries, err := s.store.List(ctx, core.ListFilter{Category: category})
		if err != nil {
			return "", fmt.Errorf("failed to list %s: %w", category, err)
		}
		if len(entries) == 0 {
			continue
		}
		names := make([]string, 0, 3)
		for i, e := range entries {
			if i == 3 {
				break
			}
			names = append(names, e.Name)
		}
		parts = append(parts, fmt.Sprintf("%s: %d (recent: %s)", category, len(entries), strings.Join(names, ", ")))
	}
	if len(parts) == 0 {
		return "The knowledge base is empty.", nil
	}
	return strings.Join(parts, "; "), nil
}
