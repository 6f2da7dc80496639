package heuristics

import (
	"testing"
	"time"
)

func TestDurationMinutes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
		ok    bool
	}{
		{"minutes", "quick 30 minute task", 30, true},
		{"min_abbrev", "15 min standup", 15, true},
		{"hours", "2 hour deep work block", 120, true},
		{"hr_abbrev", "1hr review", 60, true},
		{"plural", "45 minutes of reading", 45, true},
		{"no_signal", "fix the boiler", 0, false},
		{"zero", "0 minute task", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DurationMinutes(tt.input)
			if got != tt.want || ok != tt.ok {
				t.Errorf("DurationMinutes(%q) = (%d, %v), want (%d, %v)", tt.input, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestPriority(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
		ok    bool
	}{
		{"urgent", "urgent: call the plumber", 5, true},
		{"asap", "need this asap", 5, true},
		{"important", "important follow-up", 4, true},
		{"low", "low priority cleanup", 2, true},
		{"no_rush", "no rush on this one", 2, true},
		{"none", "buy milk", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Priority(tt.input)
			if got != tt.want || ok != tt.ok {
				t.Errorf("Priority(%q) = (%d, %v), want (%d, %v)", tt.input, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestDueDate(t *testing.T) {
	// A Wednesday.
	now := time.Date(2026, 8, 26, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{"today", "finish this today", "2026-08-26", true},
		{"tomorrow", "send it tomorrow morning", "2026-08-27", true},
		{"next_week", "revisit next week", "2026-09-02", true},
		{"friday", "due friday", "2026-08-28", true},
		{"same_weekday_rolls_over", "every wednesday", "2026-09-02", true},
		{"none", "someday maybe", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DueDate(tt.input, now)
			if got != tt.want || ok != tt.ok {
				t.Errorf("DueDate(%q) = (%q, %v), want (%q, %v)", tt.input, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestRequestedStatus(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{"mark_done", "mark the boiler fix done", "done", true},
		{"set_to_blocked", "set the rollout to blocked", "blocked", true},
		{"mark_complete", "mark it complete", "done", true},
		{"finished_bare", "finished the report", "done", true},
		{"reopen", "reopen the boiler task", "pending", true},
		{"mark_pending", "mark the boiler task pending", "pending", true},
		{"plain_update", "add a note about pricing", "", false},
		{"status_word_without_verb", "the project is active these days", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := RequestedStatus(tt.input)
			if got != tt.want || ok != tt.ok {
				t.Errorf("RequestedStatus(%q) = (%q, %v), want (%q, %v)", tt.input, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestSuggestsReopen(t *testing.T) {
	positives := []string{
		"reopen the boiler task",
		"bring back the deleted entry",
		"undo that, it's not done",
		"mark the boiler task as pending again",
	}
	for _, p := range positives {
		if !SuggestsReopen(p) {
			t.Errorf("SuggestsReopen(%q) = false, want true", p)
		}
	}

	negatives := []string{
		"mark the task done",
		"add a note",
	}
	for _, n := range negatives {
		if SuggestsReopen(n) {
			t.Errorf("SuggestsReopen(%q) = true, want false", n)
		}
	}
}
