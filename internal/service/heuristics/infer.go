package heuristics

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	durationRe = regexp.MustCompile(`(?i)\b(\d+)\s*(?:-\s*)?(minute|min|hour|hr)s?\b`)

	wordRe = regexp.MustCompile(`[a-z']+`)

	reopenPhrases = []string{"reopen", "re-open", "bring back", "undo", "mark it pending", "mark as pending", "back to pending"}
)

// DurationMinutes mines an explicit duration out of free text
// ("30 minute task" -> 30, "2 hour review" -> 120).
func DurationMinutes(text string) (int, bool) {
	m := durationRe.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return 0, false
	}
	unit := strings.ToLower(m[2])
	if unit == "hour" || unit == "hr" {
		n *= 60
	}
	return n, true
}

// Priority infers a 1-5 priority from urgency words; zero means no signal.
func Priority(text string) (int, bool) {
	t := strings.ToLower(text)
	switch {
	case strings.Contains(t, "urgent") || strings.Contains(t, "asap") || strings.Contains(t, "critical"):
		return 5, true
	case strings.Contains(t, "important") || strings.Contains(t, "high priority"):
		return 4, true
	case strings.Contains(t, "low priority") || strings.Contains(t, "whenever") || strings.Contains(t, "no rush"):
		return 2, true
	}
	return 0, false
}

// DueDate resolves common relative date phrases against now, returning
// an ISO date (YYYY-MM-DD).
func DueDate(text string, now time.Time) (string, bool) {
	t := strings.ToLower(text)
	day := func(d time.Time) string { return d.Format("2006-01-02") }

	switch {
	case strings.Contains(t, "today") || strings.Contains(t, "tonight") || strings.Contains(t, "end of day"):
		return day(now), true
	case strings.Contains(t, "tomorrow"):
		return day(now.AddDate(0, 0, 1)), true
	case strings.Contains(t, "next week"):
		return day(now.AddDate(0, 0, 7)), true
	case strings.Contains(t, "next month"):
		return day(now.AddDate(0, 1, 0)), true
	}

	weekdays := map[string]time.Weekday{
		"monday": time.Monday, "tuesday": time.Tuesday, "wednesday": time.Wednesday,
		"thursday": time.Thursday, "friday": time.Friday,
		"saturday": time.Saturday, "sunday": time.Sunday,
	}
	for name, wd := range weekdays {
		if !strings.Contains(t, name) {
			continue
		}
		delta := (int(wd) - int(now.Weekday()) + 7) % 7
		if delta == 0 {
			delta = 7
		}
		return day(now.AddDate(0, 0, delta)), true
	}

	return "", false
}

var statusWords = []struct{ word, canon string }{
	{"done", "done"},
	{"completed", "done"},
	{"complete", "done"},
	{"finished", "done"},
	{"pending", "pending"},
	{"active", "active"},
	{"waiting", "waiting"},
	{"blocked", "blocked"},
}

func hasWord(text, word string) bool {
	for _, w := range wordRe.FindAllString(text, -1) {
		if w == word {
			return true
		}
	}
	return false
}

// RequestedStatus mines an explicit status change out of the user's
// message ("mark it done" -> "done"). Used as the fallback when intent
// analysis is unavailable.
func RequestedStatus(text string) (string, bool) {
	t := strings.ToLower(text)

	verb := false
	for _, v := range []string{"mark", "set", "flag", "reopen"} {
		if hasWord(t, v) {
			verb = true
			break
		}
	}
	if verb {
		for _, s := range statusWords {
			if hasWord(t, s.word) {
				return s.canon, true
			}
		}
		if hasWord(t, "reopen") {
			return "pending", true
		}
		return "", false
	}

	// Bare past-tense phrasing still counts as an explicit request.
	if hasWord(t, "finished") || hasWord(t, "completed") || strings.Contains(t, "is done") || strings.Contains(t, "i'm done with") {
		return "done", true
	}
	return "", false
}

// SuggestsReopen reports whether the message reads like a request to
// bring a completed task back.
func SuggestsReopen(text string) bool {
	t := strings.ToLower(text)
	for _, p := range reopenPhrases {
		if strings.Contains(t, p) {
			return true
		}
	}
	// "mark ... pending" with arbitrary words in between
	if strings.Contains(t, "pending") && (strings.Contains(t, "mark") || strings.Contains(t, "set")) {
		return true
	}
	return false
}
