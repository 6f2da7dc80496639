package sqlite

import (
	"testing"

	"github.com/sandevgo/quill/internal/core"
)

func TestApplyBody(t *testing.T) {
	existing := "Intro line\n\n## Status\n\nold status text\n\n## Notes\n\nkeep me"

	tests := []struct {
		name    string
		current string
		upd     core.BodyUpdate
		want    string
	}{
		{
			name:    "append to empty",
			current: "",
			upd:     core.BodyUpdate{Mode: core.BodyAppend, Content: "first note"},
			want:    "first note",
		},
		{
			name:    "append",
			current: "first note",
			upd:     core.BodyUpdate{Mode: core.BodyAppend, Content: "second note"},
			want:    "first note\n\nsecond note",
		},
		{
			name:    "replace",
			current: "anything at all",
			upd:     core.BodyUpdate{Mode: core.BodyReplace, Content: "fresh body"},
			want:    "fresh body",
		},
		{
			name:    "replace existing section",
			current: existing,
			upd:     core.BodyUpdate{Mode: core.BodySection, Section: "Status", Content: "new status text"},
			want:    "Intro line\n\n## Status\n\nnew status text\n\n## Notes\n\nkeep me",
		},
		{
			name:    "section match is case insensitive",
			current: existing,
			upd:     core.BodyUpdate{Mode: core.BodySection, Section: "status", Content: "new status text"},
			want:    "Intro line\n\n## Status\n\nnew status text\n\n## Notes\n\nkeep me",
		},
		{
			name:    "missing section is appended",
			current: "just notes",
			upd:     core.BodyUpdate{Mode: core.BodySection, Section: "Decisions", Content: "went with option B"},
			want:    "just notes\n\n## Decisions\n\nwent with option B",
		},
		{
			name:    "replace trailing section",
			current: "## Notes\n\nold",
			upd:     core.BodyUpdate{Mode: core.BodySection, Section: "Notes", Content: "new"},
			want:    "## Notes\n\nnew",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := applyBody(tt.current, tt.upd); got != tt.want {
				t.Errorf("applyBody() = %q, want %q", got, tt.want)
			}
		})
	}
}
