package core

import (
	"context"
	"strings"
	"time"
)

// Entry is a persisted knowledge-base record addressed by a
// category-prefixed path ({category}/{slug}). The executor treats paths
// as opaque apart from the category prefix.
type Entry struct {
	ID              int64          `json:"id"`
	Path            string         `json:"path"`
	Category        Category       `json:"category"`
	Slug            string         `json:"slug"`
	Name            string         `json:"name"`
	Status          string         `json:"status,omitempty"`
	DueDate         string         `json:"due_date,omitempty"`
	Priority        int            `json:"priority,omitempty"`
	DurationMinutes int            `json:"duration_minutes,omitempty"`
	Fields          map[string]any `json:"fields,omitempty"`
	Related         []string       `json:"related,omitempty"`
	Body            string         `json:"body,omitempty"`
	AgentNote       string         `json:"agent_note,omitempty"`
	Channel         Channel        `json:"channel,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// PathCategory returns the category prefix before the first '/'.
func PathCategory(path string) Category {
	if i := strings.Index(path, "/"); i > 0 {
		return Category(path[:i])
	}
	return ""
}

// PathSlug returns the slug portion after the first '/'.
func PathSlug(path string) string {
	if i := strings.Index(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}

// EntryDraft is the input to EntryStore.Create.
type EntryDraft struct {
	Name            string
	Slug            string
	Status          string
	DueDate         string
	Priority        int
	DurationMinutes int
	Fields          map[string]any
	Related         []string
	Body            string
	AgentNote       string
}

// BodyUpdateMode selects how body content is applied to an entry.
type BodyUpdateMode string

const (
	BodyAppend  BodyUpdateMode = "append"
	BodyReplace BodyUpdateMode = "replace"
	BodySection BodyUpdateMode = "section"
)

// BodyUpdate applies content to an entry body. Section names the heading
// to replace when Mode is BodySection.
type BodyUpdate struct {
	Mode    BodyUpdateMode
	Content string
	Section string
}

// EntryUpdate carries the mutable fields of an update; nil means
// "leave unchanged".
type EntryUpdate struct {
	Name     *string
	Status   *string
	DueDate  *string
	Priority *int
	Fields   map[string]any
	Related  []string
	Body     *BodyUpdate
}

// ListFilter narrows EntryStore.List.
type ListFilter struct {
	Category Category
	Status   string
	Limit    int
}

// EntryStore is the durable storage collaborator. Update returns a
// KindNotFound error on a missing path; that typed kind is what triggers
// heuristic target resolution in the executor.
type EntryStore interface {
	Create(ctx context.Context, category Category, draft EntryDraft, channel Channel) (*Entry, error)
	Read(ctx context.Context, path string) (*Entry, error)
	Update(ctx context.Context, path string, upd EntryUpdate, channel Channel) (*Entry, error)
	Move(ctx context.Context, path string, target Category, channel Channel) (*Entry, error)
	Delete(ctx context.Context, path string, channel Channel) error
	List(ctx context.Context, filter ListFilter) ([]Entry, error)
	Merge(ctx context.Context, targetPath string, sourcePaths []string, channel Channel) (*Entry, error)
}

// SearchHit is one ranked search result.
type SearchHit struct {
	Path     string   `json:"path"`
	Name     string   `json:"name"`
	Category Category `json:"category"`
	Score    float64  `json:"score"`
}

// SearchOptions narrows a search.
type SearchOptions struct {
	Category Category
	Limit    int
}

// SearchResult is the search collaborator's reply.
type SearchResult struct {
	Entries []SearchHit `json:"entries"`
	Total   int         `json:"total"`
}

// Searcher is the full-text search collaborator; ranking internals are
// its own concern.
type Searcher interface {
	Search(ctx context.Context, query string, opts SearchOptions) (SearchResult, error)
}

// Linker records cross-links between an entry and the people/projects it
// mentions.
type Linker interface {
	LinkPeople(ctx context.Context, entry *Entry, names []string, channel Channel) error
	LinkProjects(ctx context.Context, entry *Entry, names []string, channel Channel) error
}

// CaptureQueue parks raw capture requests that failed transiently so an
// external replay mechanism can retry them later.
type CaptureQueue interface {
	Enabled() bool
	Enqueue(ctx context.Context, text string, hints *ClassificationHints, channel Channel) (int64, error)
}

// QueuedCapture is one parked capture awaiting replay.
type QueuedCapture struct {
	ID       int64
	Text     string
	Hints    *ClassificationHints
	Channel  Channel
	Attempts int
}
