package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/sandevgo/quill/internal/core"
	"github.com/sandevgo/quill/internal/service/heuristics"
	"github.com/sandevgo/quill/pkg/log"
)

// Route is the confidence routing decision: a pure, monotonic function
// of confidence. The boundary is inclusive: at exactly the threshold
// the classified category wins.
func Route(category core.Category, confidence, threshold float64) core.Category {
	if confidence >= threshold {
		return category
	}
	return core.CategoryInbox
}

func (e *Executor) classifyAndCapture(ctx context.Context, args map[string]any, opts Options) (map[string]any, error) {
	text := argString(args, "text")
	hints := parseHints(args["hints"])

	convo := opts.Context
	if convo == nil {
		convo = e.assembleContext(ctx)
	}

	result, err := e.deps.Classifier.Classify(ctx, core.ClassificationInput{
		Text:    text,
		Hints:   hints,
		Context: convo,
	})
	if err != nil {
		if core.Transient(err) && opts.AllowQueueing && e.deps.Queue != nil && e.deps.Queue.Enabled() {
			id, qerr := e.deps.Queue.Enqueue(ctx, text, hints, opts.Channel)
			if qerr == nil {
				log.FromCtx(ctx).Info().Int64("capture_id", id).Msg("classification unavailable; capture queued for replay")
				return map[string]any{"queued": true, "capture_id": id}, nil
			}
			log.FromCtx(ctx).Error().Err(qerr).Msg("failed to enqueue capture")
		}
		return nil, err
	}

	if Route(result.Category, result.Confidence, e.threshold) == core.CategoryInbox {
		return e.fileInbox(ctx, text, result, opts)
	}
	return e.fileClassified(ctx, text, result, opts)
}

func (e *Executor) fileClassified(ctx context.Context, text string, result *core.ClassificationResult, opts Options) (map[string]any, error) {
	draft := draftFromResult(text, result, e.now())
	e.enrichWithActions(ctx, text, result.Category, &draft)

	entry, err := e.deps.Store.Create(ctx, result.Category, draft, opts.Channel)
	if err != nil {
		return nil, fmt.Errorf("create entry: %w", err)
	}

	e.linkMentions(ctx, entry, result, opts.Channel)

	return map[string]any{
		"entry":                entry,
		"category":             string(result.Category),
		"confidence":           result.Confidence,
		"clarification_needed": false,
	}, nil
}

// fileInbox routes a low-confidence result to the inbox, carrying the
// original text and a note asking the user to clarify.
func (e *Executor) fileInbox(ctx context.Context, text string, result *core.ClassificationResult, opts Options) (map[string]any, error) {
	name := result.Name
	if name == "" {
		name = "Unclassified capture"
	}

	draft := core.EntryDraft{
		Name: name,
		Slug: heuristics.NormalizeSlug(name),
		Body: text,
		AgentNote: fmt.Sprintf(
			"I wasn't confident enough to file this (best guess: %s %q, confidence %.2f). Where should it go?",
			result.Category, result.Name, result.Confidence),
		Fields: map[string]any{
			"suggested_category": string(result.Category),
			"suggested_name":     result.Name,
		},
	}

	entry, err := e.deps.Store.Create(ctx, core.CategoryInbox, draft, opts.Channel)
	if err != nil {
		return nil, fmt.Errorf("create inbox entry: %w", err)
	}

	return map[string]any{
		"entry":                entry,
		"category":             string(core.CategoryInbox),
		"suggested_category":   string(result.Category),
		"confidence":           result.Confidence,
		"clarification_needed": true,
	}, nil
}

// draftFromResult folds structured fields and free-text heuristics into
// one entry draft ("30 minute task" -> 30, "urgent" -> priority 5).
func draftFromResult(text string, result *core.ClassificationResult, now time.Time) core.EntryDraft {
	draft := core.EntryDraft{
		Name:    result.Name,
		Slug:    result.Slug,
		Fields:  fieldsToMap(result.Fields),
		Related: result.RelatedEntries,
		Body:    result.BodyContent,
	}
	if draft.Body == "" {
		draft.Body = text
	}

	switch {
	case result.Fields.Task != nil:
		f := result.Fields.Task
		draft.Status = f.Status
		if draft.Status == "" {
			draft.Status = "pending"
		}
		draft.DueDate = f.DueDate
		draft.Priority = f.Priority
		draft.DurationMinutes = f.DurationMinutes
	case result.Fields.Projects != nil:
		f := result.Fields.Projects
		draft.Status = f.Status
		draft.DueDate = f.DueDate
	}

	if draft.DueDate == "" {
		if due, ok := heuristics.DueDate(text, now); ok {
			draft.DueDate = due
		}
	}
	if draft.DurationMinutes == 0 {
		if mins, ok := heuristics.DurationMinutes(text); ok {
			draft.DurationMinutes = mins
		}
	}
	if draft.Priority == 0 {
		if prio, ok := heuristics.Priority(text); ok {
			draft.Priority = prio
		}
	}

	return draft
}

// enrichWithActions runs the narrower action-extraction call for task
// and project captures. Extraction failures are swallowed: a timeout
// there must not fail the capture.
func (e *Executor) enrichWithActions(ctx context.Context, text string, category core.Category, draft *core.EntryDraft) {
	if e.deps.Actions == nil {
		return
	}
	if category != core.CategoryTask && category != core.CategoryProjects {
		return
	}

	actions, err := e.deps.Actions.ExtractActions(ctx, text)
	if err != nil {
		log.FromCtx(ctx).Debug().Err(err).Msg("action extraction failed; continuing without actions")
		return
	}
	if len(actions) == 0 {
		return
	}

	var next []string
	for _, a := range actions {
		item := a.Action
		if a.DueDate != "" {
			item = fmt.Sprintf("%s (due %s)", a.Action, a.DueDate)
		}
		next = append(next, item)
	}
	if draft.Fields == nil {
		draft.Fields = map[string]any{}
	}
	draft.Fields["next_actions"] = next

	if draft.DueDate == "" && actions[0].DueDate != "" {
		draft.DueDate = actions[0].DueDate
	}
}

// linkMentions records cross-links to mentioned people and projects.
// Link failures are logged, never fatal to the capture.
func (e *Executor) linkMentions(ctx context.Context, entry *core.Entry, result *core.ClassificationResult, channel core.Channel) {
	if e.deps.Linker == nil {
		return
	}
	logger := log.FromCtx(ctx)

	var people, projects []string
	if f := result.Fields.Projects; f != nil {
		people = f.People
	}
	if f := result.Fields.Ideas; f != nil {
		projects = f.RelatedProjects
	}

	if len(people) > 0 {
		if err := e.deps.Linker.LinkPeople(ctx, entry, people, channel); err != nil {
			logger.Warn().Err(err).Str("path", entry.Path).Msg("failed to link people")
		}
	}
	if len(projects) > 0 {
		if err := e.deps.Linker.LinkProjects(ctx, entry, projects, channel); err != nil {
			logger.Warn().Err(err).Str("path", entry.Path).Msg("failed to link projects")
		}
	}
}

func (e *Executor) assembleContext(ctx context.Context) *core.ConversationContext {
	convo := &core.ConversationContext{}
	if e.deps.Digest != nil {
		if idx, err := e.deps.Digest.IndexSummary(ctx); err == nil {
			convo.IndexSummary = idx
		}
	}
	return convo
}

func parseHints(v any) *core.ClassificationHints {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	h := &core.ClassificationHints{}
	if c, ok := m["category"].(string); ok {
		h.Category = core.Category(c)
	}
	if n, ok := m["name"].(string); ok {
		h.Name = n
	}
	if h.Category == "" && h.Name == "" {
		return nil
	}
	return h
}

func fieldsToMap(f core.Fields) map[string]any {
	out := map[string]any{}
	put := func(k string, v any) {
		switch t := v.(type) {
		case string:
			if t != "" {
				out[k] = t
			}
		case int:
			if t != 0 {
				out[k] = t
			}
		case []string:
			if len(t) > 0 {
				out[k] = t
			}
		}
	}

	switch {
	case f.People != nil:
		put("role", f.People.Role)
		put("company", f.People.Company)
		put("last_contact", f.People.LastContact)
		put("follow_ups", f.People.FollowUps)
	case f.Projects != nil:
		put("status", f.Projects.Status)
		put("next_action", f.Projects.NextAction)
		put("due_date", f.Projects.DueDate)
		put("people", f.Projects.People)
	case f.Ideas != nil:
		put("tags", f.Ideas.Tags)
		put("related_projects", f.Ideas.RelatedProjects)
	case f.Task != nil:
		put("status", f.Task.Status)
		put("due_date", f.Task.DueDate)
		put("priority", f.Task.Priority)
		put("duration_minutes", f.Task.DurationMinutes)
	}
	return out
}
