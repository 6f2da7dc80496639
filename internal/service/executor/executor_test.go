package executor

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/sandevgo/quill/internal/core"
	"github.com/sandevgo/quill/internal/service/registry"
)

var testClock = func() time.Time {
	return time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
}

type fakeStore struct {
	entries   map[string]*core.Entry
	drafts    []core.EntryDraft
	mutations int
	// stickyDelete makes Delete report success without removing the
	// entry, to exercise verification.
	stickyDelete bool
	// staleReads overrides Read per path, to simulate a write that did
	// not land.
	staleReads map[string]core.Entry
}

func newFakeStore(entries ...core.Entry) *fakeStore {
	s := &fakeStore{entries: map[string]*core.Entry{}}
	for i := range entries {
		e := entries[i]
		s.entries[e.Path] = &e
	}
	return s
}

func (s *fakeStore) Create(_ context.Context, category core.Category, draft core.EntryDraft, channel core.Channel) (*core.Entry, error) {
	s.mutations++
	s.drafts = append(s.drafts, draft)
	e := &core.Entry{
		Path:            string(category) + "/" + draft.Slug,
		Category:        category,
		Slug:            draft.Slug,
		Name:            draft.Name,
		Status:          draft.Status,
		DueDate:         draft.DueDate,
		Priority:        draft.Priority,
		DurationMinutes: draft.DurationMinutes,
		Fields:          draft.Fields,
		Body:            draft.Body,
		AgentNote:       draft.AgentNote,
		Channel:         channel,
	}
	s.entries[e.Path] = e
	return e, nil
}

func (s *fakeStore) Read(_ context.Context, path string) (*core.Entry, error) {
	if s.staleReads != nil {
		if stale, ok := s.staleReads[path]; ok {
			return &stale, nil
		}
	}
	e, ok := s.entries[path]
	if !ok {
		return nil, core.NewNotFound(path)
	}
	cp := *e
	return &cp, nil
}

func (s *fakeStore) Update(_ context.Context, path string, upd core.EntryUpdate, _ core.Channel) (*core.Entry, error) {
	s.mutations++
	e, ok := s.entries[path]
	if !ok {
		return nil, core.NewNotFound(path)
	}
	if upd.Name != nil {
		e.Name = *upd.Name
	}
	if upd.Status != nil {
		e.Status = *upd.Status
	}
	if upd.DueDate != nil {
		e.DueDate = *upd.DueDate
	}
	if upd.Priority != nil {
		e.Priority = *upd.Priority
	}
	if upd.Body != nil {
		switch upd.Body.Mode {
		case core.BodyReplace:
			e.Body = upd.Body.Content
		default:
			e.Body = strings.TrimSpace(e.Body + "\n" + upd.Body.Content)
		}
	}
	cp := *e
	return &cp, nil
}

func (s *fakeStore) Move(_ context.Context, path string, target core.Category, _ core.Channel) (*core.Entry, error) {
	s.mutations++
	e, ok := s.entries[path]
	if !ok {
		return nil, core.NewNotFound(path)
	}
	delete(s.entries, path)
	e.Category = target
	e.Path = string(target) + "/" + e.Slug
	s.entries[e.Path] = e
	cp := *e
	return &cp, nil
}

func (s *fakeStore) Delete(_ context.Context, path string, _ core.Channel) error {
	s.mutations++
	if _, ok := s.entries[path]; !ok {
		return core.NewNotFound(path)
	}
	if !s.stickyDelete {
		delete(s.entries, path)
	}
	return nil
}

func (s *fakeStore) List(_ context.Context, filter core.ListFilter) ([]core.Entry, error) {
	var out []core.Entry
	for _, e := range s.entries {
		if filter.Category != "" && e.Category != filter.Category {
			continue
		}
		if filter.Status != "" && e.Status != filter.Status {
			continue
		}
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *fakeStore) Merge(_ context.Context, targetPath string, sourcePaths []string, _ core.Channel) (*core.Entry, error) {
	s.mutations++
	t, ok := s.entries[targetPath]
	if !ok {
		return nil, core.NewNotFound(targetPath)
	}
	for _, src := range sourcePaths {
		delete(s.entries, src)
	}
	cp := *t
	return &cp, nil
}

type fakeSearch struct {
	hits []core.SearchHit
	err  error
}

func (s *fakeSearch) Search(_ context.Context, _ string, _ core.SearchOptions) (core.SearchResult, error) {
	if s.err != nil {
		return core.SearchResult{}, s.err
	}
	return core.SearchResult{Entries: s.hits, Total: len(s.hits)}, nil
}

type fakeClassifier struct {
	result    *core.ClassificationResult
	err       error
	lastInput core.ClassificationInput
}

func (c *fakeClassifier) Classify(_ context.Context, input core.ClassificationInput) (*core.ClassificationResult, error) {
	c.lastInput = input
	if c.err != nil {
		return nil, c.err
	}
	return c.result, nil
}

type fakeActions struct {
	actions []core.ExtractedAction
	err     error
}

func (a *fakeActions) ExtractActions(context.Context, string) ([]core.ExtractedAction, error) {
	return a.actions, a.err
}

type fakeGuard struct {
	decision core.GuardrailDecision
	err      error
	calls    int
}

func (g *fakeGuard) Check(context.Context, core.ToolCall, *core.ConversationContext) (core.GuardrailDecision, error) {
	g.calls++
	return g.decision, g.err
}

type fakeIntent struct {
	intent *core.UpdateIntent
	err    error
}

func (i *fakeIntent) AnalyzeUpdate(context.Context, string, map[string]any, string) (*core.UpdateIntent, error) {
	return i.intent, i.err
}

type fakeQueue struct {
	enabled bool
	nextID  int64
	err     error
	count   int
}

func (q *fakeQueue) Enabled() bool { return q.enabled }

func (q *fakeQueue) Enqueue(context.Context, string, *core.ClassificationHints, core.Channel) (int64, error) {
	q.count++
	return q.nextID, q.err
}

type fakeLinker struct {
	people   [][]string
	projects [][]string
}

func (l *fakeLinker) LinkPeople(_ context.Context, _ *core.Entry, names []string, _ core.Channel) error {
	l.people = append(l.people, names)
	return nil
}

func (l *fakeLinker) LinkProjects(_ context.Context, _ *core.Entry, names []string, _ core.Channel) error {
	l.projects = append(l.projects, names)
	return nil
}

type fakeDigest struct {
	digest string
	index  string
}

func (d *fakeDigest) Build(context.Context, string) (string, error) { return d.digest, nil }
func (d *fakeDigest) IndexSummary(context.Context) (string, error)  { return d.index, nil }

func newTestExecutor(store *fakeStore, opts ...Option) (*Executor, Deps) {
	deps := Deps{
		Registry: registry.New(),
		Store:    store,
		Search:   &fakeSearch{},
	}
	all := append([]Option{WithClock(testClock)}, opts...)
	return New(deps, all...), deps
}

func chatContext(userMsgs ...string) *core.ConversationContext {
	convo := &core.ConversationContext{}
	for _, m := range userMsgs {
		convo.Recent = append(convo.Recent, core.ChatMessage{Role: core.RoleUser, Content: m})
	}
	return convo
}

func TestRoute(t *testing.T) {
	tests := []struct {
		confidence float64
		want       core.Category
	}{
		{0.95, core.CategoryTask},
		{0.60, core.CategoryTask},
		{0.599, core.CategoryInbox},
		{0.3, core.CategoryInbox},
		{0.0, core.CategoryInbox},
	}
	for _, tt := range tests {
		if got := Route(core.CategoryTask, tt.confidence, 0.6); got != tt.want {
			t.Errorf("Route(task, %v, 0.6) = %s, want %s", tt.confidence, got, tt.want)
		}
	}

	// Monotonic: once confident enough, more confidence never flips the
	// decision back to inbox.
	routed := false
	for c := 0.0; c <= 1.0; c += 0.05 {
		got := Route(core.CategoryTask, c, 0.6)
		if routed && got == core.CategoryInbox {
			t.Fatalf("routing regressed to inbox at confidence %v", c)
		}
		if got == core.CategoryTask {
			routed = true
		}
	}
}

func TestExecuteValidationShortCircuit(t *testing.T) {
	store := newFakeStore()
	e, _ := newTestExecutor(store)

	res := e.Execute(context.Background(), core.ToolCall{Name: "update_entry", Arguments: map[string]any{}}, Options{})
	if res.Success {
		t.Fatal("expected failure on missing required arguments")
	}
	if !strings.Contains(res.Error, "path") {
		t.Errorf("error should name the missing field, got %q", res.Error)
	}
	if store.mutations != 0 {
		t.Errorf("store mutated %d times before validation passed", store.mutations)
	}
}

func TestExecuteUnknownTool(t *testing.T) {
	e, _ := newTestExecutor(newFakeStore())
	res := e.Execute(context.Background(), core.ToolCall{Name: "drop_database"}, Options{})
	if res.Success || !strings.Contains(res.Error, "unknown tool") {
		t.Errorf("got %+v, want unknown tool error", res)
	}
}

func TestGuardrail(t *testing.T) {
	args := map[string]any{"path": "task/call-dentist", "status": "done"}

	t.Run("denied", func(t *testing.T) {
		store := newFakeStore(core.Entry{Path: "task/call-dentist", Category: core.CategoryTask, Slug: "call-dentist", Name: "Call dentist", Status: "pending"})
		guard := &fakeGuard{decision: core.GuardrailDecision{Allowed: false, Reason: "you asked to list tasks, not complete one"}}
		e, _ := newTestExecutor(store)
		e.deps.Guard = guard

		res := e.Execute(context.Background(), core.ToolCall{Name: "update_entry", Arguments: args},
			Options{Channel: core.ChannelChat, Context: chatContext("show me my tasks")})
		if res.Success {
			t.Fatal("expected guardrail denial")
		}
		want := "Tool call blocked by guardrail: you asked to list tasks, not complete one"
		if res.Error != want {
			t.Errorf("error = %q, want %q", res.Error, want)
		}
		if store.mutations != 0 {
			t.Errorf("store mutated %d times despite denial", store.mutations)
		}
	})

	t.Run("fails closed on guardrail error", func(t *testing.T) {
		store := newFakeStore(core.Entry{Path: "task/call-dentist", Category: core.CategoryTask, Slug: "call-dentist", Name: "Call dentist", Status: "pending"})
		e, _ := newTestExecutor(store)
		e.deps.Guard = &fakeGuard{err: errors.New("provider unreachable")}

		res := e.Execute(context.Background(), core.ToolCall{Name: "update_entry", Arguments: args},
			Options{Channel: core.ChannelChat, Context: chatContext("mark call dentist done")})
		if res.Success {
			t.Fatal("expected fail-closed result")
		}
		if !strings.Contains(res.Error, "Tool call blocked by guardrail: check failed:") {
			t.Errorf("error = %q, want fail-closed guardrail message", res.Error)
		}
		if store.mutations != 0 {
			t.Errorf("store mutated %d times while guardrail was unavailable", store.mutations)
		}
	})

	t.Run("skipped for non-chat channels", func(t *testing.T) {
		store := newFakeStore(core.Entry{Path: "task/call-dentist", Category: core.CategoryTask, Slug: "call-dentist", Name: "Call dentist", Status: "pending"})
		guard := &fakeGuard{err: errors.New("should not be consulted")}
		e, _ := newTestExecutor(store)
		e.deps.Guard = guard

		res := e.Execute(context.Background(), core.ToolCall{Name: "update_entry", Arguments: args},
			Options{Channel: core.ChannelAPI})
		if !res.Success {
			t.Fatalf("api-channel update failed: %s", res.Error)
		}
		if guard.calls != 0 {
			t.Errorf("guardrail consulted %d times on api channel", guard.calls)
		}
	})

	t.Run("skipped for read-only tools", func(t *testing.T) {
		guard := &fakeGuard{err: errors.New("should not be consulted")}
		e, _ := newTestExecutor(newFakeStore(core.Entry{Path: "task/a", Category: core.CategoryTask, Name: "A"}))
		e.deps.Guard = guard

		res := e.Execute(context.Background(), core.ToolCall{Name: "get_entry", Arguments: map[string]any{"path": "task/a"}},
			Options{Channel: core.ChannelChat, Context: chatContext("show me task a")})
		if !res.Success {
			t.Fatalf("read failed: %s", res.Error)
		}
		if guard.calls != 0 {
			t.Errorf("guardrail consulted %d times for a read", guard.calls)
		}
	})
}

func TestClassifyAndCaptureRouting(t *testing.T) {
	call := func(text string) core.ToolCall {
		return core.ToolCall{Name: "classify_and_capture", Arguments: map[string]any{"text": text}}
	}

	tests := []struct {
		name         string
		confidence   float64
		wantCategory string
		wantClarify  bool
	}{
		{"confident", 0.92, "task", false},
		{"exactly at threshold", 0.60, "task", false},
		{"just below threshold", 0.59, "inbox", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			e, _ := newTestExecutor(store)
			e.deps.Classifier = &fakeClassifier{result: &core.ClassificationResult{
				Category:   core.CategoryTask,
				Confidence: tt.confidence,
				Name:       "Call dentist",
				Slug:       "call-dentist",
				Fields:     core.Fields{Task: &core.TaskFields{Status: "pending"}},
			}}

			res := e.Execute(context.Background(), call("call the dentist"), Options{Channel: core.ChannelAPI})
			if !res.Success {
				t.Fatalf("capture failed: %s", res.Error)
			}
			if res.Data["category"] != tt.wantCategory {
				t.Errorf("category = %v, want %s", res.Data["category"], tt.wantCategory)
			}
			if res.Data["clarification_needed"] != tt.wantClarify {
				t.Errorf("clarification_needed = %v, want %v", res.Data["clarification_needed"], tt.wantClarify)
			}
			if tt.wantClarify {
				if res.Data["suggested_category"] != "task" {
					t.Errorf("suggested_category = %v, want task", res.Data["suggested_category"])
				}
				entry := res.Data["entry"].(*core.Entry)
				if entry.Category != core.CategoryInbox {
					t.Errorf("entry filed under %s, want inbox", entry.Category)
				}
				if !strings.Contains(entry.AgentNote, "Where should it go?") {
					t.Errorf("inbox entry missing clarification note: %q", entry.AgentNote)
				}
			}
		})
	}
}

func TestClassifyAndCaptureHeuristicEnrichment(t *testing.T) {
	store := newFakeStore()
	e, _ := newTestExecutor(store)
	e.deps.Classifier = &fakeClassifier{result: &core.ClassificationResult{
		Category:   core.CategoryTask,
		Confidence: 0.9,
		Name:       "Review contract",
		Slug:       "review-contract",
		Fields:     core.Fields{Task: &core.TaskFields{}},
	}}

	res := e.Execute(context.Background(), core.ToolCall{
		Name:      "classify_and_capture",
		Arguments: map[string]any{"text": "urgent: review the contract, should take 30 minutes"},
	}, Options{Channel: core.ChannelAPI})
	if !res.Success {
		t.Fatalf("capture failed: %s", res.Error)
	}

	if len(store.drafts) != 1 {
		t.Fatalf("expected 1 created entry, got %d", len(store.drafts))
	}
	draft := store.drafts[0]
	if draft.Priority != 5 {
		t.Errorf("priority = %d, want 5 from 'urgent'", draft.Priority)
	}
	if draft.DurationMinutes != 30 {
		t.Errorf("duration = %d, want 30", draft.DurationMinutes)
	}
	if draft.Status != "pending" {
		t.Errorf("status = %q, want default pending", draft.Status)
	}
}

func TestClassifyAndCaptureActionEnrichment(t *testing.T) {
	store := newFakeStore()
	e, _ := newTestExecutor(store)
	e.deps.Classifier = &fakeClassifier{result: &core.ClassificationResult{
		Category:   core.CategoryProjects,
		Confidence: 0.85,
		Name:       "Kitchen renovation",
		Slug:       "kitchen-renovation",
		Fields:     core.Fields{Projects: &core.ProjectsFields{Status: "active"}},
	}}
	e.deps.Actions = &fakeActions{actions: []core.ExtractedAction{
		{Action: "get contractor quotes", DueDate: "2026-09-01"},
		{Action: "pick tile"},
	}}

	res := e.Execute(context.Background(), core.ToolCall{
		Name:      "classify_and_capture",
		Arguments: map[string]any{"text": "kitchen renovation planning notes"},
	}, Options{Channel: core.ChannelAPI})
	if !res.Success {
		t.Fatalf("capture failed: %s", res.Error)
	}

	draft := store.drafts[0]
	next, _ := draft.Fields["next_actions"].([]string)
	if len(next) != 2 || next[0] != "get contractor quotes (due 2026-09-01)" || next[1] != "pick tile" {
		t.Errorf("next_actions = %v", next)
	}
	if draft.DueDate != "2026-09-01" {
		t.Errorf("due date = %q, want backfill from first action", draft.DueDate)
	}
}

func TestClassifyAndCaptureLinksMentions(t *testing.T) {
	store := newFakeStore()
	linker := &fakeLinker{}
	e, _ := newTestExecutor(store)
	e.deps.Linker = linker
	e.deps.Classifier = &fakeClassifier{result: &core.ClassificationResult{
		Category:   core.CategoryProjects,
		Confidence: 0.9,
		Name:       "Home lab rebuild",
		Slug:       "home-lab-rebuild",
		Fields:     core.Fields{Projects: &core.ProjectsFields{Status: "active", People: []string{"Sam", "Priya"}}},
	}}

	res := e.Execute(context.Background(), core.ToolCall{
		Name:      "classify_and_capture",
		Arguments: map[string]any{"text": "rebuild the home lab with Sam and Priya"},
	}, Options{Channel: core.ChannelAPI})
	if !res.Success {
		t.Fatalf("capture failed: %s", res.Error)
	}
	if len(linker.people) != 1 || fmt.Sprint(linker.people[0]) != "[Sam Priya]" {
		t.Errorf("people links = %v", linker.people)
	}
}

func TestClassifyAndCaptureQueueing(t *testing.T) {
	t.Run("transient failure queues when allowed", func(t *testing.T) {
		store := newFakeStore()
		queue := &fakeQueue{enabled: true, nextID: 7}
		e, _ := newTestExecutor(store)
		e.deps.Queue = queue
		e.deps.Classifier = &fakeClassifier{err: core.NewTimeout("classification")}

		res := e.Execute(context.Background(), core.ToolCall{
			Name:      "classify_and_capture",
			Arguments: map[string]any{"text": "remember to renew the passport"},
		}, Options{Channel: core.ChannelChat, AllowQueueing: true})
		if !res.Success {
			t.Fatalf("expected queued success, got %s", res.Error)
		}
		if res.Data["queued"] != true || res.Data["capture_id"] != int64(7) {
			t.Errorf("data = %v", res.Data)
		}
		if store.mutations != 0 {
			t.Error("nothing should be written while queued")
		}
	})

	t.Run("transient failure propagates when queueing disallowed", func(t *testing.T) {
		queue := &fakeQueue{enabled: true, nextID: 7}
		e, _ := newTestExecutor(newFakeStore())
		e.deps.Queue = queue
		e.deps.Classifier = &fakeClassifier{err: core.NewTimeout("classification")}

		res := e.Execute(context.Background(), core.ToolCall{
			Name:      "classify_and_capture",
			Arguments: map[string]any{"text": "remember to renew the passport"},
		}, Options{Channel: core.ChannelChat})
		if res.Success {
			t.Fatal("expected propagated failure")
		}
		if !strings.Contains(res.Error, "timed out") {
			t.Errorf("error = %q, want the timeout surfaced", res.Error)
		}
		if queue.count != 0 {
			t.Errorf("queued %d times without permission", queue.count)
		}
	})

	t.Run("permanent failure never queues", func(t *testing.T) {
		queue := &fakeQueue{enabled: true, nextID: 7}
		e, _ := newTestExecutor(newFakeStore())
		e.deps.Queue = queue
		e.deps.Classifier = &fakeClassifier{err: core.NewInvalidResponse("not json", "oops")}

		res := e.Execute(context.Background(), core.ToolCall{
			Name:      "classify_and_capture",
			Arguments: map[string]any{"text": "remember to renew the passport"},
		}, Options{Channel: core.ChannelChat, AllowQueueing: true})
		if res.Success {
			t.Fatal("expected failure")
		}
		if queue.count != 0 {
			t.Errorf("queued %d times for a permanent failure", queue.count)
		}
	})
}

func TestFindDuplicates(t *testing.T) {
	store := newFakeStore(
		core.Entry{Path: "task/call-bob", Category: core.CategoryTask, Name: "Call Bob"},
		core.Entry{Path: "task/call-bob-2", Category: core.CategoryTask, Name: "call bob!"},
		core.Entry{Path: "task/buy-milk", Category: core.CategoryTask, Name: "Buy milk"},
	)
	e, _ := newTestExecutor(store)

	res := e.Execute(context.Background(), core.ToolCall{Name: "find_duplicates", Arguments: map[string]any{"category": "task"}}, Options{})
	if !res.Success {
		t.Fatalf("find_duplicates failed: %s", res.Error)
	}
	if res.Data["count"] != 1 {
		t.Fatalf("count = %v, want 1", res.Data["count"])
	}
	groups := res.Data["duplicates"].([]map[string]any)
	paths := groups[0]["paths"].([]string)
	if len(paths) != 2 {
		t.Errorf("duplicate group paths = %v", paths)
	}
}

func TestExecuteRecoversPanics(t *testing.T) {
	e, _ := newTestExecutor(newFakeStore())
	// nil Classifier dereference inside the handler.
	res := e.Execute(context.Background(), core.ToolCall{
		Name:      "classify_and_capture",
		Arguments: map[string]any{"text": "anything"},
	}, Options{})
	if res.Success {
		t.Fatal("expected failure from recovered panic")
	}
	if !strings.Contains(res.Error, "internal error") {
		t.Errorf("error = %q", res.Error)
	}
}
