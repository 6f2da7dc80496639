// Package memory keeps the per-session conversation state the chat
// transports feed into classification and guardrail checks: a bounded
// window of verbatim turns plus condensed summaries of whatever the
// window evicted.
package memory

import (
	"context"
	"sync"

	"github.com/sandevgo/quill/internal/core"
	"github.com/sandevgo/quill/pkg/log"
)

const (
	defaultWindowSize = 30
	// evictBatch turns are condensed into one summary when the window
	// overflows, so summaries cover coherent stretches of conversation.
	evictBatch   = 10
	maxSummaries = 10
)

type session struct {
	recent []core.ChatMessage
	// summaries hold slots reserved in eviction order; a slot's text is
	// filled in once its condensation finishes, so concurrent evictions
	// cannot interleave summaries out of chronological order.
	summaries []*summarySlot
}

type summarySlot struct {
	text string
}

// Window is the in-memory conversation store. Sessions are keyed by the
// transport (telegram chat ID, "cli", ...). Safe for concurrent use.
type Window struct {
	mu        sync.Mutex
	limit     int
	condenser *Condenser
	sessions  map[string]*session
}

func NewWindow(limit int, condenser *Condenser) *Window {
	if limit <= 0 {
		limit = defaultWindowSize
	}
	return &Window{
		limit:     limit,
		condenser: condenser,
		sessions:  make(map[string]*session),
	}
}

// Append records one turn. When the window overflows, the oldest turns
// are folded into a summary so long conversations keep their gist
// without growing the verbatim window.
func (w *Window) Append(ctx context.Context, sessionID string, msg core.ChatMessage) {
	w.mu.Lock()
	s, ok := w.sessions[sessionID]
	if !ok {
		s = &session{}
		w.sessions[sessionID] = s
	}
	s.recent = append(s.recent, msg)

	var evicted []core.ChatMessage
	var slot *summarySlot
	if len(s.recent) > w.limit {
		n := evictBatch
		if n > len(s.recent)-w.limit+1 {
			n = len(s.recent) - w.limit + 1
		}
		evicted = append(evicted, s.recent[:n]...)
		s.recent = append([]core.ChatMessage(nil), s.recent[n:]...)

		// Reserve the summary's position while the lock is held; the
		// text lands after condensation. A Reset in between orphans the
		// slot together with its session, which is fine.
		slot = &summarySlot{}
		s.summaries = append(s.summaries, slot)
		if len(s.summaries) > maxSummaries {
			s.summaries = s.summaries[len(s.summaries)-maxSummaries:]
		}
	}
	w.mu.Unlock()

	if slot == nil {
		return
	}

	summary := w.condense(ctx, evicted)
	w.mu.Lock()
	slot.text = summary
	w.mu.Unlock()
}

// Snapshot returns copies of the recent window and summaries for a
// session, chronological.
func (w *Window) Snapshot(sessionID string) ([]core.ChatMessage, []string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	s, ok := w.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	recent := append([]core.ChatMessage(nil), s.recent...)
	var summaries []string
	for _, slot := range s.summaries {
		// A slot whose condensation is still in flight is skipped.
		if slot.text != "" {
			summaries = append(summaries, slot.text)
		}
	}
	return recent, summaries
}

// Reset drops all state for a session.
func (w *Window) Reset(sessionID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.sessions, sessionID)
}

func (w *Window) condense(ctx context.Context, evicted []core.ChatMessage) string {
	if w.condenser != nil {
		summary, err := w.condenser.Condense(ctx, evicted)
		if err == nil && summary != "" {
			return summary
		}
		if err != nil {
			log.FromCtx(ctx).Warn().Err(err).Msg("failed to condense evicted turns; keeping mechanical summary")
		}
	}
	return mechanicalSummary(evicted)
}

// mechanicalSummary is the no-LLM fallback: the first user turn of the
// evicted stretch, truncated.
func mechanicalSummary(msgs []core.ChatMessage) string {
	const maxLen = 160
	for _, m := range msgs {
		if m.Role != core.RoleUser || m.Content == "" {
			continue
		}
		if len(m.Content) > maxLen {
			return m.Content[:maxLen] + "..."
		}
		return m.Content
	}
	return "(earlier conversation)"
}
