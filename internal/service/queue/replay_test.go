package queue

import (
	"context"
	"testing"
	"time"

	"github.com/sandevgo/quill/internal/core"
	"github.com/sandevgo/quill/internal/service/executor"
	"github.com/sandevgo/quill/pkg/retry"
)

type stubQueueStore struct {
	pending []core.QueuedCapture
	done    []int64
	failed  []int64
}

func (s *stubQueueStore) Pending(context.Context, int) ([]core.QueuedCapture, error) {
	return s.pending, nil
}

func (s *stubQueueStore) MarkDone(_ context.Context, id int64) error {
	s.done = append(s.done, id)
	return nil
}

func (s *stubQueueStore) MarkFailed(_ context.Context, id int64, _ string, _ int) error {
	s.failed = append(s.failed, id)
	return nil
}

type stubRunner struct {
	results map[string]core.ToolResult
	calls   []core.ToolCall
}

func (r *stubRunner) Execute(_ context.Context, call core.ToolCall, _ executor.Options) core.ToolResult {
	r.calls = append(r.calls, call)
	text, _ := call.Arguments["text"].(string)
	if res, ok := r.results[text]; ok {
		return res
	}
	return core.ToolResult{Success: true}
}

func fastRetrier() *retry.Retrier {
	return retry.NewRetrier(&retry.Config{
		MaxRetries:   1,
		InitialDelay: time.Millisecond,
		MaxDelay:     time.Millisecond,
	})
}

func TestDrain(t *testing.T) {
	store := &stubQueueStore{pending: []core.QueuedCapture{
		{ID: 1, Text: "renew the passport", Channel: core.ChannelChat, Hints: &core.ClassificationHints{Category: core.CategoryTask}},
		{ID: 2, Text: "still broken", Channel: core.ChannelAPI},
	}}
	runner := &stubRunner{results: map[string]core.ToolResult{
		"still broken": {Success: false, Error: "classification timed out"},
	}}
	r := New(store, runner, WithRetrier(fastRetrier()))

	r.Drain(context.Background())

	if len(store.done) != 1 || store.done[0] != 1 {
		t.Errorf("done = %v", store.done)
	}
	if len(store.failed) != 1 || store.failed[0] != 2 {
		t.Errorf("failed = %v", store.failed)
	}

	first := runner.calls[0]
	if first.Name != "classify_and_capture" {
		t.Errorf("call = %q", first.Name)
	}
	hints, _ := first.Arguments["hints"].(map[string]any)
	if hints["category"] != "task" {
		t.Errorf("hints = %v", hints)
	}
}

func TestStartStopsOnShutdown(t *testing.T) {
	store := &stubQueueStore{}
	r := New(store, &stubRunner{}, WithInterval(5*time.Millisecond), WithRetrier(fastRetrier()))

	errCh := make(chan error, 1)
	go func() { errCh <- r.Start(context.Background()) }()

	time.Sleep(20 * time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := r.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("start returned %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("start did not stop after shutdown")
	}
}
