// Package queue replays captures that were parked after transient
// classification failures.
package queue

import (
	"context"
	"errors"
	"time"

	"github.com/sandevgo/quill/internal/core"
	"github.com/sandevgo/quill/internal/service/executor"
	"github.com/sandevgo/quill/pkg/log"
	"github.com/sandevgo/quill/pkg/retry"
)

const (
	defaultInterval    = time.Minute
	defaultBatchSize   = 10
	defaultMaxAttempts = 5
)

// Store is the persistence side of the queue the replayer drains.
type Store interface {
	Pending(ctx context.Context, limit int) ([]core.QueuedCapture, error)
	MarkDone(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64, cause string, maxAttempts int) error
}

// Runner executes the replayed tool call. Satisfied by the executor.
type Runner interface {
	Execute(ctx context.Context, call core.ToolCall, opts executor.Options) core.ToolResult
}

// Replayer is a background service draining the capture queue on a
// timer. Implements srv.Service.
type Replayer struct {
	store       Store
	runner      Runner
	retrier     *retry.Retrier
	interval    time.Duration
	batchSize   int
	maxAttempts int
	stop        chan struct{}
	done        chan struct{}
}

type Option func(*Replayer)

func WithInterval(d time.Duration) Option {
	return func(r *Replayer) { r.interval = d }
}

func WithRetrier(rt *retry.Retrier) Option {
	return func(r *Replayer) { r.retrier = rt }
}

func WithMaxAttempts(n int) Option {
	return func(r *Replayer) { r.maxAttempts = n }
}

func New(store Store, runner Runner, opts ...Option) *Replayer {
	r := &Replayer{
		store:       store,
		runner:      runner,
		retrier:     retry.NewDefaultRetrier(),
		interval:    defaultInterval,
		batchSize:   defaultBatchSize,
		maxAttempts: defaultMaxAttempts,
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

func (r *Replayer) Start(ctx context.Context) error {
	defer close(r.done)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-r.stop:
			return nil
		case <-ticker.C:
			r.Drain(ctx)
		}
	}
}

func (r *Replayer) Shutdown(ctx context.Context) error {
	close(r.stop)
	select {
	case <-r.done:
	case <-ctx.Done():
	}
	return nil
}

// Drain replays one batch of pending captures. Each capture either
// files successfully, or records a failed attempt and waits for the
// next tick until its attempts run out.
func (r *Replayer) Drain(ctx context.Context) {
	logger := log.FromCtx(ctx)

	pending, err := r.store.Pending(ctx, r.batchSize)
	if err != nil {
		logger.Error().Err(err).Msg("failed to load pending captures")
		return
	}

	for _, capture := range pending {
		if err := r.replay(ctx, capture); err != nil {
			logger.Warn().Err(err).Int64("capture_id", capture.ID).Msg("capture replay failed")
			if merr := r.store.MarkFailed(ctx, capture.ID, err.Error(), r.maxAttempts); merr != nil {
				logger.Error().Err(merr).Int64("capture_id", capture.ID).Msg("failed to record replay failure")
			}
			continue
		}
		if err := r.store.MarkDone(ctx, capture.ID); err != nil {
			logger.Error().Err(err).Int64("capture_id", capture.ID).Msg("failed to mark capture done")
		} else {
			logger.Info().Int64("capture_id", capture.ID).Msg("queued capture replayed")
		}
	}
}

func (r *Replayer) replay(ctx context.Context, capture core.QueuedCapture) error {
	args := map[string]any{"text": capture.Text}
	if capture.Hints != nil {
		hints := map[string]any{}
		if capture.Hints.Category != "" {
			hints["category"] = string(capture.Hints.Category)
		}
		if capture.Hints.Name != "" {
			hints["name"] = capture.Hints.Name
		}
		args["hints"] = hints
	}
	call := core.ToolCall{Name: "classify_and_capture", Arguments: args}
	// AllowQueueing stays off: a replayed capture must not re-enqueue
	// itself.
	opts := executor.Options{Channel: capture.Channel}

	return r.retrier.Do(ctx, func() error {
		res := r.runner.Execute(ctx, call, opts)
		if !res.Success {
			return errors.New(res.Error)
		}
		return nil
	})
}
