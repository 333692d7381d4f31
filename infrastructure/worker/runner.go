// Package worker runs background tasks detached from the request that started
// them. Tasks are grouped by a key so a whole group can be cancelled at once.
package worker

import (
	"context"
	"errors"
	"sync"

	"omnicast/infrastructure/logger"
)

var (
	ErrCancelled     = errors.New("upload cancelled")
	ErrRunnerStopped = errors.New("runner stopped")
)

type Task func(ctx context.Context)

type Runner struct {
	base       context.Context
	baseCancel context.CancelCauseFunc

	mu     sync.Mutex
	groups map[int64]map[uint64]context.CancelCauseFunc
	seq    uint64
	closed bool

	wg sync.WaitGroup
}

func NewRunner(parent context.Context) *Runner {
	base, cancel := context.WithCancelCause(parent)
	return &Runner{
		base:       base,
		baseCancel: cancel,
		groups:     make(map[int64]map[uint64]context.CancelCauseFunc),
	}
}

// Go starts task in its own goroutine under group. It returns false once the
// runner is shutting down.
func (r *Runner) Go(group int64, task Task) bool {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return false
	}
	ctx, cancel := context.WithCancelCause(r.base)
	r.seq++
	id := r.seq
	if r.groups[group] == nil {
		r.groups[group] = make(map[uint64]context.CancelCauseFunc)
	}
	r.groups[group][id] = cancel
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()
		defer r.forget(group, id)
		defer func() {
			if rec := recover(); rec != nil {
				logger.GetLogger().WithField("group", group).WithField("panic", rec).Error("Background task panicked")
			}
		}()
		task(ctx)
	}()
	return true
}

func (r *Runner) forget(group int64, id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tasks := r.groups[group]
	if cancel, ok := tasks[id]; ok {
		cancel(nil)
		delete(tasks, id)
	}
	if len(tasks) == 0 {
		delete(r.groups, group)
	}
}

// Cancel cancels every running task of group with cause and returns how many
// were signalled.
func (r *Runner) Cancel(group int64, cause error) int {
	if cause == nil {
		cause = ErrCancelled
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	tasks := r.groups[group]
	for _, cancel := range tasks {
		cancel(cause)
	}
	return len(tasks)
}

func (r *Runner) Active(group int64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.groups[group])
}

// Shutdown stops accepting tasks, cancels the running ones with
// ErrRunnerStopped and waits for them until ctx is done.
func (r *Runner) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	r.baseCancel(ErrRunnerStopped)

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
