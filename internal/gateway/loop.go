package gateway

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
)

// ErrLoopStopped is returned when work is submitted after the loop exits
var ErrLoopStopped = errors.New("command loop stopped")

// Task is a unit of work run on the command loop
type Task func(ctx context.Context)

// Loop runs every room and trivia mutation on a single goroutine, in the
// order the tasks were posted.
type Loop struct {
	tasks  chan Task
	done   chan struct{}
	logger *slog.Logger
}

// NewLoop creates a loop with the given queue capacity
func NewLoop(queueSize int, logger *slog.Logger) *Loop {
	return &Loop{
		tasks:  make(chan Task, queueSize),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// Run processes tasks until ctx is cancelled
func (l *Loop) Run(ctx context.Context) {
	defer close(l.done)
	for {
		select {
		case <-ctx.Done():
			return
		case task := <-l.tasks:
			l.run(ctx, task)
		}
	}
}

func (l *Loop) run(ctx context.Context, task Task) {
	defer func() {
		if err := recover(); err != nil {
			l.logger.Error("panic in command loop",
				slog.Any("error", err),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()
	task(ctx)
}

// Post enqueues a task without waiting for it to run.
// Returns false if the loop has stopped.
func (l *Loop) Post(task Task) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.tasks <- task:
		return true
	case <-l.done:
		return false
	}
}

// Do runs fn on the loop and waits for its result
func (l *Loop) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	result := make(chan error, 1)
	if !l.Post(func(loopCtx context.Context) { result <- fn(loopCtx) }) {
		return ErrLoopStopped
	}
	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return ErrLoopStopped
	}
}

// Done is closed once Run has returned
func (l *Loop) Done() <-chan struct{} {
	return l.done
}
