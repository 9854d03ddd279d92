package livepage

import (
	"log/slog"
	"sync"
)

// runner executes queued input actions one at a time, in submission order.
// Submissions never block the caller; once closed, new ones are dropped.
type runner struct {
	logger *slog.Logger

	mu     sync.Mutex
	queue  chan job
	closed bool
	done   chan struct{}
}

type job struct {
	name string
	fn   func() error
}

const runnerQueue = 64

func newRunner(logger *slog.Logger) *runner {
	r := &runner{
		logger: logger,
		queue:  make(chan job, runnerQueue),
		done:   make(chan struct{}),
	}
	go r.loop()
	return r
}

func (r *runner) loop() {
	defer close(r.done)
	for j := range r.queue {
		if err := j.fn(); err != nil {
			r.logger.Warn("livepage: input failed", "action", j.name, "error", err)
		}
	}
}

// do queues fn. It reports whether fn was accepted.
func (r *runner) do(name string, fn func() error) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		r.logger.Debug("livepage: input dropped after close", "action", name)
		return false
	}
	select {
	case r.queue <- job{name: name, fn: fn}:
		return true
	default:
		r.logger.Warn("livepage: input queue full", "action", name)
		return false
	}
}

// close stops accepting input and waits for queued actions to finish.
func (r *runner) close() {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()
	<-r.done
}
