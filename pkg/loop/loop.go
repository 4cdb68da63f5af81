package loop

import (
	"context"
	"log/slog"
	"sync"
)

// Loop is a cooperative, single-consumer task queue.
type Loop struct {
	mu      sync.Mutex
	tasks   []func()
	frames  []func()
	pending int // unsettled promises
	wake    chan struct{}
	logger  *slog.Logger
	idle    func()
}

// Option configures a Loop.
type Option func(*Loop)

// WithLogger sets the logger used to report panicking tasks and
// unhandled rejections.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithIdle sets fn to run on the loop goroutine each time Run has
// executed a batch of work and both queues are empty again.
func WithIdle(fn func()) Option {
	return func(l *Loop) {
		l.idle = fn
	}
}

// New creates an idle Loop.
func New(opts ...Option) *Loop {
	l := &Loop{
		wake:   make(chan struct{}, 1),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Logger returns the loop's logger.
func (l *Loop) Logger() *slog.Logger {
	return l.logger
}

// Post queues fn to run as a task. Safe to call from any goroutine.
func (l *Loop) Post(fn func()) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	l.tasks = append(l.tasks, fn)
	l.mu.Unlock()
	l.signal()
}

// RequestFrame queues fn to run after the task queue has drained.
func (l *Loop) RequestFrame(fn func()) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	l.frames = append(l.frames, fn)
	l.mu.Unlock()
	l.signal()
}

// Pending returns the number of unsettled promises created on this loop.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pending
}

func (l *Loop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// next pops the next unit of work: a task if any, otherwise the whole
// frame batch. idle is true when nothing is queued.
func (l *Loop) next() (work []func(), idle bool, pending int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.tasks) > 0 {
		task := l.tasks[0]
		l.tasks[0] = nil
		l.tasks = l.tasks[1:]
		return []func(){task}, false, l.pending
	}
	if len(l.frames) > 0 {
		frames := l.frames
		l.frames = nil
		return frames, false, l.pending
	}
	return nil, true, l.pending
}

// RunPending runs queued tasks and frames until both queues are empty,
// without waiting for unsettled promises. It returns the number of
// callbacks executed.
func (l *Loop) RunPending() int {
	n := 0
	for {
		work, idle, _ := l.next()
		if idle {
			return n
		}
		for _, fn := range work {
			l.invoke(fn)
			n++
		}
	}
}

// Drain runs the loop until no task or frame is queued and every promise
// has settled, or until ctx is done.
func (l *Loop) Drain(ctx context.Context) error {
	for {
		l.RunPending()

		l.mu.Lock()
		quiet := len(l.tasks) == 0 && len(l.frames) == 0 && l.pending == 0
		l.mu.Unlock()
		if quiet {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

// Run processes work until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	for {
		if n := l.RunPending(); n > 0 && l.idle != nil {
			l.invoke(l.idle)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

// invoke runs fn and logs a panic instead of propagating it.
func (l *Loop) invoke(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("loop task panicked", "panic", r)
		}
	}()
	fn()
}

// settle queues a promise's callbacks and releases its pending slot under
// one lock; Drain must never see the slot released before the callbacks.
func (l *Loop) settle(callbacks []func()) {
	l.mu.Lock()
	l.tasks = append(l.tasks, callbacks...)
	l.pending--
	l.mu.Unlock()
	l.signal()
}

func (l *Loop) track() {
	l.mu.Lock()
	l.pending++
	l.mu.Unlock()
}
