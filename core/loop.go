package core

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"pkt.systems/pslog"

	"pkt.systems/tabshell/schema"
)

// Dispatcher serializes every tab and group operation onto one logical
// thread. Post may be called from any goroutine; posted closures run in
// order. AfterFunc posts fn once delay has elapsed; stop reports whether it
// prevented fn from running.
type Dispatcher interface {
	Post(fn func())
	AfterFunc(delay time.Duration, fn func()) (stop func() bool)
}

// Loop is the production Dispatcher: a single goroutine draining a FIFO of
// closures.
type Loop struct {
	mu     sync.Mutex
	queue  []func()
	wake   chan struct{}
	done   chan struct{}
	once   sync.Once
	logger pslog.Logger
}

// NewLoop returns a loop that runs once Run is called.
func NewLoop(logger pslog.Logger) *Loop {
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &Loop{
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// Post queues fn. Closures posted after Close are dropped.
func (l *Loop) Post(fn func()) {
	if fn == nil {
		return
	}
	select {
	case <-l.done:
		return
	default:
	}
	l.mu.Lock()
	l.queue = append(l.queue, fn)
	l.mu.Unlock()
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// AfterFunc posts fn after delay.
func (l *Loop) AfterFunc(delay time.Duration, fn func()) func() bool {
	var fired atomic.Bool
	timer := time.AfterFunc(delay, func() {
		l.Post(func() {
			if fired.CompareAndSwap(false, true) {
				fn()
			}
		})
	})
	return func() bool {
		timer.Stop()
		return fired.CompareAndSwap(false, true)
	}
}

// Do runs fn on the loop and waits for it to return.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	l.Post(func() {
		defer close(finished)
		fn()
	})
	select {
	case <-finished:
		return nil
	case <-l.done:
		select {
		case <-finished:
			return nil
		default:
		}
		return schema.ErrLoopClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run drains the queue until ctx is done or Close is called.
func (l *Loop) Run(ctx context.Context) error {
	defer l.Close()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-l.done:
			return nil
		case <-l.wake:
		}
		for {
			l.mu.Lock()
			batch := l.queue
			l.queue = nil
			l.mu.Unlock()
			if len(batch) == 0 {
				break
			}
			for _, fn := range batch {
				l.run(fn)
			}
		}
	}
}

// Close stops the loop. Queued closures are discarded.
func (l *Loop) Close() {
	l.once.Do(func() {
		close(l.done)
		l.mu.Lock()
		l.queue = nil
		l.mu.Unlock()
	})
}

func (l *Loop) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("loop task panic", "panic", r)
		}
	}()
	fn()
}
