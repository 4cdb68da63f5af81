package loop

import (
	"context"
	"fmt"
	"sync"

	gerrors "github.com/vango-dev/gousse/internal/errors"
)

type promiseState uint8

const (
	statePending promiseState = iota
	stateFulfilled
	stateRejected
)

// Promise is a deferred value settled at most once.
type Promise struct {
	loop *Loop

	mu        sync.Mutex
	state     promiseState
	value     any
	err       error
	callbacks []func(any, error)
	handled   bool
}

// NewPromise creates a pending promise and the functions that settle it.
// Only the first call to either function has an effect.
func (l *Loop) NewPromise() (p *Promise, resolve func(any), reject func(error)) {
	p = &Promise{loop: l}
	l.track()
	return p, p.resolve, p.reject
}

// Resolved returns a promise already fulfilled with v. If v is itself a
// promise, the result adopts it.
func (l *Loop) Resolved(v any) *Promise {
	p, resolve, _ := l.NewPromise()
	resolve(v)
	return p
}

// Rejected returns a promise already rejected with err.
func (l *Loop) Rejected(err error) *Promise {
	p, _, reject := l.NewPromise()
	reject(err)
	return p
}

// Go runs fn on a new goroutine and returns a promise of its result.
func (l *Loop) Go(ctx context.Context, fn func(ctx context.Context) (any, error)) *Promise {
	p, resolve, reject := l.NewPromise()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				reject(fmt.Errorf("loop: deferred func panicked: %v", r))
			}
		}()
		v, err := fn(ctx)
		if err != nil {
			reject(err)
			return
		}
		resolve(v)
	}()
	return p
}

// Loop returns the loop the promise belongs to.
func (p *Promise) Loop() *Loop {
	return p.loop
}

func (p *Promise) resolve(v any) {
	if inner, ok := v.(*Promise); ok && inner != nil {
		if inner == p {
			p.reject(fmt.Errorf("loop: promise resolved with itself"))
			return
		}
		// Adoption: the outer promise stays pending until inner settles.
		inner.subscribe(func(v any, err error) {
			if err != nil {
				p.settle(nil, err)
				return
			}
			p.settle(v, nil)
		})
		return
	}
	p.settle(v, nil)
}

func (p *Promise) reject(err error) {
	if err == nil {
		err = fmt.Errorf("loop: rejected with nil error")
	}
	p.settle(nil, err)
}

func (p *Promise) settle(v any, err error) {
	p.mu.Lock()
	if p.state != statePending {
		p.mu.Unlock()
		return
	}
	if err != nil {
		p.state = stateRejected
		p.err = err
	} else {
		p.state = stateFulfilled
		p.value = v
	}
	callbacks := p.callbacks
	p.callbacks = nil
	p.mu.Unlock()

	tasks := make([]func(), 0, len(callbacks)+1)
	for _, cb := range callbacks {
		cb := cb
		tasks = append(tasks, func() { cb(v, err) })
	}
	if err != nil {
		tasks = append(tasks, p.reportUnhandled)
	}
	p.loop.settle(tasks)
}

// reportUnhandled logs a rejection nobody subscribed to by the time its
// callbacks ran.
func (p *Promise) reportUnhandled() {
	p.mu.Lock()
	handled := p.handled
	err := p.err
	p.mu.Unlock()
	if !handled {
		p.loop.logger.Warn("unhandled promise rejection",
			"error", gerrors.New("G040").Wrap(err))
	}
}

// subscribe registers cb and marks the promise as observed.
func (p *Promise) subscribe(cb func(any, error)) {
	p.mu.Lock()
	p.handled = true
	if p.state == statePending {
		p.callbacks = append(p.callbacks, cb)
		p.mu.Unlock()
		return
	}
	v, err := p.value, p.err
	p.mu.Unlock()
	p.loop.Post(func() { cb(v, err) })
}

// Then registers fn to run on the loop once the promise settles. fn runs
// as a task even when the promise has already settled.
func (p *Promise) Then(fn func(value any, err error)) {
	if fn == nil {
		return
	}
	p.subscribe(fn)
}

// Settled reports whether the promise has been fulfilled or rejected.
func (p *Promise) Settled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state != statePending
}

// Result returns the settled value and error. ok is false while pending.
func (p *Promise) Result() (value any, err error, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == statePending {
		return nil, nil, false
	}
	return p.value, p.err, true
}

// All joins items into a promise of []any holding each item's value in
// order. Items that are not promises are taken as-is. The first rejection
// rejects the join.
func All(l *Loop, items []any) *Promise {
	out, resolve, reject := l.NewPromise()
	results := make([]any, len(items))
	remaining := 0
	for i, item := range items {
		if p, ok := item.(*Promise); ok && p != nil {
			remaining++
			continue
		}
		results[i] = item
	}
	if remaining == 0 {
		resolve(results)
		return out
	}

	for i, item := range items {
		p, ok := item.(*Promise)
		if !ok || p == nil {
			continue
		}
		i := i
		p.subscribe(func(v any, err error) {
			if err != nil {
				reject(err)
				return
			}
			results[i] = v
			remaining--
			if remaining == 0 {
				resolve(results)
			}
		})
	}
	return out
}

// Contains reports whether items holds at least one promise.
func Contains(items []any) bool {
	for _, item := range items {
		if _, ok := item.(*Promise); ok {
			return true
		}
	}
	return false
}
