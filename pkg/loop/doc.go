// Package loop provides the cooperative event loop that every gousse
// document runs on.
//
// A Loop owns a task queue and a frame queue. Tasks run in the order they
// were posted; frame callbacks run once the task queue is empty, which is
// the point where a browser would paint. All document mutation happens on
// the goroutine that drives the loop (Drain or Run), so the rest of the
// library can treat the node tree as single-threaded.
//
// Promise is the deferred value type. Promises may be settled from any
// goroutine; their continuations are always posted back to the loop:
//
//	l := loop.New()
//	p := l.Go(ctx, func(ctx context.Context) (any, error) {
//	    return fetchUser(ctx, id)
//	})
//	p.Then(func(v any, err error) {
//	    // runs on the loop goroutine
//	})
//	_ = l.Drain(ctx)
package loop
