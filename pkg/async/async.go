package async

import (
	"context"
	"time"
)

// Future holds the eventual result of an asynchronous computation.
type Future[U any] struct {
	result U
	err    error
	done   chan struct{}
}

// Run executes fn in a new goroutine and returns its Future. A context that is
// already cancelled resolves the future with ctx.Err() without calling fn.
func Run[U any](ctx context.Context, fn func(context.Context) (U, error)) *Future[U] {
	f := &Future[U]{done: make(chan struct{})}

	go func() {
		defer close(f.done)

		if err := ctx.Err(); err != nil {
			f.err = err
			return
		}
		f.result, f.err = fn(ctx)
	}()

	return f
}

// Resolved returns an already completed Future.
func Resolved[U any](result U, err error) *Future[U] {
	f := &Future[U]{result: result, err: err, done: make(chan struct{})}
	close(f.done)
	return f
}

// Await blocks until the computation completes.
func (f *Future[U]) Await() (U, error) {
	<-f.done
	return f.result, f.err
}

// AwaitContext blocks until the computation completes or ctx is done.
// Giving up on the wait does not cancel the computation itself.
func (f *Future[U]) AwaitContext(ctx context.Context) (U, error) {
	select {
	case <-f.done:
		return f.result, f.err
	case <-ctx.Done():
		var zero U
		return zero, ctx.Err()
	}
}

// AwaitWithTimeout is AwaitContext with a deadline, returning ErrTimeout when it elapses.
func (f *Future[U]) AwaitWithTimeout(timeout time.Duration) (U, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-f.done:
		return f.result, f.err
	case <-timer.C:
		var zero U
		return zero, ErrTimeout
	}
}

// Done is closed once the computation has completed.
func (f *Future[U]) Done() <-chan struct{} {
	return f.done
}

// IsComplete reports completion without blocking.
func (f *Future[U]) IsComplete() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}
