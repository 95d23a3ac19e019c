package components

import "context"

// job runs fn on its own goroutine and is polled for the result.
type job[T any] struct {
	done   chan struct{}
	result T
	err    error
}

func startJob[T any](ctx context.Context, fn func(context.Context) (T, error)) *job[T] {
	j := &job[T]{done: make(chan struct{})}
	go func() {
		defer close(j.done)
		j.result, j.err = fn(ctx)
	}()
	return j
}

// poll returns the outcome without blocking. ok is false while fn runs.
func (j *job[T]) poll() (result T, err error, ok bool) {
	select {
	case <-j.done:
		return j.result, j.err, true
	default:
		return result, nil, false
	}
}

// wait blocks until fn returns.
func (j *job[T]) wait() {
	<-j.done
}
