package rpc

import (
	"context"
	"sync"
)

// Callback receives the final outcome of an invocation. Exactly one of value
// or err is meaningful: err == nil means value holds the reply.
type Callback func(value any, err error)

// Result is the eventually-available outcome of an invocation. It may be
// created already completed (synchronous short-circuits, local invokers) or
// pending and completed later by whatever goroutine finishes the underlying
// call. Chain nodes propagate the same Result by reference and attach their
// completion behavior with WhenComplete rather than copying it.
type Result struct {
	mu        sync.Mutex
	completed bool
	value     any
	err       error
	callbacks []Callback
	done      chan struct{}
}

// NewResult creates a pending Result.
func NewResult() *Result {
	return &Result{done: make(chan struct{})}
}

// CompletedResult creates a Result already completed with value.
func CompletedResult(value any) *Result {
	r := NewResult()
	r.Complete(value, nil)
	return r
}

// FailedResult creates a Result already completed with err.
func FailedResult(err error) *Result {
	r := NewResult()
	r.Complete(nil, err)
	return r
}

// Complete fills in the final outcome and fires every registered callback in
// registration order, on the calling goroutine. Only the first call has any
// effect; later completions are ignored.
func (r *Result) Complete(value any, err error) {
	r.mu.Lock()
	if r.completed {
		r.mu.Unlock()
		return
	}
	r.value = value
	r.err = err
	r.completed = true
	callbacks := r.callbacks
	r.callbacks = nil
	r.mu.Unlock()

	close(r.done)
	for _, cb := range callbacks {
		cb(value, err)
	}
}

// WhenComplete registers cb to receive the final outcome exactly once. If the
// Result is already completed, cb runs synchronously on the registering
// goroutine; otherwise it runs on whatever goroutine completes the Result.
func (r *Result) WhenComplete(cb Callback) {
	r.mu.Lock()
	if r.completed {
		value, err := r.value, r.err
		r.mu.Unlock()
		cb(value, err)
		return
	}
	r.callbacks = append(r.callbacks, cb)
	r.mu.Unlock()
}

// Completed reports whether the final outcome is known.
func (r *Result) Completed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.completed
}

// Value returns the reply value. Only meaningful once Completed.
func (r *Result) Value() any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.value
}

// Err returns the failure, if any. Only meaningful once Completed.
func (r *Result) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Wait blocks until the Result completes or ctx is done, returning the final
// error (or the context error). The pipeline itself never calls Wait; it
// exists for callers that want a synchronous view of an asynchronous call.
func (r *Result) Wait(ctx context.Context) error {
	select {
	case <-r.done:
		return r.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}
