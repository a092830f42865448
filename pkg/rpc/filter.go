package rpc

import "context"

// Filter wraps one cross-cutting concern around an invoker. Given the next
// stage and the invocation it produces a Result, either by delegating to next
// (possibly after mutating attachments) or by short-circuiting with its own
// Result or error.
//
// Filters are built once and shared by every concurrent call through the
// chain; they must keep all per-call state on the Invocation or in their own
// concurrent bookkeeping.
type Filter interface {
	Invoke(ctx context.Context, next Invoker, inv *Invocation) (*Result, error)
}

// FilterFunc adapts a function into a Filter.
type FilterFunc func(ctx context.Context, next Invoker, inv *Invocation) (*Result, error)

// Invoke calls f.
func (f FilterFunc) Invoke(ctx context.Context, next Invoker, inv *Invocation) (*Result, error) {
	return f(ctx, next, inv)
}

// Listener is notified once per invocation when the (possibly asynchronous)
// Result completes: OnResponse on success, OnError on failure, never both.
type Listener interface {
	OnResponse(value any, invoker Invoker, inv *Invocation)
	OnError(err error, invoker Invoker, inv *Invocation)
}

// Listenable is implemented by filters that keep per-invocation listener
// state. The chain asks for the handle when the completion event fires and
// releases it afterward, exactly once per call, success or failure, so
// in-flight bookkeeping cannot grow without bound.
type Listenable interface {
	// Listener returns the handle for inv, or nil if none was set up.
	Listener(inv *Invocation) Listener

	// ReleaseListener discards the handle for inv. Called exactly once per
	// completion event, after the listener callback (if any) has run.
	ReleaseListener(inv *Invocation)
}

// ListenableFilter is a Filter with per-invocation listener handles.
type ListenableFilter interface {
	Filter
	Listenable
}

// LoopFilter is the two-phase variant of Filter, designed to be stacked so a
// single chain node can run every OnBefore hook, delegate once, then every
// OnAfter hook symmetrically.
//
// OnBefore may short-circuit the delegated call by returning a non-nil
// Result. OnAfter observes or transforms the working Result; during an error
// unwind it is invoked with a nil Result as a cleanup hook and its return
// value is ignored.
type LoopFilter interface {
	OnBefore(ctx context.Context, next Invoker, inv *Invocation) (*Result, error)
	OnAfter(ctx context.Context, next Invoker, inv *Invocation, res *Result) (*Result, error)
}
