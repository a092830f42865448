package rpc

import (
	"context"
	"net/url"
	"reflect"
)

// Invoker is the uniform execution capability: every pipeline stage and the
// terminal business object implement it, so chains nest recursively.
//
// Invoke returns either a Result (possibly still pending) or a synchronous
// error, never both. Implementations must be safe for unbounded concurrent
// use: an invoker is built once and shared by every in-flight call.
type Invoker interface {
	// ServiceType returns the Go type of the service interface this invoker
	// executes against.
	ServiceType() reflect.Type

	// URL returns the address identifying this invoker.
	URL() *url.URL

	// IsAvailable reports whether the invoker can currently serve calls.
	IsAvailable() bool

	// Invoke executes the invocation. A non-nil error means the call failed
	// before a Result could be produced; otherwise the returned Result
	// carries (or will carry) the outcome.
	Invoke(ctx context.Context, inv *Invocation) (*Result, error)

	// Destroy releases the invoker. Must be idempotent.
	Destroy()
}
