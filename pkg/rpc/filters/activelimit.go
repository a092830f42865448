package filters

import (
	"context"
	"sync"

	"github.com/weaverpc/weave/pkg/rpc"
	"go.uber.org/atomic"
)

// ActiveLimitFilter caps the number of invocations in flight through its
// chain. The slot is taken in OnBefore and released in OnAfter — including
// the cleanup OnAfter the chain issues with a nil result while unwinding a
// failure, so a slot can never leak.
type ActiveLimitFilter struct {
	maxActive int64
	active    atomic.Int64
	acquired  sync.Map // *rpc.Invocation -> struct{}
}

var _ rpc.LoopFilter = (*ActiveLimitFilter)(nil)

// NewActiveLimitFilter allows at most maxActive concurrent invocations.
func NewActiveLimitFilter(maxActive int64) *ActiveLimitFilter {
	return &ActiveLimitFilter{maxActive: maxActive}
}

// OnBefore takes a slot, rejecting with a limit-kind RPCError when none is
// free.
func (f *ActiveLimitFilter) OnBefore(ctx context.Context, next rpc.Invoker, inv *rpc.Invocation) (*rpc.Result, error) {
	if f.active.Inc() > f.maxActive {
		f.active.Dec()
		return nil, &rpc.RPCError{Type: rpc.RPCLimitError, Reason: "too many in-flight invocations for " + inv.Service()}
	}
	f.acquired.Store(inv, struct{}{})
	return nil, nil
}

// OnAfter releases the slot taken by OnBefore. Safe to call more than once
// per invocation: only the first call after a successful OnBefore releases.
func (f *ActiveLimitFilter) OnAfter(ctx context.Context, next rpc.Invoker, inv *rpc.Invocation, res *rpc.Result) (*rpc.Result, error) {
	if _, ok := f.acquired.LoadAndDelete(inv); ok {
		f.active.Dec()
	}
	return res, nil
}

// Active returns the number of invocations currently holding a slot.
func (f *ActiveLimitFilter) Active() int64 {
	return f.active.Load()
}
