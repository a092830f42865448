// Package chain composes filters around invokers: FilterChainNode wraps a
// single Filter, LoopFilterChainNode stacks two-phase LoopFilters on one
// node, ClusterFilterChainNode exposes cluster metadata through the wrapping,
// and Builder folds an ordered filter list into a full pipeline.
package chain

import (
	"github.com/weaverpc/weave/pkg/logging"
	"github.com/weaverpc/weave/pkg/rpc"
	"go.uber.org/zap"
)

// notifyComplete dispatches exactly one of OnResponse/OnError to the filter's
// listener, if it has one. For Listenable filters the per-invocation handle
// is acquired here and released unconditionally afterward, even if the
// listener callback itself faults.
func notifyComplete(filter any, value any, err error, original rpc.Invoker, inv *rpc.Invocation) {
	switch l := filter.(type) {
	case rpc.Listenable:
		defer l.ReleaseListener(inv)
		if handle := l.Listener(inv); handle != nil {
			dispatch(handle, value, err, original, inv)
		}
	case rpc.Listener:
		dispatch(l, value, err, original, inv)
	}
}

// notifyError is notifyComplete for the synchronous failure path.
func notifyError(filter any, err error, original rpc.Invoker, inv *rpc.Invocation) {
	notifyComplete(filter, nil, err, original, inv)
}

// dispatch runs the listener callback, containing listener faults so they
// can never suppress the outcome being propagated to the caller.
func dispatch(l rpc.Listener, value any, err error, original rpc.Invoker, inv *rpc.Invocation) {
	defer func() {
		if r := recover(); r != nil {
			logging.Warn("invocation listener panicked",
				zap.Stringer("invocation", inv),
				zap.Any("panic", r))
		}
	}()
	if err == nil {
		l.OnResponse(value, original, inv)
	} else {
		l.OnError(err, original, inv)
	}
}
