package chain

import (
	"context"
	"fmt"
	"net/url"
	"reflect"

	"github.com/weaverpc/weave/pkg/logging"
	"github.com/weaverpc/weave/pkg/rpc"
	"go.uber.org/zap"
)

// LoopFilterChainNode stacks an ordered list of LoopFilters on a single node:
// all OnBefore hooks run front-to-back, the node delegates once, then all
// OnAfter hooks run back-to-front. Compared to nesting N FilterChainNodes it
// allocates one node for N filters while preserving the same wrapping,
// failure and listener semantics.
//
// The filter list is a stack: AddLoopFilter inserts at the front, so the
// last-added filter is the outermost hook (first in the before phase, last in
// the after phase). The list is mutated at chain-build time only; a published
// node is never modified mid-invocation.
type LoopFilterChainNode struct {
	originalInvoker rpc.Invoker
	nextNode        rpc.Invoker
	filters         []rpc.LoopFilter
	destroyGuard    *destroyGuard
}

var _ rpc.Invoker = (*LoopFilterChainNode)(nil)

// NewLoopFilterChainNode creates a node with a single loop filter; stack more
// with AddLoopFilter before publishing the chain.
func NewLoopFilterChainNode(original, next rpc.Invoker, filter rpc.LoopFilter) *LoopFilterChainNode {
	return &LoopFilterChainNode{
		originalInvoker: original,
		nextNode:        next,
		filters:         []rpc.LoopFilter{filter},
		destroyGuard:    inheritGuard(next, original),
	}
}

// AddLoopFilter pushes filter to the front of the list, making it the new
// outermost hook. Build-time only: never call on a node already in use.
func (n *LoopFilterChainNode) AddLoopFilter(filter rpc.LoopFilter) {
	n.filters = append([]rpc.LoopFilter{filter}, n.filters...)
}

// OriginalInvoker returns the terminal invoker this node wraps.
func (n *LoopFilterChainNode) OriginalInvoker() rpc.Invoker {
	return n.originalInvoker
}

func (n *LoopFilterChainNode) guard() *destroyGuard {
	return n.destroyGuard
}

// ServiceType returns the original invoker's service type.
func (n *LoopFilterChainNode) ServiceType() reflect.Type {
	return n.originalInvoker.ServiceType()
}

// URL returns the original invoker's URL.
func (n *LoopFilterChainNode) URL() *url.URL {
	return n.originalInvoker.URL()
}

// IsAvailable reports the original invoker's availability.
func (n *LoopFilterChainNode) IsAvailable() bool {
	return n.originalInvoker.IsAvailable()
}

// Invoke runs the before phase front-to-back, delegates once (unless a hook
// short-circuited with its own Result), runs the after phase back-to-front,
// and attaches the completion fan-out. Any failure unwinds exactly the hooks
// that ran, then re-raises the original error unchanged.
func (n *LoopFilterChainNode) Invoke(ctx context.Context, inv *rpc.Invocation) (*rpc.Result, error) {
	var (
		res   *rpc.Result
		err   error
		depth int
	)

	for depth = 0; depth < len(n.filters); depth++ {
		res, err = n.filters[depth].OnBefore(ctx, n.nextNode, inv)
		if err != nil {
			n.unwind(ctx, depth, err, inv)
			return nil, err
		}
		if res != nil {
			logging.Debug("loop filter short-circuited invocation",
				zap.Stringer("invocation", inv),
				zap.Int("depth", depth))
			break
		}
	}

	if res == nil {
		depth = len(n.filters) - 1
		res, err = n.nextNode.Invoke(ctx, inv)
		if err != nil {
			n.unwind(ctx, depth, err, inv)
			return nil, err
		}
		if res == nil {
			err = fmt.Errorf("invoker %v returned neither result nor error for %s", n.nextNode, inv)
			n.unwind(ctx, depth, err, inv)
			return nil, err
		}
	}

	for d := depth; d >= 0; d-- {
		transformed, err := n.filters[d].OnAfter(ctx, n.nextNode, inv, res)
		if err != nil {
			n.unwind(ctx, d, err, inv)
			return nil, err
		}
		if transformed != nil {
			res = transformed
		}
	}

	res.WhenComplete(func(value any, err error) {
		for i := len(n.filters) - 1; i >= 0; i-- {
			notifyComplete(n.filters[i], value, err, n.originalInvoker, inv)
		}
	})
	return res, nil
}

// unwind handles a failure at hook index from: every hook that ran, from the
// point of failure back to the outermost, gets its listener onError
// notification and an OnAfter call with a nil result as a cleanup hook. The
// cleanup call is bookkeeping only; its return value is discarded and its own
// failure, if any, is logged and swallowed so the original error propagates.
func (n *LoopFilterChainNode) unwind(ctx context.Context, from int, cause error, inv *rpc.Invocation) {
	for d := from; d >= 0; d-- {
		filter := n.filters[d]
		notifyError(filter, cause, n.originalInvoker, inv)
		if _, err := filter.OnAfter(ctx, n.nextNode, inv, nil); err != nil {
			logging.Warn("loop filter cleanup failed during unwind",
				zap.Stringer("invocation", inv),
				zap.Int("depth", d),
				zap.Error(err))
		}
	}
}

// Destroy releases the original terminal invoker exactly once per chain.
func (n *LoopFilterChainNode) Destroy() {
	n.destroyGuard.destroy(n.originalInvoker)
}

func (n *LoopFilterChainNode) String() string {
	return fmt.Sprintf("%v", n.originalInvoker)
}
