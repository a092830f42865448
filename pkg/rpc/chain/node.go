package chain

import (
	"context"
	"fmt"
	"net/url"
	"reflect"

	"github.com/weaverpc/weave/pkg/rpc"
)

// FilterChainNode composes exactly one Filter around one inner invoker and is
// itself an Invoker, so chains nest recursively. Identity (ServiceType, URL,
// IsAvailable, Destroy, String) always delegates to the original terminal
// invoker, never to the next node, so it is stable regardless of chain depth.
type FilterChainNode struct {
	originalInvoker rpc.Invoker
	nextNode        rpc.Invoker
	filter          rpc.Filter
	destroyGuard    *destroyGuard
}

var _ rpc.Invoker = (*FilterChainNode)(nil)

// NewFilterChainNode wraps filter around next. original is the terminal
// invoker the node reports identity for; next is the stage actually invoked,
// normally an inner chain node or original itself.
func NewFilterChainNode(original, next rpc.Invoker, filter rpc.Filter) *FilterChainNode {
	return &FilterChainNode{
		originalInvoker: original,
		nextNode:        next,
		filter:          filter,
		destroyGuard:    inheritGuard(next, original),
	}
}

// OriginalInvoker returns the terminal invoker this node wraps.
func (n *FilterChainNode) OriginalInvoker() rpc.Invoker {
	return n.originalInvoker
}

func (n *FilterChainNode) guard() *destroyGuard {
	return n.destroyGuard
}

// ServiceType returns the original invoker's service type.
func (n *FilterChainNode) ServiceType() reflect.Type {
	return n.originalInvoker.ServiceType()
}

// URL returns the original invoker's URL.
func (n *FilterChainNode) URL() *url.URL {
	return n.originalInvoker.URL()
}

// IsAvailable reports the original invoker's availability.
func (n *FilterChainNode) IsAvailable() bool {
	return n.originalInvoker.IsAvailable()
}

// Invoke runs the filter around the next stage. Synchronous filter faults are
// re-raised unchanged after the listener (if any) saw them; otherwise the
// node attaches its completion hook and returns the possibly-pending Result
// immediately.
func (n *FilterChainNode) Invoke(ctx context.Context, inv *rpc.Invocation) (*rpc.Result, error) {
	res, err := n.filter.Invoke(ctx, n.nextNode, inv)
	if err != nil {
		notifyError(n.filter, err, n.originalInvoker, inv)
		return nil, err
	}
	if res == nil {
		err = fmt.Errorf("filter %T returned neither result nor error for %s", n.filter, inv)
		notifyError(n.filter, err, n.originalInvoker, inv)
		return nil, err
	}
	res.WhenComplete(func(value any, err error) {
		notifyComplete(n.filter, value, err, n.originalInvoker, inv)
	})
	return res, nil
}

// Destroy releases the original terminal invoker exactly once per chain.
func (n *FilterChainNode) Destroy() {
	n.destroyGuard.destroy(n.originalInvoker)
}

func (n *FilterChainNode) String() string {
	return fmt.Sprintf("%v", n.originalInvoker)
}
