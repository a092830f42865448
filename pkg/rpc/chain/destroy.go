package chain

import (
	"github.com/weaverpc/weave/pkg/rpc"
	"go.uber.org/atomic"
)

// destroyGuard forwards Destroy to the original invoker exactly once, no
// matter how many nodes of the same chain it is shared by or how many times
// each of them is destroyed.
type destroyGuard struct {
	destroyed atomic.Bool
}

func (g *destroyGuard) destroy(original rpc.Invoker) {
	if g.destroyed.CompareAndSwap(false, true) {
		original.Destroy()
	}
}

// node is the common surface of every chain node type. OriginalInvoker
// exposes the terminal invoker the node reports identity for.
type node interface {
	rpc.Invoker
	OriginalInvoker() rpc.Invoker
	guard() *destroyGuard
}

// inheritGuard returns next's destroy guard when next is a chain node
// wrapping the same original invoker, so nested nodes of one chain release
// the terminal invoker once rather than once per node. Otherwise a fresh
// guard is created.
func inheritGuard(next, original rpc.Invoker) *destroyGuard {
	if n, ok := next.(node); ok && n.OriginalInvoker() == original {
		return n.guard()
	}
	return &destroyGuard{}
}
