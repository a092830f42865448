package chain

import (
	"net/url"

	"github.com/weaverpc/weave/pkg/rpc"
	"github.com/weaverpc/weave/pkg/rpc/cluster"
)

// ClusterFilterChainNode is a FilterChainNode for the consumer-side chain:
// it additionally forwards cluster-routing metadata (registry URL, directory,
// destroyed flag) to the wrapped cluster invoker, contributing no invocation
// logic of its own.
type ClusterFilterChainNode struct {
	*FilterChainNode
	clusterInvoker cluster.ClusterInvoker
}

var _ cluster.ClusterInvoker = (*ClusterFilterChainNode)(nil)

// NewClusterFilterChainNode wraps filter around next, reporting identity and
// cluster metadata for original.
func NewClusterFilterChainNode(original cluster.ClusterInvoker, next rpc.Invoker, filter rpc.Filter) *ClusterFilterChainNode {
	return &ClusterFilterChainNode{
		FilterChainNode: NewFilterChainNode(original, next, filter),
		clusterInvoker:  original,
	}
}

// RegistryURL returns the original cluster invoker's registry URL.
func (n *ClusterFilterChainNode) RegistryURL() *url.URL {
	return n.clusterInvoker.RegistryURL()
}

// Directory returns the original cluster invoker's directory.
func (n *ClusterFilterChainNode) Directory() cluster.Directory {
	return n.clusterInvoker.Directory()
}

// IsDestroyed reports whether the original cluster invoker is destroyed.
func (n *ClusterFilterChainNode) IsDestroyed() bool {
	return n.clusterInvoker.IsDestroyed()
}
