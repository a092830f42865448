// Package cluster defines the consumer-side capabilities layered on top of
// the core Invoker contract: a Directory that resolves a logical service name
// to live invokers (and notifies on change), and a ClusterInvoker exposing
// routing metadata through whatever filter wrapping surrounds it.
package cluster

import (
	"net/url"

	"github.com/weaverpc/weave/pkg/rpc"
)

// Directory resolves the live invokers behind a logical service name.
type Directory interface {
	// List returns the invokers currently able to serve inv.
	List(inv *rpc.Invocation) ([]rpc.Invoker, error)

	// Subscribe registers fn to be called whenever the invoker set changes.
	// fn receives the full new set.
	Subscribe(fn func(invokers []rpc.Invoker))

	// Close stops refreshing and releases every invoker the directory owns.
	Close() error
}

// ClusterInvoker is an Invoker with cluster-routing metadata. Load-balancing
// and routing layers see this metadata through the filter chain without
// unwrapping it.
type ClusterInvoker interface {
	rpc.Invoker

	// RegistryURL returns the registry this invoker was built from.
	RegistryURL() *url.URL

	// Directory returns the directory backing this invoker.
	Directory() Directory

	// IsDestroyed reports whether the invoker has been destroyed.
	IsDestroyed() bool
}
