package cluster

import (
	"context"
	"net/url"
	"reflect"

	"github.com/weaverpc/weave/pkg/logging"
	"github.com/weaverpc/weave/pkg/rpc"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// DirectoryInvoker is a ClusterInvoker that routes each invocation to one of
// the invokers its directory currently lists, chosen by the balancer. It
// carries no retry logic; a failed pick or call surfaces to the caller
// unchanged.
type DirectoryInvoker struct {
	serviceType reflect.Type
	registryURL *url.URL
	directory   Directory
	balancer    Balancer
	destroyed   atomic.Bool
}

var _ ClusterInvoker = (*DirectoryInvoker)(nil)

// NewDirectoryInvoker creates a cluster invoker over directory using
// balancer. serviceType identifies the service interface; registryURL names
// where the directory's endpoints come from.
func NewDirectoryInvoker(serviceType reflect.Type, registryURL *url.URL, directory Directory, balancer Balancer) *DirectoryInvoker {
	return &DirectoryInvoker{
		serviceType: serviceType,
		registryURL: registryURL,
		directory:   directory,
		balancer:    balancer,
	}
}

// ServiceType returns the service interface type.
func (d *DirectoryInvoker) ServiceType() reflect.Type {
	return d.serviceType
}

// URL returns the registry URL; a cluster invoker has no single endpoint.
func (d *DirectoryInvoker) URL() *url.URL {
	return d.registryURL
}

// RegistryURL returns the registry this invoker was built from.
func (d *DirectoryInvoker) RegistryURL() *url.URL {
	return d.registryURL
}

// Directory returns the backing directory.
func (d *DirectoryInvoker) Directory() Directory {
	return d.directory
}

// IsDestroyed reports whether Destroy has run.
func (d *DirectoryInvoker) IsDestroyed() bool {
	return d.destroyed.Load()
}

// IsAvailable reports whether at least one listed invoker is available.
func (d *DirectoryInvoker) IsAvailable() bool {
	if d.destroyed.Load() {
		return false
	}
	invokers, err := d.directory.List(nil)
	if err != nil {
		return false
	}
	for _, invoker := range invokers {
		if invoker.IsAvailable() {
			return true
		}
	}
	return false
}

// Invoke picks one live endpoint and delegates.
func (d *DirectoryInvoker) Invoke(ctx context.Context, inv *rpc.Invocation) (*rpc.Result, error) {
	if d.destroyed.Load() {
		return nil, &rpc.RPCError{Type: rpc.RPCFailError, Reason: "cluster invoker destroyed"}
	}
	candidates, err := d.directory.List(inv)
	if err != nil {
		return nil, err
	}
	picked := d.balancer.Pick(inv, candidates)
	if picked == nil {
		return nil, &rpc.RPCError{Type: rpc.RPCFailError, Reason: "no available endpoint for " + inv.Service()}
	}
	logging.Debug("cluster invoker picked endpoint",
		zap.Stringer("invocation", inv),
		zap.String("balancer", d.balancer.Name()),
		zap.String("endpoint", picked.URL().String()))
	return picked.Invoke(ctx, inv)
}

// Destroy closes the directory. Idempotent.
func (d *DirectoryInvoker) Destroy() {
	if d.destroyed.CompareAndSwap(false, true) {
		if err := d.directory.Close(); err != nil {
			logging.Warn("failed to close directory", zap.Error(err))
		}
	}
}

func (d *DirectoryInvoker) String() string {
	return "cluster:" + d.registryURL.String()
}
