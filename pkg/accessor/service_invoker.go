package accessor

import (
	"context"
	"net/url"
	"reflect"

	"github.com/weaverpc/weave/pkg/logging"
	"github.com/weaverpc/weave/pkg/rpc"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// ServiceInvoker is the terminal invoker on the provider side: it dispatches
// an invocation's method and arguments onto a plain service object through an
// Accessor. Business failures (an error returned by the method) complete the
// Result; dispatch failures (unknown method, argument mismatch) are raised
// synchronously.
type ServiceInvoker struct {
	service   string
	target    *Accessor
	svcType   reflect.Type
	url       *url.URL
	destroyed atomic.Bool
}

var _ rpc.Invoker = (*ServiceInvoker)(nil)

// NewServiceInvoker wraps impl as the terminal invoker for service, reachable
// at u.
func NewServiceInvoker(service string, impl any, u *url.URL) (*ServiceInvoker, error) {
	target, err := For(impl)
	if err != nil {
		return nil, err
	}
	return &ServiceInvoker{
		service: service,
		target:  target,
		svcType: reflect.TypeOf(impl),
		url:     u,
	}, nil
}

// ServiceType returns the concrete type of the wrapped service object.
func (s *ServiceInvoker) ServiceType() reflect.Type {
	return s.svcType
}

// URL returns the invoker's address.
func (s *ServiceInvoker) URL() *url.URL {
	return s.url
}

// IsAvailable reports whether the invoker still accepts calls.
func (s *ServiceInvoker) IsAvailable() bool {
	return !s.destroyed.Load()
}

// Invoke dispatches inv.Method with inv.Arguments on the service object. A
// method returning *rpc.Result passes through untouched, allowing service
// methods to complete asynchronously.
func (s *ServiceInvoker) Invoke(ctx context.Context, inv *rpc.Invocation) (*rpc.Result, error) {
	if s.destroyed.Load() {
		return nil, &rpc.RPCError{Type: rpc.RPCFailError, Reason: "invoker destroyed: " + s.service}
	}
	if !s.target.HasMethod(inv.Method()) {
		return nil, &rpc.RPCError{Type: rpc.RPCFailError, Reason: "no such method: " + inv.Method()}
	}

	value, err := s.target.Invoke(inv.Method(), inv.Arguments())
	if err != nil {
		logging.Debug("service method returned error",
			zap.Stringer("invocation", inv),
			zap.Error(err))
		return rpc.FailedResult(err), nil
	}
	if res, ok := value.(*rpc.Result); ok {
		return res, nil
	}
	return rpc.CompletedResult(value), nil
}

// Destroy marks the invoker unavailable. Idempotent.
func (s *ServiceInvoker) Destroy() {
	if s.destroyed.CompareAndSwap(false, true) {
		logging.Debug("service invoker destroyed", zap.String("service", s.service))
	}
}

func (s *ServiceInvoker) String() string {
	return s.service
}
