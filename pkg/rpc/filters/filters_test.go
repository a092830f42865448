package filters

import (
	"context"
	"net/url"
	"reflect"

	"github.com/weaverpc/weave/pkg/rpc"
	"go.uber.org/atomic"
)

// ==================== Shared test fakes ====================

// fakeInvoker is a configurable terminal invoker.
type fakeInvoker struct {
	name    string
	url     *url.URL
	invokes atomic.Int64
	invoke  func(ctx context.Context, inv *rpc.Invocation) (*rpc.Result, error)
}

func newFakeInvoker(name string) *fakeInvoker {
	u, _ := url.Parse("weave://127.0.0.1:9000/" + name)
	f := &fakeInvoker{name: name, url: u}
	f.invoke = func(ctx context.Context, inv *rpc.Invocation) (*rpc.Result, error) {
		return rpc.CompletedResult("reply"), nil
	}
	return f
}

func (f *fakeInvoker) ServiceType() reflect.Type { return reflect.TypeOf(f) }
func (f *fakeInvoker) URL() *url.URL             { return f.url }
func (f *fakeInvoker) IsAvailable() bool         { return true }
func (f *fakeInvoker) Destroy()                  {}
func (f *fakeInvoker) String() string            { return f.name }

func (f *fakeInvoker) Invoke(ctx context.Context, inv *rpc.Invocation) (*rpc.Result, error) {
	f.invokes.Inc()
	return f.invoke(ctx, inv)
}

func newInvocation(method string, args ...any) *rpc.Invocation {
	return rpc.NewInvocation("echo.EchoService", method, nil, args)
}
