package chain

import (
	"context"
	"net/url"
	"reflect"
	"sync"

	"github.com/weaverpc/weave/pkg/rpc"
	"go.uber.org/atomic"
)

// ==================== Shared test fakes ====================
//
// The fakes record every interaction in a shared callLog so ordering
// assertions read as plain string slices.

// callLog is a concurrency-safe ordered record of events.
type callLog struct {
	mu      sync.Mutex
	entries []string
}

func (l *callLog) add(entry string) {
	l.mu.Lock()
	l.entries = append(l.entries, entry)
	l.mu.Unlock()
}

func (l *callLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.entries))
	copy(out, l.entries)
	return out
}

// testInvoker is a configurable terminal invoker.
type testInvoker struct {
	name      string
	url       *url.URL
	available bool
	invokes   atomic.Int64
	destroys  atomic.Int64
	invoke    func(ctx context.Context, inv *rpc.Invocation) (*rpc.Result, error)
}

func newTestInvoker(name string) *testInvoker {
	u, _ := url.Parse("weave://127.0.0.1:9000/" + name)
	t := &testInvoker{name: name, url: u, available: true}
	t.invoke = func(ctx context.Context, inv *rpc.Invocation) (*rpc.Result, error) {
		return rpc.CompletedResult("reply-from-" + name), nil
	}
	return t
}

func (t *testInvoker) ServiceType() reflect.Type { return reflect.TypeOf(t) }
func (t *testInvoker) URL() *url.URL             { return t.url }
func (t *testInvoker) IsAvailable() bool         { return t.available }
func (t *testInvoker) Destroy()                  { t.destroys.Inc() }
func (t *testInvoker) String() string            { return t.name }

func (t *testInvoker) Invoke(ctx context.Context, inv *rpc.Invocation) (*rpc.Result, error) {
	t.invokes.Inc()
	return t.invoke(ctx, inv)
}

// passFilter delegates unchanged, recording the traversal.
type passFilter struct {
	name string
	log  *callLog
}

func (f *passFilter) Invoke(ctx context.Context, next rpc.Invoker, inv *rpc.Invocation) (*rpc.Result, error) {
	if f.log != nil {
		f.log.add(f.name + ":invoke")
	}
	return next.Invoke(ctx, inv)
}

// listenableFilter keeps a per-invocation listener handle and records
// acquisition, release and callback events.
type listenableFilter struct {
	passFilter
	panicOnDispatch bool
	handles         sync.Map // *rpc.Invocation -> *recordingListener
}

func newListenableFilter(name string, log *callLog) *listenableFilter {
	return &listenableFilter{passFilter: passFilter{name: name, log: log}}
}

func (f *listenableFilter) Invoke(ctx context.Context, next rpc.Invoker, inv *rpc.Invocation) (*rpc.Result, error) {
	f.handles.Store(inv, &recordingListener{name: f.name, log: f.log, panicOn: f.panicOnDispatch})
	return f.passFilter.Invoke(ctx, next, inv)
}

func (f *listenableFilter) Listener(inv *rpc.Invocation) rpc.Listener {
	if v, ok := f.handles.Load(inv); ok {
		return v.(*recordingListener)
	}
	return nil
}

func (f *listenableFilter) ReleaseListener(inv *rpc.Invocation) {
	f.log.add(f.name + ":release")
	f.handles.Delete(inv)
}

type recordingListener struct {
	name    string
	log     *callLog
	panicOn bool
}

func (l *recordingListener) OnResponse(value any, invoker rpc.Invoker, inv *rpc.Invocation) {
	l.log.add(l.name + ":onResponse")
	if l.panicOn {
		panic("listener fault")
	}
}

func (l *recordingListener) OnError(err error, invoker rpc.Invoker, inv *rpc.Invocation) {
	l.log.add(l.name + ":onError")
	if l.panicOn {
		panic("listener fault")
	}
}

// recordingLoopFilter is a configurable two-phase hook.
type recordingLoopFilter struct {
	name         string
	log          *callLog
	beforeErr    error
	shortCircuit *rpc.Result
	afterErr     error
}

func (f *recordingLoopFilter) OnBefore(ctx context.Context, next rpc.Invoker, inv *rpc.Invocation) (*rpc.Result, error) {
	f.log.add(f.name + ":before")
	if f.beforeErr != nil {
		return nil, f.beforeErr
	}
	return f.shortCircuit, nil
}

func (f *recordingLoopFilter) OnAfter(ctx context.Context, next rpc.Invoker, inv *rpc.Invocation, res *rpc.Result) (*rpc.Result, error) {
	if res == nil {
		f.log.add(f.name + ":after(nil)")
	} else {
		f.log.add(f.name + ":after")
	}
	if f.afterErr != nil {
		return nil, f.afterErr
	}
	return res, nil
}

// listenableLoopFilter adds per-invocation listener handles to a loop hook.
type listenableLoopFilter struct {
	recordingLoopFilter
	handles sync.Map
}

func newListenableLoopFilter(name string, log *callLog) *listenableLoopFilter {
	return &listenableLoopFilter{recordingLoopFilter: recordingLoopFilter{name: name, log: log}}
}

func (f *listenableLoopFilter) OnBefore(ctx context.Context, next rpc.Invoker, inv *rpc.Invocation) (*rpc.Result, error) {
	f.handles.Store(inv, &recordingListener{name: f.name, log: f.log})
	return f.recordingLoopFilter.OnBefore(ctx, next, inv)
}

func (f *listenableLoopFilter) Listener(inv *rpc.Invocation) rpc.Listener {
	if v, ok := f.handles.Load(inv); ok {
		return v.(*recordingListener)
	}
	return nil
}

func (f *listenableLoopFilter) ReleaseListener(inv *rpc.Invocation) {
	f.log.add(f.name + ":release")
	f.handles.Delete(inv)
}

func newInvocation(method string) *rpc.Invocation {
	return rpc.NewInvocation("test.Service", method, nil, nil)
}
