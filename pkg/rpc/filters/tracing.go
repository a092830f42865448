package filters

import (
	"context"
	"sync"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
	"github.com/weaverpc/weave/pkg/rpc"
)

// TracingFilter opens a span per invocation in OnBefore and finishes it from
// its completion listener, so async results are measured to their true end.
// The span handle lives in a per-invocation listener slot the chain acquires
// and releases exactly once.
type TracingFilter struct {
	tracer opentracing.Tracer
	spans  sync.Map // *rpc.Invocation -> *tracingListener
}

var (
	_ rpc.LoopFilter = (*TracingFilter)(nil)
	_ rpc.Listenable = (*TracingFilter)(nil)
)

// NewTracingFilter traces through tracer; nil falls back to the global
// opentracing tracer.
func NewTracingFilter(tracer opentracing.Tracer) *TracingFilter {
	if tracer == nil {
		tracer = opentracing.GlobalTracer()
	}
	return &TracingFilter{tracer: tracer}
}

// OnBefore opens the span.
func (f *TracingFilter) OnBefore(ctx context.Context, next rpc.Invoker, inv *rpc.Invocation) (*rpc.Result, error) {
	span := f.tracer.StartSpan(inv.Service() + "::" + inv.Method())
	span.SetTag("rpc.service", inv.Service())
	span.SetTag("rpc.method", inv.Method())
	f.spans.Store(inv, &tracingListener{span: span})
	return nil, nil
}

// OnAfter passes the result through; the span stays open until the
// completion listener fires.
func (f *TracingFilter) OnAfter(ctx context.Context, next rpc.Invoker, inv *rpc.Invocation, res *rpc.Result) (*rpc.Result, error) {
	return res, nil
}

// Listener returns the span handle for inv, or nil when OnBefore never ran.
func (f *TracingFilter) Listener(inv *rpc.Invocation) rpc.Listener {
	if v, ok := f.spans.Load(inv); ok {
		return v.(*tracingListener)
	}
	return nil
}

// ReleaseListener drops the span handle for inv.
func (f *TracingFilter) ReleaseListener(inv *rpc.Invocation) {
	f.spans.Delete(inv)
}

type tracingListener struct {
	span opentracing.Span
}

func (l *tracingListener) OnResponse(value any, invoker rpc.Invoker, inv *rpc.Invocation) {
	l.span.Finish()
}

func (l *tracingListener) OnError(err error, invoker rpc.Invoker, inv *rpc.Invocation) {
	ext.Error.Set(l.span, true)
	l.span.SetTag("rpc.error", err.Error())
	l.span.Finish()
}
