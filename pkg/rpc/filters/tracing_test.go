package filters

import (
	"context"
	"testing"

	"github.com/opentracing/opentracing-go/mocktracer"
	"github.com/stretchr/testify/require"
	"github.com/weaverpc/weave/pkg/rpc"
	"github.com/weaverpc/weave/pkg/rpc/chain"
)

// TestTracingFilter_FinishesSpanOnSuccess verifies a span is opened per call
// and finished when the result completes, with no handle left behind.
func TestTracingFilter_FinishesSpanOnSuccess(t *testing.T) {
	tracer := mocktracer.New()
	filter := NewTracingFilter(tracer)
	terminal := newFakeInvoker("terminal")
	node := chain.NewLoopFilterChainNode(terminal, terminal, filter)

	inv := newInvocation("Echo")
	res, err := node.Invoke(context.Background(), inv)
	require.NoError(t, err)
	require.Equal(t, "reply", res.Value())

	spans := tracer.FinishedSpans()
	require.Len(t, spans, 1)
	require.Equal(t, "echo.EchoService::Echo", spans[0].OperationName)
	require.Equal(t, "Echo", spans[0].Tag("rpc.method"))
	require.Nil(t, filter.Listener(inv), "span handle must be released")
}

// TestTracingFilter_MarksSpanOnError verifies the error tag is set when the
// call fails.
func TestTracingFilter_MarksSpanOnError(t *testing.T) {
	tracer := mocktracer.New()
	filter := NewTracingFilter(tracer)
	terminal := newFakeInvoker("terminal")
	terminal.invoke = func(ctx context.Context, inv *rpc.Invocation) (*rpc.Result, error) {
		return nil, &rpc.RPCError{Type: rpc.RPCFailError, Reason: "boom"}
	}
	node := chain.NewLoopFilterChainNode(terminal, terminal, filter)

	_, err := node.Invoke(context.Background(), newInvocation("Echo"))
	require.Error(t, err)

	spans := tracer.FinishedSpans()
	require.Len(t, spans, 1)
	require.Equal(t, true, spans[0].Tag("error"))
	require.Equal(t, "rpc error (fail): boom", spans[0].Tag("rpc.error"))
}

// TestTracingFilter_AsyncCompletion verifies the span stays open until the
// deferred result completes.
func TestTracingFilter_AsyncCompletion(t *testing.T) {
	tracer := mocktracer.New()
	filter := NewTracingFilter(tracer)
	terminal := newFakeInvoker("terminal")
	pending := rpc.NewResult()
	terminal.invoke = func(ctx context.Context, inv *rpc.Invocation) (*rpc.Result, error) {
		return pending, nil
	}
	node := chain.NewLoopFilterChainNode(terminal, terminal, filter)

	_, err := node.Invoke(context.Background(), newInvocation("Echo"))
	require.NoError(t, err)
	require.Empty(t, tracer.FinishedSpans())

	pending.Complete("late", nil)
	require.Len(t, tracer.FinishedSpans(), 1)
}
