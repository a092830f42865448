package filters

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/uber-go/tally"
	"github.com/weaverpc/weave/pkg/rpc"
	"github.com/weaverpc/weave/pkg/rpc/chain"
)

func counterValue(scope tally.TestScope, name string) int64 {
	var total int64
	for _, c := range scope.Snapshot().Counters() {
		if c.Name() == name {
			total += c.Value()
		}
	}
	return total
}

// TestMetricsFilter_ConcurrentSuccesses runs 100 concurrent invocations
// through one shared chain over an always-succeeding terminal: the sink must
// record exactly 100 successes and nothing else.
func TestMetricsFilter_ConcurrentSuccesses(t *testing.T) {
	scope := tally.NewTestScope("", nil)
	terminal := newFakeInvoker("terminal")
	filter := NewMetricsFilter(scope)
	node := chain.NewFilterChainNode(terminal, terminal, filter)

	const calls = 100
	errs := make(chan error, calls)
	var wg sync.WaitGroup
	wg.Add(calls)
	for i := 0; i < calls; i++ {
		go func() {
			defer wg.Done()
			_, err := node.Invoke(context.Background(), newInvocation("Echo"))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	require.Equal(t, int64(calls), counterValue(scope, OutcomeSuccess))
	require.Zero(t, counterValue(scope, OutcomeError))
	require.Zero(t, counterValue(scope, OutcomeTimeout))

	leaked := 0
	filter.listeners.Range(func(any, any) bool {
		leaked++
		return true
	})
	require.Zero(t, leaked, "no per-call listener state may survive")
}

// TestMetricsFilter_TimeoutOutcomes runs 10 invocations against a terminal
// that always raises a timeout-kind error: the sink must record exactly 10
// timeouts and every caller must see the same error kind.
func TestMetricsFilter_TimeoutOutcomes(t *testing.T) {
	scope := tally.NewTestScope("", nil)
	terminal := newFakeInvoker("terminal")
	terminal.invoke = func(ctx context.Context, inv *rpc.Invocation) (*rpc.Result, error) {
		return nil, &rpc.RPCError{Type: rpc.RPCTimeoutError, Reason: "deadline exceeded"}
	}
	node := chain.NewFilterChainNode(terminal, terminal, NewMetricsFilter(scope))

	for i := 0; i < 10; i++ {
		res, err := node.Invoke(context.Background(), newInvocation("Echo"))
		require.Nil(t, res)
		require.True(t, rpc.IsTimeout(err), "timeout must re-raise to the caller unchanged")
	}

	require.Equal(t, int64(10), counterValue(scope, OutcomeTimeout))
	require.Zero(t, counterValue(scope, OutcomeSuccess))
	require.Zero(t, counterValue(scope, OutcomeError))
}

// TestMetricsFilter_RecordsDuration verifies a latency sample is recorded
// per call, measured from invocation entry.
func TestMetricsFilter_RecordsDuration(t *testing.T) {
	scope := tally.NewTestScope("", nil)
	terminal := newFakeInvoker("terminal")
	filter := NewMetricsFilter(scope)

	now := time.Unix(1000, 0)
	filter.nowFunc = func() time.Time {
		now = now.Add(5 * time.Millisecond)
		return now
	}
	node := chain.NewFilterChainNode(terminal, terminal, filter)

	_, err := node.Invoke(context.Background(), newInvocation("Echo"))
	require.NoError(t, err)

	recorded := false
	for _, timer := range scope.Snapshot().Timers() {
		if timer.Name() == "duration" && len(timer.Values()) == 1 {
			recorded = true
			require.Equal(t, 5*time.Millisecond, timer.Values()[0])
		}
	}
	require.True(t, recorded, "a duration sample must be recorded")
}

// TestMetricsFilter_ConfiguredScopeRecords verifies a metrics filter built
// through the registry records into the scope set by SetMetricsScope, so a
// YAML-configured pipeline produces working metrics.
func TestMetricsFilter_ConfiguredScopeRecords(t *testing.T) {
	scope := tally.NewTestScope("", nil)
	SetMetricsScope(scope)
	t.Cleanup(func() { SetMetricsScope(nil) })

	f, err := New("metrics", nil)
	require.NoError(t, err)
	filter, ok := f.(*MetricsFilter)
	require.True(t, ok)

	terminal := newFakeInvoker("terminal")
	node := chain.NewFilterChainNode(terminal, terminal, filter)
	_, err = node.Invoke(context.Background(), newInvocation("Echo"))
	require.NoError(t, err)

	require.Equal(t, int64(1), counterValue(scope, OutcomeSuccess))
}

// TestMetricsFilter_AsyncCompletion verifies the outcome is recorded when the
// result completes later on another goroutine.
func TestMetricsFilter_AsyncCompletion(t *testing.T) {
	scope := tally.NewTestScope("", nil)
	terminal := newFakeInvoker("terminal")
	pending := rpc.NewResult()
	terminal.invoke = func(ctx context.Context, inv *rpc.Invocation) (*rpc.Result, error) {
		return pending, nil
	}
	node := chain.NewFilterChainNode(terminal, terminal, NewMetricsFilter(scope))

	_, err := node.Invoke(context.Background(), newInvocation("Echo"))
	require.NoError(t, err)
	require.Zero(t, counterValue(scope, OutcomeSuccess), "nothing recorded before completion")

	done := make(chan struct{})
	go func() {
		pending.Complete("late", nil)
		close(done)
	}()
	<-done

	require.Equal(t, int64(1), counterValue(scope, OutcomeSuccess))
}
