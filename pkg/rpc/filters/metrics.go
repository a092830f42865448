package filters

import (
	"context"
	"sync"
	"time"

	"github.com/uber-go/tally"
	"github.com/weaverpc/weave/pkg/rpc"
)

// Outcome categories recorded by the metrics filter.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
	OutcomeTimeout = "timeout"
)

var (
	scopeMu      sync.RWMutex
	defaultScope tally.Scope = tally.NoopScope
)

// SetMetricsScope sets the scope used by metrics filters built from
// configuration. Applications call it once at startup, before resolving
// pipelines; nil restores the noop scope. Filters constructed directly with
// NewMetricsFilter are unaffected.
func SetMetricsScope(scope tally.Scope) {
	if scope == nil {
		scope = tally.NoopScope
	}
	scopeMu.Lock()
	defaultScope = scope
	scopeMu.Unlock()
}

func metricsScope() tally.Scope {
	scopeMu.RLock()
	defer scopeMu.RUnlock()
	return defaultScope
}

// MetricsFilter records one outcome (success, error, or timeout) with its
// duration for every invocation passing through it, tagged by service and
// method. It is listenable: each in-flight call gets its own listener handle
// carrying the start timestamp, stored in a concurrent map keyed by the
// invocation and released by the chain exactly once per call.
type MetricsFilter struct {
	scope     tally.Scope
	nowFunc   func() time.Time
	listeners sync.Map // *rpc.Invocation -> *metricsListener
}

var (
	_ rpc.ListenableFilter = (*MetricsFilter)(nil)
)

// NewMetricsFilter records into scope. A nil scope falls back to
// tally.NoopScope so the filter can be wired before metrics are configured.
func NewMetricsFilter(scope tally.Scope) *MetricsFilter {
	if scope == nil {
		scope = tally.NoopScope
	}
	return &MetricsFilter{scope: scope, nowFunc: time.Now}
}

// Invoke stamps the start time for this call and delegates.
func (f *MetricsFilter) Invoke(ctx context.Context, next rpc.Invoker, inv *rpc.Invocation) (*rpc.Result, error) {
	f.listeners.Store(inv, &metricsListener{
		scope: f.scope.Tagged(map[string]string{
			"service": inv.Service(),
			"method":  inv.Method(),
		}),
		nowFunc: f.nowFunc,
		start:   f.nowFunc(),
	})
	return next.Invoke(ctx, inv)
}

// Listener returns the per-invocation handle, or nil if Invoke never ran for
// inv (for example when an outer filter short-circuited).
func (f *MetricsFilter) Listener(inv *rpc.Invocation) rpc.Listener {
	if v, ok := f.listeners.Load(inv); ok {
		return v.(*metricsListener)
	}
	return nil
}

// ReleaseListener drops the per-invocation handle.
func (f *MetricsFilter) ReleaseListener(inv *rpc.Invocation) {
	f.listeners.Delete(inv)
}

type metricsListener struct {
	scope   tally.Scope
	nowFunc func() time.Time
	start   time.Time
}

func (l *metricsListener) OnResponse(value any, invoker rpc.Invoker, inv *rpc.Invocation) {
	l.record(OutcomeSuccess)
}

func (l *metricsListener) OnError(err error, invoker rpc.Invoker, inv *rpc.Invocation) {
	if rpc.IsTimeout(err) {
		l.record(OutcomeTimeout)
		return
	}
	l.record(OutcomeError)
}

func (l *metricsListener) record(outcome string) {
	l.scope.Counter(outcome).Inc(1)
	l.scope.Timer("duration").Record(l.nowFunc().Sub(l.start))
}
