package filters

import (
	"context"

	"github.com/weaverpc/weave/pkg/logging"
	"github.com/weaverpc/weave/pkg/rpc"
	"go.uber.org/zap"
)

// AccessLogFilter logs every request on the way in and its outcome on
// completion. It implements Listener directly (no per-invocation state), so
// the chain dispatches to it without a handle lookup.
type AccessLogFilter struct {
	verbose bool
}

var (
	_ rpc.Filter   = (*AccessLogFilter)(nil)
	_ rpc.Listener = (*AccessLogFilter)(nil)
)

// NewAccessLogFilter creates an access-log filter. When verbose is true the
// argument values are logged as well.
func NewAccessLogFilter(verbose bool) *AccessLogFilter {
	return &AccessLogFilter{verbose: verbose}
}

// Invoke logs the request and delegates.
func (f *AccessLogFilter) Invoke(ctx context.Context, next rpc.Invoker, inv *rpc.Invocation) (*rpc.Result, error) {
	logging.Info("REQUEST",
		zap.Uint64("id", inv.ID()),
		zap.String("service", inv.Service()),
		zap.String("method", inv.Method()),
		zap.Int("args", len(inv.Arguments())))
	if f.verbose {
		logging.Debug("request arguments",
			zap.Uint64("id", inv.ID()),
			zap.Any("arguments", inv.Arguments()))
	}
	return next.Invoke(ctx, inv)
}

// OnResponse logs a successful completion.
func (f *AccessLogFilter) OnResponse(value any, invoker rpc.Invoker, inv *rpc.Invocation) {
	logging.Info("RESPONSE",
		zap.Uint64("id", inv.ID()),
		zap.String("service", inv.Service()),
		zap.String("method", inv.Method()))
	if f.verbose {
		logging.Debug("response value",
			zap.Uint64("id", inv.ID()),
			zap.Any("value", value))
	}
}

// OnError logs a failed completion.
func (f *AccessLogFilter) OnError(err error, invoker rpc.Invoker, inv *rpc.Invocation) {
	logging.Warn("ERROR",
		zap.Uint64("id", inv.ID()),
		zap.String("service", inv.Service()),
		zap.String("method", inv.Method()),
		zap.Error(err))
}
