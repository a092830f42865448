package filters

import (
	"context"

	"github.com/weaverpc/weave/pkg/rpc"
	"golang.org/x/time/rate"
)

// RateLimitFilter rejects invocations that exceed a token-bucket rate,
// short-circuiting with a limit-kind RPCError before the next stage runs.
type RateLimitFilter struct {
	limiter *rate.Limiter
}

var _ rpc.Filter = (*RateLimitFilter)(nil)

// NewRateLimitFilter allows rps invocations per second with the given burst.
func NewRateLimitFilter(rps float64, burst int) *RateLimitFilter {
	return &RateLimitFilter{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

// Invoke rejects the call when no token is available.
func (f *RateLimitFilter) Invoke(ctx context.Context, next rpc.Invoker, inv *rpc.Invocation) (*rpc.Result, error) {
	if !f.limiter.Allow() {
		return nil, &rpc.RPCError{Type: rpc.RPCLimitError, Reason: "rate limit exceeded for " + inv.Service()}
	}
	return next.Invoke(ctx, inv)
}
