package filters

import (
	"context"
	"errors"
	"math/rand"
	"sync"

	"github.com/weaverpc/weave/pkg/logging"
	"github.com/weaverpc/weave/pkg/rpc"
	"go.uber.org/zap"
)

// ErrFaultInjected is returned when an invocation is intentionally aborted by
// fault injection.
var ErrFaultInjected = errors.New("invocation aborted by fault injection")

// FaultInjectionFilter aborts a configurable fraction of invocations before
// they reach the next stage. Being a LoopFilter, an injected fault exercises
// the chain's unwind path exactly like a real one.
type FaultInjectionFilter struct {
	mu               sync.Mutex
	abortProbability float64
	rng              *rand.Rand
}

var _ rpc.LoopFilter = (*FaultInjectionFilter)(nil)

// NewFaultInjectionFilter creates a fault injection filter with the given
// abort probability. Values outside [0, 1] fall back to 0.
func NewFaultInjectionFilter(abortProbability float64) *FaultInjectionFilter {
	if abortProbability < 0.0 || abortProbability > 1.0 {
		logging.Warn("Invalid abort probability, defaulting to 0.0", zap.Float64("provided", abortProbability))
		abortProbability = 0.0
	}
	return &FaultInjectionFilter{
		abortProbability: abortProbability,
		rng:              rand.New(rand.NewSource(rand.Int63())),
	}
}

func (f *FaultInjectionFilter) shouldAbort() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rng.Float64() < f.abortProbability
}

// OnBefore aborts the invocation with ErrFaultInjected at the configured
// probability.
func (f *FaultInjectionFilter) OnBefore(ctx context.Context, next rpc.Invoker, inv *rpc.Invocation) (*rpc.Result, error) {
	if f.shouldAbort() {
		logging.Debug("invocation aborted by fault injection", zap.Stringer("invocation", inv))
		return nil, ErrFaultInjected
	}
	return nil, nil
}

// OnAfter passes the result through unchanged.
func (f *FaultInjectionFilter) OnAfter(ctx context.Context, next rpc.Invoker, inv *rpc.Invocation, res *rpc.Result) (*rpc.Result, error) {
	return res, nil
}

// SetAbortProbability updates the abort probability. Out-of-range values are
// ignored.
func (f *FaultInjectionFilter) SetAbortProbability(p float64) {
	if p < 0.0 || p > 1.0 {
		logging.Warn("Invalid abort probability, ignoring", zap.Float64("provided", p))
		return
	}
	f.mu.Lock()
	f.abortProbability = p
	f.mu.Unlock()
}

// AbortProbability returns the current abort probability.
func (f *FaultInjectionFilter) AbortProbability() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.abortProbability
}
