package cluster

import (
	"math/rand"
	"sync"

	"github.com/weaverpc/weave/pkg/rpc"
)

// Balancer picks one invoker out of the candidates able to serve an
// invocation.
type Balancer interface {
	Pick(inv *rpc.Invocation, candidates []rpc.Invoker) rpc.Invoker
	Name() string
}

// RandomBalancer picks uniformly at random among available candidates.
type RandomBalancer struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomBalancer creates a RandomBalancer.
func NewRandomBalancer() *RandomBalancer {
	return &RandomBalancer{rng: rand.New(rand.NewSource(rand.Int63()))}
}

// Pick returns a random available candidate, or nil when none is available.
func (b *RandomBalancer) Pick(inv *rpc.Invocation, candidates []rpc.Invoker) rpc.Invoker {
	available := make([]rpc.Invoker, 0, len(candidates))
	for _, c := range candidates {
		if c.IsAvailable() {
			available = append(available, c)
		}
	}
	if len(available) == 0 {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return available[b.rng.Intn(len(available))]
}

// Name returns the balancer name.
func (b *RandomBalancer) Name() string {
	return "random"
}
