package chain

import (
	"fmt"

	"github.com/weaverpc/weave/pkg/logging"
	"github.com/weaverpc/weave/pkg/rpc"
	"github.com/weaverpc/weave/pkg/rpc/cluster"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Builder folds an ordered filter list into a nested invoker chain. The first
// filter in the list becomes the outermost stage. Consecutive LoopFilters are
// merged into a single LoopFilterChainNode instead of N nested nodes.
//
// Construction is synchronous and one-time: the produced invoker is never
// mutated afterward. Reacting to configuration changes means building a new
// chain and atomically swapping the reference visible to callers.
type Builder struct {
	key   string
	group string
}

// NewBuilder creates a builder for the given service key and group. Both are
// used for logging and error reporting only; filter selection happens before
// the builder is involved.
func NewBuilder(key, group string) *Builder {
	return &Builder{key: key, group: group}
}

// Build wraps terminal with the given filters, outermost first. Each element
// must be an rpc.Filter or an rpc.LoopFilter.
func (b *Builder) Build(terminal rpc.Invoker, filters ...any) (rpc.Invoker, error) {
	if err := validateFilters(filters); err != nil {
		return nil, fmt.Errorf("building chain for %s/%s: %w", b.key, b.group, err)
	}

	last := terminal
	var loopNode *LoopFilterChainNode
	for i := len(filters) - 1; i >= 0; i-- {
		switch f := filters[i].(type) {
		case rpc.LoopFilter:
			if loopNode == nil {
				loopNode = NewLoopFilterChainNode(terminal, last, f)
				last = loopNode
			} else {
				loopNode.AddLoopFilter(f)
			}
		case rpc.Filter:
			last = NewFilterChainNode(terminal, last, f)
			loopNode = nil
		}
	}

	logging.Debug("built filter chain",
		zap.String("service", b.key),
		zap.String("group", b.group),
		zap.Int("filters", len(filters)))
	return last, nil
}

// BuildCluster is Build for the consumer side: plain filters are wrapped in
// ClusterFilterChainNodes so cluster metadata stays visible through the whole
// chain. The result is a ClusterInvoker whenever the outermost filter is a
// plain Filter; a leading LoopFilter yields a plain Invoker, since loop nodes
// carry no cluster surface.
func (b *Builder) BuildCluster(terminal cluster.ClusterInvoker, filters ...any) (rpc.Invoker, error) {
	if err := validateFilters(filters); err != nil {
		return nil, fmt.Errorf("building cluster chain for %s/%s: %w", b.key, b.group, err)
	}

	var last rpc.Invoker = terminal
	var loopNode *LoopFilterChainNode
	for i := len(filters) - 1; i >= 0; i-- {
		switch f := filters[i].(type) {
		case rpc.LoopFilter:
			if loopNode == nil {
				loopNode = NewLoopFilterChainNode(terminal, last, f)
				last = loopNode
			} else {
				loopNode.AddLoopFilter(f)
			}
		case rpc.Filter:
			last = NewClusterFilterChainNode(terminal, last, f)
			loopNode = nil
		}
	}

	logging.Debug("built cluster filter chain",
		zap.String("service", b.key),
		zap.String("group", b.group),
		zap.Int("filters", len(filters)))
	return last, nil
}

// validateFilters checks every element up front so a half-built chain never
// escapes; all offending positions are reported together.
func validateFilters(filters []any) error {
	var err error
	for i, f := range filters {
		switch f.(type) {
		case rpc.LoopFilter, rpc.Filter:
		default:
			err = multierr.Append(err, fmt.Errorf("filter %d: %T is neither Filter nor LoopFilter", i, f))
		}
	}
	return err
}
