package filters

import (
	"fmt"
	"sync"

	"github.com/weaverpc/weave/pkg/rpc/chain"
	"go.uber.org/multierr"
)

// Factory builds a filter from its options. The returned value must be an
// rpc.Filter or an rpc.LoopFilter.
type Factory func(opts Options) (any, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register makes a filter constructible by name. Registering a name twice
// replaces the previous factory, letting applications override built-ins.
func Register(name string, factory Factory) {
	registryMu.Lock()
	registry[name] = factory
	registryMu.Unlock()
}

// New builds the named filter with the given options.
func New(name string, opts Options) (any, error) {
	registryMu.RLock()
	factory, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown filter %q", name)
	}
	f, err := factory(opts)
	if err != nil {
		return nil, fmt.Errorf("building filter %q: %w", name, err)
	}
	return f, nil
}

// FromConfig resolves a configured pipeline into filter values ready for
// chain.Builder, preserving order. All resolution failures are reported
// together.
func FromConfig(cfgs []chain.FilterConfig) ([]any, error) {
	var (
		out  []any
		errs error
	)
	for _, cfg := range cfgs {
		f, err := New(cfg.Name, Options(cfg.Options))
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		out = append(out, f)
	}
	if errs != nil {
		return nil, errs
	}
	return out, nil
}

func init() {
	Register("accesslog", func(opts Options) (any, error) {
		verbose, err := opts.Bool("verbose", false)
		if err != nil {
			return nil, err
		}
		return NewAccessLogFilter(verbose), nil
	})
	Register("metrics", func(opts Options) (any, error) {
		return NewMetricsFilter(metricsScope()), nil
	})
	Register("faultinject", func(opts Options) (any, error) {
		p, err := opts.Float("abort_probability", 0)
		if err != nil {
			return nil, err
		}
		return NewFaultInjectionFilter(p), nil
	})
	Register("ratelimit", func(opts Options) (any, error) {
		rps, err := opts.Float("rate", 100)
		if err != nil {
			return nil, err
		}
		burst, err := opts.Int("burst", 1)
		if err != nil {
			return nil, err
		}
		return NewRateLimitFilter(rps, burst), nil
	})
	Register("activelimit", func(opts Options) (any, error) {
		max, err := opts.Int("max_active", 64)
		if err != nil {
			return nil, err
		}
		return NewActiveLimitFilter(int64(max)), nil
	})
	Register("auth", func(opts Options) (any, error) {
		return NewAuthFilter(opts.String("attachment", DefaultAuthAttachment), opts.StringList("tokens")...), nil
	})
	Register("tracing", func(opts Options) (any, error) {
		return NewTracingFilter(nil), nil
	})
	Register("cache", func(opts Options) (any, error) {
		ttl, err := opts.Duration("ttl", 0)
		if err != nil {
			return nil, err
		}
		size, err := opts.Int("size", DefaultCacheSize)
		if err != nil {
			return nil, err
		}
		return NewCacheFilter(ttl, size)
	})
	Register("typeguard", func(opts Options) (any, error) {
		return NewTypeGuardFilter(nil, opts.StringList("blocked")...), nil
	})
}
