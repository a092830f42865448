package filters

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/weaverpc/weave/pkg/rpc"
	"github.com/weaverpc/weave/pkg/rpc/chain"
	"go.uber.org/multierr"
)

// TestNew_BuiltinsByName verifies the built-in factories resolve and honor
// their options.
func TestNew_BuiltinsByName(t *testing.T) {
	f, err := New("faultinject", Options{"abort_probability": "0.5"})
	require.NoError(t, err)
	require.Equal(t, 0.5, f.(*FaultInjectionFilter).AbortProbability())

	f, err = New("activelimit", Options{"max_active": "8"})
	require.NoError(t, err)
	require.Implements(t, (*rpc.LoopFilter)(nil), f)

	f, err = New("accesslog", nil)
	require.NoError(t, err)
	require.Implements(t, (*rpc.Filter)(nil), f)

	_, err = New("nosuch", nil)
	require.Error(t, err)

	_, err = New("faultinject", Options{"abort_probability": "lots"})
	require.Error(t, err, "bad option values surface as build errors")
}

// TestFromConfig_PreservesOrderAndAggregatesErrors verifies pipeline
// resolution keeps configured order and reports every failure at once.
func TestFromConfig_PreservesOrderAndAggregatesErrors(t *testing.T) {
	out, err := FromConfig([]chain.FilterConfig{
		{Name: "auth", Options: map[string]string{"tokens": "a,b"}},
		{Name: "activelimit"},
		{Name: "accesslog"},
	})
	require.NoError(t, err)
	require.Len(t, out, 3)
	require.IsType(t, &AuthFilter{}, out[0])
	require.IsType(t, &ActiveLimitFilter{}, out[1])
	require.IsType(t, &AccessLogFilter{}, out[2])

	_, err = FromConfig([]chain.FilterConfig{
		{Name: "ghost1"},
		{Name: "accesslog"},
		{Name: "ghost2"},
	})
	require.Len(t, multierr.Errors(err), 2)
}

// TestRegister_OverridesBuiltin verifies an application can replace a
// built-in factory by name.
func TestRegister_OverridesBuiltin(t *testing.T) {
	t.Cleanup(func() {
		Register("accesslog", func(opts Options) (any, error) {
			verbose, err := opts.Bool("verbose", false)
			if err != nil {
				return nil, err
			}
			return NewAccessLogFilter(verbose), nil
		})
	})

	custom := NewAuthFilter("x-key", "k")
	Register("accesslog", func(opts Options) (any, error) { return custom, nil })

	f, err := New("accesslog", nil)
	require.NoError(t, err)
	require.Same(t, custom, f)
}
