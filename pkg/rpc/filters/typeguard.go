package filters

import (
	"context"

	"github.com/weaverpc/weave/pkg/rpc"
	"github.com/weaverpc/weave/pkg/security"
)

// TypeGuardFilter validates every declared parameter type name of an
// invocation against a security checker before the call proceeds, the
// provider-side equivalent of guarding deserialization.
type TypeGuardFilter struct {
	checker *security.Checker
}

var _ rpc.Filter = (*TypeGuardFilter)(nil)

// NewTypeGuardFilter guards with checker; nil builds a default checker, with
// extraBlocked prefixes added to its block list.
func NewTypeGuardFilter(checker *security.Checker, extraBlocked ...string) *TypeGuardFilter {
	if checker == nil {
		checker = security.NewChecker(security.WithBlockedPrefixes(extraBlocked...))
	}
	return &TypeGuardFilter{checker: checker}
}

// Invoke rejects the call on the first unsafe parameter type.
func (f *TypeGuardFilter) Invoke(ctx context.Context, next rpc.Invoker, inv *rpc.Invocation) (*rpc.Result, error) {
	for _, t := range inv.ParameterTypes() {
		if err := f.checker.ValidateClass(t.String()); err != nil {
			return nil, err
		}
	}
	return next.Invoke(ctx, inv)
}
