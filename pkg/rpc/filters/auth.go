package filters

import (
	"context"

	"github.com/weaverpc/weave/pkg/logging"
	"github.com/weaverpc/weave/pkg/rpc"
	"go.uber.org/zap"
)

// DefaultAuthAttachment is the attachment key the auth filter reads the
// caller's token from.
const DefaultAuthAttachment = "authorization"

// AuthFilter rejects invocations whose token attachment is missing or not in
// the accepted set, short-circuiting with a forbidden-kind RPCError.
type AuthFilter struct {
	attachment string
	tokens     map[string]struct{}
}

var _ rpc.Filter = (*AuthFilter)(nil)

// NewAuthFilter accepts the given tokens, read from the named attachment.
func NewAuthFilter(attachment string, tokens ...string) *AuthFilter {
	accepted := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		accepted[t] = struct{}{}
	}
	return &AuthFilter{attachment: attachment, tokens: accepted}
}

// Invoke rejects unauthenticated invocations.
func (f *AuthFilter) Invoke(ctx context.Context, next rpc.Invoker, inv *rpc.Invocation) (*rpc.Result, error) {
	token, ok := inv.Attachment(f.attachment)
	if !ok {
		logging.Debug("invocation rejected: missing token", zap.Stringer("invocation", inv))
		return nil, &rpc.RPCError{Type: rpc.RPCForbiddenError, Reason: "missing " + f.attachment + " attachment"}
	}
	if _, accepted := f.tokens[token]; !accepted {
		logging.Debug("invocation rejected: unknown token", zap.Stringer("invocation", inv))
		return nil, &rpc.RPCError{Type: rpc.RPCForbiddenError, Reason: "invalid token"}
	}
	return next.Invoke(ctx, inv)
}
