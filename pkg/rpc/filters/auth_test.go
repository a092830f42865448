package filters

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/weaverpc/weave/pkg/rpc"
)

// TestAuthFilter covers the accept, missing-token, and bad-token paths.
func TestAuthFilter(t *testing.T) {
	filter := NewAuthFilter(DefaultAuthAttachment, "secret")
	terminal := newFakeInvoker("terminal")

	inv := newInvocation("Echo")
	inv.SetAttachment(DefaultAuthAttachment, "secret")
	res, err := filter.Invoke(context.Background(), terminal, inv)
	require.NoError(t, err)
	require.Equal(t, "reply", res.Value())

	_, err = filter.Invoke(context.Background(), terminal, newInvocation("Echo"))
	require.True(t, rpc.IsForbidden(err), "missing token must be forbidden")

	inv = newInvocation("Echo")
	inv.SetAttachment(DefaultAuthAttachment, "wrong")
	_, err = filter.Invoke(context.Background(), terminal, inv)
	require.True(t, rpc.IsForbidden(err), "unknown token must be forbidden")

	require.Equal(t, int64(1), terminal.invokes.Load(), "rejected calls never reach the terminal")
}
