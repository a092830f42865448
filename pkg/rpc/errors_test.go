package rpc

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestRPCErrorKinds covers the kind predicates, including wrapped errors.
func TestRPCErrorKinds(t *testing.T) {
	timeout := &RPCError{Type: RPCTimeoutError, Reason: "deadline exceeded"}
	require.True(t, IsTimeout(timeout))
	require.False(t, IsLimit(timeout))
	require.True(t, IsTimeout(fmt.Errorf("call failed: %w", timeout)))

	limit := &RPCError{Type: RPCLimitError, Reason: "too many"}
	require.True(t, IsLimit(limit))

	forbidden := &RPCError{Type: RPCForbiddenError, Reason: "no"}
	require.True(t, IsForbidden(forbidden))

	require.False(t, IsTimeout(errors.New("plain")))
}

// TestRPCErrorMessage verifies the message format includes the kind.
func TestRPCErrorMessage(t *testing.T) {
	err := &RPCError{Type: RPCTimeoutError, Reason: "deadline exceeded"}
	require.Equal(t, "rpc error (timeout): deadline exceeded", err.Error())
}
