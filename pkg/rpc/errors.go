package rpc

import (
	"errors"
	"fmt"
)

// RPCErrorType categorizes invocation failures.
type RPCErrorType int

const (
	RPCUnknownError RPCErrorType = iota
	RPCFailError
	RPCTimeoutError
	RPCLimitError
	RPCForbiddenError
)

func (t RPCErrorType) String() string {
	switch t {
	case RPCFailError:
		return "fail"
	case RPCTimeoutError:
		return "timeout"
	case RPCLimitError:
		return "limit"
	case RPCForbiddenError:
		return "forbidden"
	default:
		return "unknown"
	}
}

// RPCError is the failure type produced by the pipeline and its filters.
type RPCError struct {
	Type   RPCErrorType
	Reason string
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error (%s): %s", e.Type, e.Reason)
}

// IsTimeout reports whether err is (or wraps) a timeout-kind RPCError.
func IsTimeout(err error) bool {
	var rpcErr *RPCError
	return errors.As(err, &rpcErr) && rpcErr.Type == RPCTimeoutError
}

// IsLimit reports whether err is (or wraps) a limit-kind RPCError.
func IsLimit(err error) bool {
	var rpcErr *RPCError
	return errors.As(err, &rpcErr) && rpcErr.Type == RPCLimitError
}

// IsForbidden reports whether err is (or wraps) a forbidden-kind RPCError.
func IsForbidden(err error) bool {
	var rpcErr *RPCError
	return errors.As(err, &rpcErr) && rpcErr.Type == RPCForbiddenError
}
