// Package rpc defines the contracts shared by every stage of the invocation
// pipeline: the call descriptor (Invocation), the eventually-available
// outcome (Result), the uniform execution capability (Invoker), and the
// cross-cutting wrappers (Filter, LoopFilter) with their optional completion
// listeners.
package rpc

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/weaverpc/weave/pkg/metadata"
	"go.uber.org/atomic"
)

var invocationIDs atomic.Uint64

// GenerateInvocationID returns a process-unique invocation identifier.
func GenerateInvocationID() uint64 {
	return invocationIDs.Inc()
}

// Invocation describes a single call travelling through a filter chain. The
// descriptor itself (service, method, parameter types, arguments) is fixed at
// creation; the attachment map is mutable and shared by reference across the
// whole chain for the lifetime of one call.
type Invocation struct {
	id         uint64
	service    string
	method     string
	paramTypes []reflect.Type
	args       []any

	mu          sync.Mutex
	attachments metadata.Metadata
}

// NewInvocation creates a call descriptor for service.method with the given
// parameter types and argument values.
func NewInvocation(service, method string, paramTypes []reflect.Type, args []any) *Invocation {
	return &Invocation{
		id:          GenerateInvocationID(),
		service:     service,
		method:      method,
		paramTypes:  paramTypes,
		args:        args,
		attachments: metadata.Metadata{},
	}
}

// ID returns the process-unique identifier of this call.
func (inv *Invocation) ID() uint64 {
	return inv.id
}

// Service returns the logical service name being called.
func (inv *Invocation) Service() string {
	return inv.service
}

// Method returns the method name being called.
func (inv *Invocation) Method() string {
	return inv.method
}

// ParameterTypes returns the declared parameter types, in order.
func (inv *Invocation) ParameterTypes() []reflect.Type {
	return inv.paramTypes
}

// Arguments returns the argument values, in order.
func (inv *Invocation) Arguments() []any {
	return inv.args
}

// Attachment returns the attachment stored under key.
func (inv *Invocation) Attachment(key string) (string, bool) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	v, ok := inv.attachments[key]
	return v, ok
}

// SetAttachment stores an attachment. Attachments are shared by every filter
// handling this call, including completion callbacks running on other
// goroutines, so access is serialized internally.
func (inv *Invocation) SetAttachment(key, value string) {
	inv.mu.Lock()
	inv.attachments[key] = value
	inv.mu.Unlock()
}

// Attachments returns a copy of the attachment map.
func (inv *Invocation) Attachments() metadata.Metadata {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return inv.attachments.Clone()
}

// EncodeAttachments serializes the attachments into the binary wire format,
// for a transport shipping this call to another process. Keys are lower-cased
// on the wire.
func (inv *Invocation) EncodeAttachments() ([]byte, error) {
	return metadata.Codec{}.Encode(inv.Attachments())
}

// DecodeAttachments merges wire-format attachment data into this invocation,
// overwriting existing keys. The provider-side transport calls this on the
// inbound descriptor to restore the caller's attachments.
func (inv *Invocation) DecodeAttachments(data []byte) error {
	md, err := metadata.Codec{}.Decode(data)
	if err != nil {
		return fmt.Errorf("decoding attachments for %s: %w", inv, err)
	}
	inv.mu.Lock()
	inv.attachments.Merge(md)
	inv.mu.Unlock()
	return nil
}

func (inv *Invocation) String() string {
	return fmt.Sprintf("%s.%s(id=%d)", inv.service, inv.method, inv.id)
}
