// Package security guards materialization of named types: a checker decides
// whether a type name arriving from the wire is safe to instantiate, with a
// bounded cache in front of the prefix scan so hot names skip it.
package security

import (
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru"
	"github.com/weaverpc/weave/pkg/logging"
	"github.com/weaverpc/weave/pkg/rpc"
	"go.uber.org/zap"
)

// DefaultBlockedPrefixes covers type names a remote peer has no business
// asking a server to materialize.
var DefaultBlockedPrefixes = []string{
	"os.",
	"os/exec.",
	"syscall.",
	"unsafe.",
	"runtime.",
	"reflect.",
}

const defaultCacheSize = 1024

// Checker validates type names against block and allow prefix lists. Verdicts
// for allowed names are cached; blocked names always take the scan path so a
// block-list update cannot be shadowed by a stale cache entry.
type Checker struct {
	mu              sync.RWMutex
	blockedPrefixes []string
	allowedPrefixes []string
	allowCache      *lru.Cache
}

// Option configures a Checker.
type Option func(*Checker)

// WithBlockedPrefixes appends prefixes to the block list.
func WithBlockedPrefixes(prefixes ...string) Option {
	return func(c *Checker) {
		c.blockedPrefixes = append(c.blockedPrefixes, prefixes...)
	}
}

// WithAllowedPrefixes restricts validation to the given prefixes: once any
// allow prefix is set, every name must match one.
func WithAllowedPrefixes(prefixes ...string) Option {
	return func(c *Checker) {
		c.allowedPrefixes = append(c.allowedPrefixes, prefixes...)
	}
}

// NewChecker creates a checker with the default block list plus any options.
func NewChecker(opts ...Option) *Checker {
	c := &Checker{
		blockedPrefixes: append([]string{}, DefaultBlockedPrefixes...),
	}
	for _, opt := range opts {
		opt(c)
	}
	// Size is fixed; lru.New only fails for non-positive sizes.
	c.allowCache, _ = lru.New(defaultCacheSize)
	return c
}

// ValidateClass returns nil when name is safe to materialize and a
// forbidden-kind RPCError otherwise.
func (c *Checker) ValidateClass(name string) error {
	if c.allowCache.Contains(name) {
		return nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	trimmed := strings.TrimLeft(name, "*[]")
	for _, prefix := range c.blockedPrefixes {
		if strings.HasPrefix(trimmed, prefix) {
			logging.Warn("blocked type name rejected", zap.String("name", name))
			return &rpc.RPCError{Type: rpc.RPCForbiddenError, Reason: "type not allowed: " + name}
		}
	}

	if len(c.allowedPrefixes) > 0 {
		allowed := false
		for _, prefix := range c.allowedPrefixes {
			if strings.HasPrefix(trimmed, prefix) {
				allowed = true
				break
			}
		}
		if !allowed {
			logging.Warn("type name outside allow list rejected", zap.String("name", name))
			return &rpc.RPCError{Type: rpc.RPCForbiddenError, Reason: "type not in allow list: " + name}
		}
	}

	c.allowCache.Add(name, struct{}{})
	return nil
}
