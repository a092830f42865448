package cluster

import (
	"fmt"
	"net"
	"sort"
	"sync"
	"time"

	"github.com/weaverpc/weave/pkg/logging"
	"github.com/weaverpc/weave/pkg/rpc"
	"go.uber.org/atomic"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// LookupFunc resolves a host name to its current IPs. Swappable for tests.
type LookupFunc func(host string) ([]net.IP, error)

// InvokerFactory builds an invoker for one resolved endpoint.
type InvokerFactory func(host string, port int) (rpc.Invoker, error)

// DNSDirectory resolves a logical service name through DNS, refreshes the
// endpoint set periodically, and notifies subscribers when it changes. It
// owns the invokers it builds: endpoints that disappear from DNS are
// destroyed, and Close destroys whatever remains.
type DNSDirectory struct {
	host     string
	port     int
	interval time.Duration
	lookup   LookupFunc
	factory  InvokerFactory

	mu          sync.RWMutex
	invokers    map[string]rpc.Invoker // keyed by IP string
	subscribers []func([]rpc.Invoker)

	closed atomic.Bool
	stop   chan struct{}
	done   chan struct{}
}

var _ Directory = (*DNSDirectory)(nil)

// DNSOption configures a DNSDirectory.
type DNSOption func(*DNSDirectory)

// WithLookup replaces the DNS lookup function.
func WithLookup(lookup LookupFunc) DNSOption {
	return func(d *DNSDirectory) { d.lookup = lookup }
}

// WithRefreshInterval sets the polling interval. Zero disables background
// refresh; Refresh can still be called explicitly.
func WithRefreshInterval(interval time.Duration) DNSOption {
	return func(d *DNSDirectory) { d.interval = interval }
}

// NewDNSDirectory resolves host:port through DNS and starts the refresh loop.
// The initial resolution failure is returned rather than deferred so callers
// never hold a directory that was empty from the start without knowing.
func NewDNSDirectory(host string, port int, factory InvokerFactory, opts ...DNSOption) (*DNSDirectory, error) {
	d := &DNSDirectory{
		host:     host,
		port:     port,
		interval: 30 * time.Second,
		lookup:   net.LookupIP,
		factory:  factory,
		invokers: make(map[string]rpc.Invoker),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}

	if err := d.Refresh(); err != nil {
		return nil, fmt.Errorf("initial DNS resolution for %q failed: %w", host, err)
	}

	if d.interval > 0 {
		go d.refreshLoop()
	} else {
		close(d.done)
	}
	return d, nil
}

func (d *DNSDirectory) refreshLoop() {
	defer close(d.done)
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()
	for {
		select {
		case <-d.stop:
			return
		case <-ticker.C:
			if err := d.Refresh(); err != nil {
				logging.Warn("DNS refresh failed",
					zap.String("host", d.host),
					zap.Error(err))
			}
		}
	}
}

// Refresh resolves the host once and reconciles the invoker set, destroying
// invokers for endpoints that disappeared and notifying subscribers when the
// set changed.
func (d *DNSDirectory) Refresh() error {
	if d.closed.Load() {
		return fmt.Errorf("directory for %q is closed", d.host)
	}

	ips, err := d.lookup(d.host)
	if err != nil {
		return fmt.Errorf("DNS lookup failed for %q: %w", d.host, err)
	}
	logging.Debug("DNS lookup completed",
		zap.String("host", d.host),
		zap.Int("ip_count", len(ips)))

	seen := make(map[string]struct{}, len(ips))
	var added []string
	var buildErr error

	d.mu.Lock()
	for _, ip := range ips {
		key := ip.String()
		seen[key] = struct{}{}
		if _, ok := d.invokers[key]; ok {
			continue
		}
		invoker, err := d.factory(key, d.port)
		if err != nil {
			buildErr = multierr.Append(buildErr, fmt.Errorf("endpoint %s: %w", key, err))
			continue
		}
		d.invokers[key] = invoker
		added = append(added, key)
	}

	var removed []string
	for key, invoker := range d.invokers {
		if _, ok := seen[key]; !ok {
			invoker.Destroy()
			delete(d.invokers, key)
			removed = append(removed, key)
		}
	}
	changed := len(added) > 0 || len(removed) > 0
	current := d.snapshotLocked()
	subscribers := append([]func([]rpc.Invoker){}, d.subscribers...)
	d.mu.Unlock()

	if changed {
		logging.Info("service endpoints changed",
			zap.String("host", d.host),
			zap.Strings("added", added),
			zap.Strings("removed", removed))
		for _, fn := range subscribers {
			fn(current)
		}
	}
	return buildErr
}

func (d *DNSDirectory) snapshotLocked() []rpc.Invoker {
	keys := make([]string, 0, len(d.invokers))
	for key := range d.invokers {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	out := make([]rpc.Invoker, 0, len(keys))
	for _, key := range keys {
		out = append(out, d.invokers[key])
	}
	return out
}

// List returns the invokers currently backing the service.
func (d *DNSDirectory) List(inv *rpc.Invocation) ([]rpc.Invoker, error) {
	if d.closed.Load() {
		return nil, fmt.Errorf("directory for %q is closed", d.host)
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.snapshotLocked(), nil
}

// Subscribe registers a change callback. The callback runs on the refreshing
// goroutine; it must not block.
func (d *DNSDirectory) Subscribe(fn func([]rpc.Invoker)) {
	d.mu.Lock()
	d.subscribers = append(d.subscribers, fn)
	d.mu.Unlock()
}

// Close stops the refresh loop and destroys every owned invoker. Idempotent.
func (d *DNSDirectory) Close() error {
	if !d.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(d.stop)
	<-d.done

	d.mu.Lock()
	for key, invoker := range d.invokers {
		invoker.Destroy()
		delete(d.invokers, key)
	}
	d.mu.Unlock()
	return nil
}
