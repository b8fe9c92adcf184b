package pcap

import (
	"context"
	"io"
	"net"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowgraph/pkg/cache"
	"github.com/matzehuels/flowgraph/pkg/observability"
)

// DefaultCollapsePrefixes lists host name prefixes of numbered host pools.
// Members of a pool share one node: ap-s200 and ap-s201 both become ap-s*.
var DefaultCollapsePrefixes = []string{"ap-"}

// LookupFunc returns the names of an IP address, like [net.Resolver.LookupAddr].
type LookupFunc func(ctx context.Context, addr string) ([]string, error)

// HostResolver names the endpoints of a packet.
type HostResolver interface {
	Resolve(ctx context.Context, ip string) string
}

// Resolver maps IP addresses to short host names and remembers the answers
// in a cache. Addresses that do not resolve keep their IP as the name; that
// answer is cached as well.
//
// Every answer is also kept in memory for the lifetime of the resolver, so
// each address is looked up at most once per run even when the cache does
// not store anything.
type Resolver struct {
	cache    cache.Cache
	ttl      time.Duration
	lookup   LookupFunc
	collapse []string
	logger   *log.Logger

	mu   sync.Mutex
	seen map[string]string
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithLookup replaces the reverse DNS lookup.
func WithLookup(fn LookupFunc) ResolverOption {
	return func(r *Resolver) { r.lookup = fn }
}

// WithCollapsePrefixes replaces [DefaultCollapsePrefixes].
func WithCollapsePrefixes(prefixes []string) ResolverOption {
	return func(r *Resolver) { r.collapse = prefixes }
}

// WithTTL sets how long answers stay cached. Zero keeps them until evicted.
func WithTTL(ttl time.Duration) ResolverOption {
	return func(r *Resolver) { r.ttl = ttl }
}

// NewResolver creates a resolver backed by c. A nil cache keeps answers in
// memory for the lifetime of the resolver. A nil logger discards log output.
func NewResolver(c cache.Cache, logger *log.Logger, opts ...ResolverOption) *Resolver {
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	r := &Resolver{
		cache:    c,
		lookup:   net.DefaultResolver.LookupAddr,
		collapse: DefaultCollapsePrefixes,
		logger:   logger,
		seen:     make(map[string]string),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the short host name of ip.
func (r *Resolver) Resolve(ctx context.Context, ip string) string {
	hooks := observability.Cache()

	r.mu.Lock()
	defer r.mu.Unlock()
	if name, ok := r.seen[ip]; ok {
		hooks.OnCacheHit(ctx, "host")
		return name
	}

	data, ok, err := r.cache.Get(ctx, ip)
	if err != nil {
		r.logger.Warn("host cache read failed", "ip", ip, "err", err)
	}
	if ok {
		hooks.OnCacheHit(ctx, "host")
		r.seen[ip] = string(data)
		return string(data)
	}
	hooks.OnCacheMiss(ctx, "host")

	name := r.resolve(ctx, ip)
	r.seen[ip] = name
	if err := r.cache.Set(ctx, ip, []byte(name), r.ttl); err != nil {
		r.logger.Warn("host cache write failed", "ip", ip, "err", err)
	} else {
		hooks.OnCacheSet(ctx, "host", len(name))
	}
	return name
}

func (r *Resolver) resolve(ctx context.Context, ip string) string {
	names, err := r.lookup(ctx, ip)
	if err == nil && len(names) == 0 {
		err = &net.DNSError{Err: "no PTR record", Name: ip, IsNotFound: true}
	}
	if err != nil {
		r.logger.Error("unable to resolve", "ip", ip, "err", err)
		return ip
	}

	host, _, _ := strings.Cut(strings.TrimSuffix(names[0], "."), ".")
	r.logger.Debug("resolved host", "ip", ip, "host", host)
	return collapseHost(host, r.collapse)
}

var trailingDigits = regexp.MustCompile(`\d+$`)

// collapseHost replaces the trailing number of pooled host names with "*".
func collapseHost(host string, prefixes []string) string {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(host, p) {
			return trailingDigits.ReplaceAllString(host, "*")
		}
	}
	return host
}

// Ensure Resolver implements HostResolver.
var _ HostResolver = (*Resolver)(nil)
