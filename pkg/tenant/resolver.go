package tenant

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"
)

// defaultNonTenantSubdomains are leftmost host labels that never resolve to a
// tenant, no matter what the domain catalog contains.
var defaultNonTenantSubdomains = []string{"www", "localhost", "local"}

// DefaultTenantHeader is the header consulted by the header override before
// host-based resolution.
const DefaultTenantHeader = "X-Tenant"

// ResolverOption configures the resolver.
type ResolverOption func(*Resolver)

// WithResolverCache caches successful resolutions keyed by host. Pair with
// registry.WithInvalidator so renames and deletions evict stale entries.
func WithResolverCache(cache Cache, ttl time.Duration) ResolverOption {
	return func(r *Resolver) {
		if cache != nil {
			r.cache = cache
		}
		if ttl > 0 {
			r.cacheTTL = ttl
		}
	}
}

// WithNonTenantSubdomains replaces the default list of host labels that are
// never treated as tenants (www, localhost, local).
func WithNonTenantSubdomains(labels ...string) ResolverOption {
	return func(r *Resolver) {
		r.nonTenant = make(map[string]struct{}, len(labels))
		for _, l := range labels {
			r.nonTenant[strings.ToLower(l)] = struct{}{}
		}
	}
}

// WithHeaderOverride lets requests name their tenant directly through a header
// instead of the host, looked up by tenant name. Useful behind proxies that
// rewrite the subdomain into a header, and for internal tooling. An empty
// header name selects DefaultTenantHeader.
//
// Unlike host resolution, a header naming an unknown tenant is an error, not
// the public fallback: the caller asked for a specific tenant and must not
// silently land on public data.
func WithHeaderOverride(header string, lookup NameLookup) ResolverOption {
	return func(r *Resolver) {
		if lookup == nil {
			return
		}
		if header == "" {
			header = DefaultTenantHeader
		}
		r.header = header
		r.names = lookup
	}
}

// Resolver maps a request host to a tenant. A host that carries no subdomain,
// uses a non-tenant label, or has no catalog mapping resolves to the public
// context (nil tenant, no error). Deactivated tenants and dangling domain
// rows resolve to typed errors.
type Resolver struct {
	lookup    Lookup
	names     NameLookup
	header    string
	cache     Cache
	cacheTTL  time.Duration
	nonTenant map[string]struct{}
}

// NewResolver returns a Resolver backed by the given catalog lookup.
func NewResolver(lookup Lookup, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		lookup:   lookup,
		cache:    NewNoOpCache(),
		cacheTTL: 5 * time.Minute,
	}
	r.nonTenant = make(map[string]struct{}, len(defaultNonTenantSubdomains))
	for _, l := range defaultNonTenantSubdomains {
		r.nonTenant[l] = struct{}{}
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolveRequest resolves the tenant for an HTTP request. When a header
// override is configured and the request carries the header, the tenant is
// looked up by the header value; otherwise resolution falls back to the
// request host.
func (r *Resolver) ResolveRequest(ctx context.Context, req *http.Request) (*Tenant, error) {
	if r.names != nil {
		if name := strings.TrimSpace(req.Header.Get(r.header)); name != "" {
			return r.resolveByName(ctx, strings.ToLower(name))
		}
	}
	return r.Resolve(ctx, req.Host)
}

// Resolve maps a request host to a tenant. Returns (nil, nil) for the public
// context. The lookup is by the full normalized host, exact match; the
// leftmost label only decides whether the host is a tenant candidate at all.
func (r *Resolver) Resolve(ctx context.Context, host string) (*Tenant, error) {
	host = normalizeHost(host)

	label, ok := subdomainLabel(host)
	if !ok {
		return nil, nil
	}
	if _, skip := r.nonTenant[label]; skip {
		return nil, nil
	}

	if cached, ok := r.cache.Get(ctx, host); ok {
		if cached.Deactivated {
			return nil, ErrTenantDeactivated
		}
		return cached, nil
	}

	t, err := r.lookup.GetByHost(ctx, host)
	if err != nil {
		if errors.Is(err, ErrDomainNotFound) {
			// Unmapped host: platform traffic, not a tenant request.
			return nil, nil
		}
		return nil, err
	}

	r.cache.Set(ctx, host, t, r.cacheTTL)

	if t.Deactivated {
		return nil, ErrTenantDeactivated
	}
	return t, nil
}

// resolveByName loads a tenant by its unique name for the header override.
// Names share the resolution cache with hosts; tenant names never contain a
// dot, so the key spaces cannot collide.
func (r *Resolver) resolveByName(ctx context.Context, name string) (*Tenant, error) {
	if cached, ok := r.cache.Get(ctx, name); ok {
		if cached.Deactivated {
			return nil, ErrTenantDeactivated
		}
		return cached, nil
	}

	t, err := r.names.GetTenantByName(ctx, name)
	if err != nil {
		return nil, err
	}

	r.cache.Set(ctx, name, t, r.cacheTTL)

	if t.Deactivated {
		return nil, ErrTenantDeactivated
	}
	return t, nil
}

// normalizeHost lowercases the host and strips an optional port. IPv6
// literals keep their address but lose brackets and port.
func normalizeHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return strings.Trim(host, "[]")
}

// subdomainLabel extracts the leftmost label of a host that carries a
// subdomain. Hosts without a dot have no subdomain and belong to the public
// context.
func subdomainLabel(host string) (string, bool) {
	if !strings.Contains(host, ".") {
		return "", false
	}
	label, _, _ := strings.Cut(host, ".")
	if label == "" {
		return "", false
	}
	return label, true
}
