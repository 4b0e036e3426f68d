package registry

import (
	"fmt"
	"net"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Tenant is a row of the public.tenants catalog table. The tenant name doubles
// as the name of its database schema.
type Tenant struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Deactivated bool      `json:"deactivated"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Schema returns the name of the tenant's database schema.
func (t *Tenant) Schema() string {
	return t.Name
}

// Domain maps an inbound host name to a tenant. A tenant may own several
// domains; exactly one of them is primary, enforced by a partial unique index
// on the catalog table and by the registry's mutation paths.
type Domain struct {
	ID         uuid.UUID `json:"id"`
	TenantName string    `json:"tenant_name"`
	DomainName string    `json:"domain_name"`
	IsPrimary  bool      `json:"is_primary"`
}

// hostnamePattern accepts lowercase DNS names: labels of letters, digits, and
// inner hyphens, at least two labels.
var hostnamePattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?(\.[a-z0-9]([a-z0-9-]*[a-z0-9])?)+$`)

// NormalizeDomain lowercases a host name and strips an optional port. IPv6
// literals keep their address but lose brackets and port. Lookups are
// exact-match against the normalized form; no wildcard matching.
func NormalizeDomain(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return strings.Trim(host, "[]")
}

// ValidateDomain reports whether the given value is storable as a domain name.
func ValidateDomain(domain string) error {
	if domain == "" {
		return fmt.Errorf("%w: empty domain", ErrInvalidDomainName)
	}
	if len(domain) > 253 {
		return fmt.Errorf("%w: %q exceeds 253 characters", ErrInvalidDomainName, domain)
	}
	if !hostnamePattern.MatchString(domain) {
		return fmt.Errorf("%w: %q", ErrInvalidDomainName, domain)
	}
	return nil
}
