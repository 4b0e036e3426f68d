package tenant

import "errors"

var (
	// ErrTenantNotFound is returned when a domain row references a tenant
	// that does not exist. Maps to a 404 response.
	ErrTenantNotFound = errors.New("tenant not found")

	// ErrTenantDeactivated is returned when the resolved tenant is
	// deactivated. Maps to a 403 response.
	ErrTenantDeactivated = errors.New("tenant is deactivated")

	// ErrDomainNotFound is returned by lookups for hosts with no domain
	// mapping. The resolver treats it as the public context, not a failure.
	ErrDomainNotFound = errors.New("domain not found")

	// ErrNoTenantInContext is returned when a handler requires a tenant but
	// the request resolved to the public context.
	ErrNoTenantInContext = errors.New("no tenant in context")
)
