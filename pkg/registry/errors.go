package registry

import "errors"

var (
	// ErrTenantExists is returned when a tenant with the same name is already registered.
	ErrTenantExists = errors.New("tenant already exists")

	// ErrTenantNotFound is returned when no tenant matches the given identifier.
	ErrTenantNotFound = errors.New("tenant not found")

	// ErrDomainExists is returned when the domain name is already mapped to a tenant.
	ErrDomainExists = errors.New("domain already exists")

	// ErrDomainNotFound is returned when no domain row matches the given name.
	ErrDomainNotFound = errors.New("domain not found")

	// ErrInvalidDomainName is returned for values that are not valid hostnames.
	ErrInvalidDomainName = errors.New("invalid domain name")

	// ErrPrimaryDomain is returned when removing a tenant's primary domain.
	// Reassign the primary first, or delete the tenant.
	ErrPrimaryDomain = errors.New("cannot remove primary domain")
)
