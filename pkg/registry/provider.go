package registry

import (
	"context"
	"errors"

	"github.com/dmitrymomot/pgtenants/pkg/tenant"
)

// GetByHost implements tenant.Lookup: it resolves a request host against the
// domain catalog and returns the owning tenant in the resolver's view type.
func (r *Registry) GetByHost(ctx context.Context, host string) (*tenant.Tenant, error) {
	t, _, err := r.GetByDomain(ctx, host)
	if err != nil {
		switch {
		case errors.Is(err, ErrDomainNotFound):
			return nil, tenant.ErrDomainNotFound
		case errors.Is(err, ErrTenantNotFound):
			return nil, tenant.ErrTenantNotFound
		default:
			return nil, err
		}
	}

	return &tenant.Tenant{
		ID:          t.ID,
		Name:        t.Name,
		Deactivated: t.Deactivated,
		CreatedAt:   t.CreatedAt,
	}, nil
}

// GetTenantByName implements tenant.NameLookup for the header override: it
// resolves a tenant name from the catalog into the resolver's view type.
func (r *Registry) GetTenantByName(ctx context.Context, name string) (*tenant.Tenant, error) {
	t, err := r.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, ErrTenantNotFound) {
			return nil, tenant.ErrTenantNotFound
		}
		return nil, err
	}

	return &tenant.Tenant{
		ID:          t.ID,
		Name:        t.Name,
		Deactivated: t.Deactivated,
		CreatedAt:   t.CreatedAt,
	}, nil
}
