package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/pgtenants/pkg/pg"
)

const domainColumns = "id, tenant_name, domain_name, is_primary"

// GetByDomain resolves a host name to its domain row and owning tenant.
// Returns ErrDomainNotFound when no row matches the normalized host, and
// ErrTenantNotFound when the domain points at a tenant that no longer exists,
// which indicates a catalog integrity violation.
func (r *Registry) GetByDomain(ctx context.Context, host string) (*Tenant, *Domain, error) {
	host = NormalizeDomain(host)

	var d Domain
	err := r.db.QueryRow(ctx,
		"SELECT "+domainColumns+" FROM public.domains WHERE domain_name = $1", host,
	).Scan(&d.ID, &d.TenantName, &d.DomainName, &d.IsPrimary)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, fmt.Errorf("%w: %q", ErrDomainNotFound, host)
		}
		return nil, nil, err
	}

	t, err := r.GetByName(ctx, d.TenantName)
	if err != nil {
		if errors.Is(err, ErrTenantNotFound) {
			return nil, nil, fmt.Errorf("%w: domain %q references missing tenant %q", ErrTenantNotFound, host, d.TenantName)
		}
		return nil, nil, err
	}
	return t, &d, nil
}

// Domains lists a tenant's domains, primary first.
func (r *Registry) Domains(ctx context.Context, tenantName string) ([]Domain, error) {
	rows, err := r.db.Query(ctx,
		"SELECT "+domainColumns+" FROM public.domains WHERE tenant_name = $1 ORDER BY is_primary DESC, domain_name",
		tenantName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var domains []Domain
	for rows.Next() {
		var d Domain
		if err := rows.Scan(&d.ID, &d.TenantName, &d.DomainName, &d.IsPrimary); err != nil {
			return nil, err
		}
		domains = append(domains, d)
	}
	return domains, rows.Err()
}

// AddDomain maps an additional host name to a tenant. When isPrimary is set,
// the previous primary is demoted in the same transaction, keeping the
// one-primary-per-tenant invariant.
func (r *Registry) AddDomain(ctx context.Context, tenantName, domainName string, isPrimary bool) (*Domain, error) {
	domainName = NormalizeDomain(domainName)
	if err := ValidateDomain(domainName); err != nil {
		return nil, err
	}

	d := &Domain{ID: uuid.New(), TenantName: tenantName, DomainName: domainName, IsPrimary: isPrimary}
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		if isPrimary {
			if _, err := tx.Exec(ctx,
				"UPDATE public.domains SET is_primary = FALSE WHERE tenant_name = $1 AND is_primary",
				tenantName); err != nil {
				return err
			}
		}

		if _, err := tx.Exec(ctx,
			"INSERT INTO public.domains (id, tenant_name, domain_name, is_primary) VALUES ($1, $2, $3, $4)",
			d.ID, d.TenantName, d.DomainName, d.IsPrimary,
		); err != nil {
			if pg.IsDuplicateKeyError(err) {
				return fmt.Errorf("%w: %q", ErrDomainExists, domainName)
			}
			if pg.IsForeignKeyViolationError(err) {
				return fmt.Errorf("%w: %q", ErrTenantNotFound, tenantName)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.log.InfoContext(ctx, "domain added", "tenant", tenantName, "domain", domainName, "primary", isPrimary)
	return d, nil
}

// RemoveDomain unmaps a host name. The primary domain cannot be removed;
// promote another domain first or delete the tenant.
func (r *Registry) RemoveDomain(ctx context.Context, domainName string) error {
	domainName = NormalizeDomain(domainName)

	err := r.inTx(ctx, func(tx pgx.Tx) error {
		var isPrimary bool
		err := tx.QueryRow(ctx,
			"SELECT is_primary FROM public.domains WHERE domain_name = $1", domainName,
		).Scan(&isPrimary)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: %q", ErrDomainNotFound, domainName)
			}
			return err
		}
		if isPrimary {
			return fmt.Errorf("%w: %q", ErrPrimaryDomain, domainName)
		}

		_, err = tx.Exec(ctx, "DELETE FROM public.domains WHERE domain_name = $1", domainName)
		return err
	})
	if err != nil {
		return err
	}

	r.invalidate(ctx, []string{domainName})
	r.log.InfoContext(ctx, "domain removed", "domain", domainName)
	return nil
}

// SetPrimaryDomain promotes one of a tenant's domains to primary and demotes
// the rest, in one transaction.
func (r *Registry) SetPrimaryDomain(ctx context.Context, tenantName, domainName string) error {
	domainName = NormalizeDomain(domainName)

	return r.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			"UPDATE public.domains SET is_primary = FALSE WHERE tenant_name = $1 AND is_primary AND domain_name <> $2",
			tenantName, domainName); err != nil {
			return err
		}

		tag, err := tx.Exec(ctx,
			"UPDATE public.domains SET is_primary = TRUE WHERE tenant_name = $1 AND domain_name = $2",
			tenantName, domainName)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: %q", ErrDomainNotFound, domainName)
		}
		return nil
	})
}
