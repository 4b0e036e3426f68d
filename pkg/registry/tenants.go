package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/pgtenants/pkg/pg"
	"github.com/dmitrymomot/pgtenants/pkg/schema"
)

// Catalog queries qualify table names with public explicitly, so the registry
// behaves the same on a tenant-scoped connection as on a fresh one.

const tenantColumns = "id, name, deactivated, created_at, updated_at"

// Create registers a tenant and provisions its schema as one logical unit:
// the schema is created (behind the advisory lock, so concurrent creates for
// the same name are serialized), then the tenant row and its primary domain
// row are inserted. If any step fails, the transaction rolls back and neither
// a row nor a schema survives.
func (r *Registry) Create(ctx context.Context, name, domainName string) (*Tenant, error) {
	if err := schema.ValidateName(name); err != nil {
		return nil, err
	}
	domainName = NormalizeDomain(domainName)
	if err := ValidateDomain(domainName); err != nil {
		return nil, err
	}

	t := &Tenant{ID: uuid.New(), Name: name}
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		if err := r.schemas.CreateInTx(ctx, tx, name); err != nil {
			return err
		}

		err := tx.QueryRow(ctx,
			"INSERT INTO public.tenants (id, name) VALUES ($1, $2) RETURNING created_at, updated_at",
			t.ID, t.Name,
		).Scan(&t.CreatedAt, &t.UpdatedAt)
		if err != nil {
			if pg.IsDuplicateKeyError(err) {
				return fmt.Errorf("%w: %q", ErrTenantExists, name)
			}
			return err
		}

		if _, err := tx.Exec(ctx,
			"INSERT INTO public.domains (id, tenant_name, domain_name, is_primary) VALUES ($1, $2, $3, TRUE)",
			uuid.New(), t.Name, domainName,
		); err != nil {
			if pg.IsDuplicateKeyError(err) {
				return fmt.Errorf("%w: %q", ErrDomainExists, domainName)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.log.InfoContext(ctx, "tenant created", "tenant", name, "domain", domainName)
	return t, nil
}

// GetByID fetches a tenant by its catalog id.
func (r *Registry) GetByID(ctx context.Context, id uuid.UUID) (*Tenant, error) {
	return r.scanTenant(r.db.QueryRow(ctx,
		"SELECT "+tenantColumns+" FROM public.tenants WHERE id = $1", id))
}

// GetByName fetches a tenant by its unique name.
func (r *Registry) GetByName(ctx context.Context, name string) (*Tenant, error) {
	return r.scanTenant(r.db.QueryRow(ctx,
		"SELECT "+tenantColumns+" FROM public.tenants WHERE name = $1", name))
}

// List returns all tenants ordered by name.
func (r *Registry) List(ctx context.Context) ([]Tenant, error) {
	rows, err := r.db.Query(ctx,
		"SELECT "+tenantColumns+" FROM public.tenants ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tenants []Tenant
	for rows.Next() {
		var t Tenant
		if err := rows.Scan(&t.ID, &t.Name, &t.Deactivated, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		tenants = append(tenants, t)
	}
	return tenants, rows.Err()
}

// Rename changes a tenant's name and renames its schema in the same
// transaction. The domains FK cascades the tenant_name change, so domain rows
// keep pointing at the renamed tenant.
func (r *Registry) Rename(ctx context.Context, oldName, newName string) (*Tenant, error) {
	if err := schema.ValidateName(newName); err != nil {
		return nil, err
	}
	if oldName == newName {
		return r.GetByName(ctx, oldName)
	}

	var (
		t    Tenant
		keys []string
	)
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		if err := r.schemas.RenameInTx(ctx, tx, oldName, newName); err != nil {
			return err
		}

		// Collected before the update because the FK cascade rewrites
		// tenant_name on the domain rows.
		var err error
		keys, err = domainNamesInTx(ctx, tx, oldName)
		if err != nil {
			return err
		}

		err = tx.QueryRow(ctx,
			"UPDATE public.tenants SET name = $2, updated_at = now() WHERE name = $1 RETURNING "+tenantColumns,
			oldName, newName,
		).Scan(&t.ID, &t.Name, &t.Deactivated, &t.CreatedAt, &t.UpdatedAt)
		if err != nil {
			if pg.IsNotFoundError(err) {
				return fmt.Errorf("%w: %q", ErrTenantNotFound, oldName)
			}
			if pg.IsDuplicateKeyError(err) {
				return fmt.Errorf("%w: %q", ErrTenantExists, newName)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// The old name is a cache key too when header-based resolution is in use.
	r.invalidate(ctx, append(keys, oldName))
	r.log.InfoContext(ctx, "tenant renamed", "from", oldName, "to", newName)
	return &t, nil
}

// Deactivate marks a tenant inactive. Requests for its domains fail with a
// tenant-deactivated error until Activate is called.
func (r *Registry) Deactivate(ctx context.Context, name string) error {
	return r.setDeactivated(ctx, name, true)
}

// Activate clears a tenant's deactivated flag.
func (r *Registry) Activate(ctx context.Context, name string) error {
	return r.setDeactivated(ctx, name, false)
}

func (r *Registry) setDeactivated(ctx context.Context, name string, deactivated bool) error {
	var keys []string
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		var err error
		keys, err = domainNamesInTx(ctx, tx, name)
		if err != nil {
			return err
		}

		tag, err := tx.Exec(ctx,
			"UPDATE public.tenants SET deactivated = $2, updated_at = now() WHERE name = $1",
			name, deactivated)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: %q", ErrTenantNotFound, name)
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.invalidate(ctx, append(keys, name))
	r.log.InfoContext(ctx, "tenant activation changed", "tenant", name, "deactivated", deactivated)
	return nil
}

// Delete removes the tenant row (domains cascade) and drops the tenant's
// schema with everything in it, as one transaction. No orphan of either kind
// survives a failure.
func (r *Registry) Delete(ctx context.Context, name string) error {
	var keys []string
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		var err error
		keys, err = domainNamesInTx(ctx, tx, name)
		if err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, "DELETE FROM public.tenants WHERE name = $1", name)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: %q", ErrTenantNotFound, name)
		}

		return r.schemas.DropInTx(ctx, tx, name)
	})
	if err != nil {
		return err
	}

	r.invalidate(ctx, append(keys, name))
	r.log.InfoContext(ctx, "tenant deleted", "tenant", name)
	return nil
}

func (r *Registry) scanTenant(row pgx.Row) (*Tenant, error) {
	var t Tenant
	err := row.Scan(&t.ID, &t.Name, &t.Deactivated, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTenantNotFound
		}
		return nil, err
	}
	return &t, nil
}

func domainNamesInTx(ctx context.Context, tx pgx.Tx, tenantName string) ([]string, error) {
	rows, err := tx.Query(ctx,
		"SELECT domain_name FROM public.domains WHERE tenant_name = $1", tenantName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}
