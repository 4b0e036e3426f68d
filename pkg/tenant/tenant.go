package tenant

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Tenant carries the request-scoped view of a tenant: enough to pick the
// schema and enforce activation, nothing more.
type Tenant struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Deactivated bool      `json:"deactivated"`
	CreatedAt   time.Time `json:"created_at"`
}

// Schema returns the name of the tenant's database schema. By convention the
// schema is named after the tenant.
func (t *Tenant) Schema() string {
	return t.Name
}

// Lookup loads a tenant by the full request host, exact match against the
// domain catalog. Implementations return ErrDomainNotFound for unmapped hosts
// and ErrTenantNotFound when a domain row references a missing tenant.
// Satisfied by *registry.Registry.
type Lookup interface {
	GetByHost(ctx context.Context, host string) (*Tenant, error)
}

// NameLookup loads a tenant by its unique name, used by the header override.
// Implementations return ErrTenantNotFound for unknown names. Satisfied by
// *registry.Registry.
type NameLookup interface {
	GetTenantByName(ctx context.Context, name string) (*Tenant, error)
}

// Session is a request-scoped database session bound to one schema.
// Implemented by *pg.Scope. Downstream handlers must issue every
// tenant-scoped query through Conn.
type Session interface {
	Conn() *pgxpool.Conn
	Schema() string
	Close()
}

// Binder acquires a Session bound to the given schema for the duration of a
// request. The middleware closes the session on every exit path.
type Binder func(ctx context.Context, schema string) (Session, error)
