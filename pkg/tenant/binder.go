package tenant

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/pgtenants/pkg/pg"
)

// PoolBinder returns a Binder that acquires schema-bound sessions from the
// given pool. Each session is a pooled connection with its search path set to
// the tenant schema, reset to public when the session closes.
func PoolBinder(pool *pgxpool.Pool) Binder {
	return func(ctx context.Context, schema string) (Session, error) {
		return pg.NewScope(ctx, pool, schema)
	}
}
