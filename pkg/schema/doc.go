// Package schema manages the lifecycle of per-tenant PostgreSQL schemas.
//
// Each tenant gets an isolated schema named after the tenant, containing a
// structural clone of the template schema's tables (indexes and constraints
// included, no rows). The manager exposes create, rename, and drop
// operations, each of which runs in a single transaction and serializes on a
// transaction-level advisory lock keyed by schema name, so concurrent
// provisioning of the same tenant cannot produce duplicates or partial state.
//
// The *InTx variants let callers (the tenant registry) run schema DDL and
// catalog-row changes in one transaction: either both commit or neither does.
//
//	mgr := schema.NewManager(pool, schema.WithLogger(log))
//	if err := mgr.Create(ctx, "acme"); err != nil {
//		// schema.ErrSchemaExists, schema.ErrTableCreation, ...
//	}
package schema
