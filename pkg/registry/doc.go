// Package registry owns the tenant and domain catalog in the public schema.
//
// Every mutating operation pairs its catalog-row change with the matching
// schema-level change in a single transaction: creating a tenant provisions
// its schema, renaming one renames the schema, deleting one drops it. A row
// without a schema, or a schema without a row, cannot be produced by any
// path through this package.
//
// The registry also backs request resolution: GetByHost satisfies
// tenant.Lookup, and WithInvalidator evicts cached resolutions whenever a
// mutation would make them stale.
//
//	mgr := schema.NewManager(pool)
//	reg := registry.New(pool, mgr, registry.WithInvalidator(cache))
//
//	t, err := reg.Create(ctx, "acme", "acme.example.com")
package registry
