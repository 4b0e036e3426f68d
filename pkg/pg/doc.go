// Package pg provides the PostgreSQL plumbing for schema-per-tenant
// applications: pooled connectivity via pgx/v5, goose migrations for the
// public catalog and the template schema, SQLSTATE error classifiers, and the
// request-scoped Scope type that binds a pooled connection to one tenant
// schema and guarantees the search path is restored before the connection is
// reused.
//
// # Usage
//
//	var cfg pg.Config
//	config.MustLoad(&cfg)
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		panic(err)
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, cfg, slog.Default()); err != nil {
//		panic(err)
//	}
//
//	scope, err := pg.NewScope(ctx, pool, "acme")
//	if err != nil {
//		return err
//	}
//	defer scope.Close()
//
//	rows, err := scope.Conn().Query(ctx, "SELECT id FROM projects")
//
// Scope.Close resets the search path to public on every exit path. Skipping
// it leaks the tenant binding onto a pooled connection, which is the one
// failure mode this package exists to prevent.
package pg
