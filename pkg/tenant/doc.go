// Package tenant resolves inbound HTTP requests to tenants and scopes the
// request's database session to the tenant's schema.
//
// Resolution walks the host header: the leftmost label decides whether the
// host is a tenant candidate at all (www, localhost, and local never are),
// and the full lowercased host is matched exactly against the domain catalog.
// Hosts without a mapping run in the public context; deactivated tenants and
// dangling domain rows short-circuit the request with typed errors before any
// tenant-scoped query executes.
//
// # Usage
//
//	resolver := tenant.NewResolver(reg,
//		tenant.WithResolverCache(tenant.NewMemoryCache(), 5*time.Minute))
//
//	r := chi.NewRouter()
//	r.Use(tenant.Middleware(resolver, tenant.PoolBinder(pool)))
//
//	r.Get("/projects", func(w http.ResponseWriter, r *http.Request) {
//		sess, _ := tenant.SessionFromContext(r.Context())
//		rows, err := sess.Conn().Query(r.Context(), "SELECT id, name FROM projects")
//		// ...
//	})
//
// The middleware closes the session on every exit path, which restores the
// pooled connection's search path to public before reuse. That guarantee is
// the package's core contract: without it a reused connection would silently
// serve the next request from the previous tenant's schema.
package tenant
