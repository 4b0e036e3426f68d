package tenant

import (
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// Middleware resolves the request host to a tenant and binds the request's
// database session to that tenant's schema. The session is closed, and its
// search path restored to public, on every exit path including handler
// panics; that restoration is what keeps pooled connections from leaking one
// tenant's scope into the next request.
//
// Resolution failures short-circuit the request before any tenant-scoped
// query can execute: unknown tenants get 404, deactivated tenants 403.
// Unmapped hosts are not failures; they run against the public schema.
func Middleware(resolver *Resolver, binder Binder, opts ...Option) func(http.Handler) http.Handler {
	cfg := &config{
		errorHandler: defaultErrorHandler,
		log:          slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, skip := range cfg.skipPaths {
				if strings.HasPrefix(r.URL.Path, skip) {
					next.ServeHTTP(w, r)
					return
				}
			}

			lc := NewLifecycle()
			_ = lc.To(StateResolving)

			t, err := resolver.ResolveRequest(r.Context(), r)
			if err != nil {
				_ = lc.To(StateFailed)
				cfg.log.DebugContext(r.Context(), "tenant resolution failed",
					"host", r.Host, "state", lc.Current().String(), "error", err)
				cfg.errorHandler(w, r, err)
				return
			}

			schemaName := "public"
			ctx := r.Context()
			if t != nil {
				schemaName = t.Schema()
				ctx = WithTenant(ctx, t)
			}

			session, err := binder(ctx, schemaName)
			if err != nil {
				_ = lc.To(StateFailed)
				cfg.log.ErrorContext(ctx, "failed to bind session to schema",
					"schema", schemaName, "state", lc.Current().String(), "error", err)
				cfg.errorHandler(w, r, err)
				return
			}

			// The deferred close runs even when the handler panics, so the
			// connection always returns to the pool with a public search path.
			defer func() {
				session.Close()
				if lc.Current() == StateScoped {
					_ = lc.To(StateCompleted)
				}
			}()

			_ = lc.To(StateScoped)
			ctx = WithSession(ctx, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireTenant guards routes that must run in a tenant context. Requests
// that resolved to the public context are rejected before the handler runs.
func RequireTenant(errorHandler ErrorHandler) func(http.Handler) http.Handler {
	if errorHandler == nil {
		errorHandler = defaultErrorHandler
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := FromContext(r.Context()); !ok {
				errorHandler(w, r, ErrNoTenantInContext)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
