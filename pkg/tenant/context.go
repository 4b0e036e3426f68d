package tenant

import (
	"context"
	"log/slog"
)

// tenantKey and sessionKey are private types to prevent collisions with
// other context keys.
type (
	tenantKey  struct{}
	sessionKey struct{}
)

// WithTenant adds a tenant to the context.
func WithTenant(ctx context.Context, t *Tenant) context.Context {
	return context.WithValue(ctx, tenantKey{}, t)
}

// FromContext retrieves the tenant from the context. The second result is
// false for requests that resolved to the public context.
func FromContext(ctx context.Context) (*Tenant, bool) {
	t, ok := ctx.Value(tenantKey{}).(*Tenant)
	return t, ok && t != nil
}

// MustFromContext retrieves the tenant from the context and panics if none is
// present. Use only behind RequireTenant.
func MustFromContext(ctx context.Context) *Tenant {
	t, ok := FromContext(ctx)
	if !ok {
		panic("tenant: no tenant in context")
	}
	return t
}

// WithSession adds the scoped database session to the context.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFromContext retrieves the scoped database session set by the
// middleware. Downstream CRUD code must use it for every tenant-scoped query.
func SessionFromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(Session)
	return s, ok && s != nil
}

// SchemaFromContext returns the schema name the request is scoped to, or the
// public default when the request carries no tenant session.
func SchemaFromContext(ctx context.Context) string {
	if s, ok := SessionFromContext(ctx); ok {
		return s.Schema()
	}
	return "public"
}

// LoggerExtractor enriches log records with the resolved tenant name.
// Plug into logger.WithContextExtractors.
func LoggerExtractor() func(ctx context.Context) (slog.Attr, bool) {
	return func(ctx context.Context) (slog.Attr, bool) {
		if t, ok := FromContext(ctx); ok {
			return slog.String("tenant", t.Name), true
		}
		return slog.Attr{}, false
	}
}
