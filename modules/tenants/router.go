package tenants

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/pgtenants/pkg/registry"
)

// Config holds the admin module settings.
type Config struct {
	// AdminPrefix is the URL prefix the tenant administration routes are
	// mounted under. Pick one that cannot collide with application routes.
	AdminPrefix string `env:"TENANT_ADMIN_PREFIX" envDefault:"/_tenants"`
}

// Catalog is the registry surface the admin endpoints drive. Satisfied by
// *registry.Registry.
type Catalog interface {
	Create(ctx context.Context, name, domainName string) (*registry.Tenant, error)
	List(ctx context.Context) ([]registry.Tenant, error)
	GetByName(ctx context.Context, name string) (*registry.Tenant, error)
	Rename(ctx context.Context, oldName, newName string) (*registry.Tenant, error)
	Delete(ctx context.Context, name string) error
	Deactivate(ctx context.Context, name string) error
	Activate(ctx context.Context, name string) error
	Domains(ctx context.Context, tenantName string) ([]registry.Domain, error)
	AddDomain(ctx context.Context, tenantName, domainName string, isPrimary bool) (*registry.Domain, error)
	RemoveDomain(ctx context.Context, domainName string) error
	SetPrimaryDomain(ctx context.Context, tenantName, domainName string) error
}

// Service exposes tenant administration over HTTP: catalog CRUD with the
// schema lifecycle cascading through the registry.
type Service struct {
	reg Catalog
	log *slog.Logger
}

// Option configures the service.
type Option func(*Service)

// WithLogger sets a logger for admin operations.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// NewService returns the admin service backed by the given registry.
func NewService(reg Catalog, opts ...Option) *Service {
	s := &Service{
		reg: reg,
		log: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handle returns the admin router. Mount it under Config.AdminPrefix:
//
//	r := chi.NewRouter()
//	r.Mount(cfg.AdminPrefix, tenants.NewService(reg).Handle())
func (s *Service) Handle() http.Handler {
	r := chi.NewRouter()

	r.Post("/", s.createTenant)
	r.Get("/", s.listTenants)

	r.Route("/{name}", func(r chi.Router) {
		r.Get("/", s.getTenant)
		r.Patch("/", s.renameTenant)
		r.Delete("/", s.deleteTenant)
		r.Post("/deactivate", s.deactivateTenant)
		r.Post("/activate", s.activateTenant)

		r.Post("/domains", s.addDomain)
		r.Put("/domains/{domain}/primary", s.setPrimaryDomain)
	})

	r.Delete("/domains/{domain}", s.removeDomain)

	return r
}
