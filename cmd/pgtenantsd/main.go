// pgtenantsd is a reference server wiring the schema-per-tenant stack
// together: catalog migrations, tenant resolution by subdomain, per-request
// schema scoping, and the tenant administration API.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/pgtenants/modules/tenants"
	"github.com/dmitrymomot/pgtenants/pkg/config"
	"github.com/dmitrymomot/pgtenants/pkg/httpserver"
	"github.com/dmitrymomot/pgtenants/pkg/logger"
	"github.com/dmitrymomot/pgtenants/pkg/pg"
	"github.com/dmitrymomot/pgtenants/pkg/redis"
	"github.com/dmitrymomot/pgtenants/pkg/registry"
	"github.com/dmitrymomot/pgtenants/pkg/schema"
	"github.com/dmitrymomot/pgtenants/pkg/tenant"
)

type appConfig struct {
	HTTP         httpserver.Config
	PG           pg.Config
	Redis        redis.Config
	Admin        tenants.Config
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`
	UseRedis     bool   `env:"TENANT_CACHE_REDIS" envDefault:"false"`
	TenantHeader string `env:"TENANT_HEADER" envDefault:"X-Tenant"`
}

func main() {
	if err := run(); err != nil {
		slog.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	var cfg appConfig
	if err := config.Load(&cfg); err != nil {
		return err
	}

	level := slog.LevelInfo
	if cfg.LogLevel == "debug" {
		level = slog.LevelDebug
	}
	log := logger.New(
		logger.WithLevel(level),
		logger.WithAttr(slog.String("service", "pgtenantsd")),
		logger.WithContextExtractors(tenant.LoggerExtractor()),
	)
	slog.SetDefault(log)

	pool, err := pg.Connect(ctx, cfg.PG)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, cfg.PG, log); err != nil {
		return err
	}

	var cache tenant.Cache = tenant.NewMemoryCache()
	healthchecks := []func(context.Context) error{pg.Healthcheck(pool)}
	if cfg.UseRedis {
		client, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		cache = tenant.NewRedisCache(client, "")
		healthchecks = append(healthchecks, redis.Healthcheck(client))
	}
	defer func() { _ = cache.Close() }()

	mgr := schema.NewManager(pool, schema.WithLogger(log))
	reg := registry.New(pool, mgr,
		registry.WithInvalidator(cache),
		registry.WithLogger(log),
	)
	resolver := tenant.NewResolver(reg,
		tenant.WithResolverCache(cache, 5*time.Minute),
		tenant.WithHeaderOverride(cfg.TenantHeader, reg),
	)

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Get("/healthz", httpserver.HealthCheckHandler(log))
	r.Get("/readyz", httpserver.HealthCheckHandler(log, healthchecks...))

	r.Mount(cfg.Admin.AdminPrefix, tenants.NewService(reg, tenants.WithLogger(log)).Handle())

	r.Group(func(r chi.Router) {
		r.Use(tenant.Middleware(resolver, tenant.PoolBinder(pool),
			tenant.WithMiddlewareLogger(log),
			tenant.WithSkipPaths("/healthz", "/readyz", cfg.Admin.AdminPrefix),
		))

		r.Get("/whoami", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			_, _ = w.Write([]byte(tenant.SchemaFromContext(r.Context())))
		})
	})

	return httpserver.New(cfg.HTTP, log).Run(ctx, r)
}
