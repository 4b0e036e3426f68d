package registry

import (
	"context"
	"io"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of *pgxpool.Pool the registry needs.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// SchemaManager runs schema DDL inside the registry's transactions so that a
// catalog-row change and its schema-level change commit or roll back as one
// unit. Satisfied by *schema.Manager.
type SchemaManager interface {
	CreateInTx(ctx context.Context, tx pgx.Tx, name string) error
	RenameInTx(ctx context.Context, tx pgx.Tx, oldName, newName string) error
	DropInTx(ctx context.Context, tx pgx.Tx, name string) error
}

// Invalidator evicts cached tenant resolutions. Renames, deactivations, and
// deletions call it for every domain of the affected tenant, because a stale
// cached mapping would route requests to a schema that no longer matches.
type Invalidator interface {
	Delete(ctx context.Context, key string)
}

// Registry performs catalog operations against the public-schema tenants and
// domains tables and cascades every mutation to the schema manager.
type Registry struct {
	db          DB
	schemas     SchemaManager
	invalidator Invalidator
	log         *slog.Logger
}

// Option configures the registry.
type Option func(*Registry)

// WithInvalidator wires a resolver cache for eviction on mutations.
func WithInvalidator(inv Invalidator) Option {
	return func(r *Registry) {
		if inv != nil {
			r.invalidator = inv
		}
	}
}

// WithLogger sets a logger for catalog mutations.
func WithLogger(log *slog.Logger) Option {
	return func(r *Registry) {
		if log != nil {
			r.log = log
		}
	}
}

// New returns a Registry backed by the given pool and schema manager.
func New(db DB, schemas SchemaManager, opts ...Option) *Registry {
	r := &Registry{
		db:      db,
		schemas: schemas,
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Registry) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// invalidate evicts the given cache keys after a committed mutation.
func (r *Registry) invalidate(ctx context.Context, keys []string) {
	if r.invalidator == nil {
		return
	}
	for _, key := range keys {
		r.invalidator.Delete(ctx, key)
	}
}
