package schema

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/pgtenants/pkg/pg"
)

// DefaultTemplateSchema holds the table definitions cloned into every new
// tenant schema. Migrations are applied to it once, never per tenant.
const DefaultTemplateSchema = "tenant_template"

// DB is the subset of *pgxpool.Pool the manager needs.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Manager creates, renames, and drops tenant schemas. Every operation runs in
// a single transaction and takes a transaction-level advisory lock keyed by
// schema name, so concurrent provisioning attempts for the same tenant are
// serialized instead of racing.
type Manager struct {
	db       DB
	template string
	log      *slog.Logger
}

// Option configures the manager.
type Option func(*Manager)

// WithTemplateSchema overrides the template schema name.
func WithTemplateSchema(name string) Option {
	return func(m *Manager) {
		if name != "" {
			m.template = name
		}
	}
}

// WithLogger sets a logger for schema lifecycle events.
func WithLogger(log *slog.Logger) Option {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}

// NewManager returns a Manager cloning from DefaultTemplateSchema unless
// overridden.
func NewManager(db DB, opts ...Option) *Manager {
	m := &Manager{
		db:       db,
		template: DefaultTemplateSchema,
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// TemplateSchema returns the schema tables are cloned from.
func (m *Manager) TemplateSchema() string {
	return m.template
}

// Create provisions a new tenant schema in its own transaction.
func (m *Manager) Create(ctx context.Context, name string) error {
	return m.inTx(ctx, func(tx pgx.Tx) error {
		return m.CreateInTx(ctx, tx, name)
	})
}

// CreateInTx provisions a new tenant schema inside the caller's transaction,
// so catalog rows and schema DDL commit or roll back together.
//
// The schema receives a structural clone of every template table, including
// indexes, constraints, and defaults, but no rows. On any failure the
// transaction must be rolled back by the caller, which removes the
// half-created schema; no orphan survives.
func (m *Manager) CreateInTx(ctx context.Context, tx pgx.Tx, name string) error {
	if err := m.validateTarget(name); err != nil {
		return errors.Join(ErrSchemaCreation, err)
	}

	if err := lockSchema(ctx, tx, name); err != nil {
		return errors.Join(ErrSchemaCreation, err)
	}

	exists, err := existsInTx(ctx, tx, name)
	if err != nil {
		return errors.Join(ErrSchemaCreation, err)
	}
	if exists {
		return fmt.Errorf("%w: %w: %q", ErrSchemaCreation, ErrSchemaExists, name)
	}

	if _, err := tx.Exec(ctx, "CREATE SCHEMA "+pg.QuoteIdentifier(name)); err != nil {
		if pg.IsDuplicateSchemaError(err) {
			return fmt.Errorf("%w: %w: %q", ErrSchemaCreation, ErrSchemaExists, name)
		}
		return errors.Join(ErrSchemaCreation, err)
	}

	tables, err := tablesInTx(ctx, tx, m.template)
	if err != nil {
		return errors.Join(ErrTableCreation, err)
	}

	for _, table := range tables {
		stmt := fmt.Sprintf("CREATE TABLE %s.%s (LIKE %s.%s INCLUDING ALL)",
			pg.QuoteIdentifier(name), pg.QuoteIdentifier(table),
			pg.QuoteIdentifier(m.template), pg.QuoteIdentifier(table))
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("%w: table %q: %w", ErrTableCreation, table, err)
		}
	}

	m.log.InfoContext(ctx, "tenant schema created", "schema", name, "tables", len(tables))
	return nil
}

// Rename atomically renames a tenant schema in its own transaction.
func (m *Manager) Rename(ctx context.Context, oldName, newName string) error {
	return m.inTx(ctx, func(tx pgx.Tx) error {
		return m.RenameInTx(ctx, tx, oldName, newName)
	})
}

// RenameInTx renames a schema inside the caller's transaction. Contents are
// untouched by ALTER SCHEMA RENAME, so no data is copied or lost.
func (m *Manager) RenameInTx(ctx context.Context, tx pgx.Tx, oldName, newName string) error {
	if err := ValidateName(oldName); err != nil {
		return errors.Join(ErrSchemaRename, err)
	}
	if err := m.validateTarget(newName); err != nil {
		return errors.Join(ErrSchemaRename, err)
	}
	if oldName == newName {
		return fmt.Errorf("%w: old and new names are equal: %q", ErrSchemaRename, oldName)
	}

	// Lock both names in deterministic order to avoid deadlocking against a
	// concurrent rename in the opposite direction.
	first, second := oldName, newName
	if second < first {
		first, second = second, first
	}
	if err := lockSchema(ctx, tx, first); err != nil {
		return errors.Join(ErrSchemaRename, err)
	}
	if err := lockSchema(ctx, tx, second); err != nil {
		return errors.Join(ErrSchemaRename, err)
	}

	exists, err := existsInTx(ctx, tx, oldName)
	if err != nil {
		return errors.Join(ErrSchemaRename, err)
	}
	if !exists {
		return fmt.Errorf("%w: %w: %q", ErrSchemaRename, ErrSchemaNotFound, oldName)
	}

	exists, err = existsInTx(ctx, tx, newName)
	if err != nil {
		return errors.Join(ErrSchemaRename, err)
	}
	if exists {
		return fmt.Errorf("%w: %w: %q", ErrSchemaRename, ErrSchemaExists, newName)
	}

	stmt := fmt.Sprintf("ALTER SCHEMA %s RENAME TO %s", pg.QuoteIdentifier(oldName), pg.QuoteIdentifier(newName))
	if _, err := tx.Exec(ctx, stmt); err != nil {
		if pg.IsUndefinedSchemaError(err) {
			return fmt.Errorf("%w: %w: %q", ErrSchemaRename, ErrSchemaNotFound, oldName)
		}
		return errors.Join(ErrSchemaRename, err)
	}

	m.log.InfoContext(ctx, "tenant schema renamed", "from", oldName, "to", newName)
	return nil
}

// Drop removes a tenant schema and everything in it, in its own transaction.
func (m *Manager) Drop(ctx context.Context, name string) error {
	return m.inTx(ctx, func(tx pgx.Tx) error {
		return m.DropInTx(ctx, tx, name)
	})
}

// DropInTx drops a schema inside the caller's transaction.
func (m *Manager) DropInTx(ctx context.Context, tx pgx.Tx, name string) error {
	if err := m.validateTarget(name); err != nil {
		return errors.Join(ErrSchemaDrop, err)
	}

	if err := lockSchema(ctx, tx, name); err != nil {
		return errors.Join(ErrSchemaDrop, err)
	}

	exists, err := existsInTx(ctx, tx, name)
	if err != nil {
		return errors.Join(ErrSchemaDrop, err)
	}
	if !exists {
		return fmt.Errorf("%w: %w: %q", ErrSchemaDrop, ErrSchemaNotFound, name)
	}

	if _, err := tx.Exec(ctx, "DROP SCHEMA "+pg.QuoteIdentifier(name)+" CASCADE"); err != nil {
		if pg.IsUndefinedSchemaError(err) {
			return fmt.Errorf("%w: %w: %q", ErrSchemaDrop, ErrSchemaNotFound, name)
		}
		return errors.Join(ErrSchemaDrop, err)
	}

	m.log.InfoContext(ctx, "tenant schema dropped", "schema", name)
	return nil
}

// Exists reports whether a schema with the given name exists.
func (m *Manager) Exists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := m.inTx(ctx, func(tx pgx.Tx) error {
		var err error
		exists, err = existsInTx(ctx, tx, name)
		return err
	})
	return exists, err
}

// Tables lists the base tables of a schema in name order. Useful for
// verifying that a tenant schema structurally matches the template.
func (m *Manager) Tables(ctx context.Context, name string) ([]string, error) {
	var tables []string
	err := m.inTx(ctx, func(tx pgx.Tx) error {
		var err error
		tables, err = tablesInTx(ctx, tx, name)
		return err
	})
	return tables, err
}

// validateTarget extends ValidateName with the manager's template schema,
// which must never be created, renamed over, or dropped.
func (m *Manager) validateTarget(name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if name == m.template {
		return fmt.Errorf("%w: %q is the template schema", ErrInvalidSchemaName, name)
	}
	return nil
}

func (m *Manager) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := m.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// lockSchema takes a transaction-level advisory lock keyed by schema name.
// Released automatically at commit or rollback.
func lockSchema(ctx context.Context, tx pgx.Tx, name string) error {
	_, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", name)
	return err
}

func existsInTx(ctx context.Context, tx pgx.Tx, name string) (bool, error) {
	var exists bool
	err := tx.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM information_schema.schemata WHERE schema_name = $1)", name,
	).Scan(&exists)
	return exists, err
}

func tablesInTx(ctx context.Context, tx pgx.Tx, schemaName string) ([]string, error) {
	rows, err := tx.Query(ctx,
		"SELECT table_name FROM information_schema.tables WHERE table_schema = $1 AND table_type = 'BASE TABLE' ORDER BY table_name",
		schemaName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}
