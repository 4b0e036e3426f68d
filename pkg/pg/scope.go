package pg

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultSchema is the search path every pooled connection must be reset to
// before it is reused by another request.
const DefaultSchema = "public"

// resetTimeout bounds the search-path reset on scope close. The reset runs on
// a background context because the request context may already be canceled.
const resetTimeout = 5 * time.Second

// Scope is a pooled connection bound to a single tenant schema for the
// duration of one request. Every query issued through the scoped connection
// resolves unqualified table names against the tenant schema first, with
// public as fallback for shared catalog lookups.
//
// Close MUST be called on every exit path. A connection returned to the pool
// with a tenant search path still set would silently serve the next,
// differently-scoped request from the wrong schema.
type Scope struct {
	conn   *pgxpool.Conn
	schema string
}

// NewScope acquires a connection from the pool and sets its search path to
// the given schema (with public as fallback). Passing an empty name or
// DefaultSchema yields a public-scoped connection.
func NewScope(ctx context.Context, pool *pgxpool.Pool, schema string) (*Scope, error) {
	if schema == "" {
		schema = DefaultSchema
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, errors.Join(ErrFailedToAcquireConn, err)
	}

	searchPath := DefaultSchema
	if schema != DefaultSchema {
		searchPath = QuoteIdentifier(schema) + ", " + DefaultSchema
	}

	// set_config with is_local=false scopes the setting to the session; the
	// scope resets it on Close before the connection goes back to the pool.
	if _, err := conn.Exec(ctx, "SELECT set_config('search_path', $1, false)", searchPath); err != nil {
		conn.Release()
		return nil, errors.Join(ErrFailedToScopeConn, err)
	}

	return &Scope{conn: conn, schema: schema}, nil
}

// Conn returns the schema-bound connection. Downstream repositories must use
// it for every tenant-scoped query.
func (s *Scope) Conn() *pgxpool.Conn {
	return s.conn
}

// Schema returns the schema the connection is bound to.
func (s *Scope) Schema() string {
	return s.schema
}

// Close resets the search path to public and releases the connection back to
// the pool. If the reset fails, the connection is destroyed instead of
// released so the pool can never hand out a tenant-scoped connection.
// Close is idempotent.
func (s *Scope) Close() {
	if s.conn == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), resetTimeout)
	defer cancel()

	if _, err := s.conn.Exec(ctx, "SET search_path TO "+DefaultSchema); err != nil {
		// The connection state is unknown, take it out of the pool entirely.
		_ = s.conn.Hijack().Close(ctx)
		s.conn = nil
		return
	}

	s.conn.Release()
	s.conn = nil
}

// QuoteIdentifier escapes a schema or table name for interpolation into DDL
// statements, which cannot take bind parameters for identifiers.
func QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
