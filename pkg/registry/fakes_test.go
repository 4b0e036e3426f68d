package registry_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/pgtenants/pkg/registry"
	"github.com/dmitrymomot/pgtenants/pkg/schema"
)

// The fakes below simulate the tenants and domains catalog tables in memory,
// including unique-key violations and the FK cascade from tenants.name to
// domains.tenant_name, so registry tests can exercise full operation flows
// without a database. All catalog access goes through the mutex so tests can
// race concurrent registry operations against the same fixture.

type tenantRow struct {
	id          uuid.UUID
	name        string
	deactivated bool
	createdAt   time.Time
	updatedAt   time.Time
}

type domainRow struct {
	id         uuid.UUID
	tenantName string
	domainName string
	isPrimary  bool
}

type catalog struct {
	mu      sync.Mutex
	tenants map[string]*tenantRow
	domains map[string]*domainRow
	ops     []string // interleaved op log for ordering assertions
}

func newCatalog() *catalog {
	return &catalog{
		tenants: make(map[string]*tenantRow),
		domains: make(map[string]*domainRow),
	}
}

func (c *catalog) addTenant(name string, deactivated bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tenants[name] = &tenantRow{
		id:          uuid.New(),
		name:        name,
		deactivated: deactivated,
		createdAt:   time.Now(),
		updatedAt:   time.Now(),
	}
}

func (c *catalog) addDomain(tenantName, domainName string, isPrimary bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.domains[domainName] = &domainRow{
		id:         uuid.New(),
		tenantName: tenantName,
		domainName: domainName,
		isPrimary:  isPrimary,
	}
}

func duplicateKeyErr() error { return &pgconn.PgError{Code: "23505"} }
func foreignKeyErr() error   { return &pgconn.PgError{Code: "23503"} }

// fakeDB implements registry.DB. Begin hands out a fresh fakeTx over the
// shared catalog; reads outside transactions hit the catalog directly.
type fakeDB struct {
	cat      *catalog
	beginErr error

	mu     sync.Mutex
	lastTx *fakeTx
}

func (db *fakeDB) Begin(ctx context.Context) (pgx.Tx, error) {
	if db.beginErr != nil {
		return nil, db.beginErr
	}
	tx := &fakeTx{cat: db.cat}
	db.mu.Lock()
	db.lastTx = tx
	db.mu.Unlock()
	return tx, nil
}

func (db *fakeDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return (&fakeTx{cat: db.cat}).Query(ctx, sql, args...)
}

func (db *fakeDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return (&fakeTx{cat: db.cat}).QueryRow(ctx, sql, args...)
}

func (db *fakeDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return (&fakeTx{cat: db.cat}).Exec(ctx, sql, args...)
}

type fakeTx struct {
	cat        *catalog
	committed  bool
	rolledBack bool
}

func (f *fakeTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	cat := f.cat
	cat.mu.Lock()
	defer cat.mu.Unlock()
	switch {
	case strings.Contains(sql, "INSERT INTO public.domains"):
		var d domainRow
		d.id = args[0].(uuid.UUID)
		d.tenantName = args[1].(string)
		d.domainName = args[2].(string)
		if len(args) > 3 {
			d.isPrimary = args[3].(bool)
		} else {
			d.isPrimary = true
		}
		if _, dup := cat.domains[d.domainName]; dup {
			return pgconn.CommandTag{}, duplicateKeyErr()
		}
		if _, ok := cat.tenants[d.tenantName]; !ok {
			return pgconn.CommandTag{}, foreignKeyErr()
		}
		cat.domains[d.domainName] = &d
		cat.ops = append(cat.ops, "insert domain")
		return pgconn.NewCommandTag("INSERT 0 1"), nil

	case strings.Contains(sql, "UPDATE public.domains SET is_primary = FALSE"):
		tenantName := args[0].(string)
		n := 0
		for _, d := range cat.domains {
			if d.tenantName != tenantName || !d.isPrimary {
				continue
			}
			if len(args) > 1 && d.domainName == args[1].(string) {
				continue
			}
			d.isPrimary = false
			n++
		}
		return pgconn.NewCommandTag(fmt.Sprintf("UPDATE %d", n)), nil

	case strings.Contains(sql, "UPDATE public.domains SET is_primary = TRUE"):
		tenantName, domainName := args[0].(string), args[1].(string)
		d, ok := cat.domains[domainName]
		if !ok || d.tenantName != tenantName {
			return pgconn.NewCommandTag("UPDATE 0"), nil
		}
		d.isPrimary = true
		return pgconn.NewCommandTag("UPDATE 1"), nil

	case strings.Contains(sql, "UPDATE public.tenants SET deactivated"):
		t, ok := cat.tenants[args[0].(string)]
		if !ok {
			return pgconn.NewCommandTag("UPDATE 0"), nil
		}
		t.deactivated = args[1].(bool)
		t.updatedAt = time.Now()
		return pgconn.NewCommandTag("UPDATE 1"), nil

	case strings.Contains(sql, "DELETE FROM public.tenants"):
		name := args[0].(string)
		if _, ok := cat.tenants[name]; !ok {
			return pgconn.NewCommandTag("DELETE 0"), nil
		}
		delete(cat.tenants, name)
		for domainName, d := range cat.domains {
			if d.tenantName == name {
				delete(cat.domains, domainName)
			}
		}
		cat.ops = append(cat.ops, "delete tenant")
		return pgconn.NewCommandTag("DELETE 1"), nil

	case strings.Contains(sql, "DELETE FROM public.domains"):
		name := args[0].(string)
		if _, ok := cat.domains[name]; !ok {
			return pgconn.NewCommandTag("DELETE 0"), nil
		}
		delete(cat.domains, name)
		return pgconn.NewCommandTag("DELETE 1"), nil
	}
	return pgconn.CommandTag{}, errors.New("unexpected Exec: " + sql)
}

func (f *fakeTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	cat := f.cat
	switch {
	case strings.Contains(sql, "INSERT INTO public.tenants"):
		return fakeRow{scan: func(dest ...any) error {
			cat.mu.Lock()
			defer cat.mu.Unlock()
			id, name := args[0].(uuid.UUID), args[1].(string)
			if _, dup := cat.tenants[name]; dup {
				return duplicateKeyErr()
			}
			row := &tenantRow{id: id, name: name, createdAt: time.Now(), updatedAt: time.Now()}
			cat.tenants[name] = row
			cat.ops = append(cat.ops, "insert tenant")
			*dest[0].(*time.Time) = row.createdAt
			*dest[1].(*time.Time) = row.updatedAt
			return nil
		}}

	case strings.Contains(sql, "UPDATE public.tenants SET name"):
		return fakeRow{scan: func(dest ...any) error {
			cat.mu.Lock()
			defer cat.mu.Unlock()
			oldName, newName := args[0].(string), args[1].(string)
			t, ok := cat.tenants[oldName]
			if !ok {
				return pgx.ErrNoRows
			}
			if _, taken := cat.tenants[newName]; taken {
				return duplicateKeyErr()
			}
			delete(cat.tenants, oldName)
			t.name = newName
			t.updatedAt = time.Now()
			cat.tenants[newName] = t
			// ON UPDATE CASCADE on domains.tenant_name.
			for _, d := range cat.domains {
				if d.tenantName == oldName {
					d.tenantName = newName
				}
			}
			cat.ops = append(cat.ops, "rename tenant")
			return scanTenantRow(t, dest)
		}}

	case strings.Contains(sql, "FROM public.tenants WHERE id"):
		return fakeRow{scan: func(dest ...any) error {
			cat.mu.Lock()
			defer cat.mu.Unlock()
			id := args[0].(uuid.UUID)
			for _, t := range cat.tenants {
				if t.id == id {
					return scanTenantRow(t, dest)
				}
			}
			return pgx.ErrNoRows
		}}

	case strings.Contains(sql, "FROM public.tenants WHERE name"):
		return fakeRow{scan: func(dest ...any) error {
			cat.mu.Lock()
			defer cat.mu.Unlock()
			t, ok := cat.tenants[args[0].(string)]
			if !ok {
				return pgx.ErrNoRows
			}
			return scanTenantRow(t, dest)
		}}

	case strings.Contains(sql, "SELECT is_primary FROM public.domains"):
		return fakeRow{scan: func(dest ...any) error {
			cat.mu.Lock()
			defer cat.mu.Unlock()
			d, ok := cat.domains[args[0].(string)]
			if !ok {
				return pgx.ErrNoRows
			}
			*dest[0].(*bool) = d.isPrimary
			return nil
		}}

	case strings.Contains(sql, "FROM public.domains WHERE domain_name"):
		return fakeRow{scan: func(dest ...any) error {
			cat.mu.Lock()
			defer cat.mu.Unlock()
			d, ok := cat.domains[args[0].(string)]
			if !ok {
				return pgx.ErrNoRows
			}
			*dest[0].(*uuid.UUID) = d.id
			*dest[1].(*string) = d.tenantName
			*dest[2].(*string) = d.domainName
			*dest[3].(*bool) = d.isPrimary
			return nil
		}}
	}
	return fakeRow{scan: func(...any) error { return errors.New("unexpected QueryRow: " + sql) }}
}

func (f *fakeTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	cat := f.cat
	cat.mu.Lock()
	defer cat.mu.Unlock()
	switch {
	case strings.Contains(sql, "SELECT domain_name FROM public.domains"):
		var rows [][]any
		for _, d := range cat.domains {
			if d.tenantName == args[0].(string) {
				rows = append(rows, []any{d.domainName})
			}
		}
		return &fakeRows{rows: rows}, nil

	case strings.Contains(sql, "FROM public.domains WHERE tenant_name"):
		var rows [][]any
		for _, d := range cat.domains {
			if d.tenantName == args[0].(string) {
				rows = append(rows, []any{d.id, d.tenantName, d.domainName, d.isPrimary})
			}
		}
		return &fakeRows{rows: rows}, nil

	case strings.Contains(sql, "FROM public.tenants ORDER BY name"):
		var rows [][]any
		for _, t := range cat.tenants {
			rows = append(rows, []any{t.id, t.name, t.deactivated, t.createdAt, t.updatedAt})
		}
		return &fakeRows{rows: rows}, nil
	}
	return nil, errors.New("unexpected Query: " + sql)
}

func (f *fakeTx) Commit(ctx context.Context) error {
	f.committed = true
	return nil
}

func (f *fakeTx) Rollback(ctx context.Context) error {
	if !f.committed {
		f.rolledBack = true
	}
	return nil
}

func (f *fakeTx) Begin(ctx context.Context) (pgx.Tx, error) { panic("not implemented") }
func (f *fakeTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	panic("not implemented")
}
func (f *fakeTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { panic("not implemented") }
func (f *fakeTx) LargeObjects() pgx.LargeObjects                               { panic("not implemented") }
func (f *fakeTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	panic("not implemented")
}
func (f *fakeTx) Conn() *pgx.Conn { return nil }

func scanTenantRow(t *tenantRow, dest []any) error {
	*dest[0].(*uuid.UUID) = t.id
	*dest[1].(*string) = t.name
	*dest[2].(*bool) = t.deactivated
	*dest[3].(*time.Time) = t.createdAt
	*dest[4].(*time.Time) = t.updatedAt
	return nil
}

type fakeRow struct {
	scan func(dest ...any) error
}

func (r fakeRow) Scan(dest ...any) error { return r.scan(dest...) }

type fakeRows struct {
	rows [][]any
	pos  int
}

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.rows) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.rows[r.pos-1]
	for i, d := range dest {
		switch d := d.(type) {
		case *uuid.UUID:
			*d = row[i].(uuid.UUID)
		case *string:
			*d = row[i].(string)
		case *bool:
			*d = row[i].(bool)
		case *time.Time:
			*d = row[i].(time.Time)
		default:
			return fmt.Errorf("unsupported scan target %T", d)
		}
	}
	return nil
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) Values() ([]any, error)                       { return nil, nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

// fakeSchemas implements registry.SchemaManager and records DDL calls in the
// shared op log so tests can assert ordering relative to catalog writes. Like
// the real manager behind the advisory lock, a second create for a name it
// already provisioned fails with the schema-exists taxonomy.
type fakeSchemas struct {
	cat       *catalog
	createErr error
	renameErr error
	dropErr   error

	mu       sync.Mutex
	existing map[string]bool
	created  []string
	renamed  [][2]string
	dropped  []string
}

func (s *fakeSchemas) CreateInTx(ctx context.Context, tx pgx.Tx, name string) error {
	if s.createErr != nil {
		return s.createErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.existing[name] {
		return fmt.Errorf("%w: %w: %q", schema.ErrSchemaCreation, schema.ErrSchemaExists, name)
	}
	if s.existing == nil {
		s.existing = make(map[string]bool)
	}
	s.existing[name] = true
	s.created = append(s.created, name)

	s.cat.mu.Lock()
	s.cat.ops = append(s.cat.ops, "create schema")
	s.cat.mu.Unlock()
	return nil
}

func (s *fakeSchemas) RenameInTx(ctx context.Context, tx pgx.Tx, oldName, newName string) error {
	if s.renameErr != nil {
		return s.renameErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.renamed = append(s.renamed, [2]string{oldName, newName})

	s.cat.mu.Lock()
	s.cat.ops = append(s.cat.ops, "rename schema")
	s.cat.mu.Unlock()
	return nil
}

func (s *fakeSchemas) DropInTx(ctx context.Context, tx pgx.Tx, name string) error {
	if s.dropErr != nil {
		return s.dropErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropped = append(s.dropped, name)

	s.cat.mu.Lock()
	s.cat.ops = append(s.cat.ops, "drop schema")
	s.cat.mu.Unlock()
	return nil
}

type fakeInvalidator struct {
	mu   sync.Mutex
	keys []string
}

func (i *fakeInvalidator) Delete(ctx context.Context, key string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.keys = append(i.keys, key)
}

type fixture struct {
	cat *catalog
	db  *fakeDB
	sch *fakeSchemas
	inv *fakeInvalidator
	reg *registry.Registry
}

func newFixture() *fixture {
	cat := newCatalog()
	f := &fixture{
		cat: cat,
		db:  &fakeDB{cat: cat},
		sch: &fakeSchemas{cat: cat},
		inv: &fakeInvalidator{},
	}
	f.reg = registry.New(f.db, f.sch, registry.WithInvalidator(f.inv))
	return f
}
