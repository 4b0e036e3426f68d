package schema

import "errors"

var (
	// ErrSchemaCreation is returned when a tenant schema cannot be created.
	ErrSchemaCreation = errors.New("schema creation failed")

	// ErrTableCreation is returned when cloning the template tables into a
	// new schema fails. The partially created schema is rolled back.
	ErrTableCreation = errors.New("table creation failed")

	// ErrSchemaRename is returned when a schema cannot be renamed.
	ErrSchemaRename = errors.New("schema rename failed")

	// ErrSchemaDrop is returned when a schema cannot be dropped, for example
	// while sessions are still pinned to it.
	ErrSchemaDrop = errors.New("schema drop failed")

	// ErrSchemaExists is returned when the target schema name is taken.
	ErrSchemaExists = errors.New("schema already exists")

	// ErrSchemaNotFound is returned when the source schema does not exist.
	ErrSchemaNotFound = errors.New("schema not found")

	// ErrInvalidSchemaName is returned for names that are not valid tenant
	// schema identifiers or that shadow reserved schemas.
	ErrInvalidSchemaName = errors.New("invalid schema name")
)
