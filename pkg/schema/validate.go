package schema

import (
	"fmt"
	"regexp"
	"strings"
)

// MaxSchemaNameLength mirrors the PostgreSQL identifier limit.
const MaxSchemaNameLength = 63

// namePattern keeps tenant schema names unquoted-identifier safe and DNS
// compatible, since the same value doubles as the tenant's subdomain label.
var namePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// reservedSchemas can never be created, renamed, or dropped through the
// manager. pg_* and information_schema are checked separately.
var reservedSchemas = map[string]struct{}{
	"public":             {},
	"information_schema": {},
}

// ValidateName reports whether name is usable as a tenant schema name.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidSchemaName)
	}
	if len(name) > MaxSchemaNameLength {
		return fmt.Errorf("%w: %q exceeds %d characters", ErrInvalidSchemaName, name, MaxSchemaNameLength)
	}
	if !namePattern.MatchString(name) {
		return fmt.Errorf("%w: %q must start with a letter and contain only lowercase letters, digits, and underscores", ErrInvalidSchemaName, name)
	}
	if _, reserved := reservedSchemas[name]; reserved {
		return fmt.Errorf("%w: %q is reserved", ErrInvalidSchemaName, name)
	}
	if strings.HasPrefix(name, "pg_") {
		return fmt.Errorf("%w: %q uses the reserved pg_ prefix", ErrInvalidSchemaName, name)
	}
	return nil
}
