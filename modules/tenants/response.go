package tenants

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrymomot/pgtenants/pkg/registry"
	"github.com/dmitrymomot/pgtenants/pkg/schema"
)

// response is the standard JSON envelope for admin endpoints.
type response struct {
	Data  any          `json:"data,omitempty"`
	Error *errorDetail `json:"error,omitempty"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(response{Data: data})
}

// writeError maps the registry and schema error taxonomy onto HTTP statuses:
// missing resources 404, conflicts 409, invalid input 422, provisioning
// failures 500.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := "internal_error"

	switch {
	case errors.Is(err, registry.ErrTenantNotFound):
		status, code = http.StatusNotFound, "tenant_not_found"
	case errors.Is(err, registry.ErrDomainNotFound):
		status, code = http.StatusNotFound, "domain_not_found"
	case errors.Is(err, registry.ErrTenantExists):
		status, code = http.StatusConflict, "tenant_exists"
	case errors.Is(err, registry.ErrDomainExists):
		status, code = http.StatusConflict, "domain_exists"
	case errors.Is(err, registry.ErrPrimaryDomain):
		status, code = http.StatusConflict, "primary_domain"
	case errors.Is(err, schema.ErrSchemaExists):
		status, code = http.StatusConflict, "schema_exists"
	case errors.Is(err, schema.ErrInvalidSchemaName):
		status, code = http.StatusUnprocessableEntity, "invalid_tenant_name"
	case errors.Is(err, registry.ErrInvalidDomainName):
		status, code = http.StatusUnprocessableEntity, "invalid_domain_name"
	case errors.Is(err, schema.ErrSchemaCreation),
		errors.Is(err, schema.ErrTableCreation),
		errors.Is(err, schema.ErrSchemaRename),
		errors.Is(err, schema.ErrSchemaDrop):
		status, code = http.StatusInternalServerError, "schema_operation_failed"
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(response{Error: &errorDetail{Code: code, Message: err.Error()}})
}
