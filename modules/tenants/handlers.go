package tenants

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/pgtenants/pkg/registry"
)

type createTenantRequest struct {
	Name   string `json:"name"`
	Domain string `json:"domain"`
}

type renameTenantRequest struct {
	Name string `json:"name"`
}

type addDomainRequest struct {
	Domain    string `json:"domain"`
	IsPrimary bool   `json:"is_primary"`
}

type tenantResponse struct {
	*registry.Tenant
	Domains []registry.Domain `json:"domains,omitempty"`
}

func (s *Service) createTenant(w http.ResponseWriter, r *http.Request) {
	var req createTenantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	t, err := s.reg.Create(r.Context(), req.Name, req.Domain)
	if err != nil {
		s.log.ErrorContext(r.Context(), "tenant creation failed", "tenant", req.Name, "error", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, t)
}

func (s *Service) listTenants(w http.ResponseWriter, r *http.Request) {
	tenants, err := s.reg.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tenants)
}

func (s *Service) getTenant(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	t, err := s.reg.GetByName(r.Context(), name)
	if err != nil {
		writeError(w, err)
		return
	}

	domains, err := s.reg.Domains(r.Context(), name)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tenantResponse{Tenant: t, Domains: domains})
}

func (s *Service) renameTenant(w http.ResponseWriter, r *http.Request) {
	var req renameTenantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	oldName := chi.URLParam(r, "name")
	t, err := s.reg.Rename(r.Context(), oldName, req.Name)
	if err != nil {
		s.log.ErrorContext(r.Context(), "tenant rename failed", "from", oldName, "to", req.Name, "error", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, t)
}

func (s *Service) deleteTenant(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	if err := s.reg.Delete(r.Context(), name); err != nil {
		s.log.ErrorContext(r.Context(), "tenant deletion failed", "tenant", name, "error", err)
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) deactivateTenant(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	if err := s.reg.Deactivate(r.Context(), name); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) activateTenant(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	if err := s.reg.Activate(r.Context(), name); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) addDomain(w http.ResponseWriter, r *http.Request) {
	var req addDomainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	name := chi.URLParam(r, "name")
	d, err := s.reg.AddDomain(r.Context(), name, req.Domain, req.IsPrimary)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, d)
}

func (s *Service) removeDomain(w http.ResponseWriter, r *http.Request) {
	domain := chi.URLParam(r, "domain")

	if err := s.reg.RemoveDomain(r.Context(), domain); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) setPrimaryDomain(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	domain := chi.URLParam(r, "domain")

	if err := s.reg.SetPrimaryDomain(r.Context(), name, domain); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
