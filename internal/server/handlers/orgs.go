package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/msgward/msgward/internal/core"
	apperrors "github.com/msgward/msgward/internal/errors"
)

// OrgStore is the organization surface the HTTP API needs.
type OrgStore interface {
	GetOrganization(ctx context.Context, id string) (*core.Organization, error)
	UpsertOrganization(ctx context.Context, org core.Organization) error
	ListOrganizations(ctx context.Context) ([]core.Organization, error)
}

// OrgHandler serves tenant records.
type OrgHandler struct {
	Store OrgStore
}

// OrgRequestBody is the JSON body for PUT /v1/orgs/{id}.
type OrgRequestBody struct {
	Name string `json:"name"`
	Tier string `json:"tier"`
}

// List returns all organizations.
func (h *OrgHandler) List(w http.ResponseWriter, r *http.Request) {
	orgs, err := h.Store.ListOrganizations(r.Context())
	if err != nil {
		respondWithError(w, r, apperrors.WrapDatabaseError(r.Context(), err, "list organizations failed"))
		return
	}

	writeJSON(w, http.StatusOK, orgs)
}

// Get returns one organization by ID.
func (h *OrgHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	org, err := h.Store.GetOrganization(r.Context(), id)
	if err != nil {
		respondWithError(w, r, apperrors.WrapDatabaseError(r.Context(), err, "load organization failed"))
		return
	}
	if org == nil {
		respondWithError(w, r, apperrors.NewNotFoundError("organization not found"))
		return
	}

	writeJSON(w, http.StatusOK, org)
}

// Put creates or updates an organization.
func (h *OrgHandler) Put(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if strings.TrimSpace(id) == "" {
		respondWithError(w, r, apperrors.NewValidationError("organization id is required"))
		return
	}

	var body OrgRequestBody
	if err := decodeJSONBody(r, &body); err != nil {
		respondWithError(w, r, apperrors.WrapInvalidInput(r.Context(), err, "invalid request body"))
		return
	}

	org := core.Organization{
		ID:   id,
		Name: body.Name,
		Tier: core.Tier(body.Tier),
	}
	if err := h.Store.UpsertOrganization(r.Context(), org); err != nil {
		respondWithError(w, r, apperrors.WrapDatabaseError(r.Context(), err, "save organization failed"))
		return
	}

	stored, err := h.Store.GetOrganization(r.Context(), id)
	if err != nil || stored == nil {
		writeJSON(w, http.StatusOK, org)
		return
	}

	writeJSON(w, http.StatusOK, stored)
}
