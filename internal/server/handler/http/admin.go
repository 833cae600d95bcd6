package http

import (
	"context"
	"net/http"

	"github.com/atinyakov/loancalc/internal/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// AdminCatalogService manages calculator configurations.
type AdminCatalogService interface {
	ListAll(ctx context.Context) ([]models.Calculator, error)
	Create(ctx context.Context, in models.CalculatorInput) (*models.Calculator, error)
	Update(ctx context.Context, id string, patch models.CalculatorPatch) (*models.Calculator, error)
	Delete(ctx context.Context, id string) error
}

// AdminHandler serves /api/admin. Routes are mounted behind TokenAuth and
// RequireAdmin.
type AdminHandler struct {
	Catalog AdminCatalogService
	Logger  *zap.Logger
}

// List handles GET /api/admin/calculators, inactive configurations included.
func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.Catalog.ListAll(r.Context())
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Create handles POST /api/admin/calculators.
func (h *AdminHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in models.CalculatorInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, h.Logger, err)
		return
	}

	c, err := h.Catalog.Create(r.Context(), in)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// Update handles PUT /api/admin/calculators/{id}. Only supplied fields change.
func (h *AdminHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch models.CalculatorPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, h.Logger, err)
		return
	}

	c, err := h.Catalog.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// Delete handles DELETE /api/admin/calculators/{id}.
func (h *AdminHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Catalog.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeMsg(w, http.StatusOK, "Calculator removed")
}
