package http

import (
	"context"
	"net/http"

	"github.com/atinyakov/loancalc/internal/formula"
	"github.com/atinyakov/loancalc/internal/models"
	"github.com/atinyakov/loancalc/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CatalogService lists and reads calculator configurations.
type CatalogService interface {
	List(ctx context.Context) ([]models.Calculator, error)
	Get(ctx context.Context, id string) (*models.Calculator, error)
}

// CalculationService runs the four calculators.
type CalculationService interface {
	Mortgage(ctx context.Context, in models.MortgageInput) (*formula.LoanResult, error)
	CarLoan(ctx context.Context, in models.CarLoanInput) (*formula.LoanResult, error)
	ConsumerLoan(ctx context.Context, in models.ConsumerLoanInput) (*formula.LoanResult, error)
	Pension(ctx context.Context, in models.PensionInput) (*service.PensionCalculation, error)
}

// NotificationService emails calculation results.
type NotificationService interface {
	SendResults(ctx context.Context, in models.EmailInput) error
}

// CalculatorHandler serves the public calculator endpoints and the results
// email endpoint.
type CalculatorHandler struct {
	Catalog      CatalogService
	Calculations CalculationService
	Notifier     NotificationService
	Logger       *zap.Logger
}

// List handles GET /api/calculators. Only active configurations are listed.
func (h *CalculatorHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.Catalog.List(r.Context())
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Get handles GET /api/calculators/{id}.
func (h *CalculatorHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.Catalog.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// Calculate handles POST /api/calculators/calculate/{type}.
func (h *CalculatorHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	calcType := models.CalculatorType(chi.URLParam(r, "type"))
	if !calcType.Valid() {
		writeMsg(w, http.StatusNotFound, "Unknown calculator type")
		return
	}

	res, err := h.calculate(r, calcType)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *CalculatorHandler) calculate(r *http.Request, t models.CalculatorType) (any, error) {
	ctx := r.Context()
	switch t {
	case models.Mortgage:
		var in models.MortgageInput
		if err := decodeJSON(r, &in); err != nil {
			return nil, err
		}
		return h.Calculations.Mortgage(ctx, in)
	case models.CarLoan:
		var in models.CarLoanInput
		if err := decodeJSON(r, &in); err != nil {
			return nil, err
		}
		return h.Calculations.CarLoan(ctx, in)
	case models.ConsumerLoan:
		var in models.ConsumerLoanInput
		if err := decodeJSON(r, &in); err != nil {
			return nil, err
		}
		return h.Calculations.ConsumerLoan(ctx, in)
	default:
		var in models.PensionInput
		if err := decodeJSON(r, &in); err != nil {
			return nil, err
		}
		return h.Calculations.Pension(ctx, in)
	}
}

// Email handles POST /api/calculators/email.
func (h *CalculatorHandler) Email(w http.ResponseWriter, r *http.Request) {
	var in models.EmailInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, h.Logger, err)
		return
	}

	if err := h.Notifier.SendResults(r.Context(), in); err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeMsg(w, http.StatusOK, "Email sent successfully")
}
